package enums

import "fmt"

// UserRole represents an organization-level permissions role.
type UserRole string

const (
	UserRoleAdmin    UserRole = "Admin"
	UserRoleEmployee UserRole = "Employee"
	UserRoleViewer   UserRole = "Viewer"
)

var validUserRoles = []UserRole{
	UserRoleAdmin,
	UserRoleEmployee,
	UserRoleViewer,
}

// String implements fmt.Stringer.
func (u UserRole) String() string {
	return string(u)
}

// IsValid reports whether the value is a known UserRole.
func (u UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == u {
			return true
		}
	}
	return false
}

// RequiresDepartment reports whether users holding this role must belong to a department.
func (u UserRole) RequiresDepartment() bool {
	return u != UserRoleAdmin
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
