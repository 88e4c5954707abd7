package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/docurail/metrodocs-backend/pkg/config"
	"github.com/docurail/metrodocs-backend/pkg/db"
	"github.com/docurail/metrodocs-backend/pkg/db/models"
	"github.com/docurail/metrodocs-backend/pkg/enums"
	pkgerrors "github.com/docurail/metrodocs-backend/pkg/errors"
	"github.com/docurail/metrodocs-backend/pkg/pagination"
	"github.com/docurail/metrodocs-backend/pkg/security"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const tempPasswordLength = 16

// Service defines the user management operations exposed to controllers.
type Service interface {
	Create(ctx context.Context, req CreateUserRequest) (*CreateUserResult, error)
	Get(ctx context.Context, id uuid.UUID) (*UserDTO, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateUserRequest) (*UserDTO, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type userRepository interface {
	Create(ctx context.Context, dto CreateUserDTO) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context, params listUsersParams) ([]models.User, *pagination.Cursor, error)
	Update(ctx context.Context, id uuid.UUID, dto UpdateUserDTO) (*models.User, error)
	Deactivate(ctx context.Context, id uuid.UUID) (bool, error)
}

type departmentChecker interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type service struct {
	repo        userRepository
	departments departmentChecker
	passwordCfg config.PasswordConfig
}

// CreateUserRequest is the payload accepted when an administrator provisions a user.
type CreateUserRequest struct {
	Name         string     `json:"name" validate:"required,min=2,max=120"`
	Email        string     `json:"email" validate:"required,email"`
	Phone        *string    `json:"phone,omitempty" validate:"omitempty,min=7,max=20"`
	Role         string     `json:"role" validate:"required"`
	DepartmentID *uuid.UUID `json:"department_id,omitempty"`
}

// CreateUserResult returns the stored user along with the generated one-time password.
type CreateUserResult struct {
	User         *UserDTO `json:"user"`
	TempPassword string   `json:"temp_password"`
}

// UpdateUserRequest carries the mutable fields for a user update.
type UpdateUserRequest struct {
	Name         *string    `json:"name,omitempty" validate:"omitempty,min=2,max=120"`
	Phone        *string    `json:"phone,omitempty" validate:"omitempty,min=7,max=20"`
	Role         *string    `json:"role,omitempty"`
	DepartmentID *uuid.UUID `json:"department_id,omitempty"`
	IsActive     *bool      `json:"is_active,omitempty"`
}

// ListParams configures filtering and pagination of the user directory.
type ListParams struct {
	DepartmentID *uuid.UUID
	Role         string
	Limit        int
	Cursor       string
}

// ListResult wraps returned users and the cursor for the next page.
type ListResult struct {
	Items  []UserDTO `json:"items"`
	Cursor string    `json:"cursor"`
}

// ServiceParams bundles the dependencies required to build a users service.
type ServiceParams struct {
	Repo           userRepository
	Departments    departmentChecker
	PasswordConfig config.PasswordConfig
}

// NewService constructs a users service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("users repository is required")
	}
	if params.Departments == nil {
		return nil, fmt.Errorf("departments checker is required")
	}
	return &service{
		repo:        params.Repo,
		departments: params.Departments,
		passwordCfg: params.PasswordConfig,
	}, nil
}

func (s *service) Create(ctx context.Context, req CreateUserRequest) (*CreateUserResult, error) {
	role, err := enums.ParseUserRole(req.Role)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role")
	}
	departmentID, err := s.resolveDepartment(ctx, role, req.DepartmentID)
	if err != nil {
		return nil, err
	}

	tempPassword, err := security.GenerateTempPassword(tempPasswordLength)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate password")
	}
	hash, err := security.HashPassword(tempPassword, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user, err := s.repo.Create(ctx, CreateUserDTO{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:        req.Phone,
		PasswordHash: hash,
		Role:         role,
		DepartmentID: departmentID,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email or phone already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}

	return &CreateUserResult{User: FromModel(user), TempPassword: tempPassword}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}
	return FromModel(user), nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	query := listUsersParams{
		DepartmentID: params.DepartmentID,
		Limit:        pagination.NormalizeLimit(params.Limit),
	}
	if params.Role != "" {
		role, err := enums.ParseUserRole(params.Role)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role filter")
		}
		query.Role = &role
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}

	items := make([]UserDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *FromModel(&rows[i]))
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: items, Cursor: cursor}, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, req UpdateUserRequest) (*UserDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	dto := UpdateUserDTO{
		Name:         req.Name,
		Phone:        req.Phone,
		DepartmentID: req.DepartmentID,
		IsActive:     req.IsActive,
	}

	var role enums.UserRole
	if req.Role != nil {
		parsed, err := enums.ParseUserRole(*req.Role)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role")
		}
		role = parsed
		dto.Role = &role
	}

	if dto.Role != nil || dto.DepartmentID != nil {
		current, err := s.repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
		}

		effectiveRole := current.Role
		if dto.Role != nil {
			effectiveRole = *dto.Role
		}
		effectiveDepartment := current.DepartmentID
		if dto.DepartmentID != nil {
			effectiveDepartment = dto.DepartmentID
		}
		resolved, err := s.resolveDepartment(ctx, effectiveRole, effectiveDepartment)
		if err != nil {
			return nil, err
		}
		if dto.DepartmentID != nil {
			dto.DepartmentID = resolved
		}
	}

	user, err := s.repo.Update(ctx, id, dto)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email or phone already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user")
	}
	return FromModel(user), nil
}

func (s *service) Deactivate(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	found, err := s.repo.Deactivate(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate user")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return nil
}

func (s *service) resolveDepartment(ctx context.Context, role enums.UserRole, departmentID *uuid.UUID) (*uuid.UUID, error) {
	if role.RequiresDepartment() && (departmentID == nil || *departmentID == uuid.Nil) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s users must belong to a department", role))
	}
	if departmentID == nil || *departmentID == uuid.Nil {
		return nil, nil
	}
	exists, err := s.departments.Exists(ctx, *departmentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup department")
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "department not found")
	}
	return departmentID, nil
}
