package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/docurail/metrodocs-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID       uuid.UUID
	Email        string
	Name         string
	Role         enums.UserRole
	DepartmentID *uuid.UUID
}

// AccessTokenClaims represents the typed JWT issued to clients. The claim
// names match the tokens the platform has always issued: principal id under
// "id" with a legacy duplicate under "userId", plus email, name, role and
// the department reference.
type AccessTokenClaims struct {
	UserID       uuid.UUID      `json:"id"`
	LegacyUserID *uuid.UUID     `json:"userId,omitempty"`
	Email        string         `json:"email"`
	Name         string         `json:"name,omitempty"`
	Role         enums.UserRole `json:"role"`
	DepartmentID *uuid.UUID     `json:"department,omitempty"`
	jwt.RegisteredClaims
}

// PrincipalID returns the acting user id, falling back to the legacy
// "userId" claim when "id" is absent.
func (c *AccessTokenClaims) PrincipalID() uuid.UUID {
	if c == nil {
		return uuid.Nil
	}
	if c.UserID != uuid.Nil {
		return c.UserID
	}
	if c.LegacyUserID != nil {
		return *c.LegacyUserID
	}
	return uuid.Nil
}
