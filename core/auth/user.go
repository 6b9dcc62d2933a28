// Package auth holds the client side of authentication: the session kept in
// storage, the role-based route guard and the OTP password reset flow.
package auth

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/schoolhub/core"
)

// Roles
const (
	RoleUser        = "user"
	RoleSchoolAdmin = "schoolAdmin"
	RoleSuperAdmin  = "superAdmin"

	roleSuperAdminLegacy = "superadmin"
)

// Landing paths
const (
	PathHome       = "/"
	PathLogin      = "/login"
	PathDashboard  = "/dashboard"
	PathAdmin      = "/admin"
	PathSuperAdmin = "/superadmin"
)

type (
	User struct {
		ID       string `json:"_id"`
		Name     string `json:"name"`
		Email    string `json:"email"`
		Role     string `json:"role"`
		Phone    string `json:"phone,omitempty"`
		City     string `json:"city,omitempty"`
		IsActive *bool  `json:"isActive,omitempty"`
	}

	// AuthResult is what the directory answers to a login, a registration or a password reset.
	AuthResult struct {
		Token string `json:"token"`
		User  User   `json:"user"`
	}

	Credentials struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	Registration struct {
		Name     string `json:"name" validate:"required"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
		Phone    string `json:"phone,omitempty"`
		City     string `json:"city,omitempty"`
		Role     string `json:"role,omitempty" validate:"omitempty,oneof=user schoolAdmin"`
	}

	// Backend is the directory API as seen by the session and the reset flow.
	Backend interface {
		Login(ctx context.Context, creds Credentials) (AuthResult, error)
		Register(ctx context.Context, reg Registration) (AuthResult, error)
		Me(ctx context.Context) (User, error)
		// SendOTP asks the directory to email a one-time password; it returns the directory's message.
		SendOTP(ctx context.Context, email string) (string, error)
		VerifyOTP(ctx context.Context, email, otp string) (string, error)
		ResetPassword(ctx context.Context, email, otp, password string) (AuthResult, error)
	}
)

// NormalizeRole maps legacy role spellings to the current ones.
func NormalizeRole(role string) string {
	if role == roleSuperAdminLegacy {
		return RoleSuperAdmin
	}
	return role
}

func (u User) IsSchoolAdmin() bool {
	return u.Role == RoleSchoolAdmin
}

func (u User) IsSuperAdmin() bool {
	return NormalizeRole(u.Role) == RoleSuperAdmin
}

// HasAnyRole reports whether the user has one of roles. No roles means any user.
func (u User) HasAnyRole(roles ...string) bool {
	if len(roles) == 0 {
		return true
	}
	role := NormalizeRole(u.Role)
	for _, r := range roles {
		if NormalizeRole(r) == role {
			return true
		}
	}
	return false
}

// HomePath is where the user lands after logging in.
func (u User) HomePath() string {
	switch {
	case u.IsSchoolAdmin():
		return PathAdmin
	case u.IsSuperAdmin():
		return PathSuperAdmin
	default:
		return PathDashboard
	}
}

func (c *Credentials) Validate(validate *validator.Validate) error {
	c.Email = core.CleanString(c.Email, true /* lower */)
	return validate.Struct(c)
}

func (r *Registration) Validate(validate *validator.Validate) error {
	r.Name = core.CleanString(r.Name)
	r.Email = core.CleanString(r.Email, true /* lower */)
	r.Phone = core.CleanString(r.Phone)
	r.City = core.CleanString(r.City)
	return validate.Struct(r)
}
