package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUser_HomePath(t *testing.T) {
	tests := []struct {
		role string
		want string
	}{
		{role: RoleUser, want: PathDashboard},
		{role: "", want: PathDashboard},
		{role: RoleSchoolAdmin, want: PathAdmin},
		{role: RoleSuperAdmin, want: PathSuperAdmin},
		{role: "superadmin", want: PathSuperAdmin},
	}
	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			assert.Equal(t, tt.want, User{Role: tt.role}.HomePath())
		})
	}
}

func TestUser_HasAnyRole(t *testing.T) {
	usr := User{Role: "superadmin"}
	assert.True(t, usr.HasAnyRole())
	assert.True(t, usr.HasAnyRole(RoleSuperAdmin))
	assert.True(t, User{Role: RoleSuperAdmin}.HasAnyRole("superadmin"))
	assert.False(t, usr.HasAnyRole(RoleSchoolAdmin, RoleUser))
}
