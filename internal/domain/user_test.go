package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	r, err := ParseRole(" manager ")
	require.NoError(t, err)
	assert.Equal(t, RoleManager, r)

	for _, bad := range []string{"", "root", "ADMINS", "user"} {
		_, err := ParseRole(bad)
		assert.ErrorIs(t, err, ErrInvalidRole, bad)
	}
}

func TestDefaultActive(t *testing.T) {
	want := map[Role]bool{
		RoleAdmin:    true,
		RoleOwner:    true,
		RoleHR:       true,
		RoleEmployee: true,
		RoleManager:  false,
		RoleSupplier: false,
		RoleBuyer:    false,
	}
	require.Len(t, want, len(AllRoles()))
	for role, active := range want {
		assert.Equal(t, active, DefaultActive(role), role)
	}
}

func TestCanSignIn(t *testing.T) {
	assert.False(t, (&User{Role: RoleBuyer}).CanSignIn())
	assert.True(t, (&User{Role: RoleBuyer, IsActive: true}).CanSignIn())
	// 非受限角色不看激活位
	assert.True(t, (&User{Role: RoleHR}).CanSignIn())
}

func TestViewOmitsPasswordHash(t *testing.T) {
	u := &User{ID: "1", Email: "a@x.com", PasswordHash: "secret-hash", Role: RoleHR}
	v := u.View()
	assert.Equal(t, "a@x.com", v.Email)
	assert.NotContains(t, []any{v.ID, v.Email, v.FirstName, v.LastName, v.Phone, v.Address}, "secret-hash")

	var nilUser *User
	assert.Nil(t, nilUser.View())
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "alice@x.com", NormalizeEmail("  Alice@X.com "))
}
