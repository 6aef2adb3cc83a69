package authsvc

import (
	"testing"

	"github.com/stretchr/testify/assert"

	models "github.com/armadillica/pillar-sub000/internal/api/auth/models"
)

func TestCapabilitiesForRoles(t *testing.T) {
	tests := []struct {
		name  string
		roles []string
		want  []string
	}{
		{
			name:  "subscriber",
			roles: []string{"subscriber"},
			want:  []string{CapHomeProject, CapSubscriber},
		},
		{
			name:  "demo giống subscriber",
			roles: []string{"demo"},
			want:  []string{CapHomeProject, CapSubscriber},
		},
		{
			name:  "org role cấp subscriber theo IP",
			roles: []string{"org-subscriber"},
			want:  []string{CapHomeProject, CapSubscriber},
		},
		{
			name:  "role không có trong bảng",
			roles: []string{"service"},
			want:  []string{},
		},
		{
			name:  "hợp của nhiều role không trùng lặp",
			roles: []string{"subscriber", "org-subscriber"},
			want:  []string{CapHomeProject, CapSubscriber},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CapabilitiesForRoles(tc.roles))
		})
	}
}

func TestCapabilitiesForRoles_Admin(t *testing.T) {
	caps := CapabilitiesForRoles([]string{models.RoleAdmin})
	assert.Contains(t, caps, CapAdmin)
	assert.Contains(t, caps, CapVideoEncoding)
	assert.Contains(t, caps, CapCreateOrganization)
}

func TestAuthSessionRoleChecks(t *testing.T) {
	session := &AuthSession{
		User:           models.User{Roles: []string{"subscriber"}},
		EffectiveRoles: []string{"subscriber", "org-subscriber"},
		Capabilities:   CapabilitiesForRoles([]string{"subscriber", "org-subscriber"}),
	}

	assert.True(t, session.HasRole("subscriber"))
	assert.True(t, session.HasRole("org-subscriber"))
	assert.True(t, session.HasRole("demo", "subscriber"))
	assert.False(t, session.HasRole("admin"))
	assert.False(t, session.IsAdmin())

	assert.True(t, session.HasCap(CapSubscriber))
	assert.False(t, session.HasCap(CapAdmin))
}

func TestAuthSessionAdmin(t *testing.T) {
	session := &AuthSession{
		EffectiveRoles: []string{models.RoleAdmin},
		Capabilities:   CapabilitiesForRoles([]string{models.RoleAdmin}),
	}
	assert.True(t, session.IsAdmin())
	assert.True(t, session.HasCap(CapVideoEncoding))
}
