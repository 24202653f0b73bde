package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/orris-inc/helpdesk/internal/domain/profile"
)

func rolePtr(r profile.Role) *profile.Role { return &r }

func TestDecideNavigation(t *testing.T) {
	tests := []struct {
		name          string
		authenticated bool
		role          *profile.Role
		path          string
		want          Intent
	}{
		{"anonymous on protected page", false, nil, "/admin", Intent{Redirect: true, Target: "/"}},
		{"anonymous on root", false, nil, "/", Intent{}},
		{"anonymous on register", false, nil, "/register", Intent{}},
		{"anonymous on forgot password", false, nil, "/forgot-password", Intent{}},
		{"anonymous with query", false, nil, "/register?ref=mail", Intent{}},
		{"customer at root", true, rolePtr(profile.RoleCustomer), "/", Intent{Redirect: true, Target: "/customer"}},
		{"admin at root", true, rolePtr(profile.RoleAdmin), "/", Intent{Redirect: true, Target: "/admin"}},
		{"admin inside own area", true, rolePtr(profile.RoleAdmin), "/admin/settings", Intent{}},
		{"admin at home with trailing slash", true, rolePtr(profile.RoleAdmin), "/admin/", Intent{}},
		{"customer in admin area", true, rolePtr(profile.RoleCustomer), "/admin", Intent{Redirect: true, Target: "/customer"}},
		{"prefix is not a segment match", true, rolePtr(profile.RoleAdmin), "/administrator", Intent{Redirect: true, Target: "/admin"}},
		{"customer on register", true, rolePtr(profile.RoleCustomer), "/register", Intent{Redirect: true, Target: "/customer"}},
		{"authenticated without role", true, nil, "/admin", Intent{}},
		{"authenticated with unknown role", true, rolePtr(profile.Role("owner")), "/", Intent{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecideNavigation(tt.authenticated, tt.role, tt.path))
		})
	}
}

func TestNavigationFor_GatedUntilReady(t *testing.T) {
	assert.Equal(t, Intent{}, NavigationFor(State{Loading: true}, "/admin"))
	assert.Equal(t, Intent{}, NavigationFor(State{Initialized: true, Loading: true}, "/admin"))
	assert.Equal(t, Intent{Redirect: true, Target: "/"}, NavigationFor(State{Initialized: true}, "/admin"))
}

func TestIsPublicPath(t *testing.T) {
	assert.True(t, IsPublicPath(""))
	assert.True(t, IsPublicPath("/forgot-password/"))
	assert.False(t, IsPublicPath("/customer"))
}
