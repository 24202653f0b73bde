package session

import (
	"strings"

	"github.com/orris-inc/helpdesk/internal/domain/profile"
)

const (
	PathRoot           = "/"
	PathRegister       = "/register"
	PathForgotPassword = "/forgot-password"
)

var publicPaths = map[string]bool{
	PathRoot:           true,
	PathRegister:       true,
	PathForgotPassword: true,
}

// Intent is a navigation decision. The zero value means stay.
type Intent struct {
	Redirect bool   `json:"redirect"`
	Target   string `json:"target,omitempty"`
}

func redirectTo(path string) Intent {
	return Intent{Redirect: true, Target: path}
}

// IsPublicPath reports whether path is reachable without a session.
func IsPublicPath(path string) bool {
	return publicPaths[normalizePath(path)]
}

// DecideNavigation maps auth state, resolved role and location to an intent.
// An authenticated user whose role is still unknown is never redirected.
func DecideNavigation(authenticated bool, role *profile.Role, path string) Intent {
	path = normalizePath(path)

	if !authenticated {
		if publicPaths[path] {
			return Intent{}
		}
		return redirectTo(PathRoot)
	}

	if role == nil || !role.IsValid() {
		return Intent{}
	}

	home := role.HomePath()
	if path == home || strings.HasPrefix(path, home+"/") {
		return Intent{}
	}
	return redirectTo(home)
}

// NavigationFor applies DecideNavigation only once the state is settled.
func NavigationFor(state State, path string) Intent {
	if !state.Initialized || state.Loading {
		return Intent{}
	}
	return DecideNavigation(state.Authenticated(), state.Role(), path)
}

func normalizePath(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return PathRoot
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = PathRoot
		}
	}
	return path
}
