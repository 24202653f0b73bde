// Package session defines the authentication contract consumed by the
// session coordinator.
package session

import (
	"context"
	"time"
)

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type Session struct {
	ID           string    `json:"id"`
	User         User      `json:"user"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// IsExpired reports whether the access token is no longer valid at now.
func (s *Session) IsExpired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

type EventKind string

const (
	EventSignedIn       EventKind = "SIGNED_IN"
	EventSignedOut      EventKind = "SIGNED_OUT"
	EventTokenRefreshed EventKind = "TOKEN_REFRESHED"
	EventUserUpdated    EventKind = "USER_UPDATED"
)

// Event is one session-change notification. Session is nil after sign-out.
type Event struct {
	Kind    EventKind
	Session *Session
}

// User returns the user carried by the event, or nil.
func (e Event) User() *User {
	if e.Session == nil {
		return nil
	}
	return &e.Session.User
}

// Listener receives session-change events.
type Listener func(Event)

// AuthClient is the client-side view of the auth backend. Session state
// changes are announced only through Subscribe.
type AuthClient interface {
	// GetSession returns the current session, or nil when signed out.
	GetSession(ctx context.Context) (*Session, error)
	SignUp(ctx context.Context, email, password string) (*User, error)
	SignIn(ctx context.Context, email, password string) error
	SignOut(ctx context.Context) error
	SendPasswordReset(ctx context.Context, email, redirectTo string) error
	// Subscribe registers l until the returned func is called.
	Subscribe(l Listener) (unsubscribe func())
}
