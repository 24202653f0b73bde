package handlers

import (
	"context"

	"github.com/orris-inc/helpdesk/internal/domain/profile"
	domainSession "github.com/orris-inc/helpdesk/internal/domain/session"
	"github.com/orris-inc/helpdesk/internal/infrastructure/auth"
)

// Backend interfaces for the handlers - enables unit testing with mocks.

type credentialService interface {
	SignUp(ctx context.Context, email, password string) (*domainSession.User, error)
	SignIn(ctx context.Context, email, password string) (*auth.Tokens, error)
	SignOut(ctx context.Context, sessionID string) error
	Refresh(ctx context.Context, refreshToken string) (*auth.Tokens, error)
	SendPasswordReset(ctx context.Context, email, redirectTo string) error
	ResetPassword(ctx context.Context, resetToken, newPassword string) error
}

type profileProvisioner interface {
	Provision(ctx context.Context, userID, email string, role profile.Role) (*profile.Profile, error)
}

type profileUpdater interface {
	Update(ctx context.Context, id string, patch profile.Patch) (*profile.Profile, error)
}
