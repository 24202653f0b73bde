package auth

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/helpdesk/internal/infrastructure/pubsub"
	"github.com/orris-inc/helpdesk/internal/infrastructure/token"
	"github.com/orris-inc/helpdesk/internal/shared/errors"
)

func TestService_SignUp(t *testing.T) {
	f := newServiceFixture(t, nil)
	ctx := context.Background()

	user, err := f.svc.SignUp(ctx, "  Alice@Example.COM ", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "alice@example.com", user.Email)

	_, err = f.svc.SignUp(ctx, "alice@example.com", "another1")
	assert.True(t, errors.IsConflictError(err))
}

func TestService_SignUp_Validation(t *testing.T) {
	f := newServiceFixture(t, nil)
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"missing email", "", "secret1"},
		{"malformed email", "not-an-email", "secret1"},
		{"short password", "bob@example.com", "12345"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.SignUp(ctx, tt.email, tt.password)
			assert.True(t, errors.IsValidationError(err))
		})
	}
}

func TestService_SignIn(t *testing.T) {
	f := newServiceFixture(t, nil)
	ctx := context.Background()

	user, err := f.svc.SignUp(ctx, "carol@example.com", "secret1")
	require.NoError(t, err)

	tokens, err := f.svc.SignIn(ctx, "CAROL@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, tokens.UserID)
	assert.NotEmpty(t, tokens.SessionID)
	assert.True(t, strings.HasPrefix(tokens.RefreshToken, token.PrefixRefresh))
	assert.Equal(t, baseTime.Add(15*time.Minute), tokens.ExpiresAt)

	claims, err := f.svc.Authenticate(ctx, tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, tokens.SessionID, claims.SessionID)

	session := tokens.Session()
	assert.Equal(t, tokens.SessionID, session.ID)
	assert.Equal(t, "carol@example.com", session.User.Email)
}

func TestService_SignIn_Rejected(t *testing.T) {
	f := newServiceFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.SignUp(ctx, "dave@example.com", "secret1")
	require.NoError(t, err)

	_, err = f.svc.SignIn(ctx, "dave@example.com", "wrong-password")
	assert.True(t, errors.IsUnauthorizedError(err))

	_, err = f.svc.SignIn(ctx, "nobody@example.com", "secret1")
	assert.True(t, errors.IsUnauthorizedError(err))
}

func TestService_SignOut(t *testing.T) {
	pub := &recordingPublisher{}
	f := newServiceFixture(t, pub)
	ctx := context.Background()

	_, err := f.svc.SignUp(ctx, "erin@example.com", "secret1")
	require.NoError(t, err)
	tokens, err := f.svc.SignIn(ctx, "erin@example.com", "secret1")
	require.NoError(t, err)

	require.NoError(t, f.svc.SignOut(ctx, tokens.SessionID))

	_, err = f.svc.Authenticate(ctx, tokens.AccessToken)
	assert.True(t, errors.IsUnauthorizedError(err))

	_, err = f.svc.Refresh(ctx, tokens.RefreshToken)
	assert.True(t, errors.IsUnauthorizedError(err))

	// Second sign-out is quiet.
	require.NoError(t, f.svc.SignOut(ctx, tokens.SessionID))

	events := pub.Events()
	require.Len(t, events, 1)
	assert.Equal(t, tokens.SessionID, events[0].SessionID)
	assert.Equal(t, pubsub.ReasonSignOut, events[0].Reason)
}

func TestService_Refresh_Rotates(t *testing.T) {
	f := newServiceFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.SignUp(ctx, "frank@example.com", "secret1")
	require.NoError(t, err)
	first, err := f.svc.SignIn(ctx, "frank@example.com", "secret1")
	require.NoError(t, err)

	f.clock.Advance(20 * time.Minute)

	_, err = f.svc.Authenticate(ctx, first.AccessToken)
	assert.True(t, errors.IsUnauthorizedError(err), "access token expired")

	second, err := f.svc.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, first.SessionID, second.SessionID)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.Equal(t, baseTime.Add(35*time.Minute), second.ExpiresAt)

	_, err = f.svc.Authenticate(ctx, second.AccessToken)
	require.NoError(t, err)

	_, err = f.svc.Refresh(ctx, first.RefreshToken)
	assert.True(t, errors.IsUnauthorizedError(err), "replayed refresh token")

	_, err = f.svc.Refresh(ctx, "")
	assert.True(t, errors.IsUnauthorizedError(err))
}

func TestService_Refresh_ExpiredSession(t *testing.T) {
	f := newServiceFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.SignUp(ctx, "gina@example.com", "secret1")
	require.NoError(t, err)
	tokens, err := f.svc.SignIn(ctx, "gina@example.com", "secret1")
	require.NoError(t, err)

	f.clock.Advance(8 * 24 * time.Hour)

	_, err = f.svc.Refresh(ctx, tokens.RefreshToken)
	assert.True(t, errors.IsUnauthorizedError(err))
}

func resetTokenFrom(t *testing.T, link string) string {
	t.Helper()
	u, err := url.Parse(link)
	require.NoError(t, err)
	return u.Query().Get("token")
}

func TestService_PasswordReset(t *testing.T) {
	pub := &recordingPublisher{}
	f := newServiceFixture(t, pub)
	ctx := context.Background()

	_, err := f.svc.SignUp(ctx, "hank@example.com", "secret1")
	require.NoError(t, err)
	a, err := f.svc.SignIn(ctx, "hank@example.com", "secret1")
	require.NoError(t, err)
	b, err := f.svc.SignIn(ctx, "hank@example.com", "secret1")
	require.NoError(t, err)

	require.NoError(t, f.svc.SendPasswordReset(ctx, "hank@example.com", "https://desk.example.com/reset"))

	sent := f.mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "hank@example.com", sent[0].To)
	assert.True(t, strings.HasPrefix(sent[0].URL, "https://desk.example.com/reset?token="+token.PrefixReset))

	plain := resetTokenFrom(t, sent[0].URL)
	require.NoError(t, f.svc.ResetPassword(ctx, plain, "newsecret"))

	for _, tokens := range []*Tokens{a, b} {
		_, err = f.svc.Authenticate(ctx, tokens.AccessToken)
		assert.True(t, errors.IsUnauthorizedError(err))
	}

	_, err = f.svc.SignIn(ctx, "hank@example.com", "secret1")
	assert.True(t, errors.IsUnauthorizedError(err))
	_, err = f.svc.SignIn(ctx, "hank@example.com", "newsecret")
	require.NoError(t, err)

	events := pub.Events()
	require.Len(t, events, 2)
	for _, ev := range events {
		assert.Equal(t, pubsub.ReasonPasswordReset, ev.Reason)
		assert.Equal(t, a.UserID, ev.UserID)
	}

	sent = f.mailer.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "Password Changed", sent[1].Subject)

	err = f.svc.ResetPassword(ctx, plain, "thirdsecret")
	assert.True(t, errors.IsValidationError(err), "token is single use")
}

func TestService_PasswordReset_DefaultRedirect(t *testing.T) {
	f := newServiceFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.SignUp(ctx, "ivy@example.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, f.svc.SendPasswordReset(ctx, "ivy@example.com", ""))

	sent := f.mailer.Sent()
	require.Len(t, sent, 1)
	assert.True(t, strings.HasPrefix(sent[0].URL, "http://localhost:5173/reset-password?token="))
}

func TestService_PasswordReset_UnknownEmail(t *testing.T) {
	f := newServiceFixture(t, nil)

	require.NoError(t, f.svc.SendPasswordReset(context.Background(), "ghost@example.com", ""))
	assert.Empty(t, f.mailer.Sent())

	err := f.svc.SendPasswordReset(context.Background(), "bad", "")
	assert.True(t, errors.IsValidationError(err))
}

func TestService_ResetPassword_Rejects(t *testing.T) {
	f := newServiceFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.SignUp(ctx, "jack@example.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, f.svc.SendPasswordReset(ctx, "jack@example.com", ""))
	plain := resetTokenFrom(t, f.mailer.Sent()[0].URL)

	err = f.svc.ResetPassword(ctx, plain, "short")
	assert.True(t, errors.IsValidationError(err))

	err = f.svc.ResetPassword(ctx, "pr_unknown", "newsecret")
	assert.True(t, errors.IsValidationError(err))

	f.clock.Advance(31 * time.Minute)
	err = f.svc.ResetPassword(ctx, plain, "newsecret")
	assert.True(t, errors.IsValidationError(err), "expired token")

	_, err = f.svc.SignIn(ctx, "jack@example.com", "secret1")
	require.NoError(t, err, "password unchanged")
}

func TestService_PurgeExpired(t *testing.T) {
	f := newServiceFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.SignUp(ctx, "kate@example.com", "secret1")
	require.NoError(t, err)
	revoked, err := f.svc.SignIn(ctx, "kate@example.com", "secret1")
	require.NoError(t, err)
	live, err := f.svc.SignIn(ctx, "kate@example.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, f.svc.SignOut(ctx, revoked.SessionID))
	require.NoError(t, f.svc.SendPasswordReset(ctx, "kate@example.com", ""))

	n, err := f.svc.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = f.svc.Authenticate(ctx, live.AccessToken)
	require.NoError(t, err)

	f.clock.Advance(8 * 24 * time.Hour)
	n, err = f.svc.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
