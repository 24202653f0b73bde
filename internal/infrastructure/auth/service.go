// Package auth is the credentials backend: sign-up, sign-in, token refresh,
// revocation and password reset over the auth_* tables.
package auth

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	domainSession "github.com/orris-inc/helpdesk/internal/domain/session"
	"github.com/orris-inc/helpdesk/internal/infrastructure/email"
	"github.com/orris-inc/helpdesk/internal/infrastructure/persistence/models"
	"github.com/orris-inc/helpdesk/internal/infrastructure/pubsub"
	"github.com/orris-inc/helpdesk/internal/infrastructure/token"
	"github.com/orris-inc/helpdesk/internal/shared/biztime"
	"github.com/orris-inc/helpdesk/internal/shared/config"
	"github.com/orris-inc/helpdesk/internal/shared/db"
	"github.com/orris-inc/helpdesk/internal/shared/errors"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
)

// Tokens is the result of a sign-in or refresh.
type Tokens struct {
	SessionID    string    `json:"session_id"`
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Session converts the tokens into the client-side session value.
func (t *Tokens) Session() *domainSession.Session {
	return &domainSession.Session{
		ID:           t.SessionID,
		User:         domainSession.User{ID: t.UserID, Email: t.Email},
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		ExpiresAt:    t.ExpiresAt,
	}
}

type ServiceDeps struct {
	Store  *Store
	TxMgr  *db.TransactionManager
	JWT    *JWTService
	Hasher PasswordHasher
	Tokens token.TokenGenerator
	Mailer email.Mailer
	// Events is optional; revocations are announced when set.
	Events pubsub.SessionEventPublisher
	Logger logger.Interface
}

type Service struct {
	store    *Store
	txMgr    *db.TransactionManager
	jwt      *JWTService
	hasher   PasswordHasher
	tokens   token.TokenGenerator
	mailer   email.Mailer
	events   pubsub.SessionEventPublisher
	logger   logger.Interface
	validate *validator.Validate
	now      biztime.Clock

	minPasswordLength int
	refreshTTL        time.Duration
	resetTTL          time.Duration
	resetRedirect     string
}

func NewService(deps ServiceDeps, cfg config.AuthConfig) *Service {
	minLen := cfg.Password.MinLength
	if minLen <= 0 {
		minLen = 6
	}
	return &Service{
		store:             deps.Store,
		txMgr:             deps.TxMgr,
		jwt:               deps.JWT,
		hasher:            deps.Hasher,
		tokens:            deps.Tokens,
		mailer:            deps.Mailer,
		events:            deps.Events,
		logger:            deps.Logger,
		validate:          validator.New(),
		now:               biztime.NowUTC,
		minPasswordLength: minLen,
		refreshTTL:        cfg.RefreshTTL(),
		resetTTL:          cfg.ResetTTL(),
		resetRedirect:     cfg.Token.ResetRedirectURL,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) checkCredentials(email, password string) error {
	if err := s.validate.Var(email, "required,email"); err != nil {
		return errors.NewValidationError("a valid email is required")
	}
	if len(password) < s.minPasswordLength {
		return errors.NewValidationError("password is too short", "minimum length is "+strconv.Itoa(s.minPasswordLength))
	}
	return nil
}

// SignUp registers credentials. It does not create a session.
func (s *Service) SignUp(ctx context.Context, email, password string) (*domainSession.User, error) {
	email = normalizeEmail(email)
	if err := s.checkCredentials(email, password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, errors.NewInternalError("failed to hash password").WithCause(err)
	}

	now := biztime.ToMillis(s.now())
	user := &models.AuthUserModel{
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if !errors.IsConflictError(err) {
			s.logger.Errorw("failed to create user", "email", email, "error", err)
		}
		return nil, err
	}

	s.logger.Infow("user registered", "user_id", user.ID)
	return &domainSession.User{ID: user.ID, Email: user.Email}, nil
}

// SignIn checks credentials and opens a session.
func (s *Service) SignIn(ctx context.Context, email, password string) (*Tokens, error) {
	email = normalizeEmail(email)
	invalid := errors.NewUnauthorizedError("invalid email or password")

	user, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.IsNotFoundError(err) {
			return nil, invalid
		}
		s.logger.Errorw("failed to look up user", "error", err)
		return nil, err
	}

	if err := s.hasher.Verify(password, user.PasswordHash); err != nil {
		s.logger.Infow("sign in rejected", "user_id", user.ID)
		return nil, invalid
	}

	refresh, refreshHash, err := s.tokens.Generate(token.PrefixRefresh)
	if err != nil {
		return nil, errors.NewInternalError("failed to generate refresh token").WithCause(err)
	}

	now := s.now()
	session := &models.AuthSessionModel{
		UserID:           user.ID,
		RefreshTokenHash: refreshHash,
		ExpiresAt:        biztime.ToMillis(now.Add(s.refreshTTL)),
		CreatedAt:        biztime.ToMillis(now),
		LastRefreshedAt:  biztime.ToMillis(now),
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		s.logger.Errorw("failed to create session", "user_id", user.ID, "error", err)
		return nil, err
	}

	access, exp, err := s.jwt.Generate(user.ID, user.Email, session.ID)
	if err != nil {
		return nil, errors.NewInternalError("failed to issue access token").WithCause(err)
	}

	s.logger.Infow("user signed in", "user_id", user.ID, "session_id", session.ID)
	return &Tokens{
		SessionID:    session.ID,
		UserID:       user.ID,
		Email:        user.Email,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    exp,
	}, nil
}

// Refresh rotates the refresh token and issues a new access token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	invalid := errors.NewUnauthorizedError("refresh token is no longer valid")
	if refreshToken == "" {
		return nil, invalid
	}

	session, err := s.store.FindSessionByRefreshHash(ctx, s.tokens.Hash(refreshToken))
	if err != nil {
		if errors.IsNotFoundError(err) {
			return nil, invalid
		}
		return nil, err
	}

	now := s.now()
	if session.RevokedAt != nil || session.ExpiresAt <= biztime.ToMillis(now) {
		return nil, invalid
	}

	user, err := s.store.FindUserByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}

	next, nextHash, err := s.tokens.Generate(token.PrefixRefresh)
	if err != nil {
		return nil, errors.NewInternalError("failed to generate refresh token").WithCause(err)
	}
	if err := s.store.RotateSession(ctx, session.ID, session.RefreshTokenHash, nextHash, now.Add(s.refreshTTL), now); err != nil {
		return nil, err
	}

	access, exp, err := s.jwt.Generate(user.ID, user.Email, session.ID)
	if err != nil {
		return nil, errors.NewInternalError("failed to issue access token").WithCause(err)
	}

	s.logger.Debugw("session refreshed", "session_id", session.ID)
	return &Tokens{
		SessionID:    session.ID,
		UserID:       user.ID,
		Email:        user.Email,
		AccessToken:  access,
		RefreshToken: next,
		ExpiresAt:    exp,
	}, nil
}

// Authenticate validates an access token against its live session.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (*Claims, error) {
	claims, err := s.jwt.Verify(accessToken)
	if err != nil {
		return nil, errors.NewUnauthorizedError("invalid access token")
	}

	if _, err := s.store.FindActiveSession(ctx, claims.SessionID, s.now()); err != nil {
		if errors.IsNotFoundError(err) {
			return nil, errors.NewUnauthorizedError("session has ended")
		}
		return nil, err
	}
	return claims, nil
}

// SignOut revokes a session. Revoking an already ended session succeeds.
func (s *Service) SignOut(ctx context.Context, sessionID string) error {
	revoked, err := s.store.RevokeSession(ctx, sessionID, s.now())
	if err != nil {
		s.logger.Errorw("failed to revoke session", "session_id", sessionID, "error", err)
		return err
	}
	if !revoked {
		return nil
	}

	s.logger.Infow("user signed out", "session_id", sessionID)
	s.announce(ctx, sessionID, "", pubsub.ReasonSignOut)
	return nil
}

// SendPasswordReset mails a reset link. Unknown addresses succeed silently
// so the endpoint does not reveal which emails are registered.
func (s *Service) SendPasswordReset(ctx context.Context, email, redirectTo string) error {
	email = normalizeEmail(email)
	if err := s.validate.Var(email, "required,email"); err != nil {
		return errors.NewValidationError("a valid email is required")
	}

	user, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.IsNotFoundError(err) {
			s.logger.Infow("password reset requested for unknown email")
			return nil
		}
		return err
	}

	plain, hash, err := s.tokens.Generate(token.PrefixReset)
	if err != nil {
		return errors.NewInternalError("failed to generate reset token").WithCause(err)
	}

	now := s.now()
	if err := s.store.CreatePasswordReset(ctx, &models.PasswordResetModel{
		UserID:    user.ID,
		TokenHash: hash,
		ExpiresAt: biztime.ToMillis(now.Add(s.resetTTL)),
		CreatedAt: biztime.ToMillis(now),
	}); err != nil {
		return err
	}

	link, err := resetLink(redirectTo, s.resetRedirect, plain)
	if err != nil {
		return err
	}

	if err := s.mailer.SendPasswordResetEmail(user.Email, link, s.resetTTL); err != nil {
		s.logger.Errorw("failed to send password reset email", "user_id", user.ID, "error", err)
		return errors.NewInternalError("failed to send password reset email").WithCause(err)
	}

	s.logger.Infow("password reset email sent", "user_id", user.ID)
	return nil
}

func resetLink(redirectTo, fallback, plain string) (string, error) {
	target := redirectTo
	if target == "" {
		target = fallback
	}
	u, err := url.Parse(target)
	if err != nil || target == "" {
		return "", errors.NewValidationError("invalid reset redirect", target)
	}
	q := u.Query()
	q.Set("token", plain)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ResetPassword consumes a reset token, sets the new password and ends every
// session of the user, all in one transaction.
func (s *Service) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	if len(newPassword) < s.minPasswordLength {
		return errors.NewValidationError("password is too short", "minimum length is "+strconv.Itoa(s.minPasswordLength))
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return errors.NewInternalError("failed to hash password").WithCause(err)
	}

	now := s.now()
	var userID string
	var revoked []string
	err = s.txMgr.RunInTransaction(ctx, func(ctx context.Context) error {
		reset, err := s.store.ConsumePasswordReset(ctx, s.tokens.Hash(resetToken), now)
		if err != nil {
			return err
		}
		userID = reset.UserID

		if err := s.store.UpdatePassword(ctx, reset.UserID, hash, now); err != nil {
			return err
		}

		revoked, err = s.store.RevokeUserSessions(ctx, reset.UserID, now)
		return err
	})
	if err != nil {
		if !errors.IsValidationError(err) {
			s.logger.Errorw("failed to reset password", "error", err)
		}
		return err
	}

	s.logger.Infow("password reset", "user_id", userID, "revoked_sessions", len(revoked))
	for _, id := range revoked {
		s.announce(ctx, id, userID, pubsub.ReasonPasswordReset)
	}

	if user, err := s.store.FindUserByID(ctx, userID); err == nil {
		if err := s.mailer.SendPasswordChangedEmail(user.Email); err != nil {
			s.logger.Warnw("failed to send password changed email", "user_id", userID, "error", err)
		}
	}
	return nil
}

// PurgeExpired removes dead sessions and reset tokens.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	sessions, resets, err := s.store.PurgeExpired(ctx, s.now())
	if err != nil {
		s.logger.Errorw("failed to purge expired auth rows", "error", err)
		return sessions + resets, err
	}
	if sessions+resets > 0 {
		s.logger.Infow("purged expired auth rows", "sessions", sessions, "password_resets", resets)
	}
	return sessions + resets, nil
}

func (s *Service) announce(ctx context.Context, sessionID, userID string, reason pubsub.RevocationReason) {
	if s.events == nil {
		return
	}
	event := pubsub.SessionRevokedEvent{SessionID: sessionID, UserID: userID, Reason: reason}
	if err := s.events.PublishRevoked(ctx, event); err != nil {
		s.logger.Warnw("failed to announce session revocation", "session_id", sessionID, "error", err)
	}
}
