package auth

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/orris-inc/helpdesk/internal/infrastructure/email"
	"github.com/orris-inc/helpdesk/internal/infrastructure/persistence/models"
	"github.com/orris-inc/helpdesk/internal/infrastructure/pubsub"
	"github.com/orris-inc/helpdesk/internal/infrastructure/token"
	"github.com/orris-inc/helpdesk/internal/shared/config"
	"github.com/orris-inc/helpdesk/internal/shared/db"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
)

var baseTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "auth.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(
		&models.AuthUserModel{},
		&models.AuthSessionModel{},
		&models.PasswordResetModel{},
	))

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return gdb
}

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		Password: config.PasswordConfig{BcryptCost: bcrypt.MinCost, MinLength: 6},
		Token: config.TokenConfig{
			ResetExpiresMinutes: 30,
			ResetRedirectURL:    "http://localhost:5173/reset-password",
		},
		JWT: config.JWTConfig{
			Secret:           "test-secret-0123456789",
			Issuer:           "helpdesk",
			AccessExpMinutes: 15,
			RefreshExpDays:   7,
		},
	}
}

// testClock is a settable clock shared by the service and its JWT issuer.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []pubsub.SessionRevokedEvent
}

func (p *recordingPublisher) PublishRevoked(_ context.Context, event pubsub.SessionRevokedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Events() []pubsub.SessionRevokedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]pubsub.SessionRevokedEvent(nil), p.events...)
}

type serviceFixture struct {
	svc    *Service
	mailer *email.LogMailer
	clock  *testClock
}

func newServiceFixture(t *testing.T, events pubsub.SessionEventPublisher) *serviceFixture {
	t.Helper()
	gdb := setupTestDB(t)
	cfg := testAuthConfig()
	log := logger.NewNop()
	mailer := email.NewLogMailer(log)
	clock := &testClock{now: baseTime}

	jwtSvc := NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.AccessTTL())
	jwtSvc.now = clock.Now

	svc := NewService(ServiceDeps{
		Store:  NewStore(gdb),
		TxMgr:  db.NewTransactionManager(gdb),
		JWT:    jwtSvc,
		Hasher: NewBcryptPasswordHasher(cfg.Password.BcryptCost),
		Tokens: token.NewTokenGenerator(),
		Mailer: mailer,
		Events: events,
		Logger: log,
	}, cfg)
	svc.now = clock.Now

	return &serviceFixture{svc: svc, mailer: mailer, clock: clock}
}
