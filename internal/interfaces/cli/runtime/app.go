// Package runtime wires the infrastructure shared by the server and console
// commands.
package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
	"gorm.io/gorm"

	"github.com/orris-inc/helpdesk/internal/application/session"
	ticketApp "github.com/orris-inc/helpdesk/internal/application/ticket"
	"github.com/orris-inc/helpdesk/internal/infrastructure/auth"
	"github.com/orris-inc/helpdesk/internal/infrastructure/config"
	"github.com/orris-inc/helpdesk/internal/infrastructure/email"
	"github.com/orris-inc/helpdesk/internal/infrastructure/permission"
	"github.com/orris-inc/helpdesk/internal/infrastructure/pubsub"
	"github.com/orris-inc/helpdesk/internal/infrastructure/ratelimit"
	"github.com/orris-inc/helpdesk/internal/infrastructure/repository"
	"github.com/orris-inc/helpdesk/internal/infrastructure/storage"
	"github.com/orris-inc/helpdesk/internal/infrastructure/token"
	"github.com/orris-inc/helpdesk/internal/shared/db"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
	"github.com/orris-inc/helpdesk/internal/shared/services/markdown"
)

const redisPingTimeout = 5 * time.Second

// Options overrides parts of the wiring, mostly for tests.
type Options struct {
	// Fs replaces the OS-backed attachments bucket.
	Fs afero.Fs
	// Redis replaces the client built from configuration. Setting it implies
	// redis is enabled.
	Redis *redis.Client
}

// App holds every long-lived component built from one configuration.
type App struct {
	Config *config.Config
	DB     *gorm.DB
	Logger logger.Interface

	// Redis is nil when redis is disabled.
	Redis  *redis.Client
	Events pubsub.SessionEventBus
	Mailer email.Mailer

	Auth        *auth.Service
	Profiles    *repository.ProfileRepository
	Tickets     *repository.TicketRepository
	Messages    *repository.MessageRepository
	Attachments *repository.AttachmentRepository
	Bucket      *storage.Bucket

	Resolver   *session.ProfileResolver
	Aggregator *ticketApp.Aggregator
	Enforcer   *permission.Enforcer
	Markdown   markdown.MarkdownService
	// RateLimiter is nil when redis is disabled.
	RateLimiter ratelimit.RateLimiter

	ownsRedis bool
}

func New(ctx context.Context, cfg *config.Config, gdb *gorm.DB, log logger.Interface, opts Options) (*App, error) {
	app := &App{
		Config:   cfg,
		DB:       gdb,
		Logger:   log,
		Markdown: markdown.NewMarkdownService(),
	}

	if err := app.initRedis(ctx, opts.Redis); err != nil {
		return nil, err
	}

	if err := app.initStorage(opts.Fs); err != nil {
		app.Close()
		return nil, err
	}

	enforcer, err := permission.NewEnforcer(gdb, log.Named("permission"))
	if err != nil {
		app.Close()
		return nil, err
	}
	if err := enforcer.SeedDefaultPolicies(); err != nil {
		app.Close()
		return nil, err
	}
	app.Enforcer = enforcer

	app.Profiles = repository.NewProfileRepository(gdb, log)
	app.Tickets = repository.NewTicketRepository(gdb, log)
	app.Messages = repository.NewMessageRepository(gdb, log)
	app.Attachments = repository.NewAttachmentRepository(gdb, log)

	app.Mailer = email.NewMailer(cfg.Email, log.Named("email"))
	app.Auth = auth.NewService(auth.ServiceDeps{
		Store:  auth.NewStore(gdb),
		TxMgr:  db.NewTransactionManager(gdb),
		JWT:    auth.NewJWTService(cfg.Auth.JWT.Secret, cfg.Auth.JWT.Issuer, cfg.Auth.AccessTTL()),
		Hasher: auth.NewBcryptPasswordHasher(cfg.Auth.Password.BcryptCost),
		Tokens: token.NewTokenGenerator(),
		Mailer: app.Mailer,
		Events: app.Events,
		Logger: log.Named("auth"),
	}, cfg.Auth)

	app.Resolver = session.NewProfileResolver(app.Profiles, log.Named("profile"), cfg.Session.ProvisionDelay())
	app.Aggregator = ticketApp.NewAggregator(ticketApp.Repositories{
		Tickets:     app.Tickets,
		Messages:    app.Messages,
		Attachments: app.Attachments,
		Profiles:    app.Profiles,
		Blobs:       app.Bucket,
	}, log)

	return app, nil
}

func (a *App) initRedis(ctx context.Context, client *redis.Client) error {
	if client == nil && a.Config.Redis.Enabled {
		client = redis.NewClient(&redis.Options{
			Addr:     a.Config.Redis.GetAddr(),
			Password: a.Config.Redis.Password,
			DB:       a.Config.Redis.DB,
		})
		a.ownsRedis = true

		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return fmt.Errorf("failed to connect to redis at %s: %w", a.Config.Redis.GetAddr(), err)
		}
		a.Logger.Infow("redis connected", "addr", a.Config.Redis.GetAddr())
	}

	if client == nil {
		a.Logger.Infow("redis disabled, session revocations stay in process")
		a.Events = pubsub.NewLocalSessionEventBus(a.Logger.Named("pubsub"))
		return nil
	}

	a.Redis = client
	a.Events = pubsub.NewRedisSessionEventBus(client, a.Logger.Named("pubsub"))
	a.RateLimiter = ratelimit.NewRedisRateLimiter(client)
	return nil
}

func (a *App) initStorage(fs afero.Fs) error {
	if fs != nil {
		a.Bucket = storage.NewBucket(fs, a.Config.Storage.AttachmentsBucket, a.Logger.Named("storage"))
		return nil
	}
	bucket, err := storage.NewOSBucket(a.Config.Storage.Root, a.Config.Storage.AttachmentsBucket, a.Logger.Named("storage"))
	if err != nil {
		return fmt.Errorf("failed to open attachments bucket: %w", err)
	}
	a.Bucket = bucket
	return nil
}

// NewAuthClient returns a client-side auth view backed by this process's
// auth service and listening for revocations on the shared bus.
func (a *App) NewAuthClient() *auth.Client {
	return auth.NewClient(a.Auth, a.Events, a.Logger.Named("auth.client"))
}

// Close releases the redis connection when App created it.
func (a *App) Close() {
	if a.Redis != nil && a.ownsRedis {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Warnw("failed to close redis client", "error", err)
		}
	}
}
