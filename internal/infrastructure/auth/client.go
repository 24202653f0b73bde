package auth

import (
	"context"
	"sync"

	domainSession "github.com/orris-inc/helpdesk/internal/domain/session"
	"github.com/orris-inc/helpdesk/internal/infrastructure/pubsub"
	"github.com/orris-inc/helpdesk/internal/shared/biztime"
	"github.com/orris-inc/helpdesk/internal/shared/errors"
	"github.com/orris-inc/helpdesk/internal/shared/goroutine"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
)

// Backend is the credential service a Client talks to. *Service satisfies it.
type Backend interface {
	SignUp(ctx context.Context, email, password string) (*domainSession.User, error)
	SignIn(ctx context.Context, email, password string) (*Tokens, error)
	SignOut(ctx context.Context, sessionID string) error
	Refresh(ctx context.Context, refreshToken string) (*Tokens, error)
	SendPasswordReset(ctx context.Context, email, redirectTo string) error
}

// Client holds one local session and announces its changes to subscribers.
type Client struct {
	backend Backend
	events  pubsub.SessionEventSubscriber
	logger  logger.Interface
	now     biztime.Clock
	group   *goroutine.Group

	mu        sync.Mutex
	session   *domainSession.Session
	listeners map[int]domainSession.Listener
	nextID    int
	cancel    context.CancelFunc
}

var _ domainSession.AuthClient = (*Client)(nil)

// NewClient creates a signed-out client. events may be nil, in which case
// remote revocations go unnoticed until the next refresh.
func NewClient(backend Backend, events pubsub.SessionEventSubscriber, log logger.Interface) *Client {
	log = log.Named("auth-client")
	return &Client{
		backend:   backend,
		events:    events,
		logger:    log,
		now:       biztime.NowUTC,
		group:     goroutine.NewGroup(log),
		listeners: make(map[int]domainSession.Listener),
	}
}

// Start listens for revocations until ctx is done or Close is called.
func (c *Client) Start(ctx context.Context) {
	if c.events == nil {
		return
	}

	c.mu.Lock()
	if c.cancel != nil {
		c.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	c.group.Go("session-revocations", func() {
		if err := c.events.SubscribeRevoked(ctx, c.onRevoked); err != nil && ctx.Err() == nil {
			c.logger.Errorw("revocation listener stopped", "error", err)
		}
	})
}

// Close stops the revocation listener.
func (c *Client) Close() {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	c.group.Close()
}

func (c *Client) onRevoked(event pubsub.SessionRevokedEvent) {
	c.mu.Lock()
	s := c.session
	if s == nil || (event.SessionID != s.ID && (event.UserID == "" || event.UserID != s.User.ID)) {
		c.mu.Unlock()
		return
	}
	c.session = nil
	c.mu.Unlock()

	c.logger.Infow("session revoked remotely", "session_id", event.SessionID, "reason", event.Reason)
	c.emit(domainSession.Event{Kind: domainSession.EventSignedOut})
}

func (c *Client) Subscribe(l domainSession.Listener) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = l
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, id)
			c.mu.Unlock()
		})
	}
}

func (c *Client) emit(event domainSession.Event) {
	c.mu.Lock()
	listeners := make([]domainSession.Listener, 0, len(c.listeners))
	for _, l := range c.listeners {
		listeners = append(listeners, l)
	}
	c.mu.Unlock()

	for _, l := range listeners {
		l(event)
	}
}

// GetSession returns the current session, refreshing it first when the
// access token has expired. A rejected refresh signs the client out.
func (c *Client) GetSession(ctx context.Context) (*domainSession.Session, error) {
	c.mu.Lock()
	s := c.session
	c.mu.Unlock()

	if s == nil {
		return nil, nil
	}
	if !s.IsExpired(c.now()) {
		return s, nil
	}

	tokens, err := c.backend.Refresh(ctx, s.RefreshToken)
	if err != nil {
		if !errors.IsUnauthorizedError(err) {
			return nil, err
		}
		if c.replace(s, nil) {
			c.emit(domainSession.Event{Kind: domainSession.EventSignedOut})
		}
		return nil, nil
	}

	next := tokens.Session()
	if !c.replace(s, next) {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.session, nil
	}
	c.emit(domainSession.Event{Kind: domainSession.EventTokenRefreshed, Session: next})
	return next, nil
}

// replace swaps the session only if it is still old.
func (c *Client) replace(old, next *domainSession.Session) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != old {
		return false
	}
	c.session = next
	return true
}

func (c *Client) SignUp(ctx context.Context, email, password string) (*domainSession.User, error) {
	return c.backend.SignUp(ctx, email, password)
}

// SignIn replaces any current session. The new session is only visible
// through the SIGNED_IN event and GetSession.
func (c *Client) SignIn(ctx context.Context, email, password string) error {
	tokens, err := c.backend.SignIn(ctx, email, password)
	if err != nil {
		return err
	}

	next := tokens.Session()
	c.mu.Lock()
	c.session = next
	c.mu.Unlock()

	c.emit(domainSession.Event{Kind: domainSession.EventSignedIn, Session: next})
	return nil
}

// SignOut revokes the current session. Signing out while signed out is a
// no-op that still announces SIGNED_OUT.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	s := c.session
	c.mu.Unlock()

	if s != nil {
		if err := c.backend.SignOut(ctx, s.ID); err != nil {
			return err
		}
	}

	c.replace(s, nil)
	c.emit(domainSession.Event{Kind: domainSession.EventSignedOut})
	return nil
}

func (c *Client) SendPasswordReset(ctx context.Context, email, redirectTo string) error {
	return c.backend.SendPasswordReset(ctx, email, redirectTo)
}
