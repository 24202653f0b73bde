// Package session owns the process-wide view of authentication state: the
// current session, the user's profile and role, and the navigation intent
// derived from them.
package session

import (
	"context"
	"sync"

	"github.com/orris-inc/helpdesk/internal/domain/profile"
	domainSession "github.com/orris-inc/helpdesk/internal/domain/session"
	"github.com/orris-inc/helpdesk/internal/shared/errors"
	"github.com/orris-inc/helpdesk/internal/shared/goroutine"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
)

// State is a snapshot of the coordinator. Session and Profile are shared
// read-only values.
type State struct {
	Session     *domainSession.Session `json:"session"`
	Profile     *profile.Profile       `json:"profile"`
	Initialized bool                   `json:"initialized"`
	Loading     bool                   `json:"loading"`
}

func (s State) Authenticated() bool {
	return s.Session != nil
}

// Role returns the role of the resolved profile, or nil.
func (s State) Role() *profile.Role {
	if s.Profile == nil {
		return nil
	}
	r := s.Profile.Role
	return &r
}

// Navigator performs redirects requested by the coordinator.
type Navigator interface {
	Navigate(path string)
}

type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

// Coordinator reconciles the bootstrap session fetch with the auth event
// stream. Construct one per process and pass it to consumers.
type Coordinator struct {
	auth      domainSession.AuthClient
	profiles  profile.Repository
	resolver  *ProfileResolver
	navigator Navigator
	logger    logger.Interface
	group     *goroutine.Group

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	state       State
	location    string
	epoch       uint64
	started     bool
	closed      bool
	unsubscribe func()
	watchers    map[int]func(State)
	nextWatcher int

	closeOnce sync.Once
}

func NewCoordinator(
	auth domainSession.AuthClient,
	profiles profile.Repository,
	resolver *ProfileResolver,
	navigator Navigator,
	logger logger.Interface,
) *Coordinator {
	log := logger.Named("session")
	ctx, cancel := context.WithCancel(context.Background())
	if navigator == nil {
		navigator = NavigatorFunc(func(string) {})
	}
	return &Coordinator{
		auth:      auth,
		profiles:  profiles,
		resolver:  resolver,
		navigator: navigator,
		logger:    log,
		group:     goroutine.NewGroup(log),
		ctx:       ctx,
		cancel:    cancel,
		state:     State{Loading: true},
		location:  PathRoot,
		watchers:  make(map[int]func(State)),
	}
}

// Start runs bootstrapping and returns once the coordinator is ready.
// Profile resolution failures never prevent readiness.
func (c *Coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.NewBadRequestError("session coordinator is closed")
	}
	if c.started {
		c.mu.Unlock()
		return errors.NewBadRequestError("session coordinator already started")
	}
	c.started = true
	c.mu.Unlock()

	// Subscribe first so no event is lost while the session is fetched; an
	// event that lands during bootstrap supersedes the bootstrap result.
	unsubscribe := c.auth.Subscribe(c.handleEvent)
	c.mu.Lock()
	c.unsubscribe = unsubscribe
	epoch := c.epoch
	c.mu.Unlock()

	c.logger.Infow("bootstrapping session")

	sess, err := c.auth.GetSession(ctx)
	if err != nil {
		c.logger.Warnw("failed to fetch current session", "error", err)
		sess = nil
	}

	var p *profile.Profile
	if sess != nil {
		p, err = c.resolver.Resolve(ctx, sess.User.ID, sess.User.Email)
		if err != nil {
			c.logger.Warnw("profile resolution failed during bootstrap", "user_id", sess.User.ID, "error", err)
		}
	}

	c.mu.Lock()
	if c.epoch == epoch {
		c.state.Session = sess
		c.state.Profile = p
	}
	c.state.Initialized = true
	c.state.Loading = false
	snapshot, target := c.changedLocked()
	c.mu.Unlock()

	c.publish(snapshot, target)
	c.logger.Infow("session ready", "authenticated", snapshot.Authenticated())
	return nil
}

// handleEvent replaces the session and re-resolves the profile in the
// background.
func (c *Coordinator) handleEvent(ev domainSession.Event) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.epoch++
	epoch := c.epoch
	c.state.Session = ev.Session

	user := ev.User()
	if user == nil || (c.state.Profile != nil && c.state.Profile.ID != user.ID) {
		c.state.Profile = nil
	}
	snapshot, target := c.changedLocked()
	// Registered under mu so Close either sees the resolution or rejects it.
	if user != nil {
		userID, email := user.ID, user.Email
		c.group.Go("resolve-profile", func() {
			p, err := c.resolver.Resolve(c.ctx, userID, email)
			c.adopt(epoch, userID, p, err)
		})
	}
	c.mu.Unlock()

	c.logger.Infow("session event", "kind", ev.Kind, "authenticated", user != nil)
	c.publish(snapshot, target)
}

func (c *Coordinator) adopt(epoch uint64, userID string, p *profile.Profile, err error) {
	c.mu.Lock()
	if c.closed || c.epoch != epoch || c.state.Session == nil || c.state.Session.User.ID != userID {
		c.mu.Unlock()
		c.logger.Debugw("discarding stale profile resolution", "user_id", userID)
		return
	}
	if err != nil {
		c.mu.Unlock()
		c.logger.Warnw("profile resolution failed", "user_id", userID, "error", err)
		return
	}
	c.state.Profile = p
	snapshot, target := c.changedLocked()
	c.mu.Unlock()

	c.publish(snapshot, target)
}

// changedLocked snapshots state and computes the redirect target, moving the
// tracked location when a redirect fires. Callers hold c.mu.
func (c *Coordinator) changedLocked() (State, string) {
	snapshot := c.state
	intent := NavigationFor(snapshot, c.location)
	if !intent.Redirect || intent.Target == normalizePath(c.location) {
		return snapshot, ""
	}
	c.location = intent.Target
	return snapshot, intent.Target
}

func (c *Coordinator) publish(snapshot State, target string) {
	c.mu.Lock()
	watchers := make([]func(State), 0, len(c.watchers))
	for _, w := range c.watchers {
		watchers = append(watchers, w)
	}
	c.mu.Unlock()

	for _, w := range watchers {
		w(snapshot)
	}
	if target != "" {
		c.logger.Debugw("navigating", "target", target)
		c.navigator.Navigate(target)
	}
}

// State returns the current snapshot.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Location returns the location the coordinator last saw or redirected to.
func (c *Coordinator) Location() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.location
}

// SetLocation records a location change and applies any resulting redirect.
func (c *Coordinator) SetLocation(path string) {
	c.mu.Lock()
	c.location = normalizePath(path)
	snapshot, target := c.changedLocked()
	c.mu.Unlock()

	if target != "" {
		c.publish(snapshot, target)
	}
}

// Intent evaluates navigation for the current state and location without
// applying it.
func (c *Coordinator) Intent() Intent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return NavigationFor(c.state, c.location)
}

// Watch registers fn for state changes until the returned func is called.
func (c *Coordinator) Watch(fn func(State)) (cancel func()) {
	c.mu.Lock()
	id := c.nextWatcher
	c.nextWatcher++
	c.watchers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.watchers, id)
		c.mu.Unlock()
	}
}

// SignUp creates credentials and a profile with the requested role. It does
// not sign the user in.
func (c *Coordinator) SignUp(ctx context.Context, email, password string, role profile.Role) error {
	if !role.IsValid() {
		return errors.NewValidationError("invalid role", string(role))
	}

	user, err := c.auth.SignUp(ctx, email, password)
	if err != nil {
		c.logger.Warnw("sign up failed", "email", email, "error", err)
		return err
	}

	if _, err := c.resolver.Provision(ctx, user.ID, user.Email, role); err != nil {
		c.logger.Errorw("failed to provision profile after sign up", "user_id", user.ID, "error", err)
		return err
	}

	c.logger.Infow("user signed up", "user_id", user.ID, "role", role)
	return nil
}

// SignIn authenticates. State changes arrive through the event stream.
func (c *Coordinator) SignIn(ctx context.Context, email, password string) error {
	if err := c.auth.SignIn(ctx, email, password); err != nil {
		c.logger.Warnw("sign in failed", "email", email, "error", err)
		return err
	}
	return nil
}

// SignOut invalidates the session and redirects to the root.
func (c *Coordinator) SignOut(ctx context.Context) error {
	if err := c.auth.SignOut(ctx); err != nil {
		c.logger.Errorw("sign out failed", "error", err)
		return err
	}

	c.mu.Lock()
	moved := c.location != PathRoot
	c.location = PathRoot
	snapshot := c.state
	c.mu.Unlock()

	if moved {
		c.publish(snapshot, PathRoot)
	}
	return nil
}

func (c *Coordinator) SendPasswordReset(ctx context.Context, email, redirectTo string) error {
	return c.auth.SendPasswordReset(ctx, email, redirectTo)
}

// UpdateProfile edits the signed-in user's profile and adopts the result.
func (c *Coordinator) UpdateProfile(ctx context.Context, patch profile.Patch) (*profile.Profile, error) {
	c.mu.Lock()
	current := c.state.Profile
	c.mu.Unlock()
	if current == nil {
		return nil, errors.NewUnauthorizedError("no profile to update")
	}

	updated, err := c.profiles.Update(ctx, current.ID, patch)
	if err != nil {
		c.logger.Errorw("failed to update profile", "user_id", current.ID, "error", err)
		return nil, err
	}

	c.mu.Lock()
	if c.state.Profile != nil && c.state.Profile.ID == updated.ID {
		c.state.Profile = updated
	}
	snapshot, target := c.changedLocked()
	c.mu.Unlock()

	c.publish(snapshot, target)
	return updated, nil
}

// Wait blocks until in-flight profile resolutions finish.
func (c *Coordinator) Wait() {
	c.group.Wait()
}

// Close releases the event subscription exactly once and stops background
// resolutions.
func (c *Coordinator) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		unsubscribe := c.unsubscribe
		c.unsubscribe = nil
		c.mu.Unlock()

		if unsubscribe != nil {
			unsubscribe()
		}
		c.cancel()
		c.group.Close()
		c.logger.Infow("session coordinator closed")
	})
}
