package session

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/orris-inc/helpdesk/internal/domain/profile"
	domainSession "github.com/orris-inc/helpdesk/internal/domain/session"
	"github.com/orris-inc/helpdesk/internal/shared/errors"
)

// memProfiles enforces id uniqueness the way the profiles table does.
type memProfiles struct {
	mu      sync.Mutex
	rows    map[string]*profile.Profile
	creates atomic.Int32

	getErr    error
	createErr error
	// onGet runs before every lookup; used to interleave concurrent callers.
	onGet func()
	// onMiss runs after a lookup found no row, outside the lock.
	onMiss func()
}

func newMemProfiles() *memProfiles {
	return &memProfiles{rows: make(map[string]*profile.Profile)}
}

func (m *memProfiles) GetByID(ctx context.Context, id string) (*profile.Profile, error) {
	if m.onGet != nil {
		m.onGet()
	}
	m.mu.Lock()
	if m.getErr != nil {
		m.mu.Unlock()
		return nil, m.getErr
	}
	p, ok := m.rows[id]
	if !ok {
		m.mu.Unlock()
		if m.onMiss != nil {
			m.onMiss()
		}
		return nil, errors.NewNotFoundError("profile not found", id)
	}
	cp := *p
	m.mu.Unlock()
	return &cp, nil
}

func (m *memProfiles) ListByIDs(ctx context.Context, ids []string) ([]*profile.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*profile.Profile
	for _, id := range ids {
		if p, ok := m.rows[id]; ok {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memProfiles) Create(ctx context.Context, p *profile.Profile) error {
	m.creates.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if _, ok := m.rows[p.ID]; ok {
		return errors.NewConflictError("profile already exists", p.ID)
	}
	cp := *p
	m.rows[p.ID] = &cp
	return nil
}

func (m *memProfiles) Update(ctx context.Context, id string, patch profile.Patch) (*profile.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return nil, errors.NewNotFoundError("profile not found", id)
	}
	if patch.FullName != nil {
		p.FullName = patch.FullName
	}
	if patch.AvatarURL != nil {
		p.AvatarURL = patch.AvatarURL
	}
	cp := *p
	return &cp, nil
}

func (m *memProfiles) put(p *profile.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[p.ID] = p
}

func (m *memProfiles) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

// fakeAuth is an in-process auth client. Emit delivers events synchronously.
type fakeAuth struct {
	mu        sync.Mutex
	session   *domainSession.Session
	listeners map[int]domainSession.Listener
	nextID    int

	users map[string]string // email -> user id

	getSessionErr error
	signInErr     error
	signOutErr    error
	signUpErr     error

	unsubscribeCalls atomic.Int32
	resetRequests    []string
	// onGetSession runs inside GetSession, before the session is returned.
	onGetSession func()
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{
		listeners: make(map[int]domainSession.Listener),
		users:     make(map[string]string),
	}
}

func newTestSession(userID, email string) *domainSession.Session {
	return &domainSession.Session{
		ID:          "s-" + userID,
		User:        domainSession.User{ID: userID, Email: email},
		AccessToken: "access-" + userID,
	}
}

func (f *fakeAuth) GetSession(ctx context.Context) (*domainSession.Session, error) {
	if f.onGetSession != nil {
		f.onGetSession()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getSessionErr != nil {
		return nil, f.getSessionErr
	}
	return f.session, nil
}

func (f *fakeAuth) SignUp(ctx context.Context, email, password string) (*domainSession.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.signUpErr != nil {
		return nil, f.signUpErr
	}
	if _, ok := f.users[email]; ok {
		return nil, errors.NewConflictError("email already registered")
	}
	id := "u-" + email
	f.users[email] = id
	return &domainSession.User{ID: id, Email: email}, nil
}

func (f *fakeAuth) SignIn(ctx context.Context, email, password string) error {
	f.mu.Lock()
	if f.signInErr != nil {
		f.mu.Unlock()
		return f.signInErr
	}
	id, ok := f.users[email]
	if !ok {
		f.mu.Unlock()
		return errors.NewUnauthorizedError("invalid credentials")
	}
	f.mu.Unlock()

	f.Emit(domainSession.EventSignedIn, newTestSession(id, email))
	return nil
}

func (f *fakeAuth) SignOut(ctx context.Context) error {
	f.mu.Lock()
	if f.signOutErr != nil {
		f.mu.Unlock()
		return f.signOutErr
	}
	f.mu.Unlock()

	f.Emit(domainSession.EventSignedOut, nil)
	return nil
}

func (f *fakeAuth) SendPasswordReset(ctx context.Context, email, redirectTo string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetRequests = append(f.resetRequests, email)
	return nil
}

func (f *fakeAuth) Subscribe(l domainSession.Listener) func() {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.listeners[id] = l
	f.mu.Unlock()

	return func() {
		f.unsubscribeCalls.Add(1)
		f.mu.Lock()
		delete(f.listeners, id)
		f.mu.Unlock()
	}
}

func (f *fakeAuth) Emit(kind domainSession.EventKind, s *domainSession.Session) {
	f.mu.Lock()
	f.session = s
	listeners := make([]domainSession.Listener, 0, len(f.listeners))
	for _, l := range f.listeners {
		listeners = append(listeners, l)
	}
	f.mu.Unlock()

	for _, l := range listeners {
		l(domainSession.Event{Kind: kind, Session: s})
	}
}

func (f *fakeAuth) listenerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listeners)
}

// recordingNavigator collects every redirect.
type recordingNavigator struct {
	mu    sync.Mutex
	paths []string
}

func (n *recordingNavigator) Navigate(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paths = append(n.paths, path)
}

func (n *recordingNavigator) Paths() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.paths...)
}
