package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/helpdesk/internal/domain/profile"
	domainSession "github.com/orris-inc/helpdesk/internal/domain/session"
	"github.com/orris-inc/helpdesk/internal/shared/errors"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
)

type coordinatorFixture struct {
	auth      *fakeAuth
	profiles  *memProfiles
	navigator *recordingNavigator
	c         *Coordinator
}

func newCoordinatorFixture(t *testing.T) *coordinatorFixture {
	t.Helper()
	f := &coordinatorFixture{
		auth:      newFakeAuth(),
		profiles:  newMemProfiles(),
		navigator: &recordingNavigator{},
	}
	resolver := NewProfileResolver(f.profiles, logger.NewNop(), 0)
	f.c = NewCoordinator(f.auth, f.profiles, resolver, f.navigator, logger.NewNop())
	t.Cleanup(f.c.Close)
	return f
}

func (f *coordinatorFixture) seedProfile(t *testing.T, id, email string, role profile.Role) {
	t.Helper()
	p, err := profile.NewProfile(id, email, role, time.Now())
	require.NoError(t, err)
	f.profiles.put(p)
}

func TestCoordinator_InitialState(t *testing.T) {
	f := newCoordinatorFixture(t)

	st := f.c.State()
	assert.False(t, st.Initialized)
	assert.True(t, st.Loading)
	assert.Equal(t, Intent{}, f.c.Intent(), "no navigation while bootstrapping")
}

func TestCoordinator_BootstrapWithoutSession(t *testing.T) {
	f := newCoordinatorFixture(t)
	f.c.SetLocation("/admin")

	require.NoError(t, f.c.Start(context.Background()))

	st := f.c.State()
	assert.True(t, st.Initialized)
	assert.False(t, st.Loading)
	assert.False(t, st.Authenticated())
	assert.Equal(t, []string{"/"}, f.navigator.Paths())
	assert.Equal(t, "/", f.c.Location())
}

func TestCoordinator_BootstrapResolvesProfile(t *testing.T) {
	f := newCoordinatorFixture(t)
	f.seedProfile(t, "u1", "admin@example.com", profile.RoleAdmin)
	f.auth.session = newTestSession("u1", "admin@example.com")

	require.NoError(t, f.c.Start(context.Background()))

	st := f.c.State()
	require.NotNil(t, st.Role())
	assert.Equal(t, profile.RoleAdmin, *st.Role())
	assert.Equal(t, []string{"/admin"}, f.navigator.Paths())
}

func TestCoordinator_BootstrapReadyDespiteFailures(t *testing.T) {
	t.Run("session fetch fails", func(t *testing.T) {
		f := newCoordinatorFixture(t)
		f.auth.getSessionErr = errors.NewInternalError("auth backend down")

		require.NoError(t, f.c.Start(context.Background()))

		st := f.c.State()
		assert.True(t, st.Initialized)
		assert.False(t, st.Loading)
		assert.False(t, st.Authenticated())
	})

	t.Run("profile resolution fails", func(t *testing.T) {
		f := newCoordinatorFixture(t)
		f.auth.session = newTestSession("u1", "a@example.com")
		f.profiles.getErr = errors.NewInternalError("db down")
		f.profiles.createErr = errors.NewInternalError("db down")
		f.c.SetLocation("/customer/tickets")

		require.NoError(t, f.c.Start(context.Background()))

		st := f.c.State()
		assert.True(t, st.Initialized)
		assert.False(t, st.Loading)
		assert.True(t, st.Authenticated())
		assert.Nil(t, st.Profile)
		assert.Nil(t, st.Role())
		assert.Empty(t, f.navigator.Paths(), "unknown role never redirects")
	})
}

func TestCoordinator_StartTwice(t *testing.T) {
	f := newCoordinatorFixture(t)
	require.NoError(t, f.c.Start(context.Background()))

	assert.Error(t, f.c.Start(context.Background()))
}

func TestCoordinator_SignInThroughEvents(t *testing.T) {
	f := newCoordinatorFixture(t)
	require.NoError(t, f.c.Start(context.Background()))
	require.NoError(t, f.c.SignUp(context.Background(), "c@example.com", "secret1", profile.RoleCustomer))
	assert.False(t, f.c.State().Authenticated(), "sign up does not authenticate")

	require.NoError(t, f.c.SignIn(context.Background(), "c@example.com", "secret1"))
	f.c.Wait()

	st := f.c.State()
	assert.True(t, st.Authenticated())
	require.NotNil(t, st.Role())
	assert.Equal(t, profile.RoleCustomer, *st.Role())
	assert.Equal(t, []string{"/customer"}, f.navigator.Paths())
}

func TestCoordinator_SignUpProvisionsRequestedRole(t *testing.T) {
	f := newCoordinatorFixture(t)

	require.NoError(t, f.c.SignUp(context.Background(), "boss@example.com", "secret1", profile.RoleAdmin))

	p, err := f.profiles.GetByID(context.Background(), "u-boss@example.com")
	require.NoError(t, err)
	assert.Equal(t, profile.RoleAdmin, p.Role)
}

func TestCoordinator_SignUpRejectsInvalidRole(t *testing.T) {
	f := newCoordinatorFixture(t)

	err := f.c.SignUp(context.Background(), "x@example.com", "secret1", profile.Role("owner"))

	assert.True(t, errors.IsValidationError(err))
	assert.Empty(t, f.auth.users)
}

func TestCoordinator_SignUpAdoptsConcurrentProfile(t *testing.T) {
	f := newCoordinatorFixture(t)
	f.seedProfile(t, "u-c@example.com", "c@example.com", profile.RoleCustomer)

	require.NoError(t, f.c.SignUp(context.Background(), "c@example.com", "secret1", profile.RoleCustomer))
	assert.Equal(t, 1, f.profiles.count())
}

func TestCoordinator_SignOutRedirectsToRoot(t *testing.T) {
	f := newCoordinatorFixture(t)
	f.seedProfile(t, "u1", "a@example.com", profile.RoleAdmin)
	f.auth.session = newTestSession("u1", "a@example.com")
	require.NoError(t, f.c.Start(context.Background()))
	require.Equal(t, "/admin", f.c.Location())

	require.NoError(t, f.c.SignOut(context.Background()))

	st := f.c.State()
	assert.False(t, st.Authenticated())
	assert.Nil(t, st.Profile)
	assert.Equal(t, "/", f.c.Location())
	paths := f.navigator.Paths()
	assert.Equal(t, "/", paths[len(paths)-1])
}

func TestCoordinator_SignOutFailureKeepsSession(t *testing.T) {
	f := newCoordinatorFixture(t)
	f.auth.session = newTestSession("u1", "a@example.com")
	f.auth.signOutErr = errors.NewInternalError("network")
	require.NoError(t, f.c.Start(context.Background()))

	assert.Error(t, f.c.SignOut(context.Background()))
	assert.True(t, f.c.State().Authenticated())
}

func TestCoordinator_EventWithoutUserClearsProfile(t *testing.T) {
	f := newCoordinatorFixture(t)
	f.seedProfile(t, "u1", "a@example.com", profile.RoleCustomer)
	f.auth.session = newTestSession("u1", "a@example.com")
	require.NoError(t, f.c.Start(context.Background()))
	require.NotNil(t, f.c.State().Profile)

	f.auth.Emit(domainSession.EventSignedOut, nil)

	st := f.c.State()
	assert.Nil(t, st.Session)
	assert.Nil(t, st.Profile)
	assert.Nil(t, st.Role())
}

func TestCoordinator_StaleResolutionDiscarded(t *testing.T) {
	f := newCoordinatorFixture(t)
	f.seedProfile(t, "u1", "first@example.com", profile.RoleAdmin)
	f.seedProfile(t, "u2", "second@example.com", profile.RoleCustomer)
	require.NoError(t, f.c.Start(context.Background()))

	// Block the first user's lookup until the second sign-in has been
	// resolved, so its result arrives stale.
	release := make(chan struct{})
	first := make(chan struct{})
	var blocked atomic.Bool
	f.profiles.onGet = func() {
		if blocked.CompareAndSwap(false, true) {
			close(first)
			<-release
		}
	}

	f.auth.Emit(domainSession.EventSignedIn, newTestSession("u1", "first@example.com"))
	<-first
	f.auth.Emit(domainSession.EventSignedIn, newTestSession("u2", "second@example.com"))
	require.Eventually(t, func() bool {
		p := f.c.State().Profile
		return p != nil && p.ID == "u2"
	}, time.Second, 5*time.Millisecond)

	close(release)
	f.c.Wait()

	st := f.c.State()
	assert.Equal(t, "u2", st.Session.User.ID)
	require.NotNil(t, st.Profile)
	assert.Equal(t, "u2", st.Profile.ID)
}

func TestCoordinator_EventDuringBootstrapWins(t *testing.T) {
	f := newCoordinatorFixture(t)
	f.seedProfile(t, "u2", "second@example.com", profile.RoleCustomer)
	f.auth.onGetSession = func() {
		f.auth.onGetSession = nil
		f.auth.Emit(domainSession.EventSignedIn, newTestSession("u2", "second@example.com"))
		f.auth.session = nil
	}

	require.NoError(t, f.c.Start(context.Background()))
	f.c.Wait()

	st := f.c.State()
	require.NotNil(t, st.Session, "bootstrap must not overwrite a newer event")
	assert.Equal(t, "u2", st.Session.User.ID)
	require.NotNil(t, st.Profile)
	assert.Equal(t, "u2", st.Profile.ID)
}

func TestCoordinator_TokenRefreshKeepsProfile(t *testing.T) {
	f := newCoordinatorFixture(t)
	f.seedProfile(t, "u1", "a@example.com", profile.RoleCustomer)
	f.auth.session = newTestSession("u1", "a@example.com")
	require.NoError(t, f.c.Start(context.Background()))

	f.auth.Emit(domainSession.EventTokenRefreshed, newTestSession("u1", "a@example.com"))

	assert.NotNil(t, f.c.State().Profile, "same user keeps the profile while re-resolving")
	f.c.Wait()
	assert.NotNil(t, f.c.State().Profile)
}

func TestCoordinator_CloseUnsubscribesOnce(t *testing.T) {
	f := newCoordinatorFixture(t)
	require.NoError(t, f.c.Start(context.Background()))
	require.Equal(t, 1, f.auth.listenerCount())

	f.c.Close()
	f.c.Close()

	assert.Equal(t, int32(1), f.auth.unsubscribeCalls.Load())
	assert.Equal(t, 0, f.auth.listenerCount())
	assert.Error(t, f.c.Start(context.Background()))
}

func TestCoordinator_EventsRacingClose(t *testing.T) {
	f := newCoordinatorFixture(t)
	require.NoError(t, f.c.Start(context.Background()))

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					f.auth.Emit(domainSession.EventSignedIn, newTestSession("u1", "a@example.com"))
				}
			}
		}()
	}

	time.Sleep(10 * time.Millisecond)
	f.c.Close()
	creates := f.profiles.creates.Load()

	// Events delivered from a listener snapshot taken before Close must not
	// start new resolutions.
	f.c.handleEvent(domainSession.Event{
		Kind:    domainSession.EventSignedIn,
		Session: newTestSession("u2", "b@example.com"),
	})
	close(stop)
	wg.Wait()

	assert.Equal(t, creates, f.profiles.creates.Load())
	assert.Equal(t, 0, f.auth.listenerCount())
}

func TestCoordinator_SetLocationRedirects(t *testing.T) {
	f := newCoordinatorFixture(t)
	f.seedProfile(t, "u1", "a@example.com", profile.RoleCustomer)
	f.auth.session = newTestSession("u1", "a@example.com")
	f.c.SetLocation("/customer")
	require.NoError(t, f.c.Start(context.Background()))
	require.Empty(t, f.navigator.Paths())

	f.c.SetLocation("/admin/users")

	assert.Equal(t, []string{"/customer"}, f.navigator.Paths())
	assert.Equal(t, "/customer", f.c.Location())
}

func TestCoordinator_WatchAndCancel(t *testing.T) {
	f := newCoordinatorFixture(t)
	var mu sync.Mutex
	var seen []State
	cancel := f.c.Watch(func(s State) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, s)
	})

	require.NoError(t, f.c.Start(context.Background()))
	cancel()
	f.auth.Emit(domainSession.EventSignedOut, nil)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 1)
	assert.True(t, seen[0].Initialized)
}

func TestCoordinator_UpdateProfile(t *testing.T) {
	f := newCoordinatorFixture(t)

	_, err := f.c.UpdateProfile(context.Background(), profile.Patch{})
	assert.True(t, errors.IsUnauthorizedError(err))

	f.seedProfile(t, "u1", "a@example.com", profile.RoleCustomer)
	f.auth.session = newTestSession("u1", "a@example.com")
	require.NoError(t, f.c.Start(context.Background()))

	name := "Ada"
	updated, err := f.c.UpdateProfile(context.Background(), profile.Patch{FullName: &name})

	require.NoError(t, err)
	assert.Equal(t, "Ada", *updated.FullName)
	assert.Equal(t, "Ada", f.c.State().Profile.DisplayName())
}

func TestCoordinator_SendPasswordReset(t *testing.T) {
	f := newCoordinatorFixture(t)

	require.NoError(t, f.c.SendPasswordReset(context.Background(), "a@example.com", "http://localhost/reset"))

	assert.Equal(t, []string{"a@example.com"}, f.auth.resetRequests)
}
