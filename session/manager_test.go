package session_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/drivesim-admin/admin"
	"github.com/jrsteele09/drivesim-admin/apiclient"
	apperrors "github.com/jrsteele09/drivesim-admin/internal/errors"
	"github.com/jrsteele09/drivesim-admin/navigation"
	"github.com/jrsteele09/drivesim-admin/session"
	"github.com/jrsteele09/drivesim-admin/tokenstore"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const usersPath = "/api/v1/admin-dashboard/users"

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// authServer routes by path and records the Authorization header of every hit.
type authServer struct {
	mu     sync.Mutex
	routes map[string]http.HandlerFunc
	auth   map[string][]string
	total  int
}

func newAuthServer() *authServer {
	return &authServer{routes: map[string]http.HandlerFunc{}, auth: map[string][]string{}}
}

func (s *authServer) handle(path string, h http.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[path] = h
}

func (s *authServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.total++
	s.auth[r.URL.Path] = append(s.auth[r.URL.Path], r.Header.Get("Authorization"))
	h := s.routes[r.URL.Path]
	s.mu.Unlock()

	if h == nil {
		http.NotFound(w, r)
		return
	}
	h(w, r)
}

func (s *authServer) hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.auth[path])
}

func (s *authServer) authHeaders(path string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.auth[path]...)
}

func (s *authServer) totalHits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func reply(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

// requireBearer answers 401 unless the request carries the expected token.
func requireBearer(token string, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+token {
			reply(http.StatusUnauthorized, `{"error":"expired"}`)(w, r)
			return
		}
		reply(http.StatusOK, body)(w, r)
	}
}

type managerFixture struct {
	api     *authServer
	server  *httptest.Server
	store   *tokenstore.Store
	router  *navigation.Router
	client  *apiclient.Client
	manager *session.Manager
	logs    *bytes.Buffer
}

func setupManager(t *testing.T, options ...session.ManagerOption) *managerFixture {
	t.Helper()

	api := newAuthServer()
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	logs := &bytes.Buffer{}
	logger := zerolog.New(logs)
	store := tokenstore.New(tokenstore.NewMemoryKV(), tokenstore.WithClock(func() time.Time { return fixedNow }))
	router := navigation.NewRouter(navigation.RouteDashboard)

	client, err := apiclient.New(server.URL, apiclient.WithLogger(logger))
	require.NoError(t, err)

	options = append([]session.ManagerOption{
		session.WithLogger(logger),
		session.WithNowTime(func() time.Time { return fixedNow }),
	}, options...)
	manager, err := session.NewManager(client, store, router, options...)
	require.NoError(t, err)

	client.Use(
		apiclient.RequestID(),
		apiclient.LogServerErrors(logger),
		apiclient.RefreshOnUnauthorized(apiclient.RefreshConfig{
			Refresher:  manager,
			Navigator:  router,
			LoginRoute: navigation.RouteLogin,
			Logger:     logger,
		}),
		apiclient.BearerAuth(store, logger),
	)

	return &managerFixture{
		api:     api,
		server:  server,
		store:   store,
		router:  router,
		client:  client,
		manager: manager,
		logs:    logs,
	}
}

func (f *managerFixture) login(t *testing.T, token string) {
	t.Helper()
	f.api.handle(session.PathLogin, reply(http.StatusOK, `{"token":"`+token+`","expiresIn":3600,"user":{"id":1,"email":"a@b.com","firstName":"Ada","lastName":"Byron"}}`))
	_, err := f.manager.Login(context.Background(), "a@b.com", "pw")
	require.NoError(t, err)
}

func TestNewManager_RequiresDependencies(t *testing.T) {
	store := tokenstore.New(tokenstore.NewMemoryKV())
	router := navigation.NewRouter("/")
	client, err := apiclient.New("http://localhost:1")
	require.NoError(t, err)

	_, err = session.NewManager(nil, store, router)
	require.Error(t, err)
	_, err = session.NewManager(client, nil, router)
	require.Error(t, err)
	_, err = session.NewManager(client, store, nil)
	require.Error(t, err)

	m, err := session.NewManager(client, store, router)
	require.NoError(t, err)
	require.Equal(t, session.StateUnknown, m.State())
	require.False(t, m.IsAuthenticated())
}

func TestManager_Login(t *testing.T) {
	f := setupManager(t)
	var got map[string]string
	f.api.handle(session.PathLogin, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		reply(http.StatusOK, `{"token":"t1","expiresIn":3600,"user":{"id":1}}`)(w, r)
	})

	s, err := f.manager.Login(context.Background(), "a@b.com", "pw")
	require.NoError(t, err)

	require.Equal(t, map[string]string{"email": "a@b.com", "password": "pw"}, got)
	require.True(t, s.Authenticated())
	require.Equal(t, "t1", s.Token.Value)
	require.Equal(t, int64(1), s.Profile.ID)
	require.True(t, f.manager.IsAuthenticated())

	token, err := f.store.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, "t1", token.Value)
	require.Equal(t, fixedNow.Add(time.Hour), token.Expiry)

	snap, err := f.store.Snapshot(context.Background())
	require.NoError(t, err)
	require.True(t, snap.Authenticated)
	require.Equal(t, int64(1), snap.Profile.ID)
}

func TestManager_LoginDefaultProfile(t *testing.T) {
	t.Run("placeholder profile", func(t *testing.T) {
		f := setupManager(t)
		f.api.handle(session.PathLogin, reply(http.StatusOK, `{"token":"t1","expiresIn":60}`))

		s, err := f.manager.Login(context.Background(), "a@b.com", "pw")
		require.NoError(t, err)
		require.Equal(t, &tokenstore.UserProfile{ID: 0, Email: "a@b.com", FirstName: "User"}, s.Profile)
	})

	t.Run("custom placeholder", func(t *testing.T) {
		f := setupManager(t, session.WithDefaultProfile(session.DefaultProfile("Instructor")))
		f.api.handle(session.PathLogin, reply(http.StatusOK, `{"token":"t1"}`))

		s, err := f.manager.Login(context.Background(), "a@b.com", "pw")
		require.NoError(t, err)
		require.Equal(t, "Instructor", s.Profile.FirstName)
	})

	t.Run("disabled", func(t *testing.T) {
		f := setupManager(t, session.WithoutDefaultProfile())
		f.login(t, "t0")
		f.api.handle(session.PathLogin, reply(http.StatusOK, `{"token":"t1"}`))

		s, err := f.manager.Login(context.Background(), "c@d.com", "pw")
		require.NoError(t, err)
		require.Nil(t, s.Profile)

		profile, err := f.store.Profile(context.Background())
		require.NoError(t, err)
		require.Nil(t, profile, "previous account's profile must be dropped")
	})
}

func TestManager_LoginFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		kind    session.ErrorKind
	}{
		{"rejected credentials", reply(http.StatusUnauthorized, `{"error":"bad"}`), session.InvalidCredentials},
		{"validation error", reply(http.StatusBadRequest, `{"error":"email"}`), session.InvalidCredentials},
		{"server error", reply(http.StatusInternalServerError, `{}`), session.LoginFailed},
		{"no token", reply(http.StatusOK, `{"expiresIn":60}`), session.LoginFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupManager(t)
			f.api.handle(session.PathLogin, tt.handler)
			f.api.handle(session.PathRefresh, reply(http.StatusOK, `{"token":"never"}`))

			_, err := f.manager.Login(context.Background(), "a@b.com", "bad")
			require.Error(t, err)
			require.True(t, session.IsKind(err, tt.kind), "got %v", err)
			require.Equal(t, tt.kind == session.InvalidCredentials, apperrors.Is(err, apperrors.ErrInvalidCredentials))

			require.Equal(t, session.StateUnauthenticated, f.manager.State())
			require.Zero(t, f.api.hits(session.PathRefresh), "login must never trigger a refresh")
			token, err := f.store.Get(context.Background())
			require.NoError(t, err)
			require.Nil(t, token)
		})
	}

	t.Run("network failure", func(t *testing.T) {
		f := setupManager(t)
		f.server.Close()

		_, err := f.manager.Login(context.Background(), "a@b.com", "pw")
		require.True(t, session.IsKind(err, session.LoginFailed))
		require.ErrorIs(t, err, apiclient.ErrNetwork)
	})
}

func TestManager_FailedLoginKeepsExistingSession(t *testing.T) {
	f := setupManager(t)
	f.login(t, "t1")

	f.api.handle(session.PathLogin, reply(http.StatusUnauthorized, `{}`))
	_, err := f.manager.Login(context.Background(), "other@b.com", "wrong")
	require.True(t, session.IsKind(err, session.InvalidCredentials))

	require.True(t, f.manager.IsAuthenticated())
	token, err := f.store.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, "t1", token.Value)
}

func TestManager_LoginThenLogout(t *testing.T) {
	f := setupManager(t)
	f.login(t, "t1")
	f.api.handle(session.PathLogout, reply(http.StatusNoContent, ""))

	require.NoError(t, f.manager.Logout(context.Background()))

	require.Equal(t, []string{"Bearer t1"}, f.api.authHeaders(session.PathLogout))
	require.False(t, f.manager.IsAuthenticated())
	snap, err := f.store.Snapshot(context.Background())
	require.NoError(t, err)
	require.Nil(t, snap.Token)
	require.Nil(t, snap.Profile)
	require.False(t, snap.Authenticated)
	require.Equal(t, navigation.RouteLogin, f.router.Current().Path)
}

func TestManager_LogoutServerFailures(t *testing.T) {
	t.Run("network failure", func(t *testing.T) {
		f := setupManager(t)
		f.login(t, "t1")
		f.server.Close()

		require.NoError(t, f.manager.Logout(context.Background()))

		token, err := f.store.Get(context.Background())
		require.NoError(t, err)
		require.Nil(t, token)
		require.Equal(t, session.StateUnauthenticated, f.manager.State())
		require.Equal(t, navigation.RouteLogin, f.router.Current().Path)
		require.Contains(t, f.logs.String(), "server logout failed")
	})

	t.Run("401 does not refresh", func(t *testing.T) {
		f := setupManager(t)
		f.login(t, "t1")
		f.api.handle(session.PathLogout, reply(http.StatusUnauthorized, `{}`))
		f.api.handle(session.PathRefresh, reply(http.StatusOK, `{"token":"t2"}`))

		require.NoError(t, f.manager.Logout(context.Background()))
		require.Zero(t, f.api.hits(session.PathRefresh))
		require.False(t, f.manager.IsAuthenticated())
	})

	t.Run("already logged out", func(t *testing.T) {
		f := setupManager(t)
		f.api.handle(session.PathLogout, reply(http.StatusNoContent, ""))
		require.NoError(t, f.manager.Logout(context.Background()))
		require.NoError(t, f.manager.Logout(context.Background()))
		require.Equal(t, session.StateUnauthenticated, f.manager.State())
	})
}

func TestManager_CheckAuth(t *testing.T) {
	t.Run("no stored token", func(t *testing.T) {
		f := setupManager(t)

		state, err := f.manager.CheckAuth(context.Background())
		require.NoError(t, err)
		require.Equal(t, session.StateUnauthenticated, state)
		require.Zero(t, f.api.totalHits())
	})

	t.Run("valid token refreshes profile", func(t *testing.T) {
		f := setupManager(t)
		require.NoError(t, f.store.Set(context.Background(), tokenstore.AccessToken{Value: "t1"}, &tokenstore.UserProfile{ID: 1, FirstName: "Stale"}))
		f.api.handle(session.PathMe, requireBearer("t1", `{"id":1,"email":"a@b.com","firstName":"Ada","lastName":"Byron"}`))

		state, err := f.manager.CheckAuth(context.Background())
		require.NoError(t, err)
		require.Equal(t, session.StateAuthenticated, state)

		profile, err := f.store.Profile(context.Background())
		require.NoError(t, err)
		require.Equal(t, "Ada", profile.FirstName)
	})

	t.Run("rejected token", func(t *testing.T) {
		f := setupManager(t)
		require.NoError(t, f.store.Set(context.Background(), tokenstore.AccessToken{Value: "t1"}, &tokenstore.UserProfile{ID: 1}))
		f.api.handle(session.PathMe, reply(http.StatusUnauthorized, `{}`))
		f.api.handle(session.PathRefresh, reply(http.StatusUnauthorized, `{}`))

		state, err := f.manager.CheckAuth(context.Background())
		require.NoError(t, err)
		require.Equal(t, session.StateUnauthenticated, state)

		snap, err := f.store.Snapshot(context.Background())
		require.NoError(t, err)
		require.Nil(t, snap.Token)
		require.Nil(t, snap.Profile)
		require.Equal(t, 1, f.api.hits(session.PathRefresh))
	})

	t.Run("expired token recovered by refresh", func(t *testing.T) {
		f := setupManager(t)
		require.NoError(t, f.store.Set(context.Background(), tokenstore.AccessToken{Value: "t1"}, nil))
		f.api.handle(session.PathMe, requireBearer("t2", `{"id":7}`))
		f.api.handle(session.PathRefresh, reply(http.StatusOK, `{"token":"t2","expiresIn":60}`))

		state, err := f.manager.CheckAuth(context.Background())
		require.NoError(t, err)
		require.Equal(t, session.StateAuthenticated, state)
		require.Equal(t, []string{"Bearer t1", "Bearer t2"}, f.api.authHeaders(session.PathMe))
	})
}

func TestManager_RefreshOnProtectedRequest(t *testing.T) {
	f := setupManager(t)
	f.login(t, "t1")
	f.api.handle(usersPath, requireBearer("t2", `[{"id":1}]`))
	f.api.handle(session.PathRefresh, reply(http.StatusOK, `{"token":"t2","expiresIn":3600}`))

	var users []map[string]any
	require.NoError(t, f.client.Get(context.Background(), usersPath, &users))

	require.Len(t, users, 1)
	require.Equal(t, 1, f.api.hits(session.PathRefresh))
	require.Equal(t, []string{"Bearer t1", "Bearer t2"}, f.api.authHeaders(usersPath))

	snap, err := f.store.Snapshot(context.Background())
	require.NoError(t, err)
	require.Equal(t, "t2", snap.Token.Value)
	require.Equal(t, int64(1), snap.Profile.ID, "refresh leaves the profile untouched")
	require.True(t, f.manager.IsAuthenticated())
}

func TestManager_RefreshFailureEndsSession(t *testing.T) {
	f := setupManager(t)
	f.login(t, "t1")
	f.router.Navigate(navigation.Location{Path: navigation.RouteUsers})
	f.api.handle(usersPath, reply(http.StatusUnauthorized, `{}`))
	f.api.handle(session.PathRefresh, reply(http.StatusUnauthorized, `{}`))

	err := f.client.Get(context.Background(), usersPath, nil)
	require.True(t, session.IsKind(err, session.RefreshFailed))
	require.ErrorIs(t, err, apperrors.ErrRefreshFailed)

	require.Equal(t, 1, f.api.hits(usersPath), "no resubmission after a failed refresh")
	require.Equal(t, 1, f.api.hits(session.PathRefresh))
	require.False(t, f.manager.IsAuthenticated())
	token, err := f.store.Get(context.Background())
	require.NoError(t, err)
	require.Nil(t, token)
	require.Equal(t, navigation.Location{Path: navigation.RouteLogin, From: navigation.RouteUsers}, f.router.Current())
}

func TestManager_LogoutWinsOverInFlightRefresh(t *testing.T) {
	f := setupManager(t)
	f.login(t, "t1")

	entered := make(chan struct{})
	release := make(chan struct{})
	f.api.handle(session.PathRefresh, func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		reply(http.StatusOK, `{"token":"t2","expiresIn":3600}`)(w, r)
	})
	f.api.handle(session.PathLogout, reply(http.StatusNoContent, ""))

	refreshErr := make(chan error, 1)
	go func() {
		_, err := f.manager.RefreshToken(context.Background())
		refreshErr <- err
	}()

	<-entered
	require.NoError(t, f.manager.Logout(context.Background()))
	close(release)

	err := <-refreshErr
	require.ErrorIs(t, err, session.ErrSessionEnded)
	require.True(t, session.IsKind(err, session.RefreshFailed))

	snap, err := f.store.Snapshot(context.Background())
	require.NoError(t, err)
	require.Nil(t, snap.Token, "logout must win over a refresh that completes later")
	require.False(t, snap.Authenticated)
	require.Equal(t, session.StateUnauthenticated, f.manager.State())
}

func TestManager_ConcurrentRefreshSharesOneCall(t *testing.T) {
	f := setupManager(t)
	f.login(t, "t1")

	const callers = 5
	entered := make(chan struct{}, callers)
	release := make(chan struct{})
	f.api.handle(session.PathRefresh, func(w http.ResponseWriter, r *http.Request) {
		entered <- struct{}{}
		<-release
		reply(http.StatusOK, `{"token":"t2"}`)(w, r)
	})

	var ready, done sync.WaitGroup
	ready.Add(callers)
	done.Add(callers)
	tokens := make([]string, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer done.Done()
			ready.Done()
			token, err := f.manager.RefreshToken(context.Background())
			tokens[i], errs[i] = token.Value, err
		}(i)
	}

	ready.Wait()
	<-entered
	time.Sleep(50 * time.Millisecond)
	close(release)
	done.Wait()

	require.Equal(t, 1, f.api.hits(session.PathRefresh))
	for i := range tokens {
		require.NoError(t, errs[i])
		require.Equal(t, "t2", tokens[i])
	}
}

// blockingRefresh answers the refresh endpoint with t2 once release is closed.
func blockingRefresh(entered chan<- struct{}, release <-chan struct{}) http.HandlerFunc {
	var once sync.Once
	return func(w http.ResponseWriter, r *http.Request) {
		once.Do(func() { close(entered) })
		<-release
		reply(http.StatusOK, `{"token":"t2","expiresIn":3600}`)(w, r)
	}
}

func TestManager_RefreshOutlivesCancelledCaller(t *testing.T) {
	f := setupManager(t)
	f.login(t, "t1")
	entered, release := make(chan struct{}), make(chan struct{})
	f.api.handle(session.PathRefresh, blockingRefresh(entered, release))

	firstCtx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := f.manager.RefreshToken(firstCtx)
		firstErr <- err
	}()
	<-entered

	type result struct {
		token tokenstore.AccessToken
		err   error
	}
	second := make(chan result, 1)
	go func() {
		token, err := f.manager.RefreshToken(context.Background())
		second <- result{token, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancel()
	require.ErrorIs(t, <-firstErr, context.Canceled)
	close(release)

	res := <-second
	require.NoError(t, res.err)
	require.Equal(t, "t2", res.token.Value)
	require.Equal(t, 1, f.api.hits(session.PathRefresh))
	token, err := f.store.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, "t2", token.Value)
	require.True(t, f.manager.IsAuthenticated())
}

func TestManager_CancelledRequestDuringSharedRefreshKeepsSession(t *testing.T) {
	f := setupManager(t)
	f.login(t, "t1")
	f.router.Navigate(navigation.Location{Path: navigation.RouteUsers})
	entered, release := make(chan struct{}), make(chan struct{})
	f.api.handle(session.PathRefresh, blockingRefresh(entered, release))
	f.api.handle(usersPath, requireBearer("t2", `[]`))

	cancelledCtx, cancel := context.WithCancel(context.Background())
	cancelledErr, liveErr := make(chan error, 1), make(chan error, 1)
	go func() { cancelledErr <- f.client.Get(cancelledCtx, usersPath, nil) }()
	go func() { liveErr <- f.client.Get(context.Background(), usersPath, nil) }()

	<-entered
	time.Sleep(50 * time.Millisecond)
	cancel()
	require.ErrorIs(t, <-cancelledErr, context.Canceled)
	close(release)

	require.NoError(t, <-liveErr)
	require.Equal(t, 1, f.api.hits(session.PathRefresh))
	require.True(t, f.manager.IsAuthenticated())
	token, err := f.store.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, "t2", token.Value)
	require.Equal(t, navigation.RouteUsers, f.router.Current().Path, "no redirect to login")
}

func TestManager_OverviewServerErrorDuringRefreshKeepsSession(t *testing.T) {
	f := setupManager(t)
	f.login(t, "t1")
	f.router.Navigate(navigation.Location{Path: navigation.RouteDashboard})
	entered, release := make(chan struct{}), make(chan struct{})
	f.api.handle(session.PathRefresh, blockingRefresh(entered, release))
	f.api.handle(admin.BasePath+"/users", func(w http.ResponseWriter, r *http.Request) {
		<-entered
		reply(http.StatusInternalServerError, `{"error":"boom"}`)(w, r)
	})
	f.api.handle(admin.BasePath+"/sessions", requireBearer("t2", `[]`))
	f.api.handle(admin.BasePath+"/registrations", requireBearer("t2", `[]`))

	_, err := admin.New(f.client).Overview(context.Background())
	require.ErrorIs(t, err, apiclient.ErrServer)
	close(release)

	require.Eventually(t, func() bool {
		token, err := f.store.Get(context.Background())
		return err == nil && token != nil && token.Value == "t2"
	}, time.Second, 10*time.Millisecond, "the detached refresh still stores its token")
	require.True(t, f.manager.IsAuthenticated())
	require.Equal(t, navigation.RouteDashboard, f.router.Current().Path)
	require.Equal(t, 1, f.api.hits(session.PathRefresh))
}

func TestManager_RefreshMissingTokenFails(t *testing.T) {
	f := setupManager(t)
	f.login(t, "t1")
	f.api.handle(session.PathRefresh, reply(http.StatusOK, `{}`))

	_, err := f.manager.RefreshToken(context.Background())
	require.True(t, session.IsKind(err, session.RefreshFailed))

	token, err := f.store.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, "t1", token.Value, "the manager does not clear on refresh failure")
}

func TestManager_Invalidate(t *testing.T) {
	f := setupManager(t)
	f.login(t, "t1")

	require.NoError(t, f.manager.Invalidate(context.Background()))
	require.NoError(t, f.manager.Invalidate(context.Background()))

	require.Equal(t, session.StateUnauthenticated, f.manager.State())
	s, err := f.manager.Session(context.Background())
	require.NoError(t, err)
	require.Nil(t, s.Token)
	require.False(t, s.Authenticated())
}

func TestManager_Restore(t *testing.T) {
	t.Run("persisted session", func(t *testing.T) {
		f := setupManager(t)
		require.NoError(t, f.store.Set(context.Background(), tokenstore.AccessToken{Value: "t1"}, &tokenstore.UserProfile{ID: 3}))

		state, err := f.manager.Restore(context.Background())
		require.NoError(t, err)
		require.Equal(t, session.StateAuthenticated, state)
		require.Zero(t, f.api.totalHits(), "restore never calls the server")

		s, err := f.manager.Session(context.Background())
		require.NoError(t, err)
		require.Equal(t, int64(3), s.Profile.ID)
	})

	t.Run("empty store", func(t *testing.T) {
		f := setupManager(t)
		state, err := f.manager.Restore(context.Background())
		require.NoError(t, err)
		require.Equal(t, session.StateUnauthenticated, state)
	})

	t.Run("only while unknown", func(t *testing.T) {
		f := setupManager(t)
		require.NoError(t, f.manager.Invalidate(context.Background()))
		require.NoError(t, f.store.Set(context.Background(), tokenstore.AccessToken{Value: "t1"}, nil))

		state, err := f.manager.Restore(context.Background())
		require.NoError(t, err)
		require.Equal(t, session.StateUnauthenticated, state)
	})
}

func TestState_String(t *testing.T) {
	require.Equal(t, "unknown", session.StateUnknown.String())
	require.Equal(t, "authenticated", session.StateAuthenticated.String())
	require.Equal(t, "unauthenticated", session.StateUnauthenticated.String())
}
