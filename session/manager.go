package session

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/jrsteele09/drivesim-admin/apiclient"
	"github.com/jrsteele09/drivesim-admin/navigation"
	"github.com/jrsteele09/drivesim-admin/tokenstore"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const refreshKey = "refresh"

// API is the part of *apiclient.Client the manager uses.
type API interface {
	Do(ctx context.Context, method, path string, in, out any, opts ...apiclient.RequestOption) error
}

var _ API = (*apiclient.Client)(nil)
var _ apiclient.Refresher = (*Manager)(nil)

// ProfileFunc builds the profile stored when the login response carries none.
type ProfileFunc func(email string) tokenstore.UserProfile

// DefaultProfile returns a ProfileFunc producing {ID: 0, Email: email, FirstName: firstName}.
func DefaultProfile(firstName string) ProfileFunc {
	return func(email string) tokenstore.UserProfile {
		return tokenstore.UserProfile{Email: email, FirstName: firstName}
	}
}

// Manager owns the authentication state and is the only writer of the token store
// apart from the explicit Clear performed through Invalidate.
type Manager struct {
	api            API
	store          *tokenstore.Store
	nav            navigation.Navigator
	loginRoute     string
	defaultProfile ProfileFunc
	logger         zerolog.Logger
	nowTime        func() time.Time

	// mu guards state, epoch and every store write. It is never held across a request.
	mu    sync.Mutex
	state State
	// epoch changes whenever a session episode starts or ends. In-flight work that
	// observed an older epoch must not write.
	epoch uint64

	refreshGroup singleflight.Group
}

// ManagerOption customises a Manager.
type ManagerOption func(*Manager)

// WithNowTime sets the clock used to compute token expiry (primarily for testing).
func WithNowTime(nowFunc func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowTime = nowFunc
	}
}

func WithLogger(logger zerolog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithLoginRoute sets the route logout navigates to.
func WithLoginRoute(route string) ManagerOption {
	return func(m *Manager) {
		if route != "" {
			m.loginRoute = route
		}
	}
}

// WithDefaultProfile replaces the profile stored when login returns no user.
func WithDefaultProfile(fn ProfileFunc) ManagerOption {
	return func(m *Manager) {
		m.defaultProfile = fn
	}
}

// WithoutDefaultProfile stores no profile at all when login returns no user.
func WithoutDefaultProfile() ManagerOption {
	return func(m *Manager) {
		m.defaultProfile = nil
	}
}

// NewManager creates a Manager in StateUnknown.
func NewManager(api API, store *tokenstore.Store, nav navigation.Navigator, options ...ManagerOption) (*Manager, error) {
	if api == nil {
		return nil, errors.New("[NewManager] api client is required")
	}
	if store == nil {
		return nil, errors.New("[NewManager] token store is required")
	}
	if nav == nil {
		return nil, errors.New("[NewManager] navigator is required")
	}

	m := &Manager{
		api:            api,
		store:          store,
		nav:            nav,
		loginRoute:     navigation.RouteLogin,
		defaultProfile: DefaultProfile("User"),
		logger:         log.Logger,
		nowTime:        time.Now,
		state:          StateUnknown,
	}
	for _, opt := range options {
		opt(m)
	}
	return m, nil
}

// Login exchanges credentials for a token and starts a new session episode. On failure
// the store is untouched and an already authenticated session stays authenticated.
func (m *Manager) Login(ctx context.Context, email, password string) (Session, error) {
	var resp tokenResponse
	err := m.api.Do(ctx, http.MethodPost, PathLogin, loginRequest{Email: email, Password: password}, &resp, apiclient.NoRefresh())
	if err == nil && resp.Token == "" {
		err = errMissingToken
	}
	if err != nil {
		m.failLogin()
		authErr := &AuthError{Kind: LoginFailed, Err: err}
		if errors.Is(err, apiclient.ErrClient) {
			authErr.Kind = InvalidCredentials
		}
		m.logger.Warn().Err(err).Str("email", email).Str("kind", authErr.Kind.String()).Msg("login failed")
		return Session{State: m.State()}, authErr
	}

	profile := resp.User
	if profile == nil && m.defaultProfile != nil {
		p := m.defaultProfile(email)
		profile = &p
	}
	token := tokenstore.NewAccessToken(resp.Token, resp.ExpiresIn, m.nowTime())

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Replace(ctx, token, profile); err != nil {
		return Session{State: m.state}, errors.Wrap(err, "[Manager.Login] store session")
	}
	m.epoch++
	m.state = StateAuthenticated
	m.logger.Info().Str("email", email).Bool("profile_from_server", resp.User != nil).Msg("logged in")

	return Session{Token: &token, Profile: profile, State: m.state}, nil
}

func (m *Manager) failLogin() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateAuthenticated {
		m.state = StateUnauthenticated
	}
}

// Logout ends the session. The server call is best effort: its failure is logged and
// the local session is cleared regardless. The returned error only reports a failure
// to clear the local store.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.api.Do(ctx, http.MethodPost, PathLogout, nil, nil, apiclient.NoRefresh()); err != nil {
		m.logger.Warn().Err(err).Msg("server logout failed, clearing local session anyway")
	}

	err := m.Invalidate(ctx)
	m.nav.Navigate(navigation.Location{Path: m.loginRoute})
	if err != nil {
		return errors.Wrap(err, "[Manager.Logout]")
	}
	m.logger.Info().Msg("logged out")
	return nil
}

// CheckAuth validates the stored token against the server. Only local store failures
// are returned as errors; a rejected token yields StateUnauthenticated.
func (m *Manager) CheckAuth(ctx context.Context) (State, error) {
	token, err := m.store.Get(ctx)
	if err != nil {
		return m.State(), errors.Wrap(err, "[Manager.CheckAuth] read token")
	}
	if token == nil {
		m.mu.Lock()
		m.endEpisode()
		m.mu.Unlock()
		return StateUnauthenticated, nil
	}

	epoch := m.currentEpoch()
	var me tokenstore.UserProfile
	if err := m.api.Do(ctx, http.MethodGet, PathMe, nil, &me); err != nil {
		m.logger.Info().Err(err).Msg("stored session rejected")
		if err := m.Invalidate(ctx); err != nil {
			return StateUnauthenticated, errors.Wrap(err, "[Manager.CheckAuth]")
		}
		return StateUnauthenticated, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch != epoch {
		return m.state, nil
	}
	if err := m.store.SetProfile(ctx, me); err != nil {
		return m.state, errors.Wrap(err, "[Manager.CheckAuth] store profile")
	}
	m.state = StateAuthenticated
	return m.state, nil
}

// RefreshToken obtains a new access token. Concurrent callers share one request, which
// runs detached from any single caller's cancellation; a caller whose ctx ends stops
// waiting with ctx.Err() while the shared refresh completes for the others. The manager
// never clears the session on failure; callers decide via Invalidate.
func (m *Manager) RefreshToken(ctx context.Context) (tokenstore.AccessToken, error) {
	ch := m.refreshGroup.DoChan(refreshKey, func() (any, error) {
		return m.refresh(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		m.logger.Debug().Err(ctx.Err()).Msg("stopped waiting for token refresh")
		return tokenstore.AccessToken{}, errors.Wrap(ctx.Err(), "[Manager.RefreshToken]")
	case res := <-ch:
		if res.Shared {
			m.logger.Debug().Msg("joined in-flight token refresh")
		}
		if res.Err != nil {
			return tokenstore.AccessToken{}, res.Err
		}
		return res.Val.(tokenstore.AccessToken), nil
	}
}

func (m *Manager) refresh(ctx context.Context) (tokenstore.AccessToken, error) {
	epoch := m.currentEpoch()

	var resp tokenResponse
	err := m.api.Do(ctx, http.MethodPost, PathRefresh, nil, &resp, apiclient.NoRefresh())
	if err == nil && resp.Token == "" {
		err = errMissingToken
	}
	if err != nil {
		return tokenstore.AccessToken{}, &AuthError{Kind: RefreshFailed, Err: err}
	}
	token := tokenstore.NewAccessToken(resp.Token, resp.ExpiresIn, m.nowTime())

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch != epoch || m.state == StateUnauthenticated {
		m.logger.Debug().Msg("session ended during refresh, discarding token")
		return tokenstore.AccessToken{}, &AuthError{Kind: RefreshFailed, Err: ErrSessionEnded}
	}
	if err := m.store.Set(ctx, token, nil); err != nil {
		return tokenstore.AccessToken{}, &AuthError{Kind: RefreshFailed, Err: errors.Wrap(err, "[Manager.RefreshToken] store token")}
	}
	m.logger.Debug().Time("expiry", token.Expiry).Msg("access token refreshed")
	return token, nil
}

// Invalidate ends the current episode and clears the store. It is idempotent.
func (m *Manager) Invalidate(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.endEpisode()
	if err := m.store.Clear(ctx); err != nil {
		return errors.Wrap(err, "[Manager.Invalidate] clear store")
	}
	return nil
}

// Restore sets the state from the persisted flag and token without calling the server.
// It only acts while the state is still unknown; CheckAuth confirms the result.
func (m *Manager) Restore(ctx context.Context) (State, error) {
	snap, err := m.store.Snapshot(ctx)
	if err != nil {
		return m.State(), errors.Wrap(err, "[Manager.Restore]")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateUnknown {
		return m.state, nil
	}
	if snap.Token != nil && snap.Authenticated {
		m.state = StateAuthenticated
	} else {
		m.state = StateUnauthenticated
	}
	m.logger.Debug().Stringer("snapshot", snap).Stringer("state", m.state).Msg("session restored")
	return m.state, nil
}

// Session returns the stored token and profile together with the current state.
func (m *Manager) Session(ctx context.Context) (Session, error) {
	snap, err := m.store.Snapshot(ctx)
	if err != nil {
		return Session{State: m.State()}, errors.Wrap(err, "[Manager.Session]")
	}
	return Session{Token: snap.Token, Profile: snap.Profile, State: m.State()}, nil
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) IsAuthenticated() bool {
	return m.State() == StateAuthenticated
}

func (m *Manager) currentEpoch() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.epoch
}

// endEpisode must be called with mu held.
func (m *Manager) endEpisode() {
	m.epoch++
	m.state = StateUnauthenticated
}
