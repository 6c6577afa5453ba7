package mockapi

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/drivesim-admin/admin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const (
	defaultSecret   = "drivesim-mock-secret"
	defaultTokenTTL = 15 * time.Minute
)

// Server is an in-memory implementation of the DriveSim REST API used for local
// development of the admin tools and for end-to-end tests.
type Server struct {
	env    string
	mux    *http.ServeMux
	routes []string
	data   *data
	tokens *tokenIssuer
	logger zerolog.Logger

	omitLoginProfile bool
	loginLimiter     *loginLimiter
	tracer           trace.Tracer

	mu          sync.Mutex
	hits        map[string]int // "METHOD /path" -> count
	failRefresh bool
}

type Option func(*serverOptions)

type serverOptions struct {
	env              string
	secret           string
	tokenTTL         time.Duration
	now              func() time.Time
	logger           zerolog.Logger
	omitLoginProfile bool
	loginRate        rate.Limit
	loginBurst       int
	tracerProvider   trace.TracerProvider
}

// WithEnv sets the environment; routes are printed at start-up in DEV.
func WithEnv(env string) Option {
	return func(o *serverOptions) {
		o.env = strings.ToUpper(env)
	}
}

func WithSecret(secret string) Option {
	return func(o *serverOptions) {
		if secret != "" {
			o.secret = secret
		}
	}
}

// WithTokenTTL sets the lifetime of issued access tokens.
func WithTokenTTL(ttl time.Duration) Option {
	return func(o *serverOptions) {
		if ttl > 0 {
			o.tokenTTL = ttl
		}
	}
}

// WithNowFunc sets the clock used for token expiry (primarily for testing).
func WithNowFunc(now func() time.Time) Option {
	return func(o *serverOptions) {
		o.now = now
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(o *serverOptions) {
		o.logger = logger
	}
}

// WithoutLoginProfile makes the login endpoint omit the user object, as older API
// versions did.
func WithoutLoginProfile() Option {
	return func(o *serverOptions) {
		o.omitLoginProfile = true
	}
}

// WithLoginRateLimit limits login attempts per client IP to perSecond with the given
// burst. Non-positive values leave login unlimited.
func WithLoginRateLimit(perSecond float64, burst int) Option {
	return func(o *serverOptions) {
		if perSecond > 0 && burst > 0 {
			o.loginRate = rate.Limit(perSecond)
			o.loginBurst = burst
		}
	}
}

// WithTracerProvider sets the provider for server spans. The global provider is used
// otherwise.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *serverOptions) {
		o.tracerProvider = tp
	}
}

func New(options ...Option) *Server {
	o := serverOptions{
		secret:   defaultSecret,
		tokenTTL: defaultTokenTTL,
		now:      time.Now,
		logger:   log.Logger,
	}
	for _, opt := range options {
		opt(&o)
	}
	if o.tracerProvider == nil {
		o.tracerProvider = otel.GetTracerProvider()
	}

	s := &Server{
		env:              o.env,
		mux:              http.NewServeMux(),
		data:             newData(),
		tokens:           newTokenIssuer(o.secret, o.tokenTTL, o.now),
		logger:           o.logger,
		omitLoginProfile: o.omitLoginProfile,
		hits:             make(map[string]int),
		tracer:           o.tracerProvider.Tracer(tracerName),
	}
	if o.loginRate > 0 {
		s.loginLimiter = newLoginLimiter(o.loginRate, o.loginBurst)
	}
	s.initRoutes()
	s.logRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.hits[r.Method+" "+r.URL.Path]++
	s.mu.Unlock()
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteFunc(pattern string, handler http.HandlerFunc) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) initRoutes() {
	// AUTH
	s.RegisterRouteFunc("POST "+RouteAuthLogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware(s.RateLimitLogin)...))
	s.RegisterRouteFunc("POST "+RouteAuthRefresh, ChainMiddleware(s.RefreshHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware(s.RequireAuth)...))
	s.RegisterRouteFunc("GET "+RouteAuthMe, ChainMiddleware(s.MeHandler(), s.APIMiddleware(s.RequireAuth)...))

	// USERS
	s.RegisterRouteFunc("GET "+RouteUsers, ChainMiddleware(s.ListUsersHandler(), s.APIMiddleware(s.RequireAuth)...))
	s.RegisterRouteFunc("POST "+RouteUsers, ChainMiddleware(s.CreateUserHandler(), s.APIMiddleware(s.RequireAuth)...))
	s.RegisterRouteFunc("GET "+RouteUser, ChainMiddleware(s.GetUserHandler(), s.APIMiddleware(s.RequireAuth)...))
	s.RegisterRouteFunc("PUT "+RouteUserUpdate, ChainMiddleware(s.UpdateUserHandler(), s.APIMiddleware(s.RequireAuth)...))
	s.RegisterRouteFunc("DELETE "+RouteUser, ChainMiddleware(s.DeleteUserHandler(), s.APIMiddleware(s.RequireAuth)...))

	// SESSIONS
	s.RegisterRouteFunc("GET "+RouteSessions, ChainMiddleware(s.ListSessionsHandler(), s.APIMiddleware(s.RequireAuth)...))
	s.RegisterRouteFunc("GET "+RouteSession, ChainMiddleware(s.GetSessionHandler(), s.APIMiddleware(s.RequireAuth)...))
	s.RegisterRouteFunc("PUT "+RouteSessionUpdate, ChainMiddleware(s.UpdateSessionHandler(), s.APIMiddleware(s.RequireAuth)...))
	s.RegisterRouteFunc("DELETE "+RouteSession, ChainMiddleware(s.DeleteSessionHandler(), s.APIMiddleware(s.RequireAuth)...))

	// REGISTRATIONS
	s.RegisterRouteFunc("GET "+RouteRegistrations, ChainMiddleware(s.ListRegistrationsHandler(), s.APIMiddleware(s.RequireAuth)...))
	s.RegisterRouteFunc("GET "+RouteRegistration, ChainMiddleware(s.GetRegistrationHandler(), s.APIMiddleware(s.RequireAuth)...))
	s.RegisterRouteFunc("PUT "+RouteRegistrationUpdate, ChainMiddleware(s.UpdateRegistrationHandler(), s.APIMiddleware(s.RequireAuth)...))
	s.RegisterRouteFunc("DELETE "+RouteRegistration, ChainMiddleware(s.DeleteRegistrationHandler(), s.APIMiddleware(s.RequireAuth)...))
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		method, path, _ := strings.Cut(route, " ")
		s.logger.Info().Msgf("[%s] %s", colourMethod(method), path)
	}
}

// AddUser stores an account that can log in with password.
func (s *Server) AddUser(user admin.User, password string) (admin.User, error) {
	user.Password = password
	return s.data.createUser(user)
}

func (s *Server) AddSession(session admin.TrainingSession) admin.TrainingSession {
	return s.data.createSession(session)
}

// AddRegistration books the stored user onto the stored session.
func (s *Server) AddRegistration(r admin.Registration, userID, sessionID int64) (admin.Registration, error) {
	return s.data.createRegistration(r, userID, sessionID)
}

// Hits returns how many requests were received for method and path.
func (s *Server) Hits(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[method+" "+path]
}

// SetRefreshFailure makes the refresh endpoint reject every request.
func (s *Server) SetRefreshFailure(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failRefresh = fail
}

func (s *Server) refreshFails() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failRefresh
}

// ExpireAccessTokens rejects every token issued so far on API calls. The tokens can
// still be exchanged at the refresh endpoint.
func (s *Server) ExpireAccessTokens() {
	s.tokens.expireAll()
}
