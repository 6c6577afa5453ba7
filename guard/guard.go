package guard

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/jrsteele09/drivesim-admin/navigation"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// FromParam is the query parameter carrying the view a guarded redirect came from.
const FromParam = "from"

// ErrLoginRequired is returned by Enter when the session is not authenticated.
var ErrLoginRequired = errors.New("login required")

// Authenticator reports the current authentication state. *session.Manager satisfies it.
type Authenticator interface {
	IsAuthenticated() bool
}

// Decision is the outcome of checking a protected view.
type Decision struct {
	Allowed  bool
	Redirect string // login route when not allowed
	From     string // the view the user was trying to reach
}

// Guard gates protected views on the session state.
type Guard struct {
	auth       Authenticator
	nav        navigation.Navigator
	loginRoute string
	logger     zerolog.Logger
}

type Option func(*Guard)

func WithLoginRoute(route string) Option {
	return func(g *Guard) {
		if route != "" {
			g.loginRoute = route
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(g *Guard) {
		g.logger = logger
	}
}

// New creates a Guard. nav may be nil when only the HTTP middleware is used.
func New(auth Authenticator, nav navigation.Navigator, opts ...Option) *Guard {
	g := &Guard{
		auth:       auth,
		nav:        nav,
		loginRoute: navigation.RouteLogin,
		logger:     log.Logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Check decides whether view may be shown. When it may not, the navigator is moved to
// the login route carrying view as the return location.
func (g *Guard) Check(view string) Decision {
	if g.auth.IsAuthenticated() {
		return Decision{Allowed: true}
	}

	d := Decision{Redirect: g.loginRoute, From: view}
	if g.nav != nil {
		g.nav.Navigate(navigation.Location{Path: d.Redirect, From: d.From})
	}
	g.logger.Debug().Str("view", view).Msg("redirecting unauthenticated view to login")
	return d
}

// Enter navigates to view if the session allows it.
func (g *Guard) Enter(view string) error {
	d := g.Check(view)
	if !d.Allowed {
		return fmt.Errorf("%s: %w", view, ErrLoginRequired)
	}
	if g.nav != nil {
		g.nav.Navigate(navigation.Location{Path: view})
	}
	return nil
}

// Middleware is the net/http form of the guard: unauthenticated requests are sent to
// the login route with the original request URI in the from parameter.
func (g *Guard) Middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !g.auth.IsAuthenticated() {
			http.Redirect(w, r, LoginURL(g.loginRoute, r.URL.RequestURI()), http.StatusSeeOther)
			return
		}
		next(w, r)
	}
}

// LoginURL builds loginRoute?from=<from>. An empty from yields the bare route.
func LoginURL(loginRoute, from string) string {
	if from == "" {
		return loginRoute
	}
	return loginRoute + "?" + url.Values{FromParam: {from}}.Encode()
}

// ReturnTo reads the from parameter of a login request, falling back to fallback. Only
// local paths are accepted so the parameter cannot redirect off-site.
func ReturnTo(r *http.Request, fallback string) string {
	from := r.URL.Query().Get(FromParam)
	if from == "" || from[0] != '/' || (len(from) > 1 && (from[1] == '/' || from[1] == '\\')) {
		return fallback
	}
	return from
}
