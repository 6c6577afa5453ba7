package dashboard

import (
	"context"
	"net/http"

	"github.com/jrsteele09/drivesim-admin/admin"
	"github.com/jrsteele09/drivesim-admin/apiclient"
	"github.com/jrsteele09/drivesim-admin/guard"
	"github.com/jrsteele09/drivesim-admin/internal/config"
	"github.com/jrsteele09/drivesim-admin/navigation"
	"github.com/jrsteele09/drivesim-admin/session"
	"github.com/jrsteele09/drivesim-admin/tokenstore"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

// App wires the admin client together: one token store shared by the HTTP client, the
// session manager and the guard.
type App struct {
	Config  config.Config
	Logger  zerolog.Logger
	Store   *tokenstore.Store
	Router  *navigation.Router
	Client  *apiclient.Client
	Session *session.Manager
	Guard   *guard.Guard
	Admin   *admin.Service
	Metrics *apiclient.Metrics

	closers []func() error
}

type options struct {
	logger         *zerolog.Logger
	httpClient     *http.Client
	kv             tokenstore.KV
	registry       prometheus.Registerer
	startRoute     string
	tracerProvider trace.TracerProvider
}

type Option func(*options)

func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = &logger
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) {
		o.httpClient = hc
	}
}

// WithKV overrides the store backend chosen by configuration.
func WithKV(kv tokenstore.KV) Option {
	return func(o *options) {
		o.kv = kv
	}
}

// WithRegistry registers the client metrics with reg instead of a private registry.
func WithRegistry(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registry = reg
	}
}

// WithStartRoute sets the initial navigation location (default "/").
func WithStartRoute(route string) Option {
	return func(o *options) {
		o.startRoute = route
	}
}

// WithTracerProvider records client spans with tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		o.tracerProvider = tp
	}
}

// New builds the App from cfg.
func New(cfg config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, errors.New("[dashboard.New] config is required")
	}
	o := options{startRoute: navigation.RouteDashboard}
	for _, opt := range opts {
		opt(&o)
	}
	logger := log.Logger
	if o.logger != nil {
		logger = *o.logger
	}
	if o.registry == nil {
		o.registry = prometheus.NewRegistry()
	}

	app := &App{Config: cfg, Logger: logger}

	kv := o.kv
	if kv == nil {
		var closeKV func() error
		var err error
		kv, closeKV, err = NewKV(cfg)
		if err != nil {
			return nil, errors.Wrap(err, "[dashboard.New]")
		}
		if closeKV != nil {
			app.closers = append(app.closers, closeKV)
		}
	}
	app.Store = tokenstore.New(kv)
	app.Router = navigation.NewRouter(o.startRoute)

	clientOpts := []apiclient.Option{
		apiclient.WithLogger(logger),
		apiclient.WithTimeout(cfg.GetRequestTimeout()),
	}
	if o.httpClient != nil {
		clientOpts = append(clientOpts, apiclient.WithHTTPClient(o.httpClient))
	}
	client, err := apiclient.New(cfg.GetBaseURL(), clientOpts...)
	if err != nil {
		app.Close()
		return nil, errors.Wrap(err, "[dashboard.New]")
	}
	app.Client = client

	managerOpts := []session.ManagerOption{
		session.WithLogger(logger),
		session.WithLoginRoute(cfg.GetLoginRoute()),
	}
	if cfg.GetDefaultProfileEnabled() {
		managerOpts = append(managerOpts, session.WithDefaultProfile(session.DefaultProfile(cfg.GetDefaultProfileFirstName())))
	} else {
		managerOpts = append(managerOpts, session.WithoutDefaultProfile())
	}
	manager, err := session.NewManager(client, app.Store, app.Router, managerOpts...)
	if err != nil {
		app.Close()
		return nil, errors.Wrap(err, "[dashboard.New]")
	}
	app.Session = manager

	// The refresh layer needs the manager, so the chain is installed after it exists.
	app.Metrics = apiclient.NewMetrics(o.registry)
	chain := []apiclient.Middleware{
		apiclient.RequestID(),
		apiclient.LogServerErrors(logger),
		apiclient.RefreshOnUnauthorized(apiclient.RefreshConfig{
			Refresher:  manager,
			Navigator:  app.Router,
			LoginRoute: cfg.GetLoginRoute(),
			Logger:     logger,
			Metrics:    app.Metrics,
		}),
		apiclient.Instrument(app.Metrics),
		apiclient.Trace(apiclient.TraceConfig{TracerProvider: o.tracerProvider}),
	}
	if cfg.GetBreakerEnabled() {
		chain = append(chain, apiclient.CircuitBreaker(apiclient.BreakerConfig{
			Timeout:      cfg.GetBreakerTimeout(),
			MinRequests:  uint32(max(cfg.GetBreakerMinRequests(), 0)),
			FailureRatio: cfg.GetBreakerFailureRatio(),
			Logger:       logger,
		}))
	}
	client.Use(append(chain, apiclient.BearerAuth(app.Store, logger))...)

	app.Guard = guard.New(manager, app.Router, guard.WithLoginRoute(cfg.GetLoginRoute()), guard.WithLogger(logger))
	app.Admin = admin.New(client)
	return app, nil
}

// Start restores the persisted session and confirms it with the server.
func (a *App) Start(ctx context.Context) (session.State, error) {
	if _, err := a.Session.Restore(ctx); err != nil {
		return session.StateUnknown, errors.Wrap(err, "[App.Start]")
	}
	state, err := a.Session.CheckAuth(ctx)
	if err != nil {
		return state, errors.Wrap(err, "[App.Start]")
	}
	a.Logger.Debug().Stringer("state", state).Msg("session checked")
	return state, nil
}

// Close releases connections opened by New.
func (a *App) Close() error {
	var firstErr error
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.closers = nil
	return firstErr
}
