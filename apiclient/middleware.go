package apiclient

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/jrsteele09/drivesim-admin/navigation"
	"github.com/jrsteele09/drivesim-admin/tokenstore"
	"github.com/rs/zerolog"
)

// Handler submits one attempt and returns its response. Responses with status >= 400
// are returned as *StatusError.
type Handler func(ctx context.Context, a *Attempt) (*http.Response, error)

// Middleware wraps a Handler with cross-cutting request/response behaviour.
type Middleware func(Handler) Handler

// ChainMiddleware applies mw so that mw[0] is the outermost layer.
func ChainMiddleware(h Handler, mw ...Middleware) Handler {
	chained := h
	// Apply middleware in reverse order
	for i := len(mw) - 1; i >= 0; i-- {
		chained = mw[i](chained)
	}
	return chained
}

// TokenReader is the read side of the token store.
type TokenReader interface {
	Get(ctx context.Context) (*tokenstore.AccessToken, error)
}

// Refresher is the part of the session manager the refresh middleware drives.
type Refresher interface {
	RefreshToken(ctx context.Context) (tokenstore.AccessToken, error)
	Invalidate(ctx context.Context) error
}

const HeaderRequestID = "X-Request-ID"

// RequestID tags every attempt with an X-Request-ID unless the caller already set one.
// A retry keeps the id of the original attempt.
func RequestID() Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, a *Attempt) (*http.Response, error) {
			if a.Request.Header.Get(HeaderRequestID) == "" {
				a.Request.Header.Set(HeaderRequestID, uuid.NewString())
			}
			return next(ctx, a)
		}
	}
}

// BearerAuth injects the stored access token. Requests pass through unmodified when
// there is no token.
func BearerAuth(store TokenReader, logger zerolog.Logger) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, a *Attempt) (*http.Response, error) {
			token, err := store.Get(ctx)
			if err != nil {
				logger.Warn().Err(err).Str("url", a.Request.URL.String()).Msg("token store unavailable, sending request without credentials")
			}
			if token != nil {
				token.OAuth2().SetAuthHeader(a.Request)
			}
			return next(ctx, a)
		}
	}
}

// RefreshConfig configures RefreshOnUnauthorized.
type RefreshConfig struct {
	Refresher  Refresher
	Navigator  navigation.Navigator
	LoginRoute string
	Logger     zerolog.Logger
	Metrics    *Metrics // optional
}

// RefreshOnUnauthorized refreshes the access token when a first attempt is rejected
// with 401 and resubmits the request once with the new token. When the refresh fails
// the session is invalidated, the navigator is sent to the login route (unless it is
// already there) and the refresh error is returned. A caller that cancels while the
// refresh is pending gets its context error and leaves the session alone.
func RefreshOnUnauthorized(cfg RefreshConfig) Middleware {
	loginRoute := cfg.LoginRoute
	if loginRoute == "" {
		loginRoute = navigation.RouteLogin
	}

	return func(next Handler) Handler {
		return func(ctx context.Context, a *Attempt) (*http.Response, error) {
			resp, err := next(ctx, a)
			if err == nil || a.NoRefresh || a.Retried() || !errors.Is(err, ErrUnauthorized) {
				return resp, err
			}

			token, refreshErr := cfg.Refresher.RefreshToken(ctx)
			if refreshErr != nil && abandoned(ctx, refreshErr) {
				cfg.Logger.Debug().Err(refreshErr).Str("url", a.Request.URL.String()).Msg("request cancelled during token refresh")
				return nil, refreshErr
			}
			if refreshErr != nil {
				cfg.Metrics.observeRefresh(false)
				cfg.Logger.Warn().Err(refreshErr).Str("url", a.Request.URL.String()).Msg("token refresh failed, ending session")
				if err := cfg.Refresher.Invalidate(ctx); err != nil {
					cfg.Logger.Error().Err(err).Msg("failed to clear session after refresh failure")
				}
				redirectToLogin(cfg.Navigator, loginRoute)
				return nil, refreshErr
			}
			cfg.Metrics.observeRefresh(true)

			retry := a.Retry(ctx)
			token.OAuth2().SetAuthHeader(retry.Request)
			return next(ctx, retry)
		}
	}
}

// abandoned reports whether the caller gave up while the refresh was pending. That is
// not a verdict on the session, so it is neither invalidated nor redirected.
func abandoned(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, context.Canceled)
}

func redirectToLogin(nav navigation.Navigator, loginRoute string) {
	if nav == nil {
		return
	}
	current := nav.Current()
	if current.Path == loginRoute {
		return
	}
	nav.Navigate(navigation.Location{Path: loginRoute, From: current.Path})
}

// LogServerErrors logs 5xx responses. The error is returned unchanged.
func LogServerErrors(logger zerolog.Logger) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, a *Attempt) (*http.Response, error) {
			resp, err := next(ctx, a)
			if errors.Is(err, ErrServer) {
				logger.Error().
					Str("method", a.Request.Method).
					Str("url", a.Request.URL.String()).
					Int("status", StatusCode(err)).
					Str("request_id", a.Request.Header.Get(HeaderRequestID)).
					Msg("server error")
			}
			return resp, err
		}
	}
}
