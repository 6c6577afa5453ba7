package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// ErrCircuitOpen is returned without contacting the API while the breaker is open.
var ErrCircuitOpen = errors.New("circuit open")

// BreakerConfig configures CircuitBreaker. Zero values take the defaults below.
type BreakerConfig struct {
	Name string
	// Timeout is how long the breaker stays open before letting a probe through.
	Timeout time.Duration
	// Interval clears the failure counts while closed. 0 keeps them until the next trip.
	Interval time.Duration
	// MinRequests is the number of attempts seen before FailureRatio is evaluated.
	MinRequests  uint32
	FailureRatio float64
	Logger       zerolog.Logger
}

func (c BreakerConfig) withDefaults() BreakerConfig {
	if c.Name == "" {
		c.Name = "drivesim-api"
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MinRequests == 0 {
		c.MinRequests = 5
	}
	if c.FailureRatio <= 0 {
		c.FailureRatio = 0.5
	}
	return c
}

// CircuitBreaker stops sending attempts after repeated network failures and 5xx
// responses. 4xx responses, 401 included, count as successes: the API answered.
func CircuitBreaker(cfg BreakerConfig) Middleware {
	cfg = cfg.withDefaults()
	cb := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			return !breakerFailure(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			cfg.Logger.Warn().Str("breaker", name).Stringer("from", from).Stringer("to", to).Msg("circuit breaker state change")
		},
	})

	return func(next Handler) Handler {
		return func(ctx context.Context, a *Attempt) (*http.Response, error) {
			resp, err := cb.Execute(func() (*http.Response, error) {
				return next(ctx, a)
			})
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return nil, fmt.Errorf("%s %s: %w", a.Request.Method, a.Request.URL.Redacted(), ErrCircuitOpen)
			}
			return resp, err
		}
	}
}

func breakerFailure(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	return errors.Is(err, ErrNetwork) || errors.Is(err, ErrServer)
}
