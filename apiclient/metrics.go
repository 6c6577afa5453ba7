package apiclient

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the client's Prometheus collectors.
type Metrics struct {
	Requests  *prometheus.CounterVec
	Retries   prometheus.Counter
	Refreshes *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg when it is non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "drivesim_api_requests_total",
				Help: "API attempts by method and outcome",
			},
			[]string{"method", "outcome"},
		),
		Retries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "drivesim_api_retries_total",
			Help: "Requests resubmitted after a token refresh",
		}),
		Refreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "drivesim_api_token_refreshes_total",
				Help: "Token refreshes triggered by 401 responses",
			},
			[]string{"result"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Requests, m.Retries, m.Refreshes)
	}
	return m
}

// Instrument counts every attempt by outcome.
func Instrument(m *Metrics) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, a *Attempt) (*http.Response, error) {
			if a.Retried() {
				m.Retries.Inc()
			}
			resp, err := next(ctx, a)
			m.Requests.WithLabelValues(a.Request.Method, outcome(err)).Inc()
			return resp, err
		}
	}
}

func (m *Metrics) observeRefresh(ok bool) {
	if m == nil {
		return
	}
	result := "failure"
	if ok {
		result = "success"
	}
	m.Refreshes.WithLabelValues(result).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrServer):
		return "server_error"
	case errors.Is(err, ErrClient):
		return "client_error"
	case errors.Is(err, ErrNetwork):
		return "network_error"
	case errors.Is(err, ErrCircuitOpen):
		return "circuit_open"
	}
	return "error"
}
