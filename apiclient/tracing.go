package apiclient

import (
	"context"
	"errors"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/jrsteele09/drivesim-admin/apiclient"

// TraceConfig configures Trace. Nil fields fall back to the global tracer provider
// and the W3C trace context propagator.
type TraceConfig struct {
	TracerProvider trace.TracerProvider
	Propagator     propagation.TextMapPropagator
}

// Trace starts a client span per attempt and injects its context into the request
// headers. A retry after a token refresh gets its own span.
func Trace(cfg TraceConfig) Middleware {
	tp := cfg.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	propagator := cfg.Propagator
	if propagator == nil {
		propagator = propagation.TraceContext{}
	}
	tracer := tp.Tracer(tracerName)

	return func(next Handler) Handler {
		return func(ctx context.Context, a *Attempt) (*http.Response, error) {
			req := a.Request
			ctx, span := tracer.Start(ctx, req.Method+" "+req.URL.Path,
				trace.WithSpanKind(trace.SpanKindClient),
				trace.WithAttributes(
					attribute.String("http.request.method", req.Method),
					attribute.String("url.full", req.URL.Redacted()),
					attribute.String("server.address", req.URL.Hostname()),
					attribute.Int("drivesim.attempt", a.Number),
				),
			)
			defer span.End()

			if id := req.Header.Get(HeaderRequestID); id != "" {
				span.SetAttributes(attribute.String("drivesim.request_id", id))
			}
			propagator.Inject(ctx, propagation.HeaderCarrier(req.Header))

			resp, err := next(ctx, a)
			if resp != nil {
				span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
			}
			if err != nil {
				var se *StatusError
				if errors.As(err, &se) {
					span.SetAttributes(attribute.Int("http.response.status_code", se.StatusCode))
				}
				if breakerFailure(err) || errors.Is(err, ErrCircuitOpen) {
					span.RecordError(err)
					span.SetStatus(codes.Error, outcome(err))
				}
			}
			return resp, err
		}
	}
}
