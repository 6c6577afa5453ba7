package config

import (
	"github.com/spf13/viper"
)

const (
	keyTracingEnabled    = "tracing_enabled"
	keyTracingEndpoint   = "tracing_endpoint"
	keyTracingSampleRate = "tracing_sample_rate"
)

type TracingConfig interface {
	GetTracingEnabled() bool
	GetTracingEndpoint() string
	GetTracingSampleRate() float64
}

type Tracing struct {
	v *viper.Viper
}

var _ TracingConfig = Tracing{}

// GetTracingEnabled reports whether spans are exported over OTLP/HTTP.
func (t Tracing) GetTracingEnabled() bool {
	return getBoolOrDefault(t.v, keyTracingEnabled, false)
}

// GetTracingEndpoint returns the collector host:port (e.g., "localhost:4318").
func (t Tracing) GetTracingEndpoint() string {
	return getStringOrDefault(t.v, keyTracingEndpoint, "localhost:4318")
}

func (t Tracing) GetTracingSampleRate() float64 {
	return min(max(getFloatOrDefault(t.v, keyTracingSampleRate, 1.0), 0), 1)
}
