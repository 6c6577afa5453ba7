package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	keyBaseURL             = "base_url"
	keyRequestTimeout      = "request_timeout"
	keyBreakerEnabled      = "breaker_enabled"
	keyBreakerMinRequests  = "breaker_min_requests"
	keyBreakerFailureRatio = "breaker_failure_ratio"
	keyBreakerTimeout      = "breaker_timeout"

	defaultRequestTimeout = 15 * time.Second
	defaultBreakerTimeout = 30 * time.Second
)

type APIConfig interface {
	GetBaseURL() string
	GetRequestTimeout() time.Duration
	GetBreakerEnabled() bool
	GetBreakerMinRequests() int
	GetBreakerFailureRatio() float64
	GetBreakerTimeout() time.Duration
}

type API struct {
	v *viper.Viper
}

var _ APIConfig = API{}

// GetBaseURL returns the REST API root (e.g., "https://api.drivesim.example")
// without a trailing slash.
func (a API) GetBaseURL() string {
	return strings.TrimRight(getStringOrDefault(a.v, keyBaseURL, "http://localhost:8080"), "/")
}

func (a API) GetRequestTimeout() time.Duration {
	return getDurationOrDefault(a.v, keyRequestTimeout, defaultRequestTimeout)
}

// GetBreakerEnabled reports whether API calls go through the circuit breaker.
func (a API) GetBreakerEnabled() bool {
	return getBoolOrDefault(a.v, keyBreakerEnabled, true)
}

func (a API) GetBreakerMinRequests() int {
	return getIntOrDefault(a.v, keyBreakerMinRequests, 5)
}

// GetBreakerFailureRatio is the share of failed attempts (network errors and 5xx)
// that opens the breaker.
func (a API) GetBreakerFailureRatio() float64 {
	return getFloatOrDefault(a.v, keyBreakerFailureRatio, 0.5)
}

func (a API) GetBreakerTimeout() time.Duration {
	return getDurationOrDefault(a.v, keyBreakerTimeout, defaultBreakerTimeout)
}
