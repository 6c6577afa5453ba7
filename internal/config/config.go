package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "DRIVESIM"

type Config interface {
	EnvConfig
	APIConfig
	StoreConfig
	SessionConfig
	MockAPIConfig
	TracingConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
}

type mainConfig struct {
	EnvVars
	API
	Store
	Session
	MockAPI
	Tracing
}

// New returns a Config backed by the process environment.
func New() Config {
	return NewFromViper(NewViper())
}

// NewFromViper returns a Config reading every value from v.
func NewFromViper(v *viper.Viper) Config {
	return mainConfig{
		EnvVars: EnvVars{v: v},
		API:     API{v: v},
		Store:   Store{v: v},
		Session: Session{v: v},
		MockAPI: MockAPI{v: v},
		Tracing: Tracing{v: v},
	}
}

// NewViper returns a viper instance with defaults applied and DRIVESIM_* environment
// variables bound to the matching keys.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// LoadFile merges a YAML/JSON/TOML config file into v. Environment variables still win.
func LoadFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("[config.LoadFile] reading %s: %w", path, err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(keyAppName, "DriveSim Admin")
	v.SetDefault(keyEnv, "DEV")
	v.SetDefault(keyLogLevel, "info")

	v.SetDefault(keyBaseURL, "http://localhost:8080")
	v.SetDefault(keyRequestTimeout, defaultRequestTimeout)
	v.SetDefault(keyBreakerEnabled, true)
	v.SetDefault(keyBreakerMinRequests, 5)
	v.SetDefault(keyBreakerFailureRatio, 0.5)
	v.SetDefault(keyBreakerTimeout, defaultBreakerTimeout)

	v.SetDefault(keyStore, StoreFile)
	v.SetDefault(keyFolder, "./data")
	v.SetDefault(keyStoreFile, "session.json")
	v.SetDefault(keyRedisAddr, "localhost:6379")
	v.SetDefault(keyRedisPrefix, "{drivesim}:")
	v.SetDefault(keyRedisTTL, 0)

	v.SetDefault(keyLoginRoute, "/login")
	v.SetDefault(keyDefaultProfile, true)
	v.SetDefault(keyDefaultFirstName, "User")
	v.SetDefault(keyMockAddr, ":8080")
	v.SetDefault(keyMockTokenTTL, 15*time.Minute)
	v.SetDefault(keyMockAdminEmail, "admin@drivesim.local")
	v.SetDefault(keyMockLoginRate, 5)
	v.SetDefault(keyMockLoginBurst, 10)

	v.SetDefault(keyTracingEnabled, false)
	v.SetDefault(keyTracingEndpoint, "localhost:4318")
	v.SetDefault(keyTracingSampleRate, 1.0)
}
