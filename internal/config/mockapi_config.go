package config

import (
	"time"

	"github.com/spf13/viper"
)

const (
	keyMockAddr          = "mock_addr"
	keyMockSecret        = "mock_secret"
	keyMockTokenTTL      = "mock_token_ttl"
	keyMockAdminEmail    = "mock_admin_email"
	keyMockAdminPassword = "mock_admin_password"
	keyMockLoginRate     = "mock_login_rate"
	keyMockLoginBurst    = "mock_login_burst"
)

// MockAPIConfig configures the local mock of the DriveSim API.
type MockAPIConfig interface {
	GetMockAddr() string
	GetMockSecret() string
	GetMockTokenTTL() time.Duration
	GetMockAdminEmail() string
	GetMockAdminPassword() string
	GetMockLoginRate() float64
	GetMockLoginBurst() int
}

type MockAPI struct {
	v *viper.Viper
}

var _ MockAPIConfig = MockAPI{}

func (m MockAPI) GetMockAddr() string {
	return getStringOrDefault(m.v, keyMockAddr, ":8080")
}

func (m MockAPI) GetMockSecret() string {
	return getStringOrDefault(m.v, keyMockSecret, "")
}

func (m MockAPI) GetMockTokenTTL() time.Duration {
	return getDurationOrDefault(m.v, keyMockTokenTTL, 15*time.Minute)
}

func (m MockAPI) GetMockAdminEmail() string {
	return getStringOrDefault(m.v, keyMockAdminEmail, "admin@drivesim.local")
}

// GetMockAdminPassword is empty unless set, in which case a password is generated.
func (m MockAPI) GetMockAdminPassword() string {
	return getStringOrDefault(m.v, keyMockAdminPassword, "")
}

// GetMockLoginRate is the number of login attempts per second allowed per client IP.
// 0 disables the limit.
func (m MockAPI) GetMockLoginRate() float64 {
	return getFloatOrDefault(m.v, keyMockLoginRate, 5)
}

func (m MockAPI) GetMockLoginBurst() int {
	return getIntOrDefault(m.v, keyMockLoginBurst, 10)
}
