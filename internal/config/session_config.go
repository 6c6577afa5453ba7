package config

import "github.com/spf13/viper"

const (
	keyLoginRoute       = "login_route"
	keyDefaultProfile   = "default_profile"
	keyDefaultFirstName = "default_profile_first_name"
)

type SessionConfig interface {
	GetLoginRoute() string
	GetDefaultProfileEnabled() bool
	GetDefaultProfileFirstName() string
}

type Session struct {
	v *viper.Viper
}

var _ SessionConfig = Session{}

func (s Session) GetLoginRoute() string {
	return getStringOrDefault(s.v, keyLoginRoute, "/login")
}

// GetDefaultProfileEnabled reports whether a placeholder profile is stored when the
// login response carries no user.
func (s Session) GetDefaultProfileEnabled() bool {
	return getBoolOrDefault(s.v, keyDefaultProfile, true)
}

func (s Session) GetDefaultProfileFirstName() string {
	return getStringOrDefault(s.v, keyDefaultFirstName, "User")
}
