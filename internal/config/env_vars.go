package config

import (
	"strings"

	"github.com/spf13/viper"
)

const (
	keyAppName  = "app_name"
	keyEnv      = "env"
	keyLogLevel = "log_level"
)

type EnvVars struct {
	v *viper.Viper
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetAppName() string {
	return getStringOrDefault(e.v, keyAppName, "DriveSim Admin")
}

func (e EnvVars) GetEnv() string {
	return strings.ToUpper(getStringOrDefault(e.v, keyEnv, "DEV"))
}

func (e EnvVars) GetLogLevel() string {
	return strings.ToLower(getStringOrDefault(e.v, keyLogLevel, "info"))
}
