package config

import (
	"time"

	"github.com/spf13/viper"
)

func getStringOrDefault(v *viper.Viper, key string, defaultValue string) string {
	if v == nil || !v.IsSet(key) {
		return defaultValue
	}
	if s := v.GetString(key); s != "" {
		return s
	}
	return defaultValue
}

func getDurationOrDefault(v *viper.Viper, key string, defaultValue time.Duration) time.Duration {
	if v == nil || !v.IsSet(key) {
		return defaultValue
	}
	return v.GetDuration(key)
}

func getBoolOrDefault(v *viper.Viper, key string, defaultValue bool) bool {
	if v == nil || !v.IsSet(key) {
		return defaultValue
	}
	return v.GetBool(key)
}

func getIntOrDefault(v *viper.Viper, key string, defaultValue int) int {
	if v == nil || !v.IsSet(key) {
		return defaultValue
	}
	return v.GetInt(key)
}

func getFloatOrDefault(v *viper.Viper, key string, defaultValue float64) float64 {
	if v == nil || !v.IsSet(key) {
		return defaultValue
	}
	return v.GetFloat64(key)
}
