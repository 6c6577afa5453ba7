package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	keyStore       = "store"
	keyFolder      = "folder"
	keyStoreFile   = "store_file"
	keyRedisAddr   = "redis_addr"
	keyRedisPrefix = "redis_prefix"
	keyRedisTTL    = "redis_ttl"
)

// Store backends
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

type StoreConfig interface {
	GetStoreBackend() string
	GetDataFolder() string
	GetStoreFilePath() string
	GetRedisAddr() string
	GetRedisPrefix() string
	GetRedisTTL() time.Duration
}

type Store struct {
	v *viper.Viper
}

var _ StoreConfig = Store{}

func (s Store) GetStoreBackend() string {
	return strings.ToLower(getStringOrDefault(s.v, keyStore, StoreFile))
}

func (s Store) GetDataFolder() string {
	return getStringOrDefault(s.v, keyFolder, "./data")
}

// GetStoreFilePath joins the data folder with the store file name unless the
// file name is already absolute.
func (s Store) GetStoreFilePath() string {
	name := getStringOrDefault(s.v, keyStoreFile, "session.json")
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.GetDataFolder(), name)
}

func (s Store) GetRedisAddr() string {
	return getStringOrDefault(s.v, keyRedisAddr, "localhost:6379")
}

func (s Store) GetRedisPrefix() string {
	return getStringOrDefault(s.v, keyRedisPrefix, "{drivesim}:")
}

func (s Store) GetRedisTTL() time.Duration {
	return getDurationOrDefault(s.v, keyRedisTTL, 0)
}
