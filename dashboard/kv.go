package dashboard

import (
	"github.com/jrsteele09/drivesim-admin/internal/config"
	apperrors "github.com/jrsteele09/drivesim-admin/internal/errors"
	"github.com/jrsteele09/drivesim-admin/tokenstore"
	"github.com/redis/go-redis/v9"
)

// NewKV opens the token store medium selected by cfg. The returned close function is
// nil when there is nothing to release.
func NewKV(cfg config.StoreConfig) (tokenstore.KV, func() error, error) {
	switch cfg.GetStoreBackend() {
	case config.StoreMemory:
		return tokenstore.NewMemoryKV(), nil, nil
	case config.StoreFile:
		return tokenstore.NewFileKV(cfg.GetStoreFilePath()), nil, nil
	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.GetRedisAddr()})
		kv := tokenstore.NewRedisKV(client,
			tokenstore.WithRedisPrefix(cfg.GetRedisPrefix()),
			tokenstore.WithRedisTTL(cfg.GetRedisTTL()),
		)
		return kv, client.Close, nil
	default:
		return nil, nil, apperrors.Wrapf(apperrors.ErrUnknownStore, "%q", cfg.GetStoreBackend())
	}
}
