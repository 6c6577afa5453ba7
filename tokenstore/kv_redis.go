package tokenstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var _ KV = (*RedisKV)(nil)

// DefaultRedisPrefix hash-tags every session key into one Cluster slot, which the
// MGET and MULTI batches need.
const DefaultRedisPrefix = "{drivesim}:"

// RedisKV stores keys in Redis through redis.Cmdable. Against Cluster the prefix must
// carry a hash tag, as DefaultRedisPrefix does, or multi-key commands fail with CROSSSLOT.
type RedisKV struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// RedisOption customises a RedisKV.
type RedisOption func(*RedisKV)

// WithRedisPrefix namespaces every key, replacing DefaultRedisPrefix.
func WithRedisPrefix(prefix string) RedisOption {
	return func(r *RedisKV) {
		r.prefix = prefix
	}
}

// WithRedisTTL expires written keys after ttl. Every write renews the expiry of the
// session keys it leaves untouched. Zero keeps them until cleared.
func WithRedisTTL(ttl time.Duration) RedisOption {
	return func(r *RedisKV) {
		r.ttl = ttl
	}
}

// NewRedisKV creates a Redis-backed KV.
func NewRedisKV(client redis.Cmdable, opts ...RedisOption) *RedisKV {
	r := &RedisKV{client: client, prefix: DefaultRedisPrefix}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *RedisKV) key(k string) string {
	return r.prefix + k
}

func (r *RedisKV) GetMany(ctx context.Context, keys ...string) (map[string]string, error) {
	found := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return found, nil
	}

	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = r.key(k)
	}
	vals, err := r.client.MGet(ctx, prefixed...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read session keys: %w", err)
	}
	for i, v := range vals {
		if s, ok := v.(string); ok {
			found[keys[i]] = s
		}
	}
	return found, nil
}

func (r *RedisKV) Write(ctx context.Context, set map[string]string, del []string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(del) > 0 {
			prefixed := make([]string, len(del))
			for i, k := range del {
				prefixed[i] = r.key(k)
			}
			pipe.Del(ctx, prefixed...)
		}
		for k, v := range set {
			pipe.Set(ctx, r.key(k), v, r.ttl)
		}
		if r.ttl > 0 {
			for _, k := range untouched(set, del) {
				pipe.Expire(ctx, r.key(k), r.ttl)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write session keys: %w", err)
	}
	return nil
}

// untouched lists the session keys a write neither sets nor deletes.
func untouched(set map[string]string, del []string) []string {
	skip := make(map[string]struct{}, len(set)+len(del))
	for k := range set {
		skip[k] = struct{}{}
	}
	for _, k := range del {
		skip[k] = struct{}{}
	}
	var keys []string
	for _, k := range allKeys {
		if _, ok := skip[k]; !ok {
			keys = append(keys, k)
		}
	}
	return keys
}
