package tokenstore

import "context"

// KV is the persistent key-value medium behind the Store. Both operations are
// atomic: readers never observe half of a Write.
type KV interface {
	// GetMany returns the values present for keys. Missing keys are absent from the map.
	GetMany(ctx context.Context, keys ...string) (map[string]string, error)

	// Write stores every entry of set and removes every key of del as one batch.
	Write(ctx context.Context, set map[string]string, del []string) error
}
