package cache

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("cache key not found")

const (
	EnvelopeKey = "progress_envelope"
	DeviceIDKey = "device_id"
	LearnerKey  = "learner_email"
)

// KV is the byte-level persistence the cache store sits on. Implementations
// overwrite whole values; there are no partial updates and no locking.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
