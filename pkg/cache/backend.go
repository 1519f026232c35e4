package cache

import (
	"context"
	"time"
)

// Backend is the key-value contract the authorization cache runs on. A
// backend is selected once at construction; implementations must be safe for
// concurrent use and may apply last-writer-wins semantics per key, since
// cached values are recomputable and never the system of record.
type Backend interface {
	// Get returns the value for key. The second return is false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key with the given TTL. A zero TTL means no
	// expiration.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the backend.
	Close() error
}
