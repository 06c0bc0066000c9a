// Package cache stores rendered artifacts and parsed imports by content key.
//
// # Backends
//
//   - [FileCache]: one JSON file per entry, for the CLI.
//   - [MemoryCache]: process-local, for a single server.
//   - [RedisCache]: shared between server replicas.
//   - [NullCache]: stores nothing.
//
// # Keys
//
// A [Keyer] derives keys from content hashes, so a changed map never hits
// a stale artifact. [ScopedKeyer] prefixes every key, which keeps sessions
// or tenants apart in a shared backend.
package cache

import (
	"context"
	"time"
)

// Entry lifetimes.
const (
	TTLTable    = 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache is a byte-oriented key/value store with per-entry expiry.
// A ttl of zero means the entry does not expire.
type Cache interface {
	// Get returns the value and true on a hit. A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
