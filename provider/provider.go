// Package provider defines the byte store behind the journal.
//
// Stores must be byte-transparent: Get returns exactly the bytes passed to
// Set. Any internal framing (such as an expiry header) must be stripped
// before returning. Keys under "reading:<ns>:" and "batch:<ns>:" belong to
// the journal; foreign values there fail entry validation and get deleted.
package provider

import (
	"context"
	"time"
)

// Provider is a concurrency-safe byte store with TTLs.
type Provider interface {
	// Get returns (value, true, nil) on hit and (nil, false, nil) on miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value. cost is advisory and ttl <= 0 means no expiry where
	// the store allows it. ok=false means the store declined the write.
	Set(ctx context.Context, key string, value []byte, cost int64, ttl time.Duration) (ok bool, err error)

	Del(ctx context.Context, key string) error

	Close(ctx context.Context) error
}
