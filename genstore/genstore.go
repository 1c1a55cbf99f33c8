// Package genstore tracks a generation counter per journal key. A journal
// entry is served only while the generation recorded in it is still the
// current one, so bumping a key's generation invalidates whatever was
// stored under it without touching the provider.
package genstore

import (
	"context"
	"time"
)

// Store abstracts where generations live. LocalStore keeps them in-process;
// RedisStore shares them across processes; ProviderStore persists them in
// the journal's own provider.
type Store interface {
	// Current returns the key's generation; missing keys are 0.
	Current(ctx context.Context, key string) (uint64, error)
	// CurrentMany returns generations for keys; missing keys are 0.
	CurrentMany(ctx context.Context, keys []string) (map[string]uint64, error)
	// Bump atomically increments and returns the new generation.
	Bump(ctx context.Context, key string) (uint64, error)
	// Prune drops generations idle for longer than retention and reports how
	// many were dropped. Stores with native expiry return 0.
	Prune(retention time.Duration) int
	Close(ctx context.Context) error
}
