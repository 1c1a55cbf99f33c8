package genstore

import (
	"context"
	"encoding/binary"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/unkn0wn-root/bebopffi/provider"
)

var (
	ErrGenRejected = errors.New("genstore: provider declined generation write")
	ErrBadGen      = errors.New("genstore: malformed generation value")
)

// ProviderStore keeps generations next to the entries in a persistent
// provider such as pebble, so a journal reopened by a later process still
// accepts what an earlier one wrote. Bump is atomic only within one
// process.
type ProviderStore struct {
	p   provider.Provider
	ttl time.Duration
	mu  sync.Mutex
}

var _ Store = (*ProviderStore)(nil)

// NewProviderStore does not take ownership of p. ttl <= 0 disables expiry.
func NewProviderStore(p provider.Provider, ttl time.Duration) *ProviderStore {
	return &ProviderStore{p: p, ttl: ttl}
}

func genKey(k string) string { return "gen:" + k }

func (s *ProviderStore) Current(ctx context.Context, key string) (uint64, error) {
	b, ok, err := s.p.Get(ctx, genKey(key))
	if err != nil || !ok {
		return 0, err
	}
	if len(b) != 8 {
		return 0, errors.Wrapf(ErrBadGen, "key %q: %d bytes", key, len(b))
	}
	return binary.BigEndian.Uint64(b), nil
}

func (s *ProviderStore) CurrentMany(ctx context.Context, keys []string) (map[string]uint64, error) {
	out := make(map[string]uint64, len(keys))
	for _, k := range keys {
		g, err := s.Current(ctx, k)
		if err != nil {
			return nil, err
		}
		out[k] = g
	}
	return out, nil
}

func (s *ProviderStore) Bump(ctx context.Context, key string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, err := s.Current(ctx, key)
	if err != nil {
		return 0, err
	}
	g++
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], g)
	ttl := s.ttl
	if ttl < 0 {
		ttl = 0
	}
	ok, err := s.p.Set(ctx, genKey(key), b[:], int64(len(b)), ttl)
	if err != nil {
		return 0, errors.Wrapf(err, "genstore: bump %q", key)
	}
	if !ok {
		return 0, errors.Wrapf(ErrGenRejected, "key %q", key)
	}
	return g, nil
}

func (s *ProviderStore) Prune(time.Duration) int { return 0 }

func (s *ProviderStore) Close(context.Context) error { return nil }
