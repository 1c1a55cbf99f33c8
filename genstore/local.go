package genstore

import (
	"context"
	"sync"
	"time"
)

type localEntry struct {
	gen     uint64
	touched time.Time
}

// LocalStore keeps generations in a map guarded by an RWMutex. With a sweep
// interval and retention it prunes idle keys in the background.
type LocalStore struct {
	mu   sync.RWMutex
	gens map[string]localEntry

	ticker *time.Ticker
	stopCh chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

var _ Store = (*LocalStore)(nil)

func NewLocalStore(sweep, retention time.Duration) *LocalStore {
	s := &LocalStore{gens: make(map[string]localEntry)}
	if sweep > 0 && retention > 0 {
		s.ticker = time.NewTicker(sweep)
		s.stopCh = make(chan struct{})
		s.wg.Add(1)
		go s.sweep(retention)
	}
	return s
}

func (s *LocalStore) sweep(retention time.Duration) {
	defer s.wg.Done()
	for {
		select {
		case <-s.ticker.C:
			s.Prune(retention)
		case <-s.stopCh:
			return
		}
	}
}

func (s *LocalStore) Current(_ context.Context, key string) (uint64, error) {
	s.mu.RLock()
	e := s.gens[key]
	s.mu.RUnlock()
	return e.gen, nil
}

// CurrentMany reads every key under a single read lock.
func (s *LocalStore) CurrentMany(_ context.Context, keys []string) (map[string]uint64, error) {
	out := make(map[string]uint64, len(keys))
	s.mu.RLock()
	for _, k := range keys {
		out[k] = s.gens[k].gen
	}
	s.mu.RUnlock()
	return out, nil
}

func (s *LocalStore) Bump(_ context.Context, key string) (uint64, error) {
	now := time.Now()
	s.mu.Lock()
	e := s.gens[key]
	e.gen++
	e.touched = now
	s.gens[key] = e
	s.mu.Unlock()
	return e.gen, nil
}

func (s *LocalStore) Prune(retention time.Duration) int {
	if retention <= 0 {
		return 0
	}
	cutoff := time.Now().Add(-retention)
	n := 0
	s.mu.Lock()
	for k, e := range s.gens {
		if e.touched.Before(cutoff) {
			delete(s.gens, k)
			n++
		}
	}
	s.mu.Unlock()
	return n
}

// Len is the number of tracked keys.
func (s *LocalStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.gens)
}

func (s *LocalStore) Close(context.Context) error {
	s.once.Do(func() {
		if s.stopCh == nil {
			return
		}
		s.ticker.Stop()
		close(s.stopCh)
		s.wg.Wait()
	})
	return nil
}
