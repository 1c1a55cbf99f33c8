// Package asynchook moves Hooks calls off the engine's goroutine.
//
// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{SelfHealEvery: 10})
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	eng, err := bebopffi.New(bebopffi.Options{Hooks: hooks})
//	if err != nil {
//		return err
//	}
//	defer eng.Close(ctx)
//
// Events are dropped when the queue is full; Dropped reports how many.
package asynchook

import (
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/bebopffi"
	"github.com/unkn0wn-root/bebopffi/abi"
	"github.com/unkn0wn-root/bebopffi/arena"
)

type Hooks struct {
	inner   bebopffi.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	closed  atomic.Bool
	mu      sync.RWMutex
	dropped atomic.Uint64
}

var _ bebopffi.Hooks = (*Hooks)(nil)

func New(inner bebopffi.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events and stops the workers. Events sent after
// Close are counted as dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.mu.Lock()
		h.closed.Store(true)
		close(h.q)
		h.mu.Unlock()
		h.wg.Wait()
	})
}

func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed.Load() {
		h.dropped.Add(1)
		return
	}
	select {
	case h.q <- f:
	default:
		h.dropped.Add(1)
	}
}

func (h *Hooks) DecodeRejected(st abi.Status, size int, r string) {
	h.try(func() { h.inner.DecodeRejected(st, size, r) })
}
func (h *Hooks) EncodeRejected(st abi.Status, n int, r string) {
	h.try(func() { h.inner.EncodeRejected(st, n, r) })
}
func (h *Hooks) StreamCanceled(d, c int)        { h.try(func() { h.inner.StreamCanceled(d, c) }) }
func (h *Hooks) ArenaExhausted(s arena.Stats)   { h.try(func() { h.inner.ArenaExhausted(s) }) }
func (h *Hooks) JournalSelfHeal(k, r string)    { h.try(func() { h.inner.JournalSelfHeal(k, r) }) }
func (h *Hooks) JournalSetRejected(k string, b bool) {
	h.try(func() { h.inner.JournalSetRejected(k, b) })
}
func (h *Hooks) JournalGenError(k string, err error) {
	h.try(func() { h.inner.JournalGenError(k, err) })
}
