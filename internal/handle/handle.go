// Package handle maps opaque integer handles to Go values so that foreign
// callers never hold Go pointers.
package handle

import "sync"

// Handle is never zero for a live entry; zero is the foreign null.
type Handle uintptr

// Table is safe for concurrent use. The zero value is ready.
type Table[T any] struct {
	mu   sync.Mutex
	next Handle
	reg  map[Handle]T
}

func (t *Table[T]) Put(v T) Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.reg == nil {
		t.reg = make(map[Handle]T)
	}
	t.next++
	h := t.next
	t.reg[h] = v
	return h
}

func (t *Table[T]) Get(h Handle) (T, bool) {
	t.mu.Lock()
	v, ok := t.reg[h]
	t.mu.Unlock()
	return v, ok
}

// Del removes h and returns what it held. A second Del of the same handle
// reports false, which the C adapter uses to make double free a no-op.
func (t *Table[T]) Del(h Handle) (T, bool) {
	t.mu.Lock()
	v, ok := t.reg[h]
	delete(t.reg, h)
	t.mu.Unlock()
	return v, ok
}

func (t *Table[T]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.reg)
}

// Range calls fn for each live entry until fn returns false. fn must not
// call back into the table.
func (t *Table[T]) Range(fn func(Handle, T) bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for h, v := range t.reg {
		if !fn(h, v) {
			return
		}
	}
}
