// Package callback holds the host-side notification slots the engine calls
// into: data, result, progress, event, error and reading.
//
// Each slot stores its function and user value as one pointer, so a
// concurrent invoke sees either the old pair or the new pair, never a mix.
// Invocation is synchronous on the caller's goroutine.
package callback

import (
	"sync/atomic"

	"github.com/unkn0wn-root/bebopffi/abi"
	"github.com/unkn0wn-root/bebopffi/sensor"
)

type (
	DataFunc     func(data []byte, user any)
	ResultFunc   func(res Result, user any)
	ProgressFunc func(current, total uint64, user any) bool
	EventFunc    func(event int32, payload []byte, user any)
	ErrorFunc    func(code abi.Status, message string, user any)
	ReadingFunc  func(r *sensor.Reading, user any)
)

// Result is the outcome of a completed operation.
type Result struct {
	Code    abi.Status
	Message string
	Data    []byte
}

// Kind names a slot.
type Kind uint8

const (
	KindData Kind = iota
	KindResult
	KindProgress
	KindEvent
	KindError
	KindReading
)

func (k Kind) String() string {
	switch k {
	case KindData:
		return "data"
	case KindResult:
		return "result"
	case KindProgress:
		return "progress"
	case KindEvent:
		return "event"
	case KindError:
		return "error"
	case KindReading:
		return "reading"
	default:
		return "unknown"
	}
}

type binding[F any] struct {
	fn   F
	user any
}

type slot[F any] struct {
	p atomic.Pointer[binding[F]]
}

func (s *slot[F]) store(fn F, user any) { s.p.Store(&binding[F]{fn: fn, user: user}) }
func (s *slot[F]) clear()               { s.p.Store(nil) }
func (s *slot[F]) load() *binding[F]    { return s.p.Load() }

// Registry is a set of slots. The zero value has nothing registered and a
// nil *Registry invokes nothing.
type Registry struct {
	data     slot[DataFunc]
	result   slot[ResultFunc]
	progress slot[ProgressFunc]
	event    slot[EventFunc]
	err      slot[ErrorFunc]
	reading  slot[ReadingFunc]
}

func New() *Registry { return &Registry{} }

// RegisterData replaces the data callback. A nil fn unregisters it.
func (r *Registry) RegisterData(fn DataFunc, user any) {
	if fn == nil {
		r.data.clear()
		return
	}
	r.data.store(fn, user)
}

func (r *Registry) RegisterResult(fn ResultFunc, user any) {
	if fn == nil {
		r.result.clear()
		return
	}
	r.result.store(fn, user)
}

func (r *Registry) RegisterProgress(fn ProgressFunc, user any) {
	if fn == nil {
		r.progress.clear()
		return
	}
	r.progress.store(fn, user)
}

func (r *Registry) RegisterEvent(fn EventFunc, user any) {
	if fn == nil {
		r.event.clear()
		return
	}
	r.event.store(fn, user)
}

func (r *Registry) RegisterError(fn ErrorFunc, user any) {
	if fn == nil {
		r.err.clear()
		return
	}
	r.err.store(fn, user)
}

func (r *Registry) RegisterReading(fn ReadingFunc, user any) {
	if fn == nil {
		r.reading.clear()
		return
	}
	r.reading.store(fn, user)
}

func (r *Registry) InvokeData(data []byte) {
	if r == nil {
		return
	}
	if b := r.data.load(); b != nil {
		b.fn(data, b.user)
	}
}

func (r *Registry) InvokeResult(res Result) {
	if r == nil {
		return
	}
	if b := r.result.load(); b != nil {
		b.fn(res, b.user)
	}
}

// InvokeProgress reports progress and returns whether the caller should
// continue. With no callback registered it always continues.
func (r *Registry) InvokeProgress(current, total uint64) bool {
	if r == nil {
		return true
	}
	if b := r.progress.load(); b != nil {
		return b.fn(current, total, b.user)
	}
	return true
}

func (r *Registry) InvokeEvent(event int32, payload []byte) {
	if r == nil {
		return
	}
	if b := r.event.load(); b != nil {
		b.fn(event, payload, b.user)
	}
}

func (r *Registry) InvokeError(code abi.Status, message string) {
	if r == nil {
		return
	}
	if b := r.err.load(); b != nil {
		b.fn(code, message, b.user)
	}
}

func (r *Registry) InvokeReading(rd *sensor.Reading) {
	if r == nil {
		return
	}
	if b := r.reading.load(); b != nil {
		b.fn(rd, b.user)
	}
}

// Registered reports whether kind currently has a callback.
func (r *Registry) Registered(kind Kind) bool {
	if r == nil {
		return false
	}
	switch kind {
	case KindData:
		return r.data.load() != nil
	case KindResult:
		return r.result.load() != nil
	case KindProgress:
		return r.progress.load() != nil
	case KindEvent:
		return r.event.load() != nil
	case KindError:
		return r.err.load() != nil
	case KindReading:
		return r.reading.load() != nil
	}
	return false
}

// Reset unregisters every callback.
func (r *Registry) Reset() {
	r.data.clear()
	r.result.clear()
	r.progress.clear()
	r.event.clear()
	r.err.clear()
	r.reading.clear()
}
