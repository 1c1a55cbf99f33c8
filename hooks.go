package bebopffi

import (
	"github.com/unkn0wn-root/bebopffi/abi"
	"github.com/unkn0wn-root/bebopffi/arena"
)

// Hooks receive high-signal engine events for observability. They run on
// the caller's goroutine in the middle of an operation, so implementations
// must be cheap and must not block; wrap with hooks/async otherwise.
// Host notification goes through callback.Registry, not Hooks.
type Hooks interface {
	// A decode failed. size is the input length.
	DecodeRejected(st abi.Status, size int, reason string)

	// An encode failed. records is 1 for single encodes.
	EncodeRejected(st abi.Status, records int, reason string)

	// The progress callback stopped a stream decode.
	StreamCanceled(decoded, consumed int)

	// A context hit its arena limit.
	ArenaExhausted(stats arena.Stats)

	// The journal deleted an entry on read. reason ∈ {"corrupt", "stale"}.
	JournalSelfHeal(key, reason string)

	// The journal's provider declined a write.
	JournalSetRejected(key string, batch bool)

	// The journal's generation store failed.
	JournalGenError(key string, err error)
}

// NopHooks is the default.
type NopHooks struct{}

func (NopHooks) DecodeRejected(abi.Status, int, string) {}
func (NopHooks) EncodeRejected(abi.Status, int, string) {}
func (NopHooks) StreamCanceled(int, int)                {}
func (NopHooks) ArenaExhausted(arena.Stats)             {}
func (NopHooks) JournalSelfHeal(string, string)         {}
func (NopHooks) JournalSetRejected(string, bool)        {}
func (NopHooks) JournalGenError(string, error)          {}
