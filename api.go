package bebopffi

import (
	"context"

	"github.com/unkn0wn-root/bebopffi/abi"
	"github.com/unkn0wn-root/bebopffi/arena"
	"github.com/unkn0wn-root/bebopffi/callback"
	"github.com/unkn0wn-root/bebopffi/journal"
	"github.com/unkn0wn-root/bebopffi/sensor"
)

// DefaultMaxMessage bounds the input accepted by a single decode call.
const DefaultMaxMessage = 64 << 20

// Engine is the operation set exported across the ABI. It is safe for
// concurrent use as long as each arena.Context is used by one caller at a
// time.
type Engine interface {
	Version() uint32

	// Contexts
	NewContext() (*arena.Context, abi.Status)
	ResetContext(ac *arena.Context) abi.Status
	DestroyContext(ac *arena.Context)
	LastError(ac *arena.Context) string
	LastStatus(ac *arena.Context) abi.Status

	// Single records
	DecodeReading(ac *arena.Context, data []byte, out *sensor.Reading) abi.Status
	FreeReading(ac *arena.Context, r *sensor.Reading)
	EncodedSize(r *sensor.Reading) (int, abi.Status)
	EncodeReading(ac *arena.Context, r *sensor.Reading, out []byte) (int, abi.Status)

	// Batches (all-or-nothing encode; stream decode with progress)
	EncodeBatch(ac *arena.Context, rs []sensor.Reading, out []byte) int
	DecodeStream(ac *arena.Context, data []byte) ([]sensor.Reading, abi.Status)

	// Journal of last-known readings; ErrNoJournal when not configured.
	Publish(ctx context.Context, ac *arena.Context, r *sensor.Reading) error
	PublishBatch(ctx context.Context, ac *arena.Context, rs []sensor.Reading) error
	Latest(ctx context.Context, ac *arena.Context, sensorID string, out *sensor.Reading) (bool, error)
	LatestBatch(ctx context.Context, ac *arena.Context, sensorIDs []string) ([]sensor.Reading, []string, error)
	Forget(ctx context.Context, sensorID string) error

	Callbacks() *callback.Registry
	Close(ctx context.Context) error
}

// Options tune an Engine. The zero value is usable.
type Options struct {
	Logger    Logger             // nil => NopLogger
	Hooks     Hooks              // nil => NopHooks
	Callbacks *callback.Registry // nil => a private registry
	Arena     arena.Options      // applied to every NewContext

	// MaxMessage caps decode input in bytes. 0 => DefaultMaxMessage,
	// < 0 => unlimited.
	MaxMessage int

	// Journal enables Publish/Latest. Its self-heal, rejected-set and
	// generation-error callbacks default to the engine's Hooks.
	Journal *journal.Options
}

func New(opts Options) (Engine, error) {
	return newEngine(opts)
}
