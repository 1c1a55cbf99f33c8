package bebopffi

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/unkn0wn-root/bebopffi/abi"
	"github.com/unkn0wn-root/bebopffi/arena"
	"github.com/unkn0wn-root/bebopffi/batch"
	"github.com/unkn0wn-root/bebopffi/callback"
	"github.com/unkn0wn-root/bebopffi/journal"
	"github.com/unkn0wn-root/bebopffi/sensor"
)

var (
	errNilRecord  = errors.Mark(errors.New("bebop: nil record"), abi.ErrNullData)
	errNilRecords = errors.Mark(errors.New("bebop: nil record array"), abi.ErrNullData)
	errEmptyInput = errors.Mark(errors.New("bebop: empty input"), abi.ErrNullData)
	errTooLarge   = errors.Mark(errors.New("bebop: input exceeds max message size"), abi.ErrInvalidLength)
	errNoContext  = errors.Mark(errors.New("bebop: nil or destroyed context"), abi.ErrNullCtx)
)

type engine struct {
	log        Logger
	hooks      Hooks
	cb         *callback.Registry
	arenaOpts  arena.Options
	maxMessage int
	journal    *journal.Journal
}

var _ Engine = (*engine)(nil)

func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}

func newEngine(opts Options) (*engine, error) {
	e := &engine{
		log:       coalesce[Logger](opts.Logger, NopLogger{}),
		hooks:     coalesce[Hooks](opts.Hooks, NopHooks{}),
		cb:        opts.Callbacks,
		arenaOpts: opts.Arena,
	}
	if e.cb == nil {
		e.cb = callback.New()
	}
	switch {
	case opts.MaxMessage == 0:
		e.maxMessage = DefaultMaxMessage
	case opts.MaxMessage > 0:
		e.maxMessage = opts.MaxMessage
	}
	if opts.Journal != nil {
		jo := *opts.Journal
		if jo.OnSelfHeal == nil {
			jo.OnSelfHeal = e.hooks.JournalSelfHeal
		}
		if jo.OnSetRejected == nil {
			jo.OnSetRejected = e.hooks.JournalSetRejected
		}
		if jo.OnGenError == nil {
			jo.OnGenError = e.hooks.JournalGenError
		}
		j, err := journal.New(jo)
		if err != nil {
			return nil, errors.Wrap(err, "bebop: journal")
		}
		e.journal = j
	}
	return e, nil
}

func (e *engine) Version() uint32 { return abi.Version }

func (e *engine) Callbacks() *callback.Registry { return e.cb }

func (e *engine) Close(ctx context.Context) error {
	if e.journal != nil {
		return e.journal.Close(ctx)
	}
	return nil
}

func live(ac *arena.Context) bool { return ac != nil && !ac.Destroyed() }

// fail records err on ac, logs it and notifies the error callback.
func (e *engine) fail(ac *arena.Context, op string, err error) abi.Status {
	st := abi.FromError(err)
	msg := err.Error()
	if live(ac) {
		ac.Fail(st, msg)
		if st == abi.StatusAllocFailed {
			e.hooks.ArenaExhausted(ac.Stats())
		}
	}
	e.log.Debug("bebop: "+op+" failed", Fields{"status": st.String(), "err": msg})
	e.cb.InvokeError(st, msg)
	return st
}

func (e *engine) NewContext() (*arena.Context, abi.Status) {
	ac, err := arena.New(e.arenaOpts)
	if err != nil {
		return nil, e.fail(nil, "ctx_new", err)
	}
	e.cb.InvokeEvent(abi.EventContextCreated, nil)
	return ac, abi.StatusOK
}

func (e *engine) ResetContext(ac *arena.Context) abi.Status {
	if !live(ac) {
		return e.fail(nil, "ctx_reset", errNoContext)
	}
	ac.Reset()
	e.cb.InvokeEvent(abi.EventContextReset, nil)
	return abi.StatusOK
}

// DestroyContext releases ac. A nil context is ignored; destroying twice is
// a caller error.
func (e *engine) DestroyContext(ac *arena.Context) {
	if !live(ac) {
		return
	}
	e.cb.InvokeEvent(abi.EventContextDestroyed, nil)
	ac.Destroy()
}

// LastError returns the message of the context's most recent failure, the
// null-context message for a nil context, or "" after a success.
func (e *engine) LastError(ac *arena.Context) string {
	if !live(ac) {
		return abi.StatusNullCtx.Message()
	}
	if msg := ac.LastError(); msg != "" {
		return msg
	}
	if st := ac.LastStatus(); st != abi.StatusOK {
		return st.Message()
	}
	return ""
}

func (e *engine) LastStatus(ac *arena.Context) abi.Status {
	if !live(ac) {
		return abi.StatusNullCtx
	}
	return ac.LastStatus()
}

// DecodeReading decodes one message into out. On failure out is zeroed
// apart from ErrCode and ErrMessage.
func (e *engine) DecodeReading(ac *arena.Context, data []byte, out *sensor.Reading) abi.Status {
	if out == nil {
		return e.fail(ac, "decode", errNilRecord)
	}
	if err := e.checkInput(ac, data); err != nil {
		st := e.fail(ac, "decode", err)
		*out = sensor.Reading{ErrCode: st, ErrMessage: errorView(ac, st, err)}
		e.hooks.DecodeRejected(st, len(data), err.Error())
		return st
	}
	ac.ClearError()
	if err := sensor.Decode(ac, data, out); err != nil {
		st := e.fail(ac, "decode", err)
		e.hooks.DecodeRejected(st, len(data), err.Error())
		return st
	}
	e.cb.InvokeReading(out)
	return abi.StatusOK
}

// errorView is the message stored in a rejected record: a NUL-terminated
// copy in ac, or the status text when there is no usable context. Like
// sensor.Decode it stays nil when ac has no room left.
func errorView(ac *arena.Context, st abi.Status, err error) arena.View {
	if !live(ac) {
		return arena.ViewString(st.Message())
	}
	v, aerr := ac.CString(err.Error())
	if aerr != nil {
		return nil
	}
	return v
}

func (e *engine) checkInput(ac *arena.Context, data []byte) error {
	switch {
	case !live(ac):
		return errNoContext
	case len(data) == 0:
		return errEmptyInput
	case e.maxMessage > 0 && len(data) > e.maxMessage:
		return errors.Wrapf(errTooLarge, "%d > %d bytes", len(data), e.maxMessage)
	}
	return nil
}

// FreeReading zeroes r. Its storage belongs to ac and is reclaimed by
// ResetContext or DestroyContext.
func (e *engine) FreeReading(_ *arena.Context, r *sensor.Reading) {
	if r != nil {
		*r = sensor.Reading{}
	}
}

func (e *engine) EncodedSize(r *sensor.Reading) (int, abi.Status) {
	n, err := sensor.EncodedSize(r)
	if err != nil {
		return 0, abi.FromError(err)
	}
	return n, abi.StatusOK
}

func (e *engine) EncodeReading(ac *arena.Context, r *sensor.Reading, out []byte) (int, abi.Status) {
	if !live(ac) {
		return 0, e.fail(nil, "encode", errNoContext)
	}
	if r == nil {
		return 0, e.fail(ac, "encode", errNilRecord)
	}
	ac.ClearError()
	n, err := sensor.Encode(r, out)
	if err != nil {
		st := e.fail(ac, "encode", err)
		e.hooks.EncodeRejected(st, 1, err.Error())
		return 0, st
	}
	return n, abi.StatusOK
}

// EncodeBatch writes every record or nothing. It returns the bytes written;
// on failure it returns 0 and the status is on the context.
func (e *engine) EncodeBatch(ac *arena.Context, rs []sensor.Reading, out []byte) int {
	if !live(ac) {
		e.fail(nil, "encode_batch", errNoContext)
		return 0
	}
	if rs == nil {
		e.fail(ac, "encode_batch", errNilRecords)
		return 0
	}
	ac.ClearError()
	n, err := batch.Encode(rs, out)
	if err != nil {
		st := e.fail(ac, "encode_batch", err)
		e.hooks.EncodeRejected(st, len(rs), err.Error())
		return 0
	}
	if n > 0 {
		e.cb.InvokeData(out[:n])
	}
	e.cb.InvokeEvent(abi.EventBatchEncoded, abi.EventCounts(len(rs), n))
	return n
}

// DecodeStream decodes back-to-back messages, reporting progress after
// each one. The progress callback can cancel between records. Records
// decoded before a failure or cancellation are returned with the status.
func (e *engine) DecodeStream(ac *arena.Context, data []byte) ([]sensor.Reading, abi.Status) {
	if err := e.checkInput(ac, data); err != nil {
		st := e.fail(ac, "decode_stream", err)
		e.cb.InvokeResult(callback.Result{Code: st, Message: err.Error()})
		return nil, st
	}
	ac.ClearError()
	rs, consumed, err := batch.DecodeStream(ac, data, e.cb.InvokeProgress)
	if err != nil {
		st := e.fail(ac, "decode_stream", err)
		if st == abi.StatusCanceled {
			e.hooks.StreamCanceled(len(rs), consumed)
		} else {
			e.hooks.DecodeRejected(st, len(data), err.Error())
		}
		e.cb.InvokeResult(callback.Result{Code: st, Message: err.Error(), Data: data[:consumed]})
		return rs, st
	}
	e.cb.InvokeEvent(abi.EventStreamDecoded, abi.EventCounts(len(rs), consumed))
	e.cb.InvokeResult(callback.Result{Code: abi.StatusOK, Data: data[:consumed]})
	return rs, abi.StatusOK
}
