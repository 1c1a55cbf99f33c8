package bebopffi

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/unkn0wn-root/bebopffi/abi"
	"github.com/unkn0wn-root/bebopffi/arena"
	"github.com/unkn0wn-root/bebopffi/callback"
	"github.com/unkn0wn-root/bebopffi/journal"
	pr "github.com/unkn0wn-root/bebopffi/provider"
	"github.com/unkn0wn-root/bebopffi/sensor"
)

type memProvider struct {
	mu sync.Mutex
	m  map[string][]byte
}

var _ pr.Provider = (*memProvider)(nil)

func newMemProvider() *memProvider { return &memProvider{m: make(map[string][]byte)} }

func (p *memProvider) Get(_ context.Context, key string) ([]byte, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.m[key]
	return v, ok, nil
}

func (p *memProvider) Set(_ context.Context, key string, value []byte, _ int64, _ time.Duration) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.m[key] = value
	return true, nil
}

func (p *memProvider) Del(_ context.Context, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.m, key)
	return nil
}

func (p *memProvider) Close(context.Context) error { return nil }

type recHooks struct {
	NopHooks
	decodeRejected []abi.Status
	encodeRejected []int
	canceled       [][2]int
	exhausted      int
	healed         []string
}

func (h *recHooks) DecodeRejected(st abi.Status, _ int, _ string) {
	h.decodeRejected = append(h.decodeRejected, st)
}
func (h *recHooks) EncodeRejected(_ abi.Status, n int, _ string) {
	h.encodeRejected = append(h.encodeRejected, n)
}
func (h *recHooks) StreamCanceled(d, c int)          { h.canceled = append(h.canceled, [2]int{d, c}) }
func (h *recHooks) ArenaExhausted(arena.Stats)       { h.exhausted++ }
func (h *recHooks) JournalSelfHeal(k, reason string) { h.healed = append(h.healed, k+"|"+reason) }

func newTestEngine(t *testing.T, opt func(*Options)) (Engine, *recHooks) {
	t.Helper()
	h := &recHooks{}
	opts := Options{Hooks: h}
	if opt != nil {
		opt(&opts)
	}
	eng, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = eng.Close(context.Background()) })
	return eng, h
}

func newCtx(t *testing.T, eng Engine) *arena.Context {
	t.Helper()
	ac, st := eng.NewContext()
	if st != abi.StatusOK {
		t.Fatalf("NewContext: %s", st)
	}
	t.Cleanup(func() { eng.DestroyContext(ac) })
	return ac
}

func reading(t *testing.T, ac *arena.Context, id string, v float64) sensor.Reading {
	t.Helper()
	r, err := sensor.FromSnapshot(ac, sensor.Snapshot{
		Timestamp:  2_000_000_000,
		SensorID:   id,
		SensorType: abi.SensorTemperature,
		Value:      v,
		Unit:       "C",
		Location:   "floor-1",
		Metadata:   []sensor.Pair{{Key: "status", Value: "ok"}},
	})
	if err != nil {
		t.Fatalf("FromSnapshot: %v", err)
	}
	return r
}

func encode(t *testing.T, r *sensor.Reading) []byte {
	t.Helper()
	b, err := sensor.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	return b
}

func TestVersion(t *testing.T) {
	eng, _ := newTestEngine(t, nil)
	if eng.Version() != 0x010000 {
		t.Fatalf("version = %#x", eng.Version())
	}
}

func TestDecodeReadingNotifiesReadingCallback(t *testing.T) {
	eng, _ := newTestEngine(t, nil)
	ac := newCtx(t, eng)
	msg := encode(t, ptr(reading(t, ac, "temp-001", 23.5)))

	var got *sensor.Reading
	var gotUser any
	user := &struct{ name string }{"host"}
	eng.Callbacks().RegisterReading(func(r *sensor.Reading, u any) { got, gotUser = r, u }, user)

	var out sensor.Reading
	if st := eng.DecodeReading(ac, msg, &out); st != abi.StatusOK {
		t.Fatalf("DecodeReading: %s (%s)", st, eng.LastError(ac))
	}
	if got != &out || gotUser != user {
		t.Fatalf("reading callback got %p/%v", got, gotUser)
	}
	if out.SensorID.String() != "temp-001" || out.Value != 23.5 {
		t.Fatalf("decoded %+v", out.Snapshot())
	}
	if eng.LastError(ac) != "" || eng.LastStatus(ac) != abi.StatusOK {
		t.Fatalf("success must leave no error, got %q", eng.LastError(ac))
	}
}

func TestBoundaryChecks(t *testing.T) {
	eng, hooks := newTestEngine(t, func(o *Options) { o.MaxMessage = 16 })
	ac := newCtx(t, eng)

	var codes []abi.Status
	var msgs []string
	eng.Callbacks().RegisterError(func(c abi.Status, m string, _ any) {
		codes = append(codes, c)
		msgs = append(msgs, m)
	}, nil)

	var out sensor.Reading
	cases := []struct {
		name string
		ac   *arena.Context
		data []byte
		want abi.Status
	}{
		{"nil context", nil, []byte{0}, abi.StatusNullCtx},
		{"nil data", ac, nil, abi.StatusNullData},
		{"empty data", ac, []byte{}, abi.StatusNullData},
		{"too large", ac, make([]byte, 17), abi.StatusInvalidLength},
		{"garbage", ac, []byte{0x09, 0x00}, abi.StatusDecodeFailed},
	}
	for _, tc := range cases {
		out = sensor.Reading{Value: 99}
		if st := eng.DecodeReading(tc.ac, tc.data, &out); st != tc.want {
			t.Fatalf("%s: status %s want %s", tc.name, st, tc.want)
		}
		if out.ErrCode != tc.want || out.Value != 0 {
			t.Fatalf("%s: output not reset: %+v", tc.name, out)
		}
		if out.ErrMessage.Len() == 0 {
			t.Fatalf("%s: rejected record has no error message", tc.name)
		}
		if tc.ac != nil && eng.LastStatus(tc.ac) != tc.want {
			t.Fatalf("%s: last status %s", tc.name, eng.LastStatus(tc.ac))
		}
	}
	if len(codes) != len(cases) || len(hooks.decodeRejected) != len(cases) {
		t.Fatalf("error callbacks %v, hooks %v", codes, hooks.decodeRejected)
	}
	for i, tc := range cases {
		if codes[i] != tc.want || msgs[i] == "" {
			t.Fatalf("callback %d: %s %q", i, codes[i], msgs[i])
		}
	}
	out = sensor.Reading{}
	eng.DecodeReading(nil, []byte{0}, &out)
	if out.ErrMessage.String() != abi.StatusNullCtx.Message() {
		t.Fatalf("nil context message = %q", out.ErrMessage)
	}
	eng.DecodeReading(ac, make([]byte, 17), &out)
	if !strings.Contains(out.ErrMessage.String(), "exceeds max message size") {
		t.Fatalf("too large message = %q", out.ErrMessage)
	}
	if eng.DecodeReading(ac, []byte{0}, nil) != abi.StatusNullData {
		t.Fatal("nil output must be NullData")
	}
	if !strings.Contains(eng.LastError(nil), "null context") {
		t.Fatalf("LastError(nil) = %q", eng.LastError(nil))
	}
}

func TestEncodeReading(t *testing.T) {
	eng, hooks := newTestEngine(t, nil)
	ac := newCtx(t, eng)
	r := reading(t, ac, "temp-001", 23.5)

	size, st := eng.EncodedSize(&r)
	if st != abi.StatusOK || size != 74 {
		t.Fatalf("EncodedSize = %d, %s", size, st)
	}
	out := make([]byte, size)
	n, st := eng.EncodeReading(ac, &r, out)
	if st != abi.StatusOK || n != size {
		t.Fatalf("EncodeReading = %d, %s", n, st)
	}

	n, st = eng.EncodeReading(ac, &r, out[:size-1])
	if st != abi.StatusBufferTooSmall || n != 0 {
		t.Fatalf("short buffer: %d, %s", n, st)
	}
	if len(hooks.encodeRejected) != 1 || hooks.encodeRejected[0] != 1 {
		t.Fatalf("hooks = %v", hooks.encodeRejected)
	}
	if _, st := eng.EncodeReading(nil, &r, out); st != abi.StatusNullCtx {
		t.Fatalf("nil ctx: %s", st)
	}
	if _, st := eng.EncodeReading(ac, nil, out); st != abi.StatusNullData {
		t.Fatalf("nil record: %s", st)
	}
	if _, st := eng.EncodedSize(&sensor.Reading{}); st != abi.StatusEncodeFailed {
		t.Fatalf("missing id: %s", st)
	}
}

func TestEncodeBatchDispatch(t *testing.T) {
	eng, hooks := newTestEngine(t, nil)
	ac := newCtx(t, eng)
	rs := []sensor.Reading{reading(t, ac, "a", 1), reading(t, ac, "b", 2), reading(t, ac, "c", 3)}

	var data []byte
	var events []int32
	var payloads [][]byte
	eng.Callbacks().RegisterData(func(b []byte, _ any) { data = append([]byte(nil), b...) }, nil)
	eng.Callbacks().RegisterEvent(func(ev int32, p []byte, _ any) {
		events = append(events, ev)
		payloads = append(payloads, p)
	}, nil)

	out := make([]byte, 4096)
	n := eng.EncodeBatch(ac, rs, out)
	if n == 0 {
		t.Fatalf("EncodeBatch failed: %s", eng.LastError(ac))
	}
	if string(data) != string(out[:n]) {
		t.Fatal("data callback must receive the encoded batch")
	}
	if len(events) != 1 || events[0] != abi.EventBatchEncoded {
		t.Fatalf("events = %v", events)
	}
	if recs, bytes, ok := abi.ParseEventCounts(payloads[0]); !ok || recs != 3 || bytes != n {
		t.Fatalf("event payload = %v", payloads[0])
	}

	if got := eng.EncodeBatch(ac, rs, out[:n-1]); got != 0 {
		t.Fatalf("short buffer wrote %d", got)
	}
	if eng.LastStatus(ac) != abi.StatusBufferTooSmall {
		t.Fatalf("last status %s", eng.LastStatus(ac))
	}
	if len(hooks.encodeRejected) != 1 || hooks.encodeRejected[0] != 3 {
		t.Fatalf("hooks = %v", hooks.encodeRejected)
	}
	if eng.EncodeBatch(ac, nil, out) != 0 || eng.LastStatus(ac) != abi.StatusNullData {
		t.Fatal("nil records must be NullData")
	}
}

func TestDecodeStreamProgressAndCancel(t *testing.T) {
	eng, hooks := newTestEngine(t, nil)
	ac := newCtx(t, eng)

	var stream []byte
	for _, id := range []string{"a", "b", "c", "d"} {
		stream = append(stream, encode(t, ptr(reading(t, ac, id, 1)))...)
	}

	var results []callback.Result
	eng.Callbacks().RegisterResult(func(r callback.Result, _ any) { results = append(results, r) }, nil)

	rs, st := eng.DecodeStream(ac, stream)
	if st != abi.StatusOK || len(rs) != 4 {
		t.Fatalf("DecodeStream = %d records, %s", len(rs), st)
	}
	if len(results) != 1 || results[0].Code != abi.StatusOK || len(results[0].Data) != len(stream) {
		t.Fatalf("results = %+v", results)
	}

	var seen []uint64
	eng.Callbacks().RegisterProgress(func(cur, total uint64, _ any) bool {
		if total != uint64(len(stream)) {
			t.Errorf("total = %d", total)
		}
		seen = append(seen, cur)
		return len(seen) < 3
	}, nil)
	rs, st = eng.DecodeStream(ac, stream)
	if st != abi.StatusCanceled || len(rs) != 3 {
		t.Fatalf("canceled stream = %d records, %s", len(rs), st)
	}
	if results[1].Code != abi.StatusCanceled {
		t.Fatalf("result = %+v", results[1])
	}
	if len(hooks.canceled) != 1 || hooks.canceled[0][0] != 3 {
		t.Fatalf("hooks = %v", hooks.canceled)
	}
	if eng.LastStatus(ac) != abi.StatusCanceled {
		t.Fatalf("last status %s", eng.LastStatus(ac))
	}
}

func TestContextLifecycleEvents(t *testing.T) {
	eng, _ := newTestEngine(t, nil)
	var events []int32
	eng.Callbacks().RegisterEvent(func(ev int32, _ []byte, _ any) { events = append(events, ev) }, nil)

	ac, st := eng.NewContext()
	if st != abi.StatusOK {
		t.Fatal(st)
	}
	var out sensor.Reading
	eng.DecodeReading(ac, []byte{0x09}, &out)
	if eng.ResetContext(ac) != abi.StatusOK {
		t.Fatal("reset")
	}
	if eng.LastError(ac) != "" {
		t.Fatalf("reset must clear the error, got %q", eng.LastError(ac))
	}
	eng.DestroyContext(ac)
	eng.DestroyContext(nil)

	want := []int32{abi.EventContextCreated, abi.EventContextReset, abi.EventContextDestroyed}
	if len(events) != len(want) {
		t.Fatalf("events = %v", events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("events = %v", events)
		}
	}
	if eng.ResetContext(ac) != abi.StatusNullCtx {
		t.Fatal("reset of destroyed context must be NullCtx")
	}
}

func TestArenaLimit(t *testing.T) {
	eng, hooks := newTestEngine(t, func(o *Options) {
		o.Arena = arena.Options{ChunkSize: 8, Limit: 8}
	})
	ac := newCtx(t, eng)

	scratch, _ := arena.New(arena.Options{})
	defer scratch.Destroy()
	msg := encode(t, ptr(reading(t, scratch, "temp-001", 1)))

	var out sensor.Reading
	if st := eng.DecodeReading(ac, msg, &out); st != abi.StatusAllocFailed {
		t.Fatalf("status %s", st)
	}
	if hooks.exhausted != 1 {
		t.Fatalf("exhausted hook = %d", hooks.exhausted)
	}
	if eng.LastError(ac) == "" {
		t.Fatal("last error must be set")
	}
}

func TestJournalNotConfigured(t *testing.T) {
	eng, _ := newTestEngine(t, nil)
	ac := newCtx(t, eng)
	r := reading(t, ac, "x", 1)
	err := eng.Publish(context.Background(), ac, &r)
	var be *Error
	if !errors.As(err, &be) || be.Status != abi.StatusNotImplemented || be.Op != "publish" {
		t.Fatalf("got %v", err)
	}
}

func TestPublishLatest(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	eng, hooks := newTestEngine(t, func(o *Options) {
		o.Journal = &journal.Options{Namespace: "site-a", Provider: mp}
	})
	ac := newCtx(t, eng)

	var out sensor.Reading
	if ok, err := eng.Latest(ctx, ac, "temp-001", &out); ok || err != nil {
		t.Fatalf("expected miss: %v %v", ok, err)
	}

	r1 := reading(t, ac, "temp-001", 20)
	r2 := reading(t, ac, "temp-001", 21)
	for _, r := range []*sensor.Reading{&r1, &r2} {
		if err := eng.Publish(ctx, ac, r); err != nil {
			t.Fatalf("Publish: %v", err)
		}
	}
	ok, err := eng.Latest(ctx, ac, "temp-001", &out)
	if err != nil || !ok || out.Value != 21 {
		t.Fatalf("Latest: ok=%v err=%v value=%v", ok, err, out.Value)
	}

	mp.m["reading:site-a:temp-001"] = []byte("junk")
	if ok, _ := eng.Latest(ctx, ac, "temp-001", &out); ok {
		t.Fatal("corrupt entry must miss")
	}
	if len(hooks.healed) != 1 || hooks.healed[0] != "reading:site-a:temp-001|corrupt" {
		t.Fatalf("healed = %v", hooks.healed)
	}

	bad := sensor.Reading{}
	if err := eng.Publish(ctx, ac, &bad); err == nil {
		t.Fatal("publishing a reading without id must fail")
	}
}

func TestPublishBatchLatestBatchForget(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t, func(o *Options) {
		o.Journal = &journal.Options{Provider: newMemProvider()}
	})
	ac := newCtx(t, eng)

	rs := []sensor.Reading{reading(t, ac, "a", 1), reading(t, ac, "b", 2)}
	if err := eng.PublishBatch(ctx, ac, rs); err != nil {
		t.Fatalf("PublishBatch: %v", err)
	}
	got, missing, err := eng.LatestBatch(ctx, ac, []string{"b", "a", "z"})
	if err != nil {
		t.Fatalf("LatestBatch: %v", err)
	}
	if len(got) != 2 || got[0].Value != 2 || got[1].Value != 1 || len(missing) != 1 || missing[0] != "z" {
		t.Fatalf("got %d readings, missing %v", len(got), missing)
	}

	if err := eng.Forget(ctx, "a"); err != nil {
		t.Fatalf("Forget: %v", err)
	}
	var out sensor.Reading
	if ok, _ := eng.Latest(ctx, ac, "a", &out); ok {
		t.Fatal("forgotten sensor must miss")
	}
	if ok, _ := eng.Latest(ctx, ac, "b", &out); !ok {
		t.Fatal("other sensors are unaffected")
	}

	rs[1].SensorID = nil
	if err := eng.PublishBatch(ctx, ac, rs); err == nil {
		t.Fatal("invalid member must fail the batch")
	}
}

func TestFreeReading(t *testing.T) {
	eng, _ := newTestEngine(t, nil)
	ac := newCtx(t, eng)
	r := reading(t, ac, "x", 1)
	eng.FreeReading(ac, &r)
	if !sensor.Equal(&r, &sensor.Reading{}) {
		t.Fatal("FreeReading must zero the record")
	}
	eng.FreeReading(ac, nil)
}

func ptr[T any](v T) *T { return &v }
