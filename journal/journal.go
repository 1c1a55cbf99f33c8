// Package journal keeps the last encoded message per sensor in a Provider,
// guarded by per-sensor generations.
//
// Keys:
//
//	reading:<ns>:<sensor_id>  one framed message
//	batch:<ns>:<hash>         several framed messages (hash over sorted ids)
//
// Every stored entry carries the generation it was written under. A read
// compares it with the current generation and deletes the entry on mismatch,
// so a superseded or invalidated reading is never returned.
package journal

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/unkn0wn-root/bebopffi/genstore"
	"github.com/unkn0wn-root/bebopffi/internal/util"
	"github.com/unkn0wn-root/bebopffi/internal/wire"
	"github.com/unkn0wn-root/bebopffi/provider"
)

const (
	DefaultNamespace = "default"
	DefaultTTL       = 24 * time.Hour

	defaultSweep     = time.Hour
	defaultRetention = 7 * 24 * time.Hour
)

// Self-heal reasons.
const (
	ReasonCorrupt = "corrupt"
	ReasonStale   = "stale"
)

var (
	ErrNoProvider  = errors.New("journal: provider is required")
	ErrNoSensorID  = errors.New("journal: sensor id is required")
	ErrEmptyBatch  = errors.New("journal: empty batch")
	ErrGenSnapshot = errors.New("journal: generation lookup failed")
)

// CostFunc prices an entry for cost-aware providers.
type CostFunc func(key string, entry []byte, batch bool, n int) int64

type Options struct {
	Namespace string            // "" => DefaultNamespace
	Provider  provider.Provider // required
	Gens      genstore.Store    // nil => in-process LocalStore
	TTL       time.Duration     // 0 => DefaultTTL, < 0 => no expiry

	SweepInterval time.Duration // LocalStore only; 0 => 1h
	GenRetention  time.Duration // LocalStore only; 0 => 7d
	Cost          CostFunc      // nil => len(entry)

	OnSelfHeal    func(key, reason string)
	OnSetRejected func(key string, batch bool)
	OnGenError    func(key string, err error)
}

type Journal struct {
	ns       string
	provider provider.Provider
	gens     genstore.Store
	ownsGens bool
	ttl      time.Duration
	cost     CostFunc

	onHeal     func(string, string)
	onRejected func(string, bool)
	onGenErr   func(string, error)
}

func New(opts Options) (*Journal, error) {
	if opts.Provider == nil {
		return nil, ErrNoProvider
	}
	j := &Journal{
		ns:         opts.Namespace,
		provider:   opts.Provider,
		gens:       opts.Gens,
		ttl:        opts.TTL,
		cost:       opts.Cost,
		onHeal:     opts.OnSelfHeal,
		onRejected: opts.OnSetRejected,
		onGenErr:   opts.OnGenError,
	}
	if j.ns == "" {
		j.ns = DefaultNamespace
	}
	switch {
	case j.ttl == 0:
		j.ttl = DefaultTTL
	case j.ttl < 0:
		j.ttl = 0
	}
	if j.cost == nil {
		j.cost = func(_ string, entry []byte, _ bool, _ int) int64 { return int64(len(entry)) }
	}
	if j.gens == nil {
		sweep, retention := opts.SweepInterval, opts.GenRetention
		if sweep == 0 {
			sweep = defaultSweep
		}
		if retention == 0 {
			retention = defaultRetention
		}
		j.gens = genstore.NewLocalStore(sweep, retention)
		j.ownsGens = true
	}
	if j.onHeal == nil {
		j.onHeal = func(string, string) {}
	}
	if j.onRejected == nil {
		j.onRejected = func(string, bool) {}
	}
	if j.onGenErr == nil {
		j.onGenErr = func(string, error) {}
	}
	return j, nil
}

func (j *Journal) Namespace() string { return j.ns }

// Close closes the generation store if the journal created it, then the
// provider.
func (j *Journal) Close(ctx context.Context) error {
	var err error
	if j.ownsGens {
		err = j.gens.Close(ctx)
	}
	return errors.CombineErrors(err, j.provider.Close(ctx))
}

func (j *Journal) readingKey(id string) string { return "reading:" + j.ns + ":" + id }

func (j *Journal) batchKey(ids []string) string { return util.BatchKey("batch:"+j.ns, ids) }

// Put records msg as the latest message for sensorID and returns the
// generation it was written under. A provider that declines the write is not
// an error; the previous entry is still invalidated by the bump.
func (j *Journal) Put(ctx context.Context, sensorID string, msg []byte) (uint64, error) {
	if sensorID == "" {
		return 0, ErrNoSensorID
	}
	k := j.readingKey(sensorID)
	gen, err := j.gens.Bump(ctx, k)
	if err != nil {
		j.onGenErr(k, err)
		return 0, errors.Wrapf(err, "journal: bump %q", sensorID)
	}
	if err := j.store(ctx, k, wire.EncodeEntry(gen, msg), false, 1); err != nil {
		return 0, err
	}
	return gen, nil
}

func (j *Journal) store(ctx context.Context, k string, entry []byte, batch bool, n int) error {
	ok, err := j.provider.Set(ctx, k, entry, j.cost(k, entry, batch, n), j.ttl)
	if err != nil {
		return errors.Wrapf(err, "journal: store %q", k)
	}
	if !ok {
		j.onRejected(k, batch)
	}
	return nil
}

// Get returns the latest message for sensorID. Corrupt or stale entries are
// deleted and reported as a miss.
func (j *Journal) Get(ctx context.Context, sensorID string) ([]byte, bool, error) {
	k := j.readingKey(sensorID)
	raw, ok, err := j.provider.Get(ctx, k)
	if err != nil || !ok {
		return nil, false, err
	}
	gen, msg, err := wire.DecodeEntry(raw)
	if err != nil {
		j.heal(ctx, k, ReasonCorrupt)
		return nil, false, nil
	}
	cur, err := j.gens.Current(ctx, k)
	if err != nil {
		j.onGenErr(k, err)
		return nil, false, errors.Mark(errors.Wrapf(err, "journal: generation of %q", sensorID), ErrGenSnapshot)
	}
	if gen != cur {
		j.heal(ctx, k, ReasonStale)
		return nil, false, nil
	}
	return msg, true, nil
}

// Invalidate bumps the sensor's generation and drops its entry.
func (j *Journal) Invalidate(ctx context.Context, sensorID string) error {
	k := j.readingKey(sensorID)
	_, bumpErr := j.gens.Bump(ctx, k)
	if bumpErr != nil {
		j.onGenErr(k, bumpErr)
	}
	delErr := j.provider.Del(ctx, k)
	if bumpErr != nil || delErr != nil {
		return &InvalidateError{SensorID: sensorID, BumpErr: bumpErr, DelErr: delErr}
	}
	return nil
}

func (j *Journal) heal(ctx context.Context, k, reason string) {
	_ = j.provider.Del(ctx, k)
	j.onHeal(k, reason)
}

// Message is one sensor's message within a batch.
type Message struct {
	SensorID string
	Data     []byte
}

// PutBatch records every message as its sensor's latest, then stores the
// whole set under one batch key so GetBatch can fetch it in a single read.
// A sensor id that appears more than once keeps its last message.
func (j *Journal) PutBatch(ctx context.Context, msgs []Message) error {
	if len(msgs) == 0 {
		return ErrEmptyBatch
	}
	last := make(map[string][]byte, len(msgs))
	for _, m := range msgs {
		if m.SensorID == "" {
			return ErrNoSensorID
		}
		last[m.SensorID] = m.Data
	}
	ids := make([]string, 0, len(last))
	for id := range last {
		ids = append(ids, id)
	}
	ids = util.SortedUnique(ids)

	items := make([]wire.Item, 0, len(ids))
	for _, id := range ids {
		gen, err := j.Put(ctx, id, last[id])
		if err != nil {
			return err
		}
		items = append(items, wire.Item{SensorID: id, Gen: gen, Message: last[id]})
	}
	entry, err := wire.EncodeEntries(items)
	if err != nil {
		return errors.Wrap(err, "journal: encode batch")
	}
	return j.store(ctx, j.batchKey(ids), entry, true, len(items))
}

// GetBatch returns the latest message of each requested sensor in ids order
// and the ids it could not find. The batch entry is used only when every
// member is current; otherwise it is dropped and singles are read.
func (j *Journal) GetBatch(ctx context.Context, ids []string) ([]Message, []string, error) {
	if len(ids) == 0 {
		return nil, nil, nil
	}
	bk := j.batchKey(ids)
	raw, ok, err := j.provider.Get(ctx, bk)
	if err != nil {
		return nil, nil, err
	}
	if ok {
		if byID, valid := j.validBatch(ctx, raw, ids); valid {
			out := make([]Message, 0, len(ids))
			var missing []string
			for _, id := range ids {
				if m, ok := byID[id]; ok {
					out = append(out, Message{SensorID: id, Data: m})
				} else {
					missing = append(missing, id)
				}
			}
			return out, missing, nil
		}
	}

	out := make([]Message, 0, len(ids))
	var missing []string
	for _, id := range ids {
		m, ok, err := j.Get(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		if ok {
			out = append(out, Message{SensorID: id, Data: m})
		} else {
			missing = append(missing, id)
		}
	}
	return out, missing, nil
}

func (j *Journal) validBatch(ctx context.Context, raw []byte, ids []string) (map[string][]byte, bool) {
	bk := j.batchKey(ids)
	items, err := wire.DecodeEntries(raw)
	if err != nil {
		j.heal(ctx, bk, ReasonCorrupt)
		return nil, false
	}
	keys := make([]string, len(items))
	for i, it := range items {
		keys[i] = j.readingKey(it.SensorID)
	}
	cur, err := j.gens.CurrentMany(ctx, keys)
	if err != nil {
		j.onGenErr(bk, err)
		return nil, false
	}
	byID := make(map[string][]byte, len(items))
	for i, it := range items {
		if cur[keys[i]] != it.Gen {
			j.heal(ctx, bk, ReasonStale)
			return nil, false
		}
		byID[it.SensorID] = it.Message
	}
	return byID, true
}
