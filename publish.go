package bebopffi

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/unkn0wn-root/bebopffi/abi"
	"github.com/unkn0wn-root/bebopffi/arena"
	"github.com/unkn0wn-root/bebopffi/batch"
	"github.com/unkn0wn-root/bebopffi/journal"
	"github.com/unkn0wn-root/bebopffi/sensor"
)

// Publish stores r as its sensor's latest reading.
func (e *engine) Publish(ctx context.Context, ac *arena.Context, r *sensor.Reading) error {
	if e.journal == nil {
		return opError("publish", ErrNoJournal)
	}
	msg, err := sensor.Marshal(r)
	if err != nil {
		e.fail(ac, "publish", err)
		return opError("publish", err)
	}
	if _, err := e.journal.Put(ctx, string(r.SensorID), msg); err != nil {
		e.log.Warn("bebop: journal put failed", Fields{"sensor_id": string(r.SensorID), "err": err})
		return opError("publish", err)
	}
	return nil
}

// PublishBatch stores every reading as its sensor's latest and keeps the set
// retrievable as one unit through LatestBatch.
func (e *engine) PublishBatch(ctx context.Context, ac *arena.Context, rs []sensor.Reading) error {
	if e.journal == nil {
		return opError("publish_batch", ErrNoJournal)
	}
	if _, err := batch.EncodedSize(rs); err != nil {
		e.fail(ac, "publish_batch", err)
		return opError("publish_batch", err)
	}
	msgs := make([]journal.Message, len(rs))
	for i := range rs {
		b, err := sensor.Marshal(&rs[i])
		if err != nil {
			return opError("publish_batch", err)
		}
		msgs[i] = journal.Message{SensorID: string(rs[i].SensorID), Data: b}
	}
	if err := e.journal.PutBatch(ctx, msgs); err != nil {
		e.log.Warn("bebop: journal batch put failed", Fields{"records": len(rs), "err": err})
		return opError("publish_batch", err)
	}
	return nil
}

// Latest decodes the sensor's latest reading into out, allocating from ac.
// It reports false when the journal has no current entry.
func (e *engine) Latest(ctx context.Context, ac *arena.Context, sensorID string, out *sensor.Reading) (bool, error) {
	if e.journal == nil {
		return false, opError("latest", ErrNoJournal)
	}
	msg, ok, err := e.journal.Get(ctx, sensorID)
	if err != nil {
		return false, opError("latest", err)
	}
	if !ok {
		return false, nil
	}
	if st := e.DecodeReading(ac, msg, out); st != abi.StatusOK {
		return false, &Error{Op: "latest", Status: st, Err: errors.New(e.LastError(ac))}
	}
	return true, nil
}

// LatestBatch returns the latest readings for sensorIDs, in order, plus the
// ids with no current entry.
func (e *engine) LatestBatch(ctx context.Context, ac *arena.Context, sensorIDs []string) ([]sensor.Reading, []string, error) {
	if e.journal == nil {
		return nil, nil, opError("latest_batch", ErrNoJournal)
	}
	msgs, missing, err := e.journal.GetBatch(ctx, sensorIDs)
	if err != nil {
		return nil, nil, opError("latest_batch", err)
	}
	out := make([]sensor.Reading, len(msgs))
	for i, m := range msgs {
		if st := e.DecodeReading(ac, m.Data, &out[i]); st != abi.StatusOK {
			return nil, nil, &Error{Op: "latest_batch", Status: st, Err: errors.Newf("%s: %s", m.SensorID, e.LastError(ac))}
		}
	}
	return out, missing, nil
}

// Forget invalidates the sensor's journal entry.
func (e *engine) Forget(ctx context.Context, sensorID string) error {
	if e.journal == nil {
		return opError("forget", ErrNoJournal)
	}
	return opError("forget", e.journal.Invalidate(ctx, sensorID))
}
