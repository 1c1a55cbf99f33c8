// Package pebble is a persistent journal store on a local Pebble database,
// so last-known readings survive restarts of the host process.
//
// Pebble has no native expiry. Each value is stored behind an 8-byte
// big-endian deadline in unix nanoseconds (0 = none); expired entries are
// deleted lazily on Get.
package pebble

import (
	"context"
	"encoding/binary"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"

	"github.com/unkn0wn-root/bebopffi/provider"
)

const deadlineSize = 8

var ErrBadValue = errors.New("pebble provider: stored value shorter than its header")

type Config struct {
	Dir  string
	FS   vfs.FS // nil => on-disk; vfs.NewMem() for tests
	Sync bool   // fsync every write
}

type Provider struct {
	db    *pebble.DB
	write *pebble.WriteOptions
	now   func() time.Time
}

var _ provider.Provider = (*Provider)(nil)

func Open(cfg Config) (*Provider, error) {
	opts := &pebble.Options{}
	if cfg.FS != nil {
		opts.FS = cfg.FS
	}
	db, err := pebble.Open(cfg.Dir, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "pebble provider: open %q", cfg.Dir)
	}
	w := pebble.NoSync
	if cfg.Sync {
		w = pebble.Sync
	}
	return &Provider{db: db, write: w, now: time.Now}, nil
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, closer, err := p.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "pebble get")
	}
	defer closer.Close()

	if len(v) < deadlineSize {
		_ = p.db.Delete([]byte(key), p.write)
		return nil, false, errors.WithStack(ErrBadValue)
	}
	if d := binary.BigEndian.Uint64(v); d != 0 && uint64(p.now().UnixNano()) >= d {
		_ = p.db.Delete([]byte(key), p.write)
		return nil, false, nil
	}
	out := make([]byte, len(v)-deadlineSize)
	copy(out, v[deadlineSize:])
	return out, true, nil
}

func (p *Provider) Set(_ context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	buf := make([]byte, deadlineSize+len(value))
	if ttl > 0 {
		binary.BigEndian.PutUint64(buf, uint64(p.now().Add(ttl).UnixNano()))
	}
	copy(buf[deadlineSize:], value)
	if err := p.db.Set([]byte(key), buf, p.write); err != nil {
		return false, errors.Wrap(err, "pebble set")
	}
	return true, nil
}

func (p *Provider) Del(_ context.Context, key string) error {
	return errors.Wrap(p.db.Delete([]byte(key), p.write), "pebble delete")
}

func (p *Provider) Close(context.Context) error {
	if err := p.db.Flush(); err != nil {
		_ = p.db.Close()
		return errors.Wrap(err, "pebble flush")
	}
	return p.db.Close()
}
