// Package ristretto is an in-process, cost-bounded journal store.
package ristretto

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	rc "github.com/dgraph-io/ristretto"

	"github.com/unkn0wn-root/bebopffi/provider"
)

var ErrBadConfig = errors.New("ristretto provider: counters, max cost and buffer items must be positive")

type Provider struct {
	c *rc.Cache
}

var _ provider.Provider = (*Provider)(nil)

type Config struct {
	NumCounters int64
	MaxCost     int64 // bytes when the journal's cost function is len(entry)
	BufferItems int64
	Metrics     bool
}

// DefaultConfig sizes the cache for roughly maxCost bytes of entries.
func DefaultConfig(maxCost int64) Config {
	return Config{NumCounters: max(maxCost/64, 1024), MaxCost: maxCost, BufferItems: 64}
}

func New(cfg Config) (*Provider, error) {
	if cfg.NumCounters <= 0 || cfg.MaxCost <= 0 || cfg.BufferItems <= 0 {
		return nil, ErrBadConfig
	}
	c, err := rc.NewCache(&rc.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
		Metrics:     cfg.Metrics,
	})
	if err != nil {
		return nil, errors.Wrap(err, "ristretto provider")
	}
	return &Provider{c: c}, nil
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := p.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, _ := v.([]byte)
	if b == nil {
		p.c.Del(key)
		return nil, false, nil
	}
	return b, true, nil
}

// Set admits value through ristretto's policy. Writes are buffered, so a
// Get right after Set may miss until Wait is called.
func (p *Provider) Set(_ context.Context, key string, value []byte, cost int64, ttl time.Duration) (bool, error) {
	if ttl < 0 {
		ttl = 0
	}
	return p.c.SetWithTTL(key, value, cost, ttl), nil
}

func (p *Provider) Del(_ context.Context, key string) error {
	p.c.Del(key)
	return nil
}

// Wait blocks until buffered writes are applied.
func (p *Provider) Wait() { p.c.Wait() }

func (p *Provider) Close(context.Context) error {
	p.c.Wait()
	p.c.Close()
	return nil
}

func (p *Provider) Metrics() *rc.Metrics { return p.c.Metrics }
