// Package bigcache is an in-process journal store with a single global
// lifetime window. Per-entry TTLs passed to Set are ignored.
package bigcache

import (
	"context"
	"time"

	bc "github.com/allegro/bigcache/v3"
	"github.com/cockroachdb/errors"

	"github.com/unkn0wn-root/bebopffi/provider"
)

type Provider struct {
	c *bc.BigCache
}

var _ provider.Provider = (*Provider)(nil)

type Config struct {
	LifeWindow         time.Duration
	CleanWindow        time.Duration
	MaxEntriesInWindow int
	MaxEntrySize       int // typical encoded reading plus journal framing
	HardMaxCacheSizeMB int // 0 = unlimited
}

func New(cfg Config) (*Provider, error) {
	conf := bc.DefaultConfig(cfg.LifeWindow)
	conf.Verbose = false
	if cfg.CleanWindow > 0 {
		conf.CleanWindow = cfg.CleanWindow
	}
	if cfg.MaxEntriesInWindow > 0 {
		conf.MaxEntriesInWindow = cfg.MaxEntriesInWindow
	}
	if cfg.MaxEntrySize > 0 {
		conf.MaxEntrySize = cfg.MaxEntrySize
	}
	if cfg.HardMaxCacheSizeMB > 0 {
		conf.HardMaxCacheSize = cfg.HardMaxCacheSizeMB
	}
	c, err := bc.New(context.Background(), conf)
	if err != nil {
		return nil, errors.Wrap(err, "bigcache provider")
	}
	return &Provider{c: c}, nil
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	b, err := p.c.Get(key)
	if errors.Is(err, bc.ErrEntryNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "bigcache get")
	}
	return b, true, nil
}

func (p *Provider) Set(_ context.Context, key string, value []byte, _ int64, _ time.Duration) (bool, error) {
	if err := p.c.Set(key, value); err != nil {
		return false, errors.Wrap(err, "bigcache set")
	}
	return true, nil
}

func (p *Provider) Del(_ context.Context, key string) error {
	err := p.c.Delete(key)
	if errors.Is(err, bc.ErrEntryNotFound) {
		return nil
	}
	return err
}

// Len is the number of live entries.
func (p *Provider) Len() int { return p.c.Len() }

func (p *Provider) Close(context.Context) error { return p.c.Close() }
