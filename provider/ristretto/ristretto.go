// Package ristretto backs the response cache with dgraph-io/ristretto, a
// cost-bounded in-process cache. The right choice when response bodies vary
// wildly in size: the response cache passes byte length as cost, so MaxCost
// caps total memory no matter how many URLs are cached.
package ristretto

import (
	"context"
	"errors"
	"time"

	rc "github.com/dgraph-io/ristretto"
)

// Defaults sized for a client-side response cache: a 64 MiB byte budget with
// admission tracking for ~100k distinct URLs.
const (
	defaultNumCounters int64 = 100_000
	defaultMaxCost     int64 = 64 << 20
	defaultBufferItems int64 = 64
)

// Config sizes the cache. Zero values pick the response-cache defaults above.
type Config struct {
	NumCounters int64 // keys tracked for admission; ~10x expected live entries
	MaxCost     int64 // total byte budget across all entries
	BufferItems int64
	Metrics     bool
}

type Provider struct {
	c *rc.Cache
}

func New(cfg Config) (*Provider, error) {
	if cfg.NumCounters < 0 || cfg.MaxCost < 0 || cfg.BufferItems < 0 {
		return nil, errors.New("ristretto: negative config")
	}
	if cfg.NumCounters == 0 {
		cfg.NumCounters = defaultNumCounters
	}
	if cfg.MaxCost == 0 {
		cfg.MaxCost = defaultMaxCost
	}
	if cfg.BufferItems == 0 {
		cfg.BufferItems = defaultBufferItems
	}
	c, err := rc.NewCache(&rc.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
		Metrics:     cfg.Metrics,
	})
	if err != nil {
		return nil, err
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
		// self-heal: drop unexpected entry shape
		p.c.Del(key)
		return nil, false, nil
	}
	return b, true, nil
}

func (p *Provider) Set(_ context.Context, key string, value []byte, cost int64, ttl time.Duration) (bool, error) {
	if ttl > 0 {
		return p.c.SetWithTTL(key, value, cost, ttl), nil
	}
	return p.c.Set(key, value, cost), nil
}

func (p *Provider) Del(_ context.Context, key string) error {
	p.c.Del(key)
	return nil
}

func (p *Provider) Close(_ context.Context) error {
	p.c.Wait()
	p.c.Close()
	return nil
}

// Metrics exposes ristretto's counters to the application. Not part of
// provider.Provider.
func (p *Provider) Metrics() *rc.Metrics { return p.c.Metrics }
