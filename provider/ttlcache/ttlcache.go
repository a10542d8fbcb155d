// Package ttlcache backs the response cache with jellydator/ttlcache: a
// plain map with per-entry TTLs and a background expiration loop. The
// lightest option when response volume is small and eviction pressure is not
// a concern.
package ttlcache

import (
	"context"
	"time"

	tc "github.com/jellydator/ttlcache/v3"
)

type Provider struct {
	c *tc.Cache[string, []byte]
}

type Config struct {
	// DefaultTTL applies when Set is called with ttl <= 0. 0 means entries
	// never expire.
	DefaultTTL time.Duration

	// Capacity bounds the number of entries; the oldest is evicted at the
	// limit. 0 = unbounded.
	Capacity uint64
}

func New(cfg Config) *Provider {
	opts := []tc.Option[string, []byte]{
		// reads must not extend entry lifetime
		tc.WithDisableTouchOnHit[string, []byte](),
	}
	if cfg.DefaultTTL > 0 {
		opts = append(opts, tc.WithTTL[string, []byte](cfg.DefaultTTL))
	}
	if cfg.Capacity > 0 {
		opts = append(opts, tc.WithCapacity[string, []byte](cfg.Capacity))
	}

	c := tc.New[string, []byte](opts...)
	go c.Start() // expiration loop; stopped by Close
	return &Provider{c: c}
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	it := p.c.Get(key)
	if it == nil {
		return nil, false, nil
	}
	return it.Value(), true, nil
}

func (p *Provider) Set(_ context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = tc.DefaultTTL
	}
	p.c.Set(key, value, ttl)
	return true, nil
}

func (p *Provider) Del(_ context.Context, key string) error {
	p.c.Delete(key)
	return nil
}

func (p *Provider) Close(_ context.Context) error {
	p.c.Stop()
	return nil
}
