// Package httpcache keeps validated HTTP responses so the fetch layer can
// issue conditional requests. A hit never bypasses the network: the stored
// validators (ETag, Last-Modified) are sent with the next request, and the
// stored body is replayed only when the origin answers 304 Not Modified.
//
// Entries live in a pluggable byte store (see provider) under the "resp:"
// keyspace, framed by a versioned wire format. Corrupt entries are deleted on
// read; a miss is always safe.
package httpcache

import (
	"context"
	"fmt"
	"time"

	fetcher "github.com/hulthe/seed-fetcher"
	"github.com/hulthe/seed-fetcher/internal/wire"
	"github.com/hulthe/seed-fetcher/provider"
)

const keyPrefix = "resp:"

// Entry is one cached response with its revalidation headers.
type Entry struct {
	ETag         string
	LastModified string
	ContentType  string
	Body         []byte
}

// HasValidators reports whether the origin gave us anything to revalidate
// with. Entries without validators are not worth storing.
func (e Entry) HasValidators() bool {
	return e.ETag != "" || e.LastModified != ""
}

// Options tune the response cache. Only Provider is required.
type Options struct {
	Provider provider.Provider

	TTL    time.Duration  // per-entry TTL; 0 => backend default
	Logger fetcher.Logger // if nil, NopLogger is used
}

// Cache stores validated responses. All operations are best-effort: storage
// failures are logged and otherwise ignored, since the worst case is an
// unconditional re-fetch.
type Cache struct {
	store provider.Provider
	ttl   time.Duration
	log   fetcher.Logger
}

func New(opts Options) (*Cache, error) {
	if opts.Provider == nil {
		return nil, fmt.Errorf("httpcache: provider is required")
	}
	c := &Cache{
		store: opts.Provider,
		ttl:   opts.TTL,
		log:   opts.Logger,
	}
	if c.log == nil {
		c.log = fetcher.NopLogger{}
	}
	return c, nil
}

// Lookup returns the stored entry for url, if any. Corrupt entries are
// deleted and reported as a miss.
func (c *Cache) Lookup(ctx context.Context, url string) (Entry, bool) {
	k := keyPrefix + url
	raw, ok, err := c.store.Get(ctx, k)
	if err != nil {
		c.log.Warn("response cache read failed", fetcher.Fields{"url": url, "err": err})
		return Entry{}, false
	}
	if !ok {
		return Entry{}, false
	}
	r, err := wire.DecodeResponse(raw)
	if err != nil {
		_ = c.store.Del(ctx, k) // self-heal corrupt
		c.log.Warn("response cache self-healed corrupt entry", fetcher.Fields{"url": url})
		return Entry{}, false
	}
	return Entry{
		ETag:         r.ETag,
		LastModified: r.LastModified,
		ContentType:  r.ContentType,
		Body:         r.Body,
	}, true
}

// Store saves a validated response. Entries without validators are skipped:
// there would be nothing to revalidate with.
func (c *Cache) Store(ctx context.Context, url string, e Entry) {
	if !e.HasValidators() {
		return
	}
	// The wire frame caps header strings at u16 lengths and the body at u32.
	// Header values come off the network, so an oversized entry is skipped,
	// not framed.
	if len(e.ETag) > wire.MaxHeaderLen || len(e.LastModified) > wire.MaxHeaderLen ||
		len(e.ContentType) > wire.MaxHeaderLen || int64(len(e.Body)) > wire.MaxBodyLen {
		c.log.Warn("response cache entry oversized; not cached", fetcher.Fields{
			"url":  url,
			"etag": len(e.ETag),
			"lm":   len(e.LastModified),
			"body": len(e.Body),
		})
		return
	}
	enc := wire.EncodeResponse(wire.Response{
		ETag:         e.ETag,
		LastModified: e.LastModified,
		ContentType:  e.ContentType,
		Body:         e.Body,
	})
	ok, err := c.store.Set(ctx, keyPrefix+url, enc, int64(len(enc)), c.ttl)
	if err != nil {
		c.log.Warn("response cache write failed", fetcher.Fields{"url": url, "err": err})
		return
	}
	if !ok {
		c.log.Debug("response cache write rejected (pressure)", fetcher.Fields{"url": url})
	}
}

// Invalidate drops the stored response for url (best-effort).
func (c *Cache) Invalidate(ctx context.Context, url string) {
	if err := c.store.Del(ctx, keyPrefix+url); err != nil {
		c.log.Warn("response cache delete failed", fetcher.Fields{"url": url, "err": err})
	}
}

// Close releases the underlying store.
func (c *Cache) Close(ctx context.Context) error {
	return c.store.Close(ctx)
}
