package httpcache

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/hulthe/seed-fetcher/internal/wire"
	"github.com/hulthe/seed-fetcher/provider"
)

type memProvider struct {
	m map[string][]byte
}

var _ provider.Provider = (*memProvider)(nil)

func newMemProvider() *memProvider { return &memProvider{m: make(map[string][]byte)} }

func (p *memProvider) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := p.m[key]
	return v, ok, nil
}

func (p *memProvider) Set(_ context.Context, key string, value []byte, _ int64, _ time.Duration) (bool, error) {
	p.m[key] = value
	return true, nil
}

func (p *memProvider) Del(_ context.Context, key string) error { delete(p.m, key); return nil }
func (p *memProvider) Close(_ context.Context) error           { return nil }

func newTestCache(t *testing.T, mp provider.Provider) *Cache {
	t.Helper()
	c, err := New(Options{Provider: mp})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestStoreLookupRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, newMemProvider())

	const url = "https://api.example.com/api/widgets"
	want := Entry{
		ETag:         `"v1"`,
		LastModified: "Tue, 19 Aug 2025 07:00:00 GMT",
		ContentType:  "application/json",
		Body:         []byte(`{"name":"w"}`),
	}
	c.Store(ctx, url, want)

	got, ok := c.Lookup(ctx, url)
	if !ok {
		t.Fatalf("expected hit")
	}
	if got.ETag != want.ETag || got.LastModified != want.LastModified || got.ContentType != want.ContentType {
		t.Fatalf("headers mismatch: got %+v", got)
	}
	if !bytes.Equal(got.Body, want.Body) {
		t.Fatalf("body mismatch: %s", got.Body)
	}

	if _, ok := c.Lookup(ctx, "https://api.example.com/other"); ok {
		t.Fatalf("unexpected hit for different url")
	}
}

func TestStoreSkipsEntriesWithoutValidators(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	c := newTestCache(t, mp)

	c.Store(ctx, "https://api.example.com/api/widgets", Entry{
		ContentType: "application/json",
		Body:        []byte(`{}`),
	})
	if len(mp.m) != 0 {
		t.Fatalf("entry without validators was stored")
	}
}

// Header values longer than the wire frame can carry must not reach the
// encoder; Store drops the entry instead.
func TestStoreSkipsOversizedEntries(t *testing.T) {
	ctx := context.Background()
	long := strings.Repeat("e", wire.MaxHeaderLen+1)

	cases := []struct {
		name string
		e    Entry
	}{
		{"etag", Entry{ETag: long, Body: []byte("x")}},
		{"last-modified", Entry{LastModified: long, Body: []byte("x")}},
		{"content-type", Entry{ETag: `"v1"`, ContentType: long, Body: []byte("x")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mp := newMemProvider()
			c := newTestCache(t, mp)

			c.Store(ctx, "https://api.example.com/api/widgets", tc.e)
			if len(mp.m) != 0 {
				t.Fatalf("oversized entry was stored")
			}
		})
	}
}

func TestLookupSelfHealsCorruptEntries(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	c := newTestCache(t, mp)

	const url = "https://api.example.com/api/widgets"
	mp.m[keyPrefix+url] = []byte("not a wire frame")

	if _, ok := c.Lookup(ctx, url); ok {
		t.Fatalf("corrupt entry served")
	}
	if _, still := mp.m[keyPrefix+url]; still {
		t.Fatalf("corrupt entry not deleted")
	}
}

func TestInvalidate(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, newMemProvider())

	const url = "https://api.example.com/api/widgets"
	c.Store(ctx, url, Entry{ETag: `"v1"`, Body: []byte("x")})
	c.Invalidate(ctx, url)

	if _, ok := c.Lookup(ctx, url); ok {
		t.Fatalf("entry survived invalidation")
	}
}

func TestNewRequiresProvider(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatalf("expected error without provider")
	}
}
