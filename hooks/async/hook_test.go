package asynchook

import (
	"sync/atomic"
	"testing"

	fetcher "github.com/hulthe/seed-fetcher"
)

// countingHooks tallies every event the worker delivers.
type countingHooks struct {
	events atomic.Int64
}

var _ fetcher.Hooks = (*countingHooks)(nil)

func (c *countingHooks) FetchDispatched(fetcher.Resource, bool)            { c.events.Add(1) }
func (c *countingHooks) RequestDeduped(fetcher.Resource)                   { c.events.Add(1) }
func (c *countingHooks) StaleServed(fetcher.Resource, fetcher.CachePolicy) { c.events.Add(1) }
func (c *countingHooks) StaleRefused(fetcher.Resource)                     { c.events.Add(1) }
func (c *countingHooks) ResultApplied(fetcher.Resource, uint64)            { c.events.Add(1) }
func (c *countingHooks) FetchFailed(fetcher.Resource, error)               { c.events.Add(1) }

// Close must deliver everything already queued before returning, whatever the
// worker got around to beforehand.
func TestCloseDrainsQueuedEvents(t *testing.T) {
	inner := &countingHooks{}
	h := New(inner, 1, 64)

	const n = 50 // below the queue length, so nothing is dropped
	for i := 0; i < n; i++ {
		h.ResultApplied("/api/widgets", uint64(i+1))
	}
	h.Close()

	if got := inner.events.Load(); got != n {
		t.Fatalf("want %d events delivered before Close returned, got %d", n, got)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	h := New(&countingHooks{}, 2, 8)
	h.FetchFailed("/api/widgets", nil)
	h.Close()
	h.Close()
}
