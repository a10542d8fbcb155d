// usage:
//
// import (
//
//	"log/slog"
//
//	fetcher "github.com/hulthe/seed-fetcher"
//	asynchook "github.com/hulthe/seed-fetcher/hooks/async"
//	"github.com/hulthe/seed-fetcher/sloghooks"
//
// )
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{
//	    DedupEvery:       10, // sample logs: ~every 10th dedup
//	    StaleServedEvery: 1,  // log every stale serve
//	})
//
// hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
// defer hooks.Close()
//
//	store, _ := fetcher.New(fetcher.Options{
//	    Bus:   bus,
//	    Hooks: hooks, // or `raw` if you don't want async
//	})
package asynchook

import (
	"sync"

	fetcher "github.com/hulthe/seed-fetcher"
)

type Hooks struct {
	inner fetcher.Hooks
	q     chan func()
	wg    sync.WaitGroup
	once  sync.Once
}

var _ fetcher.Hooks = (*Hooks)(nil)

func New(inner fetcher.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

func (h *Hooks) Close() {
	h.once.Do(func() {
		close(h.q)
		h.wg.Wait()
	})
}

func (h *Hooks) try(f func()) {
	select {
	case h.q <- f:
	default: // drop
	}
}

func (h *Hooks) FetchDispatched(res fetcher.Resource, refetch bool) {
	h.try(func() { h.inner.FetchDispatched(res, refetch) })
}
func (h *Hooks) RequestDeduped(res fetcher.Resource) {
	h.try(func() { h.inner.RequestDeduped(res) })
}
func (h *Hooks) StaleServed(res fetcher.Resource, policy fetcher.CachePolicy) {
	h.try(func() { h.inner.StaleServed(res, policy) })
}
func (h *Hooks) StaleRefused(res fetcher.Resource) {
	h.try(func() { h.inner.StaleRefused(res) })
}
func (h *Hooks) ResultApplied(res fetcher.Resource, revision uint64) {
	h.try(func() { h.inner.ResultApplied(res, revision) })
}
func (h *Hooks) FetchFailed(res fetcher.Resource, err error) {
	h.try(func() { h.inner.FetchFailed(res, err) })
}
