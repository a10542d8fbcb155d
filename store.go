package fetcher

import (
	"bytes"
	"sync"

	"github.com/hulthe/seed-fetcher/codec"
)

// Store is the resource cache. All mutation flows through Apply, driven by
// bus messages on the dispatch goroutine; reads are safe from any goroutine.
// Slots are never deleted once fetched: entries cycle between fresh, dirty
// and being-refetched for the lifetime of the store.
type Store struct {
	mu    sync.RWMutex
	cache map[Resource]*entry

	bus    Bus
	log    Logger
	hooks  Hooks
	cancel func()
	once   sync.Once
}

// entry is one cache slot. fetched is nil while the first fetch for the
// resource is outstanding.
type entry struct {
	fetched *stored
}

// stored is a fetched slot: the payload plus its freshness and a revision
// counter bumped once per distinct payload observed.
type stored struct {
	CachedResource
	freshness Freshness
	revision  uint64
}

// Info is a snapshot of one slot's metadata, for debug surfaces and
// dashboards. Pending is true while the first fetch is outstanding; the
// remaining fields are meaningful only once Pending is false.
type Info struct {
	Pending     bool
	ContentType codec.ContentType
	Size        int
	Freshness   Freshness
	Revision    uint64
}

// consume feeds inbound messages into Apply. Registered on the bus by New,
// so it runs on the dispatch goroutine.
func (s *Store) consume(m Msg) {
	switch m.(type) {
	case Request, Fetched, FetchError, MarkDirty:
		s.Apply(m)
	}
}

// Apply performs one state transition. It is the only mutation entry point
// and must be invoked from a single goroutine; with a Bus in place that is
// the dispatch goroutine and hosts never call Apply directly. Messages
// outside the inbound set are ignored.
func (s *Store) Apply(m Msg) {
	switch m := m.(type) {
	case Request:
		s.applyRequest(m)
	case Fetched:
		s.applyFetched(m)
	case FetchError:
		s.applyFetchError(m)
	case MarkDirty:
		s.applyMarkDirty(m)
	}
}

func (s *Store) applyRequest(m Request) {
	s.mu.Lock()
	e := s.cache[m.Resource]
	var refetch bool
	switch {
	case e == nil:
		s.cache[m.Resource] = &entry{}
	case e.fetched == nil || e.fetched.freshness != Dirty:
		// a fetch is already in flight, or the entry is fresh
		s.mu.Unlock()
		s.hooks.RequestDeduped(m.Resource)
		return
	default:
		e.fetched.freshness = BeingRefetched
		refetch = true
	}
	s.mu.Unlock()

	s.log.Debug("fetch dispatched", Fields{"resource": m.Resource, "refetch": refetch})
	s.hooks.FetchDispatched(m.Resource, refetch)
	s.bus.Publish(FetchRequested{Resource: m.Resource, Decode: m.Decode})
}

func (s *Store) applyFetched(m Fetched) {
	s.mu.Lock()
	e := s.cache[m.Resource]
	if e == nil {
		e = &entry{}
		s.cache[m.Resource] = e
	}
	var rev uint64
	if prev := e.fetched; prev != nil &&
		prev.ContentType == m.Cached.ContentType &&
		bytes.Equal(prev.Raw, m.Cached.Raw) {
		// same payload again: keep the decoded value (and its pointer
		// identity) so consumers diffing by revision see no change
		prev.freshness = Fresh
		rev = prev.revision
	} else {
		rev = 1
		if prev != nil {
			rev = prev.revision + 1
		}
		e.fetched = &stored{CachedResource: m.Cached, freshness: Fresh, revision: rev}
	}
	s.mu.Unlock()

	s.log.Debug("resource fetched", Fields{
		"resource": m.Resource,
		"ct":       string(m.Cached.ContentType),
		"bytes":    len(m.Cached.Raw),
		"rev":      rev,
	})
	s.hooks.ResultApplied(m.Resource, rev)
	s.bus.Publish(ResourceFetched{Resource: m.Resource})
}

func (s *Store) applyFetchError(m FetchError) {
	s.mu.Lock()
	if e := s.cache[m.Resource]; e != nil {
		switch {
		case e.fetched == nil:
			// never fetched: drop the pending slot so the next acquire retries
			delete(s.cache, m.Resource)
		case e.fetched.freshness == BeingRefetched:
			// failed refetch: back to dirty so the next acquire retries
			e.fetched.freshness = Dirty
		}
	}
	s.mu.Unlock()

	s.log.Error("fetch failed", Fields{"resource": m.Resource, "err": m.Err})
	s.hooks.FetchFailed(m.Resource, m.Err)
	s.bus.Publish(ResourceError{Resource: m.Resource, Err: m.Err})
}

func (s *Store) applyMarkDirty(m MarkDirty) {
	s.mu.Lock()
	e := s.cache[m.Resource]
	marked := e != nil && e.fetched != nil
	if marked {
		e.fetched.freshness = Dirty
	}
	s.mu.Unlock()

	if marked {
		s.log.Debug("resource marked dirty", Fields{"resource": m.Resource})
	}
}

// MarkAsDirty invalidates a fetched resource. It only publishes the MarkDirty
// message; the state change happens when the message reaches Apply, and every
// other subscriber observes the same message. Safe from any goroutine.
func (s *Store) MarkAsDirty(res Resource) {
	s.bus.Publish(MarkDirty{Resource: res})
}

// Stat reports slot metadata. ok is false when the resource was never
// requested.
func (s *Store) Stat(res Resource) (info Info, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e := s.cache[res]
	if e == nil {
		return Info{}, false
	}
	if e.fetched == nil {
		return Info{Pending: true}, true
	}
	return Info{
		ContentType: e.fetched.ContentType,
		Size:        len(e.fetched.Raw),
		Freshness:   e.fetched.freshness,
		Revision:    e.fetched.revision,
	}, true
}

// Close detaches the store from its bus. The cache stays readable; no
// further messages are consumed.
func (s *Store) Close() {
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
	})
}
