package fetcher

import (
	"fmt"

	"github.com/hulthe/seed-fetcher/codec"
)

// Acquire returns the cached value for res under policy, requesting a fetch
// when the policy calls for one. When the value is not available the error is
// ErrNotFetched or ErrStale; neither is terminal, and if a fetch was
// dispatched a ResourceFetched message will follow.
//
// The decision table, by freshness and policy:
//
//	absent            -> ErrNotFetched, fetch requested
//	pending           -> ErrNotFetched, no request (one is in flight)
//	fresh             -> value
//	dirty             -> MustBeFresh: ErrStale, re-fetch requested
//	                     MayBeStale: value
//	                     SilentRefetch: value, re-fetch requested
//	being-refetched   -> MustBeFresh: ErrStale
//	                     MayBeStale: value
//	                     SilentRefetch: value
//
// A slot that is being refetched never requests again, whatever the policy.
func Acquire[T any](s *Store, res Resource, policy CachePolicy) (*T, error) {
	return AcquireWith[T](s, res, policy, codec.DecoderFor[T]())
}

// AcquireWith is Acquire with an explicit decode strategy, for payloads the
// standard decoder cannot handle: protobuf messages, size-limited decodes.
func AcquireWith[T any](s *Store, res Resource, policy CachePolicy, decode codec.DecodeFunc) (*T, error) {
	v, err := s.AcquireAny(res, policy, decode)
	if err != nil {
		return nil, err
	}
	return assertType[T](res, v), nil
}

// AcquireNow is the read-only acquire: the same decision table, but it never
// requests a fetch. Intended for render paths that must not generate
// traffic.
func AcquireNow[T any](s *Store, res Resource, policy CachePolicy) (*T, error) {
	v, err := s.AcquireAnyNow(res, policy)
	if err != nil {
		return nil, err
	}
	return assertType[T](res, v), nil
}

// AcquireAny is the dynamically typed Acquire, for callers that only know
// the resource type at runtime. decode is forwarded on the Request when a
// fetch is needed.
func (s *Store) AcquireAny(res Resource, policy CachePolicy, decode codec.DecodeFunc) (any, error) {
	v, dispatch, err := s.acquire(res, policy)
	if dispatch {
		s.bus.Publish(Request{Resource: res, Decode: decode})
	}
	return v, err
}

// AcquireAnyNow is the dynamically typed AcquireNow.
func (s *Store) AcquireAnyNow(res Resource, policy CachePolicy) (any, error) {
	v, _, err := s.acquire(res, policy)
	return v, err
}

// acquire evaluates the policy table under the read lock and fires the
// read-side hooks. It reports the value (nil when unavailable), whether the
// caller should publish a Request, and the availability error.
func (s *Store) acquire(res Resource, policy CachePolicy) (v any, dispatch bool, err error) {
	s.mu.RLock()
	e := s.cache[res]
	var fr Freshness
	switch {
	case e == nil:
		dispatch, err = true, ErrNotFetched
	case e.fetched == nil:
		err = ErrNotFetched
	default:
		fr = e.fetched.freshness
		switch {
		case fr == Fresh:
			v = e.fetched.Value
		case policy == MayBeStale:
			v = e.fetched.Value
		case policy == SilentRefetch:
			v = e.fetched.Value
			dispatch = fr == Dirty
		case fr == Dirty:
			dispatch, err = true, ErrStale
		default:
			err = ErrStale
		}
	}
	s.mu.RUnlock()

	switch {
	case err == ErrStale:
		s.hooks.StaleRefused(res)
	case v != nil && fr != Fresh:
		s.hooks.StaleServed(res, policy)
	}
	return v, dispatch, err
}

// assertType downcasts a stored value. A mismatch means two call sites typed
// the same resource differently, which is a programming error, so it panics
// rather than returning an error.
func assertType[T any](res Resource, v any) *T {
	t, ok := v.(*T)
	if !ok {
		panic(fmt.Sprintf("fetcher: resource %q holds %T, not %T", res, v, (*T)(nil)))
	}
	return t
}
