// Package fetcher implements a message-driven resource cache for clients
// that render server state: values are fetched once, kept forever, and
// invalidated explicitly instead of expiring. Every read states a
// CachePolicy, so one consumer can demand fresh data while another happily
// renders a stale value from the same slot.
//
// Components:
//   - Store: the cache itself. Mutates only through Apply, driven by Msg
//     values delivered over a Bus; reads are safe from any goroutine.
//   - Bus: serialized message fabric. LocalBus is the in-process default;
//     hosts with their own message loop implement Bus on top of it.
//   - fetch.Dispatcher: turns FetchRequested messages into HTTP requests and
//     publishes the results back (subpackage fetch).
//   - codec: content negotiation and decoding (JSON, MessagePack, CBOR,
//     protobuf). The decode strategy travels with each request, bound to the
//     Go type at the acquire call site.
//
// Flow:
//
//	val, err := fetcher.Acquire[User](store, "/api/user", fetcher.MustBeFresh)
//	// ErrNotFetched: a fetch was dispatched; re-acquire on ResourceFetched
//	store.MarkAsDirty("/api/user") // invalidate after a mutation
//
// At most one fetch is in flight per resource; overlapping requests collapse
// at the store.
package fetcher
