package fetcher

import (
	"github.com/hulthe/seed-fetcher/codec"
)

// Resource identifies one cache slot. Keys are opaque to the store; the
// bundled fetch layer treats them as request paths.
type Resource = string

// CachedResource is the payload of a successful fetch: the raw bytes as they
// arrived, the negotiated content type, and the decoded value. Value holds a
// pointer to the decoded struct and must be treated as read-only once the
// resource enters the store.
type CachedResource struct {
	Raw         []byte
	ContentType codec.ContentType
	Value       any
}

// Msg is the closed set of messages exchanged over the Bus. The store
// consumes Request, Fetched, FetchError and MarkDirty; it publishes
// FetchRequested, ResourceFetched, ResourceError and MarkDirty. Everything
// the store does happens through these messages, so any subscriber can
// observe the full cache lifecycle.
type Msg interface {
	isMsg()
}

// Request asks the store to make a resource available. The store creates a
// pending slot (or flips a dirty one to being-refetched) and emits
// FetchRequested, unless a fetch is already outstanding or the entry is
// fresh. Decode carries the deserialization strategy chosen at the acquire
// call site; it travels with the request so the fetch layer needs no type
// registry.
type Request struct {
	Resource Resource
	Decode   codec.DecodeFunc
}

// Fetched reports a successful fetch. The store overwrites the slot with the
// payload and marks it fresh, whatever state it was in.
type Fetched struct {
	Resource Resource
	Cached   CachedResource
}

// FetchError reports a failed fetch. The store clears any in-flight marker so
// the resource can be retried, and republishes the failure as ResourceError.
type FetchError struct {
	Resource Resource
	Err      error
}

// MarkDirty invalidates a fetched resource. Slots that were never fetched are
// unaffected. The message doubles as the notification: subscribers see the
// same MarkDirty the store consumes.
type MarkDirty struct {
	Resource Resource
}

// FetchRequested commands the fetch layer to retrieve a resource. It is
// emitted by the store after deduplication, so at most one FetchRequested is
// in flight per resource.
type FetchRequested struct {
	Resource Resource
	Decode   codec.DecodeFunc
}

// ResourceFetched notifies subscribers that a resource was fetched and the
// cache updated. Interested consumers re-acquire to pick up the new value.
type ResourceFetched struct {
	Resource Resource
}

// ResourceError notifies subscribers that a fetch failed. Err is classified
// against the failure classes in errors.go.
type ResourceError struct {
	Resource Resource
	Err      error
}

func (Request) isMsg()         {}
func (Fetched) isMsg()         {}
func (FetchError) isMsg()      {}
func (MarkDirty) isMsg()       {}
func (FetchRequested) isMsg()  {}
func (ResourceFetched) isMsg() {}
func (ResourceError) isMsg()   {}
