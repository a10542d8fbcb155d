package fetcher

// Hooks are lightweight callbacks for high-signal cache events.
// Implementations MUST be cheap and non-blocking: the store calls them on
// hot paths, and the acquire-side hooks run on caller goroutines, so they
// may fire concurrently.
type Hooks interface {
	// A fetch command was emitted. refetch is true when the fetch replaces
	// a dirty entry rather than filling an empty slot.
	FetchDispatched(resource Resource, refetch bool)

	// A request was suppressed because a fetch is already in flight or the
	// entry is fresh.
	RequestDeduped(resource Resource)

	// A dirty or being-refetched entry was served to a caller.
	StaleServed(resource Resource, policy CachePolicy)

	// A caller demanding fresh data was refused a dirty entry.
	StaleRefused(resource Resource)

	// A fetch result overwrote the entry. revision counts distinct payloads
	// observed for the resource.
	ResultApplied(resource Resource, revision uint64)

	// A fetch resolved with an error. err is classified against the failure
	// classes in errors.go.
	FetchFailed(resource Resource, err error)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) FetchDispatched(Resource, bool)     {}
func (NopHooks) RequestDeduped(Resource)            {}
func (NopHooks) StaleServed(Resource, CachePolicy)  {}
func (NopHooks) StaleRefused(Resource)              {}
func (NopHooks) ResultApplied(Resource, uint64)     {}
func (NopHooks) FetchFailed(Resource, error)        {}
