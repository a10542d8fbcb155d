package fetcher

// CachePolicy states how strictly a caller needs up-to-date data. It is
// supplied per access and never stored: the same resource may be read under
// different policies by different consumers.
type CachePolicy uint8

const (
	// MustBeFresh refuses dirty data. Acquiring a dirty resource fails with
	// ErrStale and triggers a re-fetch so a later read can succeed.
	MustBeFresh CachePolicy = iota

	// MayBeStale serves dirty data as-is and never triggers a re-fetch.
	MayBeStale

	// SilentRefetch serves dirty data but also triggers a re-fetch in the
	// background.
	SilentRefetch
)

func (p CachePolicy) String() string {
	switch p {
	case MustBeFresh:
		return "must-be-fresh"
	case MayBeStale:
		return "may-be-stale"
	case SilentRefetch:
		return "silent-refetch"
	}
	return "unknown"
}

// ParseCachePolicy maps the canonical tag spelling of a policy (its String
// form) back to the value.
func ParseCachePolicy(s string) (CachePolicy, bool) {
	switch s {
	case "must-be-fresh":
		return MustBeFresh, true
	case "may-be-stale":
		return MayBeStale, true
	case "silent-refetch":
		return SilentRefetch, true
	}
	return 0, false
}

// Freshness qualifies a fetched cache entry.
type Freshness uint8

const (
	// Fresh means the last fetch succeeded and nothing invalidated the entry
	// since.
	Fresh Freshness = iota

	// Dirty means the entry was invalidated and no re-fetch is in flight.
	Dirty

	// BeingRefetched means the entry is dirty and a re-fetch has already been
	// dispatched; further re-fetch requests are suppressed until it resolves.
	BeingRefetched
)

func (f Freshness) String() string {
	switch f {
	case Fresh:
		return "fresh"
	case Dirty:
		return "dirty"
	case BeingRefetched:
		return "being-refetched"
	}
	return "unknown"
}
