package fetcher

import (
	"errors"
	"fmt"
)

// Availability errors returned by the acquire functions. Neither is terminal:
// both mean "not now", and the dispatch half of the call (when the policy
// allows one) arranges for a later read to succeed.
var (
	// ErrNotFetched reports that the resource has not been fetched yet.
	ErrNotFetched = errors.New("resource not fetched yet")

	// ErrStale reports that the resource is dirty and the caller demanded
	// fresh data.
	ErrStale = errors.New("resource is stale")
)

// Fetch failure classes carried by FetchError and ResourceError messages.
// Wrap with fmt.Errorf("%w: %w", class, cause) and test with errors.Is.
var (
	// ErrFetch classifies transport-level failures: connection errors,
	// non-2xx statuses, truncated bodies.
	ErrFetch = errors.New("fetch failed")

	// ErrDeserialize classifies payloads that arrived but did not decode.
	ErrDeserialize = errors.New("deserialize failed")

	// ErrUnsupportedContentType classifies responses whose media type no
	// registered codec handles.
	ErrUnsupportedContentType = errors.New("unsupported content type")
)

// ContentTypeError reports a response encoding the fetch layer cannot decode.
// It matches ErrUnsupportedContentType under errors.Is.
type ContentTypeError struct {
	// ContentType is the media type the server sent, empty when the response
	// carried no Content-Type header at all.
	ContentType string
}

func (e *ContentTypeError) Error() string {
	if e.ContentType == "" {
		return "unsupported content type: none given"
	}
	return fmt.Sprintf("unsupported content type %q", e.ContentType)
}

func (e *ContentTypeError) Is(target error) bool {
	return target == ErrUnsupportedContentType
}
