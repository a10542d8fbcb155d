// Package fetch is the bundled transport: it turns FetchRequested messages
// into HTTP GETs and publishes the outcome back on the bus as Fetched or
// FetchError. Hosts with exotic transports can ignore it and publish those
// messages themselves.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	fetcher "github.com/hulthe/seed-fetcher"
	"github.com/hulthe/seed-fetcher/codec"
	"github.com/hulthe/seed-fetcher/httpcache"
)

// Doer executes one HTTP request. *http.Client satisfies it; tests and
// instrumented clients implement it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options tune the fetch client. All fields are optional.
type Options struct {
	// Client executes requests. nil => http.DefaultClient. Timeouts belong
	// to the client: set http.Client.Timeout there.
	Client Doer

	// BaseURL is prefixed to every resource key, e.g.
	// "https://api.example.com" with keys like "/api/widgets".
	BaseURL string

	// Accept overrides the Accept header. "" => codec.DefaultAccept.
	Accept string

	// Cache enables conditional requests through a response cache.
	Cache *httpcache.Cache

	// MaxBody caps response bodies in bytes. 0 => no cap.
	MaxBody int64

	Logger fetcher.Logger // if nil, NopLogger is used
}

// Client fetches single resources. Fetch never returns a Go error: failures
// come back as a FetchError message and successes as Fetched, ready to
// publish.
type Client struct {
	doer    Doer
	base    string
	accept  string
	cache   *httpcache.Cache
	maxBody int64
	log     fetcher.Logger
}

func NewClient(opts Options) *Client {
	c := &Client{
		doer:    opts.Client,
		base:    strings.TrimRight(opts.BaseURL, "/"),
		accept:  opts.Accept,
		cache:   opts.Cache,
		maxBody: opts.MaxBody,
		log:     opts.Logger,
	}
	if c.doer == nil {
		c.doer = http.DefaultClient
	}
	if c.accept == "" {
		c.accept = codec.DefaultAccept
	}
	if c.log == nil {
		c.log = fetcher.NopLogger{}
	}
	return c
}

// Fetch retrieves res and reports the outcome for publishing. decode is the
// strategy that travelled with the request; it runs on this goroutine.
func (c *Client) Fetch(ctx context.Context, res fetcher.Resource, decode codec.DecodeFunc) fetcher.Msg {
	url := c.base + res

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fetcher.FetchError{Resource: res, Err: fmt.Errorf("%w: %w", fetcher.ErrFetch, err)}
	}
	req.Header.Set("Accept", c.accept)

	var (
		cached     httpcache.Entry
		haveCached bool
	)
	if c.cache != nil {
		if cached, haveCached = c.cache.Lookup(ctx, url); haveCached {
			if cached.ETag != "" {
				req.Header.Set("If-None-Match", cached.ETag)
			}
			if cached.LastModified != "" {
				req.Header.Set("If-Modified-Since", cached.LastModified)
			}
		}
	}

	resp, err := c.doer.Do(req)
	if err != nil {
		return fetcher.FetchError{Resource: res, Err: fmt.Errorf("%w: %w", fetcher.ErrFetch, err)}
	}
	defer resp.Body.Close()

	var (
		body     []byte
		ctHeader string
	)
	if resp.StatusCode == http.StatusNotModified && haveCached {
		// replay the validated entry; decode still runs, bound to the
		// requesting call site's type
		body = cached.Body
		ctHeader = cached.ContentType
		c.log.Debug("not modified; replayed cached response", fetcher.Fields{"url": url, "bytes": len(body)})
	} else {
		r := io.Reader(resp.Body)
		if c.maxBody > 0 {
			r = io.LimitReader(resp.Body, c.maxBody+1)
		}
		if body, err = io.ReadAll(r); err != nil {
			return fetcher.FetchError{Resource: res, Err: fmt.Errorf("%w: reading body: %w", fetcher.ErrFetch, err)}
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return fetcher.FetchError{Resource: res, Err: fmt.Errorf("%w: unexpected status %d", fetcher.ErrFetch, resp.StatusCode)}
		}
		if c.maxBody > 0 && int64(len(body)) > c.maxBody {
			return fetcher.FetchError{Resource: res, Err: fmt.Errorf("%w: body exceeds %d bytes", fetcher.ErrFetch, c.maxBody)}
		}
		ctHeader = resp.Header.Get("Content-Type")
	}

	ct, ok := codec.Negotiate(ctHeader)
	if !ok {
		return fetcher.FetchError{Resource: res, Err: &fetcher.ContentTypeError{ContentType: ctHeader}}
	}

	v, err := decode(ct, body)
	if err != nil {
		return fetcher.FetchError{Resource: res, Err: fmt.Errorf("%w: %w", fetcher.ErrDeserialize, err)}
	}

	if c.cache != nil && resp.StatusCode != http.StatusNotModified {
		c.cache.Store(ctx, url, httpcache.Entry{
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
			ContentType:  string(ct),
			Body:         body,
		})
	}

	return fetcher.Fetched{Resource: res, Cached: fetcher.CachedResource{
		Raw:         body,
		ContentType: ct,
		Value:       v,
	}}
}
