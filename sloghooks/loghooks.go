package sloghooks

import (
	"log/slog"
	"sync/atomic"

	fetcher "github.com/hulthe/seed-fetcher"
)

type Options struct {
	// Sampling to avoid floods on render-loop paths; 0/1 = log all.
	DedupEvery       uint64
	StaleServedEvery uint64

	// Optional resource redactor for paths that embed identifiers
	// (e.g. "/api/user/123"). Defaults to logging the path as-is.
	Redact func(string) string
}

// Hooks logs store events through slog. Flood-prone events (dedups,
// stale serves happen once per render pass) are sampled; the rest log every
// occurrence.
type Hooks struct {
	l    *slog.Logger
	opts Options

	dedupCtr atomic.Uint64
	staleCtr atomic.Uint64
}

var _ fetcher.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(res fetcher.Resource) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(res)
	}
	return res
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) FetchDispatched(res fetcher.Resource, refetch bool) {
	if h.l == nil {
		return
	}
	h.l.Debug("fetcher.fetch_dispatched",
		"resource", h.redact(res),
		"refetch", refetch)
}

func (h *Hooks) RequestDeduped(res fetcher.Resource) {
	if h.l == nil || !sample(h.opts.DedupEvery, &h.dedupCtr) {
		return
	}
	h.l.Debug("fetcher.request_deduped",
		"resource", h.redact(res))
}

func (h *Hooks) StaleServed(res fetcher.Resource, policy fetcher.CachePolicy) {
	if h.l == nil || !sample(h.opts.StaleServedEvery, &h.staleCtr) {
		return
	}
	h.l.Debug("fetcher.stale_served",
		"resource", h.redact(res),
		"policy", policy.String())
}

func (h *Hooks) StaleRefused(res fetcher.Resource) {
	if h.l == nil {
		return
	}
	h.l.Info("fetcher.stale_refused",
		"resource", h.redact(res))
}

func (h *Hooks) ResultApplied(res fetcher.Resource, revision uint64) {
	if h.l == nil {
		return
	}
	h.l.Debug("fetcher.result_applied",
		"resource", h.redact(res),
		"rev", revision)
}

func (h *Hooks) FetchFailed(res fetcher.Resource, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("fetcher.fetch_failed",
		"resource", h.redact(res),
		"err", err)
}
