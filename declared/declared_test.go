package declared

import (
	"errors"
	"testing"

	fetcher "github.com/hulthe/seed-fetcher"
	"github.com/hulthe/seed-fetcher/codec"
)

type capBus struct {
	msgs []fetcher.Msg
}

var _ fetcher.Bus = (*capBus)(nil)

func (b *capBus) Publish(m fetcher.Msg)              { b.msgs = append(b.msgs, m) }
func (b *capBus) Subscribe(func(fetcher.Msg)) func() { return func() {} }

// pumpStore stands in for the dispatch loop: applies captured store-bound
// messages, returns the outbound rest.
func pumpStore(s *fetcher.Store, b *capBus) []fetcher.Msg {
	var out []fetcher.Msg
	for {
		msgs := b.msgs
		b.msgs = nil
		if len(msgs) == 0 {
			return out
		}
		for _, m := range msgs {
			switch m.(type) {
			case fetcher.Request, fetcher.Fetched, fetcher.FetchError, fetcher.MarkDirty:
				s.Apply(m)
			default:
				out = append(out, m)
			}
		}
	}
}

func newStore(t *testing.T) (*fetcher.Store, *capBus) {
	t.Helper()
	bus := &capBus{}
	s, err := fetcher.New(fetcher.Options{Bus: bus})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s, bus
}

type widget struct {
	Name string `json:"name"`
}

type stats struct {
	Views int `json:"views"`
}

type dashboard struct {
	Widgets *widget `resource:"/api/widgets"`
	Stats   *stats  `resource:"/api/stats" policy:"may-be-stale"`
	Local   DontFetch
}

func preload(s *fetcher.Store, res fetcher.Resource, raw string, v any) {
	s.Apply(fetcher.Fetched{Resource: res, Cached: fetcher.CachedResource{
		Raw:         []byte(raw),
		ContentType: codec.JSON,
		Value:       v,
	}})
}

func TestAcquireNowFillsView(t *testing.T) {
	s, _ := newStore(t)
	preload(s, "/api/widgets", `{"name":"w"}`, &widget{Name: "w"})
	preload(s, "/api/stats", `{"views":7}`, &stats{Views: 7})

	view, err := AcquireNow[dashboard](s)
	if err != nil {
		t.Fatalf("AcquireNow: %v", err)
	}
	if view.Widgets == nil || view.Widgets.Name != "w" {
		t.Fatalf("Widgets not filled: %+v", view.Widgets)
	}
	if view.Stats == nil || view.Stats.Views != 7 {
		t.Fatalf("Stats not filled: %+v", view.Stats)
	}
}

// TestAcquireDispatchesAllMissing: one pass requests every missing field, so
// the fetches run concurrently instead of one per re-render.
func TestAcquireDispatchesAllMissing(t *testing.T) {
	s, bus := newStore(t)

	view, err := Acquire[dashboard](s)
	if !errors.Is(err, fetcher.ErrNotFetched) {
		t.Fatalf("expected ErrNotFetched, got %v", err)
	}
	if view.Widgets != nil || view.Stats != nil {
		t.Fatalf("failed view must be zero, got %+v", view)
	}

	requested := map[fetcher.Resource]bool{}
	for _, m := range pumpStore(s, bus) {
		if fr, ok := m.(fetcher.FetchRequested); ok {
			requested[fr.Resource] = true
		}
	}
	if !requested["/api/widgets"] || !requested["/api/stats"] || len(requested) != 2 {
		t.Fatalf("want both resources requested, got %v", requested)
	}
}

func TestAcquireHonorsFieldPolicies(t *testing.T) {
	s, bus := newStore(t)
	preload(s, "/api/widgets", `{"name":"w"}`, &widget{Name: "w"})
	preload(s, "/api/stats", `{"views":7}`, &stats{Views: 7})

	// dirty stats is fine: the field is declared may-be-stale
	s.Apply(fetcher.MarkDirty{Resource: "/api/stats"})
	bus.msgs = nil // drop setup traffic

	view, err := Acquire[dashboard](s)
	if err != nil || view.Stats == nil || view.Stats.Views != 7 {
		t.Fatalf("may-be-stale field should tolerate dirty: view=%+v err=%v", view, err)
	}
	if n := len(pumpStore(s, bus)); n != 0 {
		t.Fatalf("may-be-stale field should not re-fetch, got %d messages", n)
	}

	// dirty widgets is not: the field defaults to must-be-fresh
	s.Apply(fetcher.MarkDirty{Resource: "/api/widgets"})
	if _, err := Acquire[dashboard](s); !errors.Is(err, fetcher.ErrStale) {
		t.Fatalf("expected ErrStale, got %v", err)
	}
	refetched := false
	for _, m := range pumpStore(s, bus) {
		if fr, ok := m.(fetcher.FetchRequested); ok && fr.Resource == "/api/widgets" {
			refetched = true
		}
	}
	if !refetched {
		t.Fatalf("must-be-fresh field should dispatch a re-fetch")
	}
}

// TestRequestCarriesTypedDecoder: the decode closure attached to a reflected
// request must produce the field's pointer type.
func TestRequestCarriesTypedDecoder(t *testing.T) {
	s, bus := newStore(t)

	_, _ = Acquire[dashboard](s)
	var dec codec.DecodeFunc
	for _, m := range bus.msgs {
		if req, ok := m.(fetcher.Request); ok && req.Resource == "/api/widgets" {
			dec = req.Decode
		}
	}
	if dec == nil {
		t.Fatalf("no Request captured for /api/widgets")
	}

	v, err := dec(codec.JSON, []byte(`{"name":"decoded"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	w, ok := v.(*widget)
	if !ok || w.Name != "decoded" {
		t.Fatalf("decoder produced %T %+v", v, v)
	}
}

func TestURLsAndHas(t *testing.T) {
	urls := URLs[dashboard]()
	if len(urls) != 2 || urls["Widgets"] != "/api/widgets" || urls["Stats"] != "/api/stats" {
		t.Fatalf("unexpected URLs %v", urls)
	}
	if !Has[dashboard]("/api/stats") || Has[dashboard]("/api/nope") {
		t.Fatalf("Has gave wrong answer")
	}
}

func TestSkippedFieldsStayZero(t *testing.T) {
	type view struct {
		W       *widget `resource:"/api/widgets"`
		Ignored *stats  `resource:"-"`
		Local   DontFetch
	}
	s, _ := newStore(t)
	preload(s, "/api/widgets", `{"name":"w"}`, &widget{Name: "w"})

	v, err := AcquireNow[view](s)
	if err != nil {
		t.Fatalf("AcquireNow: %v", err)
	}
	if v.W == nil || v.Ignored != nil {
		t.Fatalf("skip handling wrong: %+v", v)
	}
	if urls := URLs[view](); len(urls) != 1 {
		t.Fatalf("skipped fields leaked into URLs: %v", urls)
	}
}

func TestMalformedDeclarationsPanic(t *testing.T) {
	cases := []struct {
		name string
		f    func()
	}{
		{"untagged field", func() {
			type bad struct{ W *widget }
			_ = URLs[bad]()
		}},
		{"non-pointer field", func() {
			type bad struct {
				W widget `resource:"/w"`
			}
			_ = URLs[bad]()
		}},
		{"unknown policy", func() {
			type bad struct {
				W *widget `resource:"/w" policy:"eventually"`
			}
			_ = URLs[bad]()
		}},
		{"empty resource", func() {
			type bad struct {
				W *widget `resource:""`
			}
			_ = URLs[bad]()
		}},
		{"unexported field", func() {
			type bad struct {
				w *widget `resource:"/w"`
			}
			_ = URLs[bad]()
		}},
		{"not a struct", func() {
			_ = URLs[int]()
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Fatalf("expected panic")
				}
			}()
			tc.f()
		})
	}
}
