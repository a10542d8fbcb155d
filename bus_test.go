package fetcher

import (
	"fmt"
	"testing"
	"time"
)

// Close drains the queue and joins the dispatch goroutine, so after it
// returns the subscriber's writes are visible without extra synchronization.

func TestLocalBusOrderAndFanout(t *testing.T) {
	b := NewLocalBus()

	var first, second []Resource
	b.Subscribe(func(m Msg) { first = append(first, m.(MarkDirty).Resource) })
	b.Subscribe(func(m Msg) { second = append(second, m.(MarkDirty).Resource) })

	const n = 100
	for i := 0; i < n; i++ {
		b.Publish(MarkDirty{Resource: fmt.Sprintf("/r/%03d", i)})
	}
	b.Close()

	if len(first) != n || len(second) != n {
		t.Fatalf("fanout incomplete: %d and %d of %d", len(first), len(second), n)
	}
	for i := 0; i < n; i++ {
		want := fmt.Sprintf("/r/%03d", i)
		if first[i] != want || second[i] != want {
			t.Fatalf("order broken at %d: %q / %q", i, first[i], second[i])
		}
	}
}

// TestLocalBusReentrantPublish: publishing from inside a subscriber must not
// deadlock, and the follow-up arrives after the current message.
func TestLocalBusReentrantPublish(t *testing.T) {
	b := NewLocalBus()

	var seen []string
	b.Subscribe(func(m Msg) {
		switch m := m.(type) {
		case Request:
			seen = append(seen, "request")
			b.Publish(FetchRequested{Resource: m.Resource})
		case FetchRequested:
			seen = append(seen, "fetch-requested")
		}
	})

	b.Publish(Request{Resource: "/api/widgets"})
	b.Close()

	if len(seen) != 2 || seen[0] != "request" || seen[1] != "fetch-requested" {
		t.Fatalf("unexpected delivery %v", seen)
	}
}

func TestLocalBusCancel(t *testing.T) {
	b := NewLocalBus()

	got := make(chan Resource, 8)
	cancel := b.Subscribe(func(m Msg) { got <- m.(MarkDirty).Resource })

	b.Publish(MarkDirty{Resource: "/a"})
	select {
	case r := <-got:
		if r != "/a" {
			t.Fatalf("got %q", r)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for delivery")
	}

	cancel()
	cancel() // safe to call twice
	b.Publish(MarkDirty{Resource: "/b"})
	b.Close()

	select {
	case r := <-got:
		t.Fatalf("received %q after cancel", r)
	default:
	}
}

func TestLocalBusCloseDropsLatePublishes(t *testing.T) {
	b := NewLocalBus()

	var seen int
	b.Subscribe(func(Msg) { seen++ })

	b.Publish(MarkDirty{Resource: "/a"})
	b.Close()
	b.Publish(MarkDirty{Resource: "/b"}) // dropped, no panic
	b.Close()                            // idempotent

	if seen != 1 {
		t.Fatalf("want 1 delivery, got %d", seen)
	}
}
