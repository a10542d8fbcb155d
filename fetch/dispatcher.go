package fetch

import (
	"context"
	"sync"

	fetcher "github.com/hulthe/seed-fetcher"
)

// Dispatcher subscribes to the bus and runs one goroutine per FetchRequested
// message. Results are published back on the same bus, so wiring a store to
// HTTP is two lines:
//
//	client := fetch.NewClient(fetch.Options{BaseURL: apiBase})
//	disp := fetch.NewDispatcher(bus, client)
//	defer disp.Close()
type Dispatcher struct {
	client *Client
	bus    fetcher.Bus
	cancel func()

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
	once   sync.Once
}

func NewDispatcher(bus fetcher.Bus, client *Client) *Dispatcher {
	d := &Dispatcher{client: client, bus: bus}
	d.cancel = bus.Subscribe(d.consume)
	return d
}

func (d *Dispatcher) consume(m fetcher.Msg) {
	cmd, ok := m.(fetcher.FetchRequested)
	if !ok {
		return
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()
		d.bus.Publish(d.client.Fetch(context.Background(), cmd.Resource, cmd.Decode))
	}()
}

// Close stops intake and waits for in-flight fetches to publish their
// results. Fetches are never cancelled mid-flight; bound their duration with
// the HTTP client's timeout.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		d.cancel()
		d.mu.Lock()
		d.closed = true
		d.mu.Unlock()
		d.wg.Wait()
	})
}
