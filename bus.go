package fetcher

import (
	"sync"
)

// Bus carries messages between the store, the fetch layer and any other
// subscriber. Implementations must deliver every published message to every
// subscriber in publish order, and must invoke subscribers from a single
// goroutine: the store relies on that serialization for its state
// transitions. Publish must not block, even when called from inside a
// subscriber, because the store publishes follow-up messages while handling
// one.
type Bus interface {
	// Publish enqueues a message for delivery.
	Publish(m Msg)

	// Subscribe registers fn for messages dispatched after registration.
	// The returned cancel removes the subscription and is safe to call
	// more than once.
	Subscribe(fn func(m Msg)) (cancel func())
}

// LocalBus is the in-process Bus: an unbounded FIFO drained by a single
// dispatch goroutine. Hosts that already run a message loop can implement
// Bus on top of it instead and skip LocalBus entirely.
type LocalBus struct {
	mu     sync.Mutex
	queue  []Msg
	subs   []subscription
	nextID int
	closed bool

	wake chan struct{}
	done chan struct{}
	once sync.Once
}

type subscription struct {
	id int
	fn func(Msg)
}

var _ Bus = (*LocalBus)(nil)

// NewLocalBus starts the dispatch goroutine. The caller owns the bus and
// must Close it when done.
func NewLocalBus() *LocalBus {
	b := &LocalBus{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go b.dispatch()
	return b
}

// Publish enqueues m. It never blocks; messages published after Close are
// dropped.
func (b *LocalBus) Publish(m Msg) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.queue = append(b.queue, m)
	b.mu.Unlock()

	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// Subscribe registers fn on the dispatch goroutine. Cancelling takes effect
// for messages dispatched afterwards; a message batch already being
// delivered may still reach fn.
func (b *LocalBus) Subscribe(fn func(Msg)) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs = append(b.subs, subscription{id: id, fn: fn})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				break
			}
		}
		b.mu.Unlock()
	}
}

// Close delivers everything already published, then stops the dispatcher.
// It must not be called from a subscriber callback.
func (b *LocalBus) Close() {
	b.once.Do(func() {
		b.mu.Lock()
		b.closed = true
		b.mu.Unlock()

		select {
		case b.wake <- struct{}{}:
		default:
		}
		<-b.done
	})
}

func (b *LocalBus) dispatch() {
	defer close(b.done)
	for {
		b.mu.Lock()
		batch := b.queue
		b.queue = nil
		subs := append([]subscription(nil), b.subs...)
		closed := b.closed
		b.mu.Unlock()

		if len(batch) == 0 {
			if closed {
				return
			}
			<-b.wake
			continue
		}

		for _, m := range batch {
			for _, s := range subs {
				s.fn(m)
			}
		}
	}
}
