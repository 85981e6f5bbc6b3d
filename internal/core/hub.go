package core

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// DefaultQueueCapacity bounds each subscription's queue unless the hub is
// configured otherwise.
const DefaultQueueCapacity = 1024

// Subscription is one subscriber's view of the hub: a bounded FIFO queue
// written by the hub and read exclusively by a single streaming session.
type Subscription struct {
	ID      string
	ch      chan Message
	dropped atomic.Uint64
}

// C returns the receive side of the subscription queue.
func (s *Subscription) C() <-chan Message {
	return s.ch
}

// Lagged returns the number of messages evicted from this subscription's
// queue since the previous call, resetting the count. A non-zero value means
// the subscriber fell behind and missed messages.
func (s *Subscription) Lagged() uint64 {
	return s.dropped.Swap(0)
}

// Hub fans every published message out to all live subscriptions. Publishing
// never blocks and never fails: a full subscription queue evicts its oldest
// entry to make room. The subscription set is the only shared structure and
// all three operations are serialized on one mutex.
type Hub struct {
	mu       sync.Mutex
	subs     map[string]*Subscription
	capacity int
	done     chan struct{}
	closed   bool

	published atomic.Uint64
	dropped   atomic.Uint64
}

// NewHub creates a hub whose subscriptions hold up to capacity messages.
// A non-positive capacity selects DefaultQueueCapacity.
func NewHub(capacity int) *Hub {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &Hub{
		subs:     make(map[string]*Subscription),
		capacity: capacity,
		done:     make(chan struct{}),
	}
}

// Subscribe registers a new bounded queue and returns its handle. After
// Close the handle is still valid but receives nothing; sessions observe
// Done and exit.
func (h *Hub) Subscribe() *Subscription {
	sub := &Subscription{
		ID: uuid.NewString(),
		ch: make(chan Message, h.capacity),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.closed {
		h.subs[sub.ID] = sub
	}
	return sub
}

// Unsubscribe removes a subscription from the hub. Idempotent; nil is a
// no-op. The queue channel is not closed: the session owns the read side
// and stops on its own signals.
func (h *Hub) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, sub.ID)
}

// Publish enqueues msg into every live subscription's queue. A full queue
// drops its oldest entry first, so slow subscribers lose old messages
// instead of stalling the publisher.
func (h *Hub) Publish(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.published.Add(1)

	for _, sub := range h.subs {
		select {
		case sub.ch <- msg:
			continue
		default:
		}

		// Queue full: evict the oldest entry, then retry once. The retry
		// can still lose to a concurrent reader draining the queue, in
		// which case the message simply lands on the next iteration's
		// regular path for that reader.
		select {
		case <-sub.ch:
			sub.dropped.Add(1)
			h.dropped.Add(1)
		default:
		}
		select {
		case sub.ch <- msg:
		default:
		}
	}
}

// Close signals shutdown to every streaming session and drops all
// registered subscriptions. Publish becomes a no-op afterwards; sessions
// observe Done, exit, and their deferred Unsubscribe is a no-op.
// Idempotent.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.closed {
		h.closed = true
		h.subs = make(map[string]*Subscription)
		close(h.done)
	}
}

// Done is closed when the hub shuts down.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Subscribers reports the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Published reports the total number of messages accepted by Publish.
func (h *Hub) Published() uint64 {
	return h.published.Load()
}

// Dropped reports the total number of messages evicted across all
// subscriptions.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}
