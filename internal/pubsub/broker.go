// Package pubsub provides a generic in-memory publish/subscribe broker.
package pubsub

import (
	"context"
	"sync"
)

// EventType describes what happened to a payload.
type EventType string

// Event types.
const (
	CreatedEvent EventType = "created"
	UpdatedEvent EventType = "updated"
	DeletedEvent EventType = "deleted"
)

// Event is a published payload with its type.
type Event[T any] struct {
	Type    EventType
	Payload T
}

// subscriber owns an unbounded queue drained into out by its pump goroutine.
type subscriber[T any] struct {
	out  chan Event[T]
	wake chan struct{}

	mu      sync.Mutex
	queue   []Event[T]
	stopped bool
}

func (s *subscriber[T]) push(ev Event[T]) {
	s.mu.Lock()
	s.queue = append(s.queue, ev)
	s.mu.Unlock()
	s.signal()
}

func (s *subscriber[T]) stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	s.signal()
}

func (s *subscriber[T]) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// next pops the oldest queued event. When the queue is empty it reports
// whether the subscriber was stopped.
func (s *subscriber[T]) next() (ev Event[T], ok, stopped bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return ev, false, s.stopped
	}
	ev = s.queue[0]
	s.queue[0] = Event[T]{}
	s.queue = s.queue[1:]
	return ev, true, false
}

// Broker fans out published events to every subscriber.
//
// Delivery is at least once per subscriber: Publish never blocks and never
// drops. Each subscriber queues events without bound and receives them in
// publish order until its context is done. Shutdown stops new publishes;
// events already queued are still delivered before the channel closes.
type Broker[T any] struct {
	mu     sync.RWMutex
	subs   map[*subscriber[T]]struct{}
	closed bool
}

// NewBroker creates a broker.
func NewBroker[T any]() *Broker[T] {
	return &Broker[T]{subs: make(map[*subscriber[T]]struct{})}
}

// Subscribe returns a channel receiving every event published after the call.
// The channel is closed when ctx is done, or after the queued events have
// been received once the broker shuts down.
func (b *Broker[T]) Subscribe(ctx context.Context) <-chan Event[T] {
	s := &subscriber[T]{
		out:  make(chan Event[T]),
		wake: make(chan struct{}, 1),
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(s.out)
		return s.out
	}
	b.subs[s] = struct{}{}
	b.mu.Unlock()

	go b.pump(ctx, s)
	return s.out
}

func (b *Broker[T]) pump(ctx context.Context, s *subscriber[T]) {
	defer close(s.out)
	defer b.unsubscribe(s)
	for {
		ev, ok, stopped := s.next()
		if !ok {
			if stopped {
				return
			}
			select {
			case <-s.wake:
				continue
			case <-ctx.Done():
				return
			}
		}
		select {
		case s.out <- ev:
		case <-ctx.Done():
			return
		}
	}
}

func (b *Broker[T]) unsubscribe(s *subscriber[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, s)
}

// Publish queues an event for all current subscribers.
func (b *Broker[T]) Publish(t EventType, payload T) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	ev := Event[T]{Type: t, Payload: payload}
	for s := range b.subs {
		s.push(ev)
	}
}

// SubscriberCount returns the number of active subscribers.
func (b *Broker[T]) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Shutdown stops every subscriber. Later publishes are ignored.
func (b *Broker[T]) Shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for s := range b.subs {
		delete(b.subs, s)
		s.stop()
	}
}
