// Package events provides the per-project event source: named topics of the
// form project://<projectId>/<kind> delivering JSON payloads to subscribers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/zjrosen/stackline/internal/log"
	"github.com/zjrosen/stackline/internal/pubsub"
)

// Resource kinds used in topic names.
const (
	KindSessions        = "sessions"
	KindVirtualBranches = "virtual_branches"
	KindReviewTemplates = "review_templates"
)

// Topic returns the topic name for a project resource.
func Topic(projectID, kind string) string {
	return fmt.Sprintf("project://%s/%s", projectID, kind)
}

// Event is a payload delivered on a topic.
type Event struct {
	Topic   string
	Payload json.RawMessage
}

// Source delivers events to subscribers of a topic.
type Source interface {
	// Subscribe calls handler for every event on topic until the returned
	// function is called. Calling it more than once is a no-op.
	Subscribe(topic string, handler func(Event)) (unsubscribe func())
}

// Emitter publishes events.
type Emitter interface {
	Emit(topic string, payload any) error
}

// Listen subscribes handler to topic, decoding each payload into T.
// Payloads that fail to decode are logged and skipped.
func Listen[T any](src Source, topic string, handler func(T)) func() {
	return src.Subscribe(topic, func(ev Event) {
		var v T
		if err := json.Unmarshal(ev.Payload, &v); err != nil {
			log.ErrorErr(log.CatEvents, "Failed to decode event payload", err, "topic", ev.Topic)
			return
		}
		handler(v)
	})
}

// Bus is an in-process Source and Emitter with one broker per topic.
// Each subscriber is served by its own goroutine, so events on one topic
// arrive in publish order while ordering across topics is not guaranteed.
// Emit never drops: a slow handler accumulates a backlog instead.
type Bus struct {
	mu      sync.Mutex
	brokers map[string]*pubsub.Broker[Event]
}

var (
	_ Source  = (*Bus)(nil)
	_ Emitter = (*Bus)(nil)
)

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{brokers: make(map[string]*pubsub.Broker[Event])}
}

func (b *Bus) broker(topic string) *pubsub.Broker[Event] {
	b.mu.Lock()
	defer b.mu.Unlock()
	br, ok := b.brokers[topic]
	if !ok {
		br = pubsub.NewBroker[Event]()
		b.brokers[topic] = br
	}
	return br
}

// Subscribe implements Source.
func (b *Bus) Subscribe(topic string, handler func(Event)) func() {
	ctx, cancel := context.WithCancel(context.Background())
	ch := b.broker(topic).Subscribe(ctx)

	log.SafeGo("events.subscriber:"+topic, func() {
		for ev := range ch {
			handler(ev.Payload)
		}
	})

	log.Debug(log.CatEvents, "Subscribed", "topic", topic)
	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			log.Debug(log.CatEvents, "Unsubscribed", "topic", topic)
		})
	}
}

// Emit implements Emitter.
func (b *Bus) Emit(topic string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode event for %s: %w", topic, err)
	}
	b.broker(topic).Publish(pubsub.UpdatedEvent, Event{Topic: topic, Payload: raw})
	return nil
}

// Close shuts down every topic. Subscribers still receive events emitted
// before Close, then their goroutines exit.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for topic, br := range b.brokers {
		br.Shutdown()
		delete(b.brokers, topic)
	}
}
