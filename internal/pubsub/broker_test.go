package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func receive[T any](t *testing.T, ch <-chan Event[T]) Event[T] {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed unexpectedly")
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event[T]{}
	}
}

func TestBroker_FanOut(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := NewBroker[string]()
	ch1 := b.Subscribe(ctx)
	ch2 := b.Subscribe(ctx)

	b.Publish(UpdatedEvent, "hello")

	e1 := receive(t, ch1)
	e2 := receive(t, ch2)
	require.Equal(t, UpdatedEvent, e1.Type)
	require.Equal(t, "hello", e1.Payload)
	require.Equal(t, e1, e2)
}

func TestBroker_UnsubscribeOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	b := NewBroker[int]()
	ch := b.Subscribe(ctx)
	require.Equal(t, 1, b.SubscriberCount())

	cancel()

	require.Eventually(t, func() bool { return b.SubscriberCount() == 0 }, time.Second, 5*time.Millisecond)
	_, ok := <-ch
	require.False(t, ok)
}

func TestBroker_PublishQueuesForSlowSubscriber(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := NewBroker[int]()
	ch := b.Subscribe(ctx)

	const n = 500
	for i := range n {
		b.Publish(CreatedEvent, i)
	}

	for i := range n {
		require.Equal(t, i, receive(t, ch).Payload)
	}
}

func TestBroker_ShutdownDeliversQueuedEvents(t *testing.T) {
	b := NewBroker[int]()
	ch := b.Subscribe(context.Background())

	b.Publish(UpdatedEvent, 1)
	b.Publish(UpdatedEvent, 2)
	b.Shutdown()

	require.Equal(t, 1, receive(t, ch).Payload)
	require.Equal(t, 2, receive(t, ch).Payload)
	_, ok := <-ch
	require.False(t, ok)
	require.Equal(t, 0, b.SubscriberCount())
}

func TestBroker_Shutdown(t *testing.T) {
	b := NewBroker[int]()
	ch := b.Subscribe(context.Background())

	b.Shutdown()
	b.Shutdown()
	b.Publish(UpdatedEvent, 1)

	_, ok := <-ch
	require.False(t, ok)

	late := b.Subscribe(context.Background())
	_, ok = <-late
	require.False(t, ok)
}
