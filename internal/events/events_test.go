package events

import (
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type payload struct {
	ID string `json:"id"`
}

type collector[T any] struct {
	mu    sync.Mutex
	items []T
}

func (c *collector[T]) add(v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, v)
}

func (c *collector[T]) snapshot() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]T(nil), c.items...)
}

func TestTopic(t *testing.T) {
	require.Equal(t, "project://p1/sessions", Topic("p1", KindSessions))
}

func TestBus_ListenDecodesPayload(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	var got collector[payload]
	unsubscribe := Listen(bus, Topic("p1", KindSessions), got.add)
	defer unsubscribe()

	require.NoError(t, bus.Emit(Topic("p1", KindSessions), payload{ID: "s1"}))
	require.NoError(t, bus.Emit(Topic("p1", KindSessions), payload{ID: "s2"}))

	require.Eventually(t, func() bool { return len(got.snapshot()) == 2 }, time.Second, 5*time.Millisecond)
	require.Equal(t, []payload{{ID: "s1"}, {ID: "s2"}}, got.snapshot())
}

func TestBus_TopicsAreIsolated(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	var p1, p2 collector[payload]
	defer Listen(bus, Topic("p1", KindSessions), p1.add)()
	defer Listen(bus, Topic("p2", KindSessions), p2.add)()

	require.NoError(t, bus.Emit(Topic("p2", KindSessions), payload{ID: "only-p2"}))

	require.Eventually(t, func() bool { return len(p2.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	require.Empty(t, p1.snapshot())
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	var got collector[payload]
	unsubscribe := Listen(bus, Topic("p1", KindVirtualBranches), got.add)
	unsubscribe()
	unsubscribe()

	require.Eventually(t, func() bool {
		return bus.broker(Topic("p1", KindVirtualBranches)).SubscriberCount() == 0
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, bus.Emit(Topic("p1", KindVirtualBranches), payload{ID: "late"}))
	time.Sleep(20 * time.Millisecond)
	require.Empty(t, got.snapshot())
}

func TestBus_UndecodablePayloadIsSkipped(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	var got collector[payload]
	defer Listen(bus, "topic", got.add)()

	require.NoError(t, bus.Emit("topic", []int{1, 2}))
	require.NoError(t, bus.Emit("topic", payload{ID: "ok"}))

	require.Eventually(t, func() bool { return len(got.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	require.Equal(t, "ok", got.snapshot()[0].ID)
}

func TestBus_EmitUnencodable(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	require.Error(t, bus.Emit("topic", make(chan int)))
}

func TestBus_SlowHandlerReceivesEveryEvent(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	release := make(chan struct{})
	var got collector[payload]
	defer Listen(bus, "topic", func(p payload) {
		<-release
		got.add(p)
	})()

	const n = 200
	for i := range n {
		require.NoError(t, bus.Emit("topic", payload{ID: strconv.Itoa(i)}))
	}
	close(release)

	require.Eventually(t, func() bool { return len(got.snapshot()) == n }, 2*time.Second, 5*time.Millisecond)
	for i, p := range got.snapshot() {
		require.Equal(t, strconv.Itoa(i), p.ID)
	}
}
