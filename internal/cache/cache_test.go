package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListCache_FetchesOncePerKey(t *testing.T) {
	c := New[[]string]("test", Options{})
	var calls atomic.Int32
	fetch := func(_ context.Context, key string) ([]string, error) {
		calls.Add(1)
		return []string{key + "-a", key + "-b"}, nil
	}

	for i := 0; i < 3; i++ {
		got, err := c.Get(context.Background(), "p1", fetch)
		require.NoError(t, err)
		require.Equal(t, []string{"p1-a", "p1-b"}, got)
	}
	require.Equal(t, int32(1), calls.Load())

	_, err := c.Get(context.Background(), "p2", fetch)
	require.NoError(t, err)
	require.Equal(t, int32(2), calls.Load())
}

func TestListCache_ConcurrentMissesShareFetch(t *testing.T) {
	c := New[int]("test", Options{})
	var calls atomic.Int32
	release := make(chan struct{})
	fetch := func(context.Context, string) (int, error) {
		calls.Add(1)
		<-release
		return 42, nil
	}

	var wg sync.WaitGroup
	results := make([]int, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.Get(context.Background(), "k", fetch)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	close(release)
	wg.Wait()

	require.LessOrEqual(t, calls.Load(), int32(2))
	for _, v := range results {
		require.Equal(t, 42, v)
	}
}

func TestListCache_ErrorsAreNotCached(t *testing.T) {
	c := New[string]("test", Options{})
	fail := true
	fetch := func(context.Context, string) (string, error) {
		if fail {
			return "", errors.New("backend down")
		}
		return "ok", nil
	}

	_, err := c.Get(context.Background(), "k", fetch)
	require.EqualError(t, err, "backend down")
	_, ok := c.Peek("k")
	require.False(t, ok)

	fail = false
	got, err := c.Get(context.Background(), "k", fetch)
	require.NoError(t, err)
	require.Equal(t, "ok", got)
}

func TestListCache_InvalidateAndUpsert(t *testing.T) {
	c := New[string]("test", Options{})
	var calls int
	fetch := func(context.Context, string) (string, error) {
		calls++
		return "fetched", nil
	}

	c.Upsert("k", "upserted")
	got, err := c.Get(context.Background(), "k", fetch)
	require.NoError(t, err)
	require.Equal(t, "upserted", got)
	require.Zero(t, calls)

	c.Invalidate("k")
	got, err = c.Get(context.Background(), "k", fetch)
	require.NoError(t, err)
	require.Equal(t, "fetched", got)
	require.Equal(t, 1, calls)
}

func TestListCache_Update(t *testing.T) {
	c := New[[]int]("test", Options{})

	require.False(t, c.Update("k", func(v []int) []int { return append(v, 1) }))
	_, ok := c.Peek("k")
	require.False(t, ok)

	c.Upsert("k", []int{1})
	require.True(t, c.Update("k", func(v []int) []int { return append(v, 2) }))
	got, _ := c.Peek("k")
	require.Equal(t, []int{1, 2}, got)
	require.Equal(t, 1, c.Len())

	c.Flush()
	require.Zero(t, c.Len())
}

func TestListCache_TTL(t *testing.T) {
	c := New[string]("test", Options{TTL: 20 * time.Millisecond})
	c.Upsert("k", "v")

	require.Eventually(t, func() bool {
		_, ok := c.Peek("k")
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestListCache_FetchOverlappingInvalidateIsNotStored(t *testing.T) {
	for name, invalidate := range map[string]func(c *ListCache[string]){
		"invalidate": func(c *ListCache[string]) { c.Invalidate("k") },
		"flush":      func(c *ListCache[string]) { c.Flush() },
	} {
		t.Run(name, func(t *testing.T) {
			c := New[string]("test", Options{})
			started := make(chan struct{})
			release := make(chan struct{})
			stale := func(context.Context, string) (string, error) {
				close(started)
				<-release
				return "stale", nil
			}

			done := make(chan string)
			go func() {
				v, err := c.Get(context.Background(), "k", stale)
				assert.NoError(t, err)
				done <- v
			}()
			<-started
			invalidate(c)
			close(release)
			require.Equal(t, "stale", <-done)

			_, ok := c.Peek("k")
			require.False(t, ok)

			got, err := c.Get(context.Background(), "k", func(context.Context, string) (string, error) {
				return "fresh", nil
			})
			require.NoError(t, err)
			require.Equal(t, "fresh", got)
			v, ok := c.Peek("k")
			require.True(t, ok)
			require.Equal(t, "fresh", v)
		})
	}
}

func TestListCache_GetAfterInvalidateDoesNotJoinOldFetch(t *testing.T) {
	c := New[string]("test", Options{})
	started := make(chan struct{})
	release := make(chan struct{})
	defer close(release)

	go func() {
		_, _ = c.Get(context.Background(), "k", func(context.Context, string) (string, error) {
			close(started)
			<-release
			return "stale", nil
		})
	}()
	<-started
	c.Invalidate("k")

	got, err := c.Get(context.Background(), "k", func(context.Context, string) (string, error) {
		return "fresh", nil
	})
	require.NoError(t, err)
	require.Equal(t, "fresh", got)
}
