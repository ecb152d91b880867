package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/stackline/internal/events"
)

func startWatcher(t *testing.T, root string) (*events.Bus, <-chan ChangeEvent) {
	t.Helper()
	bus := events.NewBus()
	t.Cleanup(bus.Close)

	w, err := New(bus, Options{Debounce: 20 * time.Millisecond})
	require.NoError(t, err)
	require.NoError(t, w.Add("p1", root))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		_ = w.Close()
	})

	changes := make(chan ChangeEvent, 8)
	t.Cleanup(events.Listen(bus, events.Topic("p1", events.KindReviewTemplates), func(ev ChangeEvent) { changes <- ev }))
	return bus, changes
}

func waitChange(t *testing.T, changes <-chan ChangeEvent) ChangeEvent {
	t.Helper()
	select {
	case ev := <-changes:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for template change")
		return ChangeEvent{}
	}
}

func TestWatcher_TemplateWritesAreDebounced(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, ".gitlab", "merge_request_templates")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	_, changes := startWatcher(t, root)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "Default.md"), []byte("a"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Bug.md"), []byte("b"), 0o600))

	ev := waitChange(t, changes)
	require.Equal(t, "p1", ev.ProjectID)
	require.Subset(t, []string{
		".gitlab/merge_request_templates/Bug.md",
		".gitlab/merge_request_templates/Default.md",
	}, ev.Paths)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	root := t.TempDir()
	_, changes := startWatcher(t, root)

	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "PULL_REQUEST_TEMPLATE.md"), []byte("x"), 0o600))

	ev := waitChange(t, changes)
	require.Equal(t, []string{"PULL_REQUEST_TEMPLATE.md"}, ev.Paths)
}

func TestWatcher_PicksUpNewDirectories(t *testing.T) {
	root := t.TempDir()
	_, changes := startWatcher(t, root)

	require.NoError(t, os.Mkdir(filepath.Join(root, ".github"), 0o755))
	ev := waitChange(t, changes)
	require.Equal(t, []string{".github"}, ev.Paths)

	require.Eventually(t, func() bool {
		_ = os.WriteFile(filepath.Join(root, ".github", "pull_request_template.md"), []byte("x"), 0o600)
		select {
		case ev := <-changes:
			return len(ev.Paths) == 1 && ev.Paths[0] == ".github/pull_request_template.md"
		case <-time.After(200 * time.Millisecond):
			return false
		}
	}, 3*time.Second, 10*time.Millisecond)
}

func TestWatchDirs(t *testing.T) {
	dirs := watchDirs()
	for _, want := range []string{".", ".github", ".github/PULL_REQUEST_TEMPLATE", "docs", ".gitlab", ".gitlab/merge_request_templates"} {
		require.Contains(t, dirs, want)
	}
}

func TestWatcher_AddIsIdempotent(t *testing.T) {
	w, err := New(events.NewBus(), Options{})
	require.NoError(t, err)
	defer w.Close()

	root := t.TempDir()
	require.NoError(t, w.Add("p1", root))
	require.NoError(t, w.Add("p1", root))
	require.Equal(t, DefaultDebounce, w.debounce)
}
