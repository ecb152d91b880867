package forge

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/stackline/internal/cache"
	"github.com/zjrosen/stackline/internal/events"
	"github.com/zjrosen/stackline/internal/ipc"
)

type templateBackend struct {
	router *ipc.Router
	calls  atomic.Int32
	lists  map[string][]string
}

func newTemplateBackend() *templateBackend {
	tb := &templateBackend{router: ipc.NewRouter(), lists: map[string][]string{
		"gitlab": {".gitlab/merge_request_templates/Default.md"},
	}}
	tb.router.Register(ipc.CmdGetAvailableReviewTemplates, func(_ context.Context, raw json.RawMessage) (any, error) {
		tb.calls.Add(1)
		args, err := ipc.Decode[ipc.ReviewTemplatesArgs](raw)
		if err != nil {
			return nil, err
		}
		list := tb.lists[args.Forge.Name]
		if list == nil {
			list = []string{}
		}
		return list, nil
	})
	tb.router.Register(ipc.CmdGetReviewTemplateContents, func(_ context.Context, raw json.RawMessage) (any, error) {
		args, err := ipc.Decode[ipc.ReviewTemplateContentsArgs](raw)
		if err != nil {
			return nil, err
		}
		if args.RelativePath != ".gitlab/merge_request_templates/Default.md" {
			return nil, &TemplateNotAllowedError{Forge: Name(args.Forge.Name), Path: args.RelativePath}
		}
		return "contents of " + args.ProjectID, nil
	})
	return tb
}

func TestService_AvailableReviewTemplatesCached(t *testing.T) {
	tb := newTemplateBackend()
	bus := events.NewBus()
	defer bus.Close()
	svc := NewService(tb.router, bus, "p1", cache.Options{})
	defer svc.Close()

	got, err := svc.AvailableReviewTemplates(context.Background(), GitLab)
	require.NoError(t, err)
	require.Equal(t, []string{".gitlab/merge_request_templates/Default.md"}, got)

	got[0] = "mutated"
	again, err := svc.AvailableReviewTemplates(context.Background(), GitLab)
	require.NoError(t, err)
	require.Equal(t, ".gitlab/merge_request_templates/Default.md", again[0])
	require.Equal(t, int32(1), tb.calls.Load())

	none, err := svc.AvailableReviewTemplates(context.Background(), Azure)
	require.NoError(t, err)
	require.Empty(t, none)
	require.Equal(t, int32(2), tb.calls.Load(), "lists are cached per forge")
}

func TestService_EventInvalidatesLists(t *testing.T) {
	tb := newTemplateBackend()
	bus := events.NewBus()
	defer bus.Close()
	svc := NewService(tb.router, bus, "p1", cache.Options{})
	defer svc.Close()

	_, err := svc.AvailableReviewTemplates(context.Background(), GitLab)
	require.NoError(t, err)

	tb.lists["gitlab"] = []string{".gitlab/merge_request_templates/Default.md", ".gitlab/merge_request_templates/Bug.md"}
	require.NoError(t, bus.Emit(events.Topic("p1", events.KindReviewTemplates), map[string]string{"forge": "gitlab"}))

	require.Eventually(t, func() bool {
		got, err := svc.AvailableReviewTemplates(context.Background(), GitLab)
		return err == nil && len(got) == 2
	}, time.Second, 5*time.Millisecond)
}

func TestService_ReviewTemplateContents(t *testing.T) {
	tb := newTemplateBackend()
	bus := events.NewBus()
	defer bus.Close()
	svc := NewService(tb.router, bus, "p1", cache.Options{})
	defer svc.Close()

	got, err := svc.ReviewTemplateContents(context.Background(), GitLab, ".gitlab/merge_request_templates/Default.md")
	require.NoError(t, err)
	require.Equal(t, "contents of p1", got)

	_, err = svc.ReviewTemplateContents(context.Background(), GitLab, "secret.md")
	var notAllowed *TemplateNotAllowedError
	require.ErrorAs(t, err, &notAllowed)
}
