package forge

import (
	"context"
	"fmt"

	"github.com/zjrosen/stackline/internal/cache"
	"github.com/zjrosen/stackline/internal/events"
	"github.com/zjrosen/stackline/internal/ipc"
	"github.com/zjrosen/stackline/internal/log"
)

// Service reads a project's review templates over the command channel.
// Template lists are cached per forge until the backend reports a change.
type Service struct {
	invoker     ipc.Invoker
	projectID   string
	lists       *cache.ListCache[[]string]
	unsubscribe func()
}

// NewService creates a template service for projectID. It listens for
// review_templates events on src to drop stale lists.
func NewService(invoker ipc.Invoker, src events.Source, projectID string, opts cache.Options) *Service {
	s := &Service{
		invoker:   invoker,
		projectID: projectID,
		lists:     cache.New[[]string]("review_templates", opts),
	}
	s.unsubscribe = src.Subscribe(events.Topic(projectID, events.KindReviewTemplates), func(events.Event) {
		log.Debug(log.CatForge, "Review templates changed", "project", projectID)
		s.lists.Flush()
	})
	return s
}

// AvailableReviewTemplates returns the relative paths of the forge's
// review templates.
func (s *Service) AvailableReviewTemplates(ctx context.Context, name Name) ([]string, error) {
	list, err := s.lists.Get(ctx, string(name), func(ctx context.Context, key string) ([]string, error) {
		return ipc.Call[[]string](ctx, s.invoker, ipc.CmdGetAvailableReviewTemplates, ipc.ReviewTemplatesArgs{
			ProjectID: s.projectID,
			Forge:     ipc.ForgeArg{Name: key},
		})
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s review templates: %w", name, err)
	}
	return append([]string(nil), list...), nil
}

// ReviewTemplateContents returns one template's contents. Contents are not
// cached.
func (s *Service) ReviewTemplateContents(ctx context.Context, name Name, relPath string) (string, error) {
	contents, err := ipc.Call[string](ctx, s.invoker, ipc.CmdGetReviewTemplateContents, ipc.ReviewTemplateContentsArgs{
		ProjectID:    s.projectID,
		Forge:        ipc.ForgeArg{Name: string(name)},
		RelativePath: relPath,
	})
	if err != nil {
		return "", fmt.Errorf("reading review template %s: %w", relPath, err)
	}
	return contents, nil
}

// Close stops listening for template changes.
func (s *Service) Close() {
	s.unsubscribe()
}
