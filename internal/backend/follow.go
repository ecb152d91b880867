package backend

import (
	"context"
	"time"

	"github.com/zjrosen/stackline/internal/events"
	"github.com/zjrosen/stackline/internal/log"
	sessions "github.com/zjrosen/stackline/internal/sessions/domain"
)

// DefaultFollowInterval is used when FollowSessions is given no interval.
const DefaultFollowInterval = time.Second

// FollowSessions polls the project's sessions and emits a sessions event for
// every one that differs from what was last seen, starting from known. It
// picks up writes made by other processes sharing the database. It returns
// nil once ctx is done.
func (b *Backend) FollowSessions(ctx context.Context, projectID string, known []sessions.Session, interval time.Duration) error {
	if _, err := b.project(projectID); err != nil {
		return err
	}
	if interval <= 0 {
		interval = DefaultFollowInterval
	}
	seen := make(map[string]sessions.Session, len(known))
	for _, s := range known {
		seen[s.ID] = s
	}
	topic := events.Topic(projectID, events.KindSessions)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	log.Debug(log.CatEvents, "Following sessions", "project", projectID, "interval", interval)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		list, err := b.repos.Sessions.ListByProject(projectID, sessions.ListFilter{})
		if err != nil {
			return err
		}
		for _, s := range list {
			if prev, ok := seen[s.ID]; ok && prev == s {
				continue
			}
			seen[s.ID] = s
			b.emit(topic, s)
		}
	}
}
