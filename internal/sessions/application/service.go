// Package application provides the client-side session list: a cached
// listing per project fetched over the command channel and kept current from
// the project's session event topic.
package application

import (
	"context"
	"fmt"

	"github.com/zjrosen/stackline/internal/cache"
	"github.com/zjrosen/stackline/internal/events"
	"github.com/zjrosen/stackline/internal/ipc"
	"github.com/zjrosen/stackline/internal/log"
	"github.com/zjrosen/stackline/internal/sessions/domain"
)

// ListParams selects the sessions returned by List.
type ListParams struct {
	ProjectID string
	// EarliestTimestampMs keeps sessions starting at or after this time.
	// Zero keeps everything.
	EarliestTimestampMs int64
}

// Service lists and follows sessions. Fetched lists are cached per project.
type Service struct {
	invoker ipc.Invoker
	source  events.Source
	lists   *cache.ListCache[[]domain.Session]
}

// NewService creates a session service.
func NewService(invoker ipc.Invoker, source events.Source, opts cache.Options) *Service {
	return &Service{
		invoker: invoker,
		source:  source,
		lists:   cache.New[[]domain.Session]("sessions", opts),
	}
}

// List returns the project's sessions. The backend is asked once per project;
// later calls filter a copy of the cached list.
func (s *Service) List(ctx context.Context, params ListParams) ([]domain.Session, error) {
	all, err := s.lists.Get(ctx, params.ProjectID, s.fetch)
	if err != nil {
		return nil, fmt.Errorf("listing sessions for project %s: %w", params.ProjectID, err)
	}

	out := make([]domain.Session, 0, len(all))
	for _, sess := range all {
		if params.EarliestTimestampMs != 0 && sess.Meta.StartTimestampMs < params.EarliestTimestampMs {
			continue
		}
		out = append(out, sess)
	}
	return out, nil
}

func (s *Service) fetch(ctx context.Context, projectID string) ([]domain.Session, error) {
	sessions, err := ipc.Call[[]domain.Session](ctx, s.invoker, ipc.CmdListSessions, ipc.ListSessionsArgs{ProjectID: projectID})
	if err != nil {
		return nil, err
	}
	for i := range sessions {
		sessions[i].ProjectID = projectID
	}
	log.Debug(log.CatIPC, "Fetched sessions", "project", projectID, "count", len(sessions))
	return sessions, nil
}

// Subscribe calls cb for every session update published for the project.
// The cached list is updated before cb runs.
func (s *Service) Subscribe(projectID string, cb func(domain.Session)) (unsubscribe func()) {
	return events.Listen(s.source, events.Topic(projectID, events.KindSessions), func(sess domain.Session) {
		sess.ProjectID = projectID
		s.lists.Update(projectID, func(list []domain.Session) []domain.Session {
			return upsert(list, sess)
		})
		cb(sess)
	})
}

// Invalidate drops the cached list so the next List refetches it.
func (s *Service) Invalidate(projectID string) {
	s.lists.Invalidate(projectID)
}

// upsert returns a new list with sess replacing the entry of the same id, or
// appended when no entry matches.
func upsert(list []domain.Session, sess domain.Session) []domain.Session {
	out := make([]domain.Session, len(list), len(list)+1)
	copy(out, list)
	for i := range out {
		if out[i].ID == sess.ID {
			out[i] = sess
			return out
		}
	}
	return append(out, sess)
}
