package application

import (
	"context"
	"sync"

	"github.com/zjrosen/stackline/internal/log"
	"github.com/zjrosen/stackline/internal/pubsub"
	"github.com/zjrosen/stackline/internal/sessions/domain"
)

// Store is a live session list for one project. It subscribes on creation,
// loads lazily, and publishes a snapshot on every change.
type Store struct {
	svc       *Service
	projectID string
	broker    *pubsub.Broker[[]domain.Session]

	mu          sync.Mutex
	sessions    []domain.Session
	loaded      bool
	early       []domain.Session // updates received before Load finished
	unsubscribe func()
}

// NewStore creates a store and subscribes it to the project's sessions.
func NewStore(svc *Service, projectID string) *Store {
	st := &Store{
		svc:       svc,
		projectID: projectID,
		broker:    pubsub.NewBroker[[]domain.Session](),
		sessions:  []domain.Session{},
	}
	st.unsubscribe = svc.Subscribe(projectID, st.apply)
	return st
}

// Load fetches the project's sessions. Updates that arrived before the fetch
// completed are applied on top of the result.
func (st *Store) Load(ctx context.Context) error {
	sessions, err := st.svc.List(ctx, ListParams{ProjectID: st.projectID})
	if err != nil {
		return err
	}

	st.mu.Lock()
	list := sessions
	for _, sess := range st.early {
		list = upsert(list, sess)
	}
	st.early = nil
	st.sessions = list
	st.loaded = true
	snapshot := st.snapshotLocked()
	st.mu.Unlock()

	st.broker.Publish(pubsub.UpdatedEvent, snapshot)
	return nil
}

func (st *Store) apply(sess domain.Session) {
	st.mu.Lock()
	if !st.loaded {
		st.early = append(st.early, sess)
	}
	st.sessions = upsert(st.sessions, sess)
	snapshot := st.snapshotLocked()
	st.mu.Unlock()

	log.Debug(log.CatEvents, "Session updated", "project", st.projectID, "session", sess.ID)
	st.broker.Publish(pubsub.UpdatedEvent, snapshot)
}

// Sessions returns a snapshot of the current list.
func (st *Store) Sessions() []domain.Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.snapshotLocked()
}

func (st *Store) snapshotLocked() []domain.Session {
	return append([]domain.Session(nil), st.sessions...)
}

// Changes returns a channel of snapshots, one per change, until ctx is done.
func (st *Store) Changes(ctx context.Context) <-chan pubsub.Event[[]domain.Session] {
	return st.broker.Subscribe(ctx)
}

// Close unsubscribes from session events and ends all Changes channels.
func (st *Store) Close() {
	st.unsubscribe()
	st.broker.Shutdown()
}

// Stores owns one Store per project.
type Stores struct {
	svc *Service

	mu     sync.Mutex
	stores map[string]*Store
}

// NewStores creates an empty store registry.
func NewStores(svc *Service) *Stores {
	return &Stores{svc: svc, stores: make(map[string]*Store)}
}

// Get returns the project's store, creating it on first use.
func (s *Stores) Get(projectID string) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.stores[projectID]; ok {
		return st
	}
	st := NewStore(s.svc, projectID)
	s.stores[projectID] = st
	return st
}

// Close closes every store.
func (s *Stores) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, st := range s.stores {
		st.Close()
		delete(s.stores, id)
	}
}
