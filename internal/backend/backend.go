// Package backend is the in-process implementation of the backend command
// contract. It serves every ipc command from SQLite repositories and the
// project working trees, and emits project events after each write.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/stackline/internal/events"
	"github.com/zjrosen/stackline/internal/forge"
	"github.com/zjrosen/stackline/internal/ipc"
	"github.com/zjrosen/stackline/internal/log"
	"github.com/zjrosen/stackline/internal/projects"
	sessions "github.com/zjrosen/stackline/internal/sessions/domain"
	stack "github.com/zjrosen/stackline/internal/stack/domain"
)

// Repositories groups the stores the backend serves from.
type Repositories struct {
	Projects projects.Repository
	Branches stack.BranchRepository
	Sessions sessions.SessionRepository
}

// Backend answers backend commands.
type Backend struct {
	repos   Repositories
	emitter events.Emitter
	tracer  trace.Tracer
	now     func() time.Time
}

// New creates a backend that publishes change events on emitter.
func New(repos Repositories, emitter events.Emitter) *Backend {
	return &Backend{
		repos:   repos,
		emitter: emitter,
		tracer:  otel.Tracer("github.com/zjrosen/stackline/internal/backend"),
		now:     time.Now,
	}
}

// Register binds every command handler on the router.
func (b *Backend) Register(r *ipc.Router) {
	r.Register(ipc.CmdListProjects, b.listProjects)
	r.Register(ipc.CmdAddProject, b.addProject)
	r.Register(ipc.CmdListVirtualBranches, b.listVirtualBranches)
	r.Register(ipc.CmdReorderStackCommit, b.reorderStackCommit)
	r.Register(ipc.CmdGetAvailableReviewTemplates, b.availableReviewTemplates)
	r.Register(ipc.CmdGetReviewTemplateContents, b.reviewTemplateContents)
	r.Register(ipc.CmdListSessions, b.listSessions)
	r.Register(ipc.CmdRecordSession, b.recordSession)
}

func (b *Backend) listProjects(context.Context, json.RawMessage) (any, error) {
	return b.repos.Projects.List()
}

func (b *Backend) addProject(_ context.Context, raw json.RawMessage) (any, error) {
	args, err := ipc.Decode[ipc.AddProjectArgs](raw)
	if err != nil {
		return nil, err
	}
	p, err := projects.New(args.Path, args.Name, b.now())
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(p.Path)
	if err != nil {
		return nil, fmt.Errorf("project path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("project path %s is not a directory", p.Path)
	}
	if err := b.repos.Projects.Create(p); err != nil {
		return nil, err
	}
	log.Info(log.CatIPC, "Project added", "project", p.ID, "path", p.Path)
	return p, nil
}

func (b *Backend) project(id string) (projects.Project, error) {
	if id == "" {
		return projects.Project{}, fmt.Errorf("projectId is required")
	}
	return b.repos.Projects.FindByID(id)
}

func (b *Backend) listVirtualBranches(_ context.Context, raw json.RawMessage) (any, error) {
	args, err := ipc.Decode[ipc.ProjectArgs](raw)
	if err != nil {
		return nil, err
	}
	if _, err := b.project(args.ProjectID); err != nil {
		return nil, err
	}
	return b.repos.Branches.ListByProject(args.ProjectID)
}

// reorderStackCommit applies a full stack order. The order is checked
// against the stored branch and written atomically; the updated branch is
// then published on the project's virtual_branches topic.
func (b *Backend) reorderStackCommit(ctx context.Context, raw json.RawMessage) (any, error) {
	args, err := ipc.Decode[ipc.ReorderStackCommitArgs](raw)
	if err != nil {
		return nil, err
	}
	_, span := b.tracer.Start(ctx, "backend.reorder_stack_commit", trace.WithAttributes(
		attribute.String("project.id", args.ProjectID),
		attribute.String("branch.id", args.BranchID),
		attribute.Int("series.count", len(args.StackOrder.Series)),
	))
	defer span.End()

	current, err := b.repos.Branches.FindByID(args.BranchID)
	if err != nil {
		return nil, err
	}
	if args.ProjectID != "" && current.ProjectID != args.ProjectID {
		return nil, &stack.BranchNotFoundError{BranchID: args.BranchID}
	}

	updated, err := b.repos.Branches.ApplyOrder(args.BranchID, args.StackOrder)
	if err != nil {
		log.ErrorErr(log.CatStack, "Rejected stack order", err, "branch", args.BranchID)
		span.RecordError(err)
		return nil, err
	}
	b.emit(events.Topic(updated.ProjectID, events.KindVirtualBranches), updated)
	return nil, nil
}

func (b *Backend) availableReviewTemplates(_ context.Context, raw json.RawMessage) (any, error) {
	args, err := ipc.Decode[ipc.ReviewTemplatesArgs](raw)
	if err != nil {
		return nil, err
	}
	p, name, err := b.forgeProject(args.ProjectID, args.Forge)
	if err != nil {
		return nil, err
	}
	return forge.DiscoverTemplates(p.Path, name)
}

func (b *Backend) reviewTemplateContents(_ context.Context, raw json.RawMessage) (any, error) {
	args, err := ipc.Decode[ipc.ReviewTemplateContentsArgs](raw)
	if err != nil {
		return nil, err
	}
	p, name, err := b.forgeProject(args.ProjectID, args.Forge)
	if err != nil {
		return nil, err
	}
	return forge.ReadTemplate(p.Path, name, args.RelativePath)
}

func (b *Backend) forgeProject(projectID string, arg ipc.ForgeArg) (projects.Project, forge.Name, error) {
	name, err := forge.ParseName(arg.Name)
	if err != nil {
		return projects.Project{}, "", err
	}
	p, err := b.project(projectID)
	if err != nil {
		return projects.Project{}, "", err
	}
	return p, name, nil
}

func (b *Backend) listSessions(_ context.Context, raw json.RawMessage) (any, error) {
	args, err := ipc.Decode[ipc.ListSessionsArgs](raw)
	if err != nil {
		return nil, err
	}
	if _, err := b.project(args.ProjectID); err != nil {
		return nil, err
	}
	var filter sessions.ListFilter
	if args.EarliestTimestampMs != nil {
		filter.EarliestTimestampMs = *args.EarliestTimestampMs
	}
	return b.repos.Sessions.ListByProject(args.ProjectID, filter)
}

func (b *Backend) recordSession(_ context.Context, raw json.RawMessage) (any, error) {
	args, err := ipc.Decode[ipc.RecordSessionArgs](raw)
	if err != nil {
		return nil, err
	}
	if _, err := b.project(args.ProjectID); err != nil {
		return nil, err
	}
	sess := args.Session
	sess.ProjectID = args.ProjectID
	if err := b.repos.Sessions.Save(sess); err != nil {
		return nil, err
	}
	b.emit(events.Topic(args.ProjectID, events.KindSessions), sess)
	return sess, nil
}

// emit publishes a change event. Failures are logged; the write has already
// been committed.
func (b *Backend) emit(topic string, payload any) {
	if err := b.emitter.Emit(topic, payload); err != nil {
		log.ErrorErr(log.CatEvents, "Failed to emit event", err, "topic", topic)
	}
}
