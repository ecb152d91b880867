package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zjrosen/stackline/internal/backend"
	"github.com/zjrosen/stackline/internal/cache"
	"github.com/zjrosen/stackline/internal/events"
	"github.com/zjrosen/stackline/internal/infrastructure/sqlite"
	"github.com/zjrosen/stackline/internal/ipc"
	"github.com/zjrosen/stackline/internal/projects"
)

// app holds the in-process backend a command talks to.
type app struct {
	db      *sqlite.DB
	bus     *events.Bus
	router  *ipc.Router
	backend *backend.Backend
}

// openApp opens the database and registers the backend on a fresh router.
func openApp() (*app, error) {
	db, err := sqlite.NewDB(cfg.ResolvedDBPath())
	if err != nil {
		return nil, err
	}
	bus := events.NewBus()
	be := backend.New(backend.Repositories{
		Projects: db.ProjectRepository(),
		Branches: db.BranchRepository(),
		Sessions: db.SessionRepository(),
	}, bus)
	router := ipc.NewRouter()
	be.Register(router)

	return &app{db: db, bus: bus, router: router, backend: be}, nil
}

func (a *app) Close() error {
	a.bus.Close()
	return a.db.Close()
}

func (a *app) cacheOptions() cache.Options {
	return cache.Options{TTL: cfg.Cache.TTL, CleanupInterval: cfg.Cache.CleanupInterval}
}

// resolveProject finds a project by id or name. An empty ref selects the
// project whose path contains the working directory.
func (a *app) resolveProject(ctx context.Context, ref string) (projects.Project, error) {
	all, err := ipc.Call[[]projects.Project](ctx, a.router, ipc.CmdListProjects, nil)
	if err != nil {
		return projects.Project{}, err
	}

	if ref != "" {
		for _, p := range all {
			if p.ID == ref || p.Name == ref {
				return p, nil
			}
		}
		return projects.Project{}, &projects.NotFoundError{ID: ref}
	}

	wd, err := os.Getwd()
	if err != nil {
		return projects.Project{}, fmt.Errorf("getting working directory: %w", err)
	}
	var best projects.Project
	for _, p := range all {
		rel, err := filepath.Rel(p.Path, wd)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		if len(p.Path) > len(best.Path) {
			best = p
		}
	}
	if best.ID == "" {
		return projects.Project{}, fmt.Errorf("no project contains %s (use --project or 'stackline project add')", wd)
	}
	return best, nil
}
