// Package watcher watches project working trees for review template changes
// and publishes them as review_templates events.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/stackline/internal/events"
	"github.com/zjrosen/stackline/internal/forge"
	"github.com/zjrosen/stackline/internal/log"
)

// DefaultDebounce is used when Options.Debounce is zero.
const DefaultDebounce = 200 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	// Debounce groups bursts of file events into one notification per project.
	Debounce time.Duration
}

// ChangeEvent is the payload published on a project's review_templates topic.
type ChangeEvent struct {
	ProjectID string   `json:"projectId"`
	Paths     []string `json:"paths"`
}

type project struct {
	id      string
	root    string
	pending []string
	timer   *time.Timer
}

// Watcher publishes debounced template changes for registered projects.
type Watcher struct {
	fsw      *fsnotify.Watcher
	emitter  events.Emitter
	debounce time.Duration

	mu       sync.Mutex
	projects map[string]*project // by id
	dirs     map[string]*project // watched absolute dir -> owner
}

// New creates a watcher publishing on emitter.
func New(emitter events.Emitter, opts Options) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	return &Watcher{
		fsw:      fsw,
		emitter:  emitter,
		debounce: opts.Debounce,
		projects: make(map[string]*project),
		dirs:     make(map[string]*project),
	}, nil
}

// watchDirs lists the repository-relative directories worth watching: every
// template directory and its ancestors.
func watchDirs() []string {
	var dirs []string
	for _, name := range forge.Names() {
		for _, dir := range forge.TemplateDirs(name) {
			for d := dir; ; d = path.Dir(d) {
				if !slices.Contains(dirs, d) {
					dirs = append(dirs, d)
				}
				if d == "." {
					break
				}
			}
		}
	}
	return dirs
}

// Add starts watching a project's template locations. Directories that do
// not exist yet are picked up when they are created.
func (w *Watcher) Add(projectID, root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolving project root: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.projects[projectID]; ok {
		return nil
	}
	p := &project{id: projectID, root: abs}
	w.projects[projectID] = p

	for _, rel := range watchDirs() {
		if err := w.watchLocked(p, filepath.Join(abs, filepath.FromSlash(rel))); err != nil {
			return err
		}
	}
	log.Debug(log.CatWatch, "Watching project templates", "project", projectID, "root", abs)
	return nil
}

func (w *Watcher) watchLocked(p *project, dir string) error {
	if _, ok := w.dirs[dir]; ok {
		return nil
	}
	info, err := os.Stat(dir)
	if errors.Is(err, os.ErrNotExist) || (err == nil && !info.IsDir()) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := w.fsw.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	w.dirs[dir] = p
	return nil
}

// Run processes file events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			log.ErrorErr(log.CatWatch, "File watcher error", err)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	dir := filepath.Dir(ev.Name)

	w.mu.Lock()
	defer w.mu.Unlock()
	p, ok := w.dirs[dir]
	if !ok {
		return
	}
	rel, err := filepath.Rel(p.root, ev.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)

	if ev.Has(fsnotify.Create) && slices.Contains(watchDirs(), rel) {
		if err := w.watchLocked(p, ev.Name); err != nil {
			log.ErrorErr(log.CatWatch, "Failed to watch new directory", err, "dir", ev.Name)
		}
		// Files may already be in a directory that was moved into place.
		w.queueLocked(p, rel)
		return
	}
	if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
		delete(w.dirs, ev.Name)
	}
	if !forge.IsTemplatePath(rel) {
		return
	}
	w.queueLocked(p, rel)
}

func (w *Watcher) queueLocked(p *project, rel string) {
	if !slices.Contains(p.pending, rel) {
		p.pending = append(p.pending, rel)
	}
	if p.timer != nil {
		p.timer.Reset(w.debounce)
		return
	}
	p.timer = time.AfterFunc(w.debounce, func() { w.flush(p) })
}

func (w *Watcher) flush(p *project) {
	w.mu.Lock()
	paths := p.pending
	p.pending = nil
	p.timer = nil
	w.mu.Unlock()

	if len(paths) == 0 {
		return
	}
	slices.Sort(paths)
	log.Debug(log.CatWatch, "Review templates changed", "project", p.id, "paths", paths)
	topic := events.Topic(p.id, events.KindReviewTemplates)
	if err := w.emitter.Emit(topic, ChangeEvent{ProjectID: p.id, Paths: paths}); err != nil {
		log.ErrorErr(log.CatWatch, "Failed to publish template change", err, "topic", topic)
	}
}

// Close stops watching. Pending notifications are dropped.
func (w *Watcher) Close() error {
	w.mu.Lock()
	for _, p := range w.projects {
		if p.timer != nil {
			p.timer.Stop()
			p.timer = nil
		}
	}
	w.mu.Unlock()
	return w.fsw.Close()
}
