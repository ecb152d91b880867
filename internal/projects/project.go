// Package projects defines the project registry record and its repository.
package projects

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Project is a local repository registered with the backend.
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"createdAt"`
}

// New creates a project for the directory at path. The name defaults to the
// directory's base name.
func New(path, name string, now time.Time) (Project, error) {
	if strings.TrimSpace(path) == "" {
		return Project{}, fmt.Errorf("project path is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return Project{}, fmt.Errorf("resolving project path: %w", err)
	}
	if name == "" {
		name = filepath.Base(abs)
	}
	return Project{
		ID:        uuid.NewString(),
		Name:      name,
		Path:      abs,
		CreatedAt: now.UTC().Truncate(time.Second),
	}, nil
}

// Repository persists projects.
type Repository interface {
	// Create stores a new project. A second project on the same path returns
	// DuplicatePathError.
	Create(p Project) error
	// FindByID returns NotFoundError when no project matches.
	FindByID(id string) (Project, error)
	// List returns every project ordered by name.
	List() ([]Project, error)
}

// NotFoundError indicates an unknown project id.
type NotFoundError struct {
	ID string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("project not found: %q", e.ID)
}

// DuplicatePathError indicates a path that is already registered.
type DuplicatePathError struct {
	Path       string
	ExistingID string
}

// Error implements the error interface.
func (e *DuplicatePathError) Error() string {
	return fmt.Sprintf("project already registered at %s (id=%s)", e.Path, e.ExistingID)
}
