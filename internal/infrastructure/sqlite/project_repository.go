package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/zjrosen/stackline/internal/projects"
)

type projectRepository struct {
	db *sql.DB
}

func newProjectRepository(db *sql.DB) *projectRepository {
	return &projectRepository{db: db}
}

var _ projects.Repository = (*projectRepository)(nil)

// Create stores a new project. Registering a path twice returns
// DuplicatePathError naming the existing project.
func (r *projectRepository) Create(p projects.Project) error {
	return inTx(r.db, func(tx *sql.Tx) error {
		var existing string
		err := tx.QueryRow(`SELECT id FROM projects WHERE path = ?`, p.Path).Scan(&existing)
		switch {
		case err == nil:
			return &projects.DuplicatePathError{Path: p.Path, ExistingID: existing}
		case !errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("failed to check project path: %w", err)
		}

		m := toProjectModel(p)
		if _, err := tx.Exec(
			`INSERT INTO projects (id, name, path, created_at) VALUES (?, ?, ?, ?)`,
			m.ID, m.Name, m.Path, m.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert project: %w", err)
		}
		return nil
	})
}

// FindByID returns NotFoundError when no project matches.
func (r *projectRepository) FindByID(id string) (projects.Project, error) {
	var m projectModel
	err := r.db.QueryRow(
		`SELECT id, name, path, created_at FROM projects WHERE id = ?`, id,
	).Scan(&m.ID, &m.Name, &m.Path, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return projects.Project{}, &projects.NotFoundError{ID: id}
	}
	if err != nil {
		return projects.Project{}, fmt.Errorf("failed to find project: %w", err)
	}
	return m.toDomain(), nil
}

func (r *projectRepository) List() ([]projects.Project, error) {
	rows, err := r.db.Query(`SELECT id, name, path, created_at FROM projects ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []projects.Project{}
	for rows.Next() {
		var m projectModel
		if err := rows.Scan(&m.ID, &m.Name, &m.Path, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		out = append(out, m.toDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate projects: %w", err)
	}
	return out, nil
}
