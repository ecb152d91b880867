package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	sessions "github.com/zjrosen/stackline/internal/sessions/domain"
)

// sessionRepository implements sessions.SessionRepository using SQLite.
type sessionRepository struct {
	db *sql.DB
}

func newSessionRepository(db *sql.DB) *sessionRepository {
	return &sessionRepository{db: db}
}

var _ sessions.SessionRepository = (*sessionRepository)(nil)

// Save inserts the session, or replaces the stored row with the same
// project and id.
func (r *sessionRepository) Save(session sessions.Session) error {
	if err := session.Validate(); err != nil {
		return err
	}
	m := toSessionModel(session)
	_, err := r.db.Exec(
		`INSERT INTO sessions (`+sessionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (project_id, id) DO UPDATE SET
		   hash = excluded.hash,
		   start_timestamp_ms = excluded.start_timestamp_ms,
		   last_timestamp_ms = excluded.last_timestamp_ms,
		   branch = excluded.branch,
		   commit_id = excluded.commit_id`,
		m.ID, m.ProjectID, m.Hash, m.StartTimestampMs, m.LastTimestampMs, m.Branch, m.CommitID,
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// FindByID retrieves a session of a project.
// Returns SessionNotFoundError if no matching session exists.
func (r *sessionRepository) FindByID(projectID, id string) (sessions.Session, error) {
	var m sessionModel
	err := r.db.QueryRow(
		`SELECT `+sessionColumns+` FROM sessions WHERE project_id = ? AND id = ?`,
		projectID, id,
	).Scan(m.scanTargets()...)
	if errors.Is(err, sql.ErrNoRows) {
		return sessions.Session{}, &sessions.SessionNotFoundError{ID: id, ProjectID: projectID}
	}
	if err != nil {
		return sessions.Session{}, fmt.Errorf("failed to find session: %w", err)
	}
	return m.toDomain(), nil
}

// ListByProject returns the project's sessions ordered by start time, oldest
// first.
func (r *sessionRepository) ListByProject(projectID string, filter sessions.ListFilter) ([]sessions.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE project_id = ?`
	args := []any{projectID}

	if filter.EarliestTimestampMs > 0 {
		query += ` AND start_timestamp_ms >= ?`
		args = append(args, filter.EarliestTimestampMs)
	}

	query += ` ORDER BY start_timestamp_ms, id`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []sessions.Session{}
	for rows.Next() {
		var m sessionModel
		if err := rows.Scan(m.scanTargets()...); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		out = append(out, m.toDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}
	return out, nil
}

// DeleteAllForProject hard-deletes every session of the project.
func (r *sessionRepository) DeleteAllForProject(projectID string) error {
	if _, err := r.db.Exec(`DELETE FROM sessions WHERE project_id = ?`, projectID); err != nil {
		return fmt.Errorf("failed to delete all sessions for project: %w", err)
	}
	return nil
}
