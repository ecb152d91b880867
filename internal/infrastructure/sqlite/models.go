package sqlite

import (
	"database/sql"
	"time"

	"github.com/zjrosen/stackline/internal/projects"
	sessions "github.com/zjrosen/stackline/internal/sessions/domain"
)

// sessionModel is a row of the sessions table.
type sessionModel struct {
	ID               string
	ProjectID        string
	Hash             sql.NullString
	StartTimestampMs int64
	LastTimestampMs  int64
	Branch           sql.NullString
	CommitID         sql.NullString
}

func toSessionModel(s sessions.Session) sessionModel {
	return sessionModel{
		ID:               s.ID,
		ProjectID:        s.ProjectID,
		Hash:             nullString(s.Hash),
		StartTimestampMs: s.Meta.StartTimestampMs,
		LastTimestampMs:  s.Meta.LastTimestampMs,
		Branch:           nullString(s.Meta.Branch),
		CommitID:         nullString(s.Meta.Commit),
	}
}

func (m sessionModel) toDomain() sessions.Session {
	return sessions.Session{
		ID:        m.ID,
		ProjectID: m.ProjectID,
		Hash:      m.Hash.String,
		Meta: sessions.Meta{
			StartTimestampMs: m.StartTimestampMs,
			LastTimestampMs:  m.LastTimestampMs,
			Branch:           m.Branch.String,
			Commit:           m.CommitID.String,
		},
	}
}

// scanTargets lists the fields in sessionColumns order.
func (m *sessionModel) scanTargets() []any {
	return []any{&m.ID, &m.ProjectID, &m.Hash, &m.StartTimestampMs, &m.LastTimestampMs, &m.Branch, &m.CommitID}
}

const sessionColumns = `id, project_id, hash, start_timestamp_ms, last_timestamp_ms, branch, commit_id`

// projectModel is a row of the projects table.
type projectModel struct {
	ID        string
	Name      string
	Path      string
	CreatedAt int64 // Unix timestamp
}

func toProjectModel(p projects.Project) projectModel {
	return projectModel{ID: p.ID, Name: p.Name, Path: p.Path, CreatedAt: p.CreatedAt.Unix()}
}

func (m projectModel) toDomain() projects.Project {
	return projects.Project{
		ID:        m.ID,
		Name:      m.Name,
		Path:      m.Path,
		CreatedAt: time.Unix(m.CreatedAt, 0).UTC(),
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
