// Package domain provides the session record and its repository port.
//
// A session is a span of recorded work in a project, bounded by its first and
// last activity timestamps (milliseconds since the epoch).
package domain

// Meta holds a session's time bounds and the git position it was recorded on.
type Meta struct {
	StartTimestampMs int64  `json:"startTimestampMs"`
	LastTimestampMs  int64  `json:"lastTimestampMs"`
	Branch           string `json:"branch,omitempty"`
	Commit           string `json:"commit,omitempty"`
}

// Session is one recorded session of a project.
type Session struct {
	ID        string `json:"id"`
	ProjectID string `json:"projectId"`
	Hash      string `json:"hash,omitempty"`
	Meta      Meta   `json:"meta"`
}

// Within reports whether the session covers timestampMs. Both bounds are
// inclusive. A nil session covers nothing.
func Within(s *Session, timestampMs int64) bool {
	if s == nil {
		return false
	}
	return s.Meta.StartTimestampMs <= timestampMs && timestampMs <= s.Meta.LastTimestampMs
}

// Validate checks that the session can be stored.
func (s Session) Validate() error {
	if s.ID == "" {
		return &InvalidSessionError{ID: s.ID, Reason: "id is required"}
	}
	if s.ProjectID == "" {
		return &InvalidSessionError{ID: s.ID, Reason: "project id is required"}
	}
	if s.Meta.LastTimestampMs < s.Meta.StartTimestampMs {
		return &InvalidSessionError{ID: s.ID, Reason: "last timestamp before start"}
	}
	return nil
}

// ListFilter narrows a session listing.
type ListFilter struct {
	// EarliestTimestampMs keeps sessions starting at or after this time.
	// Zero keeps everything.
	EarliestTimestampMs int64
	// Limit caps the number of results. Zero means no limit.
	Limit int
}

// SessionRepository persists sessions.
type SessionRepository interface {
	// Save inserts the session or replaces the stored one with the same id.
	Save(session Session) error
	// FindByID returns SessionNotFoundError when no session matches.
	FindByID(projectID, id string) (Session, error)
	// ListByProject returns the project's sessions ordered by start time.
	ListByProject(projectID string, filter ListFilter) ([]Session, error)
	// DeleteAllForProject removes every session of the project.
	DeleteAllForProject(projectID string) error
}
