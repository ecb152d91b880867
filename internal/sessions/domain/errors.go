package domain

import "fmt"

// SessionNotFoundError indicates that a session with the specified identifiers
// could not be found in the repository.
type SessionNotFoundError struct {
	ID        string
	ProjectID string
}

// Error implements the error interface.
func (e *SessionNotFoundError) Error() string {
	return fmt.Sprintf("session not found: id=%q project=%q", e.ID, e.ProjectID)
}

// InvalidSessionError indicates a session record that cannot be stored.
type InvalidSessionError struct {
	ID     string
	Reason string
}

// Error implements the error interface.
func (e *InvalidSessionError) Error() string {
	return fmt.Sprintf("invalid session %q: %s", e.ID, e.Reason)
}
