package domain

import "errors"

// Git-specific errors for repository inspection.
var (
	// ErrNotGitRepo indicates the directory is not a git repository.
	ErrNotGitRepo = errors.New("not a git repository")

	// ErrDetachedHead indicates HEAD is not pointing to a branch (detached HEAD state).
	ErrDetachedHead = errors.New("detached HEAD state")

	// ErrGitTimeout is returned when a git command exceeds its deadline.
	ErrGitTimeout = errors.New("git command timed out")
)
