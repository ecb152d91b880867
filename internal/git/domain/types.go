// Package domain provides domain types for git operations.
package domain

// RepoState summarises a working tree for forge lookups.
type RepoState struct {
	Root       string // Top-level directory of the working tree
	Branch     string // Current branch, empty on detached HEAD
	MainBranch string // Default branch (e.g., "main", "master")
	RemoteURL  string // URL of origin, empty when origin is not configured
}
