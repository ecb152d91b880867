// Package application defines ports (interfaces) for git operations and the
// forge lookups built on them.
package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/zjrosen/stackline/internal/forge"
	domain "github.com/zjrosen/stackline/internal/git/domain"
)

// GitExecutor defines the interface for read-only repository queries.
// This abstraction allows for easy testing with mock implementations.
type GitExecutor interface {
	IsGitRepo(ctx context.Context) bool
	GetRepoRoot(ctx context.Context) (string, error)
	// GetCurrentBranch returns ErrDetachedHead when HEAD is not on a branch.
	GetCurrentBranch(ctx context.Context) (string, error)
	GetMainBranch(ctx context.Context) (string, error)
	// GetRemoteURL returns the URL for the named remote (e.g., "origin").
	// Returns empty string and nil error if remote doesn't exist.
	GetRemoteURL(ctx context.Context, name string) (string, error)
}

// Inspect collects the repository state. A detached HEAD leaves Branch empty.
func Inspect(ctx context.Context, git GitExecutor) (domain.RepoState, error) {
	if !git.IsGitRepo(ctx) {
		return domain.RepoState{}, domain.ErrNotGitRepo
	}

	var state domain.RepoState
	var err error
	if state.Root, err = git.GetRepoRoot(ctx); err != nil {
		return domain.RepoState{}, err
	}
	state.Branch, err = git.GetCurrentBranch(ctx)
	if err != nil && !errors.Is(err, domain.ErrDetachedHead) {
		return domain.RepoState{}, err
	}
	if state.MainBranch, err = git.GetMainBranch(ctx); err != nil {
		return domain.RepoState{}, err
	}
	if state.RemoteURL, err = git.GetRemoteURL(ctx, "origin"); err != nil {
		return domain.RepoState{}, err
	}
	return state, nil
}

// ForgeInfo is the forge a repository's origin points at.
type ForgeInfo struct {
	Name forge.Name
	Repo forge.RepoInfo
}

// DetectForge identifies the forge from the origin remote. ok is false when
// there is no origin or its host is not a known forge.
func DetectForge(state domain.RepoState) (info ForgeInfo, ok bool, err error) {
	if state.RemoteURL == "" {
		return ForgeInfo{}, false, nil
	}
	repo, err := forge.ParseRepoInfo(state.RemoteURL)
	if err != nil {
		return ForgeInfo{}, false, fmt.Errorf("origin remote: %w", err)
	}
	name, ok := forge.DetectName(repo)
	if !ok {
		return ForgeInfo{Repo: repo}, false, nil
	}
	return ForgeInfo{Name: name, Repo: repo}, true, nil
}
