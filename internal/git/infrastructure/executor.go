// Package infrastructure runs git queries by shelling out to the git CLI.
package infrastructure

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/zjrosen/stackline/internal/git/application"
	domain "github.com/zjrosen/stackline/internal/git/domain"
	"github.com/zjrosen/stackline/internal/log"
)

// DefaultTimeout bounds every git invocation.
const DefaultTimeout = 5 * time.Second

// RealExecutor implements GitExecutor for the working tree at dir.
type RealExecutor struct {
	dir     string
	timeout time.Duration
}

var _ application.GitExecutor = (*RealExecutor)(nil)

// NewRealExecutor creates an executor for dir.
func NewRealExecutor(dir string) *RealExecutor {
	return &RealExecutor{dir: dir, timeout: DefaultTimeout}
}

// output runs git with args in the working tree and returns trimmed stdout.
// stderr is folded into the error.
func (e *RealExecutor) output(ctx context.Context, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", e.dir}, args...)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "", fmt.Errorf("git %s: %w", args[0], domain.ErrGitTimeout)
	}
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		log.Debug(log.CatGit, "Git command failed", "dir", e.dir, "args", args, "stderr", msg)
		if strings.Contains(msg, "not a git repository") {
			return "", domain.ErrNotGitRepo
		}
		if msg != "" {
			return "", fmt.Errorf("git %s: %s", args[0], msg)
		}
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// IsGitRepo reports whether dir is inside a working tree.
func (e *RealExecutor) IsGitRepo(ctx context.Context) bool {
	out, err := e.output(ctx, "rev-parse", "--is-inside-work-tree")
	return err == nil && out == "true"
}

// GetRepoRoot returns the top-level directory of the working tree.
func (e *RealExecutor) GetRepoRoot(ctx context.Context) (string, error) {
	return e.output(ctx, "rev-parse", "--show-toplevel")
}

// GetCurrentBranch returns the checked out branch.
func (e *RealExecutor) GetCurrentBranch(ctx context.Context) (string, error) {
	branch, err := e.output(ctx, "branch", "--show-current")
	if err != nil {
		return "", err
	}
	if branch == "" {
		return "", domain.ErrDetachedHead
	}
	return branch, nil
}

// GetMainBranch returns the branch origin/HEAD points at, else the first of
// main or master that exists locally, else "main".
func (e *RealExecutor) GetMainBranch(ctx context.Context) (string, error) {
	if ref, err := e.output(ctx, "symbolic-ref", "--short", "refs/remotes/origin/HEAD"); err == nil && ref != "" {
		return strings.TrimPrefix(ref, "origin/"), nil
	}
	for _, candidate := range []string{"main", "master"} {
		if _, err := e.output(ctx, "rev-parse", "--verify", "--quiet", "refs/heads/"+candidate); err == nil {
			return candidate, nil
		}
	}
	return "main", nil
}

// GetRemoteURL returns the URL of the named remote, or "" when it is not
// configured.
func (e *RealExecutor) GetRemoteURL(ctx context.Context, name string) (string, error) {
	remotes, err := e.output(ctx, "remote")
	if err != nil {
		return "", err
	}
	for _, r := range strings.Fields(remotes) {
		if r == name {
			return e.output(ctx, "remote", "get-url", name)
		}
	}
	return "", nil
}
