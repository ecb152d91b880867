package infrastructure

import (
	"context"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	domain "github.com/zjrosen/stackline/internal/git/domain"
)

// setupTestRepo creates a repository on main with one commit.
func setupTestRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dir := t.TempDir()
	for _, args := range [][]string{
		{"init", "-q"},
		{"symbolic-ref", "HEAD", "refs/heads/main"},
		{"config", "user.email", "test@example.com"},
		{"config", "user.name", "Test"},
		{"commit", "-q", "--allow-empty", "-m", "initial"},
	} {
		cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, string(out))
	}
	return dir
}

func gitRun(t *testing.T, dir string, args ...string) {
	t.Helper()
	out, err := exec.Command("git", append([]string{"-C", dir}, args...)...).CombinedOutput()
	require.NoError(t, err, string(out))
}

func TestRealExecutor_Repo(t *testing.T) {
	ctx := context.Background()
	dir := setupTestRepo(t)
	git := NewRealExecutor(dir)

	require.True(t, git.IsGitRepo(ctx))

	root, err := git.GetRepoRoot(ctx)
	require.NoError(t, err)
	want, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	require.Equal(t, want, got)

	branch, err := git.GetCurrentBranch(ctx)
	require.NoError(t, err)
	require.Equal(t, "main", branch)

	mainBranch, err := git.GetMainBranch(ctx)
	require.NoError(t, err)
	require.Equal(t, "main", mainBranch)
}

func TestRealExecutor_RemoteURL(t *testing.T) {
	ctx := context.Background()
	dir := setupTestRepo(t)
	git := NewRealExecutor(dir)

	url, err := git.GetRemoteURL(ctx, "origin")
	require.NoError(t, err)
	require.Empty(t, url, "missing remote is not an error")

	gitRun(t, dir, "remote", "add", "origin", "git@gitlab.com:group/repo.git")
	url, err = git.GetRemoteURL(ctx, "origin")
	require.NoError(t, err)
	require.Equal(t, "git@gitlab.com:group/repo.git", url)
}

func TestRealExecutor_DetachedHead(t *testing.T) {
	ctx := context.Background()
	dir := setupTestRepo(t)
	gitRun(t, dir, "checkout", "-q", "--detach")

	_, err := NewRealExecutor(dir).GetCurrentBranch(ctx)
	require.ErrorIs(t, err, domain.ErrDetachedHead)
}

func TestRealExecutor_NotARepo(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	t.Setenv("GIT_CEILING_DIRECTORIES", filepath.Dir(t.TempDir()))
	git := NewRealExecutor(t.TempDir())

	require.False(t, git.IsGitRepo(context.Background()))
	_, err := git.GetRepoRoot(context.Background())
	require.ErrorIs(t, err, domain.ErrNotGitRepo)
}
