package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockGitExecutor is a mock of the git application.GitExecutor port.
type MockGitExecutor struct {
	mock.Mock
}

// IsGitRepo records the call and returns the configured answer.
func (m *MockGitExecutor) IsGitRepo(ctx context.Context) bool {
	return m.Called(ctx).Bool(0)
}

// GetRepoRoot records the call and returns the configured root.
func (m *MockGitExecutor) GetRepoRoot(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// GetCurrentBranch records the call and returns the configured branch.
func (m *MockGitExecutor) GetCurrentBranch(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// GetMainBranch records the call and returns the configured branch.
func (m *MockGitExecutor) GetMainBranch(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// GetRemoteURL records the call and returns the configured URL.
func (m *MockGitExecutor) GetRemoteURL(ctx context.Context, name string) (string, error) {
	args := m.Called(ctx, name)
	return args.String(0), args.Error(1)
}
