// Package mocks provides testify/mock doubles for stackline ports.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/zjrosen/stackline/internal/stack/domain"
)

// MockBranchController is a mock of application.BranchController.
type MockBranchController struct {
	mock.Mock
}

// ReorderStackCommit records the call and returns the configured error.
func (m *MockBranchController) ReorderStackCommit(ctx context.Context, branchID string, order domain.Arrangement) error {
	args := m.Called(ctx, branchID, order)
	return args.Error(0)
}

// ListVirtualBranches records the call and returns the configured branches.
func (m *MockBranchController) ListVirtualBranches(ctx context.Context) ([]domain.VirtualBranch, error) {
	args := m.Called(ctx)
	branches, _ := args.Get(0).([]domain.VirtualBranch)
	return branches, args.Error(1)
}
