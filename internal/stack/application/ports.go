package application

import (
	"context"

	"github.com/zjrosen/stackline/internal/stack/domain"
)

// BranchController submits stack changes to the backend, which is the system
// of record for virtual branches.
type BranchController interface {
	// ReorderStackCommit replaces the commit order of a branch's series in a
	// single atomic command.
	ReorderStackCommit(ctx context.Context, branchID string, order domain.Arrangement) error

	// ListVirtualBranches returns the branches of the controller's project.
	ListVirtualBranches(ctx context.Context) ([]domain.VirtualBranch, error)
}
