// Package infrastructure implements the stack ports over the backend command
// channel.
package infrastructure

import (
	"context"
	"fmt"

	"github.com/zjrosen/stackline/internal/events"
	"github.com/zjrosen/stackline/internal/ipc"
	"github.com/zjrosen/stackline/internal/log"
	"github.com/zjrosen/stackline/internal/stack/application"
	"github.com/zjrosen/stackline/internal/stack/domain"
)

// Controller is a BranchController for one project that forwards to the
// backend over an ipc.Invoker.
type Controller struct {
	inv       ipc.Invoker
	projectID string
}

var _ application.BranchController = (*Controller)(nil)

// NewController creates a controller for projectID.
func NewController(inv ipc.Invoker, projectID string) *Controller {
	return &Controller{inv: inv, projectID: projectID}
}

// ReorderStackCommit submits the full stack order of a branch.
func (c *Controller) ReorderStackCommit(ctx context.Context, branchID string, order domain.Arrangement) error {
	log.Debug(log.CatStack, "Submitting stack order", "project", c.projectID, "branch", branchID)
	args := ipc.ReorderStackCommitArgs{ProjectID: c.projectID, BranchID: branchID, StackOrder: order}
	if err := c.inv.Invoke(ctx, ipc.CmdReorderStackCommit, args, nil); err != nil {
		return fmt.Errorf("reordering branch %s: %w", branchID, err)
	}
	return nil
}

// ListVirtualBranches returns the project's branches.
func (c *Controller) ListVirtualBranches(ctx context.Context) ([]domain.VirtualBranch, error) {
	branches, err := ipc.Call[[]domain.VirtualBranch](ctx, c.inv, ipc.CmdListVirtualBranches, ipc.ProjectArgs{ProjectID: c.projectID})
	if err != nil {
		return nil, fmt.Errorf("listing virtual branches for project %s: %w", c.projectID, err)
	}
	return branches, nil
}

// FindBranch returns the project's branch with the given id.
func (c *Controller) FindBranch(ctx context.Context, branchID string) (domain.VirtualBranch, error) {
	branches, err := c.ListVirtualBranches(ctx)
	if err != nil {
		return domain.VirtualBranch{}, err
	}
	for _, b := range branches {
		if b.ID == branchID {
			return b, nil
		}
	}
	return domain.VirtualBranch{}, &domain.BranchNotFoundError{BranchID: branchID}
}

// SubscribeBranches calls cb with every branch update the backend publishes
// for the project.
func (c *Controller) SubscribeBranches(src events.Source, cb func(domain.VirtualBranch)) (unsubscribe func()) {
	return events.Listen(src, events.Topic(c.projectID, events.KindVirtualBranches), cb)
}
