package domain

// BranchRepository persists virtual branches and their series.
type BranchRepository interface {
	// Save inserts or replaces the branch with all of its series and patches.
	Save(branch VirtualBranch) error
	// FindByID returns BranchNotFoundError when no branch matches.
	FindByID(branchID string) (VirtualBranch, error)
	// ListByProject returns the project's branches ordered by name.
	ListByProject(projectID string) ([]VirtualBranch, error)
	// ApplyOrder rewrites commit placement for the branch in one
	// transaction. The order must hold the stored series names in stack
	// order and a permutation of the stored commits, otherwise
	// ArrangementMismatchError is returned and nothing is written.
	ApplyOrder(branchID string, order Arrangement) (VirtualBranch, error)
}
