package forge

import "context"

// PullRequest is a review request on a git host.
type PullRequest struct {
	Number       int
	Title        string
	SourceBranch string
	URL          string
}

// ListService lists open review requests.
type ListService interface {
	List(ctx context.Context) ([]PullRequest, error)
}

// PRService creates and fetches review requests for one base branch.
type PRService interface {
	Get(ctx context.Context, number int) (PullRequest, error)
	Create(ctx context.Context, title, body, sourceBranch string, draft bool) (PullRequest, error)
}

// ChecksMonitor reports CI status for a source branch.
type ChecksMonitor interface {
	Status(ctx context.Context) (string, error)
}

// BranchHost builds URLs for one branch.
type BranchHost interface {
	// URL compares the branch against the base branch.
	URL() string
	// CreateURL opens a new review request for the branch.
	CreateURL() string
}

// GitHost is a git hosting service for one repository.
type GitHost interface {
	Name() Name
	WebURL() string
	CommitURL(id string) string
	Branch(name string) BranchHost
	// The services below report false when the host has no support yet.
	ListService() (ListService, bool)
	PRService(baseBranch, upstreamName string) (PRService, bool)
	ChecksMonitor(sourceBranch string) (ChecksMonitor, bool)
}

// NewGitHost returns the host implementation for a forge. Only GitLab has
// one so far.
func NewGitHost(name Name, repo RepoInfo, baseBranch, fork string) (GitHost, bool) {
	switch name {
	case GitLab:
		return NewGitLab(repo, baseBranch, fork), true
	default:
		return nil, false
	}
}
