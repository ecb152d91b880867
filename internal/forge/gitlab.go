package forge

import (
	"fmt"
	"net/url"
)

// GitLabDomain is the host of gitlab.com repositories.
const GitLabDomain = "gitlab.com"

// GitLabHost implements GitHost for gitlab.com.
type GitLabHost struct {
	webURL     string
	baseBranch string
	fork       string
}

var _ GitHost = (*GitLabHost)(nil)

// NewGitLab creates a GitLab host. fork, when set, names the fork owner that
// branches are compared from.
func NewGitLab(repo RepoInfo, baseBranch, fork string) *GitLabHost {
	return &GitLabHost{
		webURL:     fmt.Sprintf("https://%s/%s/%s", GitLabDomain, repo.Owner, repo.Name),
		baseBranch: baseBranch,
		fork:       fork,
	}
}

// Name returns "gitlab".
func (g *GitLabHost) Name() Name { return GitLab }

// WebURL returns the repository's web page.
func (g *GitLabHost) WebURL() string { return g.webURL }

// CommitURL returns the page of a single commit.
func (g *GitLabHost) CommitURL(id string) string {
	return g.webURL + "/-/commit/" + id
}

// Branch returns URL helpers for a branch.
func (g *GitLabHost) Branch(name string) BranchHost {
	return &GitLabBranch{name: name, baseBranch: g.baseBranch, webURL: g.webURL, fork: g.fork}
}

// ListService is absent until merge request support lands.
func (g *GitLabHost) ListService() (ListService, bool) { return nil, false }

// PRService is absent until merge request support lands.
func (g *GitLabHost) PRService(string, string) (PRService, bool) { return nil, false }

// ChecksMonitor is absent until pipeline support lands.
func (g *GitLabHost) ChecksMonitor(string) (ChecksMonitor, bool) { return nil, false }

// GitLabBranch builds URLs for a branch on GitLab.
type GitLabBranch struct {
	name       string
	baseBranch string
	webURL     string
	fork       string
}

func (b *GitLabBranch) ref() string {
	if b.fork != "" {
		return b.fork + ":" + b.name
	}
	return b.name
}

// URL returns the compare view of the branch against the base branch.
func (b *GitLabBranch) URL() string {
	return fmt.Sprintf("%s/-/compare/%s...%s", b.webURL, b.baseBranch, b.ref())
}

// CreateURL returns the new merge request page for the branch.
func (b *GitLabBranch) CreateURL() string {
	q := url.Values{}
	q.Set("merge_request[source_branch]", b.name)
	q.Set("merge_request[target_branch]", b.baseBranch)
	return b.webURL + "/-/merge_requests/new?" + q.Encode()
}
