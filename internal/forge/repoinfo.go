package forge

import (
	"fmt"
	"net/url"
	"strings"
)

// RepoInfo identifies a repository on a git host.
type RepoInfo struct {
	Domain   string
	Owner    string
	Name     string
	Protocol string
}

// ParseRepoInfo parses a git remote URL. Supported forms:
//
//	git@host:owner/name.git
//	ssh://git@host/owner/name.git
//	https://host/owner/name.git
//
// Owners may contain slashes (GitLab subgroups); the last path segment is the
// repository name.
func ParseRepoInfo(remoteURL string) (RepoInfo, error) {
	raw := strings.TrimSpace(remoteURL)
	var info RepoInfo
	var path string

	switch {
	case strings.Contains(raw, "://"):
		u, err := url.Parse(raw)
		if err != nil {
			return RepoInfo{}, fmt.Errorf("parsing remote url %q: %w", remoteURL, err)
		}
		info.Protocol = u.Scheme
		info.Domain = u.Hostname()
		path = u.Path
	case strings.Contains(raw, "@") && strings.Contains(raw, ":"):
		// scp-like syntax: user@host:path
		at := strings.Index(raw, "@")
		colon := strings.Index(raw[at:], ":") + at
		info.Protocol = "ssh"
		info.Domain = raw[at+1 : colon]
		path = raw[colon+1:]
	default:
		return RepoInfo{}, fmt.Errorf("unsupported remote url %q", remoteURL)
	}

	path = strings.TrimSuffix(strings.Trim(path, "/"), ".git")
	idx := strings.LastIndex(path, "/")
	if info.Domain == "" || idx <= 0 || idx == len(path)-1 {
		return RepoInfo{}, fmt.Errorf("remote url %q has no owner/name path", remoteURL)
	}
	info.Owner = path[:idx]
	info.Name = path[idx+1:]
	return info, nil
}

// DetectName guesses the forge from a repository's domain.
func DetectName(info RepoInfo) (Name, bool) {
	domain := strings.ToLower(info.Domain)
	switch {
	case strings.Contains(domain, "github"):
		return GitHub, true
	case strings.Contains(domain, "gitlab"):
		return GitLab, true
	case strings.Contains(domain, "bitbucket"):
		return Bitbucket, true
	case strings.Contains(domain, "dev.azure.com"), strings.Contains(domain, "visualstudio.com"):
		return Azure, true
	default:
		return "", false
	}
}
