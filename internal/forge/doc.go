// Package forge provides helpers for git hosting services.
//
// It covers three concerns:
//   - forge names and git remote parsing (Name, ParseName, ParseRepoInfo)
//   - git host URLs for browsing commits and branches (GitHost, GitLab)
//   - review templates: the client Service that lists and reads them over the
//     command channel, and the on-disk discovery the backend serves them from
//
// GitLab merge request listing, creation, and checks are not available yet;
// the corresponding GitHost accessors report absent services.
package forge
