package forge

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
)

// templatePatterns lists, per forge, the repository-relative locations that
// may hold review templates. Patterns use path.Match syntax.
var templatePatterns = map[Name][]string{
	GitHub: {
		".github/PULL_REQUEST_TEMPLATE.md",
		".github/pull_request_template.md",
		".github/PULL_REQUEST_TEMPLATE/*.md",
		"docs/PULL_REQUEST_TEMPLATE.md",
		"docs/pull_request_template.md",
		"PULL_REQUEST_TEMPLATE.md",
		"pull_request_template.md",
	},
	GitLab: {
		".gitlab/merge_request_templates/*.md",
	},
}

// TemplateNotAllowedError indicates a request for a path that is not one of
// the forge's discovered review templates.
type TemplateNotAllowedError struct {
	Forge Name
	Path  string
}

// Error implements the error interface.
func (e *TemplateNotAllowedError) Error() string {
	return fmt.Sprintf("%s is not a %s review template", e.Path, e.Forge)
}

// TemplateDirs returns the repository-relative directories that can hold
// templates for the forge, for watching.
func TemplateDirs(name Name) []string {
	var dirs []string
	for _, p := range templatePatterns[name] {
		dir := path.Dir(p)
		if !slices.Contains(dirs, dir) {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

// DiscoverTemplates returns the review templates present under root for the
// forge, as sorted slash-separated relative paths. Forges without template
// support yield an empty list.
func DiscoverTemplates(root string, name Name) ([]string, error) {
	found := []string{}
	for _, pattern := range templatePatterns[name] {
		matches, err := filepath.Glob(filepath.Join(root, filepath.FromSlash(pattern)))
		if err != nil {
			return nil, fmt.Errorf("matching %s: %w", pattern, err)
		}
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
			rel, err := filepath.Rel(root, m)
			if err != nil {
				return nil, err
			}
			rel = filepath.ToSlash(rel)
			if !slices.Contains(found, rel) {
				found = append(found, rel)
			}
		}
	}
	slices.Sort(found)
	return found, nil
}

// ReadTemplate returns the contents of a discovered template. Any path that
// DiscoverTemplates does not list is rejected with TemplateNotAllowedError.
func ReadTemplate(root string, name Name, relPath string) (string, error) {
	clean := path.Clean(filepath.ToSlash(relPath))
	if clean == ".." || strings.HasPrefix(clean, "../") || path.IsAbs(clean) {
		return "", &TemplateNotAllowedError{Forge: name, Path: relPath}
	}
	allowed, err := DiscoverTemplates(root, name)
	if err != nil {
		return "", err
	}
	if !slices.Contains(allowed, clean) {
		return "", &TemplateNotAllowedError{Forge: name, Path: relPath}
	}
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(clean))) //nolint:gosec // path is one of the discovered templates
	if err != nil {
		return "", fmt.Errorf("reading template %s: %w", clean, err)
	}
	return string(data), nil
}

// IsTemplatePath reports whether a slash-separated repository-relative path
// is a review template location for any forge.
func IsTemplatePath(relPath string) bool {
	clean := path.Clean(relPath)
	for _, patterns := range templatePatterns {
		for _, p := range patterns {
			if ok, _ := path.Match(p, clean); ok {
				return true
			}
		}
	}
	return false
}
