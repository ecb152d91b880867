package forge

import (
	"fmt"
	"strings"
)

// Name identifies a forge.
type Name string

// Supported forges.
const (
	GitHub    Name = "github"
	GitLab    Name = "gitlab"
	Bitbucket Name = "bitbucket"
	Azure     Name = "azure"
)

// Names returns every supported forge name.
func Names() []Name {
	return []Name{GitHub, GitLab, Bitbucket, Azure}
}

// UnknownForgeError indicates a forge name outside Names.
type UnknownForgeError struct {
	Name string
}

// Error implements the error interface.
func (e *UnknownForgeError) Error() string {
	return fmt.Sprintf("unknown forge %q (want one of github, gitlab, bitbucket, azure)", e.Name)
}

// ParseName parses a forge name case-insensitively.
func ParseName(s string) (Name, error) {
	n := Name(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Names() {
		if n == known {
			return n, nil
		}
	}
	return "", &UnknownForgeError{Name: s}
}

func (n Name) String() string { return string(n) }
