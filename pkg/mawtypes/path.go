package mawtypes

import (
	"fmt"
	"strings"
)

// Path is a repository-relative file path. Patch-sets and trees use forward
// slashes regardless of host OS, matching the content-addressed store's own
// tree-entry naming.
type Path string

// Validate rejects absolute paths, ".."-escapes, and empty segments — the
// same "unsafe relative path" validation class spec.md §7 calls a fatal,
// non-retryable Validation error.
func (p Path) Validate() error {
	s := string(p)
	if s == "" {
		return fmt.Errorf("path must not be empty")
	}
	if strings.HasPrefix(s, "/") {
		return fmt.Errorf("path %q must be relative", s)
	}
	for _, seg := range strings.Split(s, "/") {
		switch seg {
		case "", ".", "..":
			return fmt.Errorf("path %q contains an unsafe segment %q", s, seg)
		}
	}
	return nil
}

func (p Path) String() string {
	return string(p)
}

func (p Path) Less(other Path) bool {
	return p < other
}
