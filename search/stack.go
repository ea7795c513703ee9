package search

import (
	"path"
	"strings"
)

// StackEntry is a listed directory and the subdirectories it still has to
// contribute to the next level.
type StackEntry struct {
	Path    string
	Subdirs []string
}

// PathStack holds the directories discovered on one level. Entries keep
// insertion order, which is the order the next level visits them in.
type PathStack []StackEntry

// Candidates returns how many subdirectories the stack would expand.
func (s PathStack) Candidates() int {
	n := 0
	for _, e := range s {
		n += len(e.Subdirs)
	}
	return n
}

// composePath joins a parent path and a child name without doubling
// separators: "/a/" + "b" is "/a/b".
func composePath(parent, name string) string {
	name = strings.Trim(name, "/")
	if parent == "" {
		return name
	}
	return path.Join(parent, name)
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
