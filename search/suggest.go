package search

import (
	"sync"

	"github.com/sahilm/fuzzy"
)

const (
	maxRemembered  = 5000
	maxSuggestions = 5
)

// seenFiles remembers file names met during a walk so a failed search can
// point at near misses.
type seenFiles struct {
	mu    sync.Mutex
	names []string
	paths []string
}

func (s *seenFiles) add(dir string, files []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range files {
		if len(s.names) >= maxRemembered {
			return
		}
		s.names = append(s.names, f)
		s.paths = append(s.paths, composePath(dir, f))
	}
}

func (s *seenFiles) suggest(target string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Suggest(target, s.names, s.paths, maxSuggestions)
}

// Suggest fuzzy-matches target against names and returns the paths of the
// best n matches, best first. names and paths are parallel slices.
func Suggest(target string, names, paths []string, n int) []string {
	if target == "" || len(names) == 0 || n <= 0 {
		return nil
	}
	// fuzzy.Find returns matches sorted by score, best first.
	matches := fuzzy.Find(target, names)

	var out []string
	for _, match := range matches {
		if len(out) == n {
			break
		}
		out = append(out, paths[match.Index])
	}
	return out
}
