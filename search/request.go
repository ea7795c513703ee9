// Package search finds the remote directory holding a named file by listing
// directories one level at a time.
//
// The search is breadth-first and bounded: the start directory and its
// immediate subdirectories are scanned first, then each further level is
// expanded from the directories discovered on the level before it, until the
// file is found, nothing is left to expand, or MaxDepth is reached. When the
// same file exists at several depths the shallowest one wins.
package search

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultMaxDepth is used when Request.MaxDepth is zero.
const DefaultMaxDepth = 4

var (
	// ErrConfiguration marks a request that cannot be searched at all.
	ErrConfiguration = errors.New("invalid search request")
	// ErrAborted marks a search that stopped because of a listing failure
	// on the start directory or a cancelled context. It is never returned
	// for a plain "not found".
	ErrAborted = errors.New("search aborted")
)

// Request describes one search. It is not modified by the engine.
type Request struct {
	// Filename is the exact name of the file to find.
	Filename string
	// StartDirectory defaults to the session's current directory.
	StartDirectory string
	// Exclude skips matching directories entirely. Nil excludes nothing.
	Exclude *Matcher
	// MaxDepth is the deepest directory level listed, the start being level
	// 0: a file N directories below the start is the deepest that can be
	// found. Zero means DefaultMaxDepth.
	MaxDepth int
	// IncludeHidden keeps dot-directories found under the start directory's
	// children. By default they are dropped before the first nested level.
	IncludeHidden bool
}

// Validate reports configuration problems without touching the network.
func (r Request) Validate() error {
	_, err := r.normalize()
	return err
}

func (r Request) normalize() (Request, error) {
	if strings.TrimSpace(r.Filename) == "" {
		return r, fmt.Errorf("%w: please provide a file to search", ErrConfiguration)
	}
	if strings.Contains(r.Filename, "/") {
		return r, fmt.Errorf("%w: %q is a path, expected a file name", ErrConfiguration, r.Filename)
	}
	if r.MaxDepth < 0 {
		return r, fmt.Errorf("%w: max depth must be positive, got %d", ErrConfiguration, r.MaxDepth)
	}
	if r.MaxDepth == 0 {
		r.MaxDepth = DefaultMaxDepth
	}
	return r, nil
}

// Outcome is how a search ended when it was not aborted.
type Outcome int

const (
	// Found means Result.Path holds the file.
	Found Outcome = iota + 1
	// NotFoundExhausted means every reachable directory within the depth
	// limit was listed.
	NotFoundExhausted
	// NotFoundBounded means directories were left unexplored because the
	// depth limit was reached.
	NotFoundBounded
)

func (o Outcome) String() string {
	switch o {
	case Found:
		return "found"
	case NotFoundExhausted:
		return "not found"
	case NotFoundBounded:
		return "not found within depth limit"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is produced once per search.
type Result struct {
	Outcome Outcome
	// Path is the directory containing the file, set when Outcome is Found.
	Path string
	// Depth is how many directories below the start Path lies.
	Depth int
	// Listings counts every listing call issued, failed ones included.
	Listings int
	// Suggestions holds near-miss files seen during a search that found
	// nothing, as full paths.
	Suggestions []string
}
