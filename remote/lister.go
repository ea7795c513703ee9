// Package remote adapts a session-oriented file store to the listing
// capability the search engine consumes.
package remote

import (
	"context"
	"fmt"
	"slices"
)

// Listing holds the immediate entries of one remote directory, split by kind.
// Both slices keep the order the server returned them in.
type Listing struct {
	Files       []string
	Directories []string
}

// HasFile reports whether name is one of the listed files.
func (l Listing) HasFile(name string) bool {
	return slices.Contains(l.Files, name)
}

// Lister lists remote directories. A Lister wraps a single stateful session,
// so calls on one Lister must not be made concurrently.
type Lister interface {
	// List changes into dir (when non-empty) and returns its entries.
	List(ctx context.Context, dir string) (Listing, error)
	// CurrentPath returns the session's working directory.
	CurrentPath(ctx context.Context) (string, error)
}

// ListingError is returned when one directory could not be listed.
type ListingError struct {
	Path string
	Err  error
}

func (e *ListingError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("could not list current directory: %v", e.Err)
	}
	return fmt.Sprintf("could not list %q: %v", e.Path, e.Err)
}

func (e *ListingError) Unwrap() error { return e.Err }

// ConnectionError is returned when a session could not be established or
// authenticated.
type ConnectionError struct {
	Addr string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("could not connect to %s: %v", e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }
