package remote

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
)

// Local lists a directory tree on the local disk, for mounted shares or
// offline copies of a remote tree. Paths are slash-separated and "/" maps to
// Root; ".." never climbs above Root.
type Local struct {
	root string
	cwd  string
}

// NewLocal returns a Local rooted at root, with "/" as working directory.
func NewLocal(root string) (*Local, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, &ConnectionError{Addr: abs, Err: err}
	}
	if !info.IsDir() {
		return nil, &ConnectionError{Addr: abs, Err: fmt.Errorf("not a directory")}
	}
	return &Local{root: abs, cwd: "/"}, nil
}

// List implements Lister. Entries come back in name order. Symlinks and
// other non-regular files are neither files nor directories.
func (l *Local) List(ctx context.Context, dir string) (Listing, error) {
	if err := ctx.Err(); err != nil {
		return Listing{}, &ListingError{Path: dir, Err: err}
	}
	target := l.resolve(dir)
	entries, err := os.ReadDir(filepath.Join(l.root, filepath.FromSlash(target)))
	if err != nil {
		return Listing{}, &ListingError{Path: dir, Err: err}
	}

	var listing Listing
	for _, e := range entries {
		switch {
		case e.IsDir():
			listing.Directories = append(listing.Directories, e.Name())
		case e.Type().IsRegular():
			listing.Files = append(listing.Files, e.Name())
		}
	}
	l.cwd = target
	return listing, nil
}

// CurrentPath implements Lister.
func (l *Local) CurrentPath(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return l.cwd, nil
}

func (l *Local) resolve(dir string) string {
	if dir == "" {
		return l.cwd
	}
	if !path.IsAbs(dir) {
		dir = path.Join(l.cwd, dir)
	}
	return path.Clean("/" + dir)
}
