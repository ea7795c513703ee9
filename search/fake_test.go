package search

import (
	"context"
	"errors"
	"path"
	"strings"
	"sync"

	"github.com/montrey/ftpseek/remote"
)

// fakeTree is an in-memory directory tree that records every listing call.
type fakeTree struct {
	dirs map[string]*remote.Listing
	fail map[string]bool

	mu    sync.Mutex
	calls []string
}

// newFakeTree builds a tree from slash paths. Entries ending in "/" are
// directories, everything else is a file. Parents are created on the way and
// keep first-seen order.
func newFakeTree(entries ...string) *fakeTree {
	t := &fakeTree{
		dirs: map[string]*remote.Listing{"/": {}},
		fail: map[string]bool{},
	}
	for _, e := range entries {
		p := path.Clean(e)
		if strings.HasSuffix(e, "/") {
			t.addDir(p)
			continue
		}
		dir := path.Dir(p)
		t.addDir(dir)
		t.dirs[dir].Files = append(t.dirs[dir].Files, path.Base(p))
	}
	return t
}

func (t *fakeTree) addDir(p string) {
	if _, ok := t.dirs[p]; ok {
		return
	}
	t.dirs[p] = &remote.Listing{}
	parent := path.Dir(p)
	t.addDir(parent)
	t.dirs[parent].Directories = append(t.dirs[parent].Directories, path.Base(p))
}

func (t *fakeTree) failOn(paths ...string) *fakeTree {
	for _, p := range paths {
		t.fail[p] = true
	}
	return t
}

func (t *fakeTree) Calls() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.calls...)
}

// session returns a Lister with its own working directory.
func (t *fakeTree) session() *fakeSession {
	return &fakeSession{tree: t, cwd: "/"}
}

type fakeSession struct {
	tree *fakeTree
	cwd  string
	// block, when set, is waited on before each listing.
	block chan struct{}
}

func (s *fakeSession) List(ctx context.Context, dir string) (remote.Listing, error) {
	target := s.cwd
	if dir != "" {
		target = dir
	}

	s.tree.mu.Lock()
	s.tree.calls = append(s.tree.calls, target)
	s.tree.mu.Unlock()

	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
		}
	}
	if err := ctx.Err(); err != nil {
		return remote.Listing{}, &remote.ListingError{Path: dir, Err: err}
	}
	if s.tree.fail[target] {
		return remote.Listing{}, &remote.ListingError{Path: dir, Err: errors.New("550 permission denied")}
	}
	listing, ok := s.tree.dirs[target]
	if !ok {
		return remote.Listing{}, &remote.ListingError{Path: dir, Err: errors.New("550 no such directory")}
	}
	s.cwd = target
	return remote.Listing{
		Files:       append([]string(nil), listing.Files...),
		Directories: append([]string(nil), listing.Directories...),
	}, nil
}

func (s *fakeSession) CurrentPath(ctx context.Context) (string, error) {
	return s.cwd, nil
}
