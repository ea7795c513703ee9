package search

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/montrey/ftpseek/logger"
	"github.com/montrey/ftpseek/remote"
)

// Engine runs searches. It lists through one session by default, or fans
// each level out over several independent sessions when built WithPool.
type Engine struct {
	primary  remote.Lister
	workers  []remote.Lister
	observer Observer
	log      *logger.LogEntry
}

// Option configures an Engine.
type Option func(*Engine)

// WithObserver sends progress events to o.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// WithPool lists directories below the start concurrently, one goroutine per
// lister. Each lister must own its own session. Results are merged in
// candidate order, so the outcome is the same as a sequential search.
func WithPool(listers ...remote.Lister) Option {
	return func(e *Engine) {
		if len(listers) > 0 {
			e.workers = listers
		}
	}
}

// WithLogger replaces the default "search" log entry.
func WithLogger(entry *logger.LogEntry) Option {
	return func(e *Engine) { e.log = entry }
}

// New returns an Engine that resolves the start directory through l.
func New(l remote.Lister, opts ...Option) *Engine {
	e := &Engine{
		primary: l,
		workers: []remote.Lister{l},
		log:     logger.Named("search"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search looks for req.Filename. A not-found outcome is a normal Result; an
// error means the search could not run (ErrConfiguration) or was cut short
// (ErrAborted).
func (e *Engine) Search(ctx context.Context, req Request) (Result, error) {
	req, err := req.normalize()
	if err != nil {
		return Result{}, err
	}

	r := &run{Engine: e, req: req}
	res, err := r.search(ctx)
	res.Listings = int(r.listings.Load())
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrAborted, err)
		r.log.WithError(err).Error("Search aborted")
		r.emit(Event{Kind: EventDone, Err: err})
		return res, err
	}
	if res.Outcome != Found {
		res.Suggestions = r.seen.suggest(req.Filename)
	}
	r.emit(Event{Kind: EventDone, Result: &res})
	return res, nil
}

// run is the state of one Search call.
type run struct {
	*Engine
	req      Request
	listings atomic.Int64
	seen     seenFiles
}

type candidate struct {
	path  string
	depth int
}

func (r *run) search(ctx context.Context) (Result, error) {
	start, listing, err := r.listStart(ctx)
	if err != nil {
		return Result{}, err
	}
	if listing.HasFile(r.req.Filename) {
		return r.found(start, 0), nil
	}
	r.seen.add(start, listing.Files)

	var top []candidate
	for _, name := range listing.Directories {
		dir := composePath(start, name)
		if r.excluded(0, name, dir) {
			continue
		}
		top = append(top, candidate{path: dir, depth: 1})
	}

	hit, stack, err := r.expand(ctx, 0, top, !r.req.IncludeHidden)
	if err != nil {
		return Result{}, err
	}
	if hit != nil {
		return r.found(hit.path, hit.depth), nil
	}
	r.log.Info("Not found in top level directories, traversing one level deep")

	for level := 1; ; level++ {
		if len(stack) == 0 {
			return r.notFound(NotFoundExhausted, level), nil
		}
		// The depth check comes before any listing on this level.
		if level == r.req.MaxDepth {
			return r.notFound(NotFoundBounded, level), nil
		}

		cands := make([]candidate, 0, stack.Candidates())
		for _, entry := range stack {
			for _, sub := range entry.Subdirs {
				dir := composePath(entry.Path, sub)
				if r.excluded(level, sub, dir) {
					continue
				}
				cands = append(cands, candidate{path: dir, depth: level + 1})
			}
		}

		hit, stack, err = r.expand(ctx, level, cands, false)
		if err != nil {
			return Result{}, err
		}
		if hit != nil {
			return r.found(hit.path, hit.depth), nil
		}
	}
}

// listStart lists the start directory and resolves its absolute path. Any
// failure here is fatal.
func (r *run) listStart(ctx context.Context) (string, remote.Listing, error) {
	dir := r.req.StartDirectory
	r.listings.Add(1)
	r.emit(Event{Kind: EventList, Path: dir})

	listing, err := r.primary.List(ctx, dir)
	if err != nil {
		var listErr *remote.ListingError
		if !errors.As(err, &listErr) {
			err = &remote.ListingError{Path: dir, Err: err}
		}
		return "", remote.Listing{}, err
	}
	start, err := r.primary.CurrentPath(ctx)
	if err != nil {
		return "", remote.Listing{}, &remote.ListingError{Path: dir, Err: fmt.Errorf("resolving current path: %w", err)}
	}
	r.log.WithField("level", 0).Infof("Searching %s", start)
	return start, listing, nil
}

// expand lists the candidates of one level in order. It returns the first
// candidate holding the file, or the stack for the next level.
func (r *run) expand(ctx context.Context, level int, cands []candidate, dropHidden bool) (*candidate, PathStack, error) {
	r.emit(Event{Kind: EventLevel, Level: level, Candidates: len(cands)})
	if len(r.workers) > 1 {
		return r.expandParallel(ctx, level, cands, dropHidden)
	}

	var next PathStack
	for i := range cands {
		listing, ok, err := r.list(ctx, r.workers[0], level, cands[i].path)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			continue
		}
		if listing.HasFile(r.req.Filename) {
			return &cands[i], nil, nil
		}
		r.seen.add(cands[i].path, listing.Files)
		next = record(next, cands[i].path, listing, dropHidden)
	}
	return nil, next, nil
}

// expandParallel is expand over several sessions. Once candidate i is known
// to hold the file no candidate after i is listed; candidates before i still
// finish so the lowest index wins, exactly as in sequential order.
func (r *run) expandParallel(ctx context.Context, level int, cands []candidate, dropHidden bool) (*candidate, PathStack, error) {
	listings := make([]*remote.Listing, len(cands))
	var best atomic.Int64
	best.Store(int64(len(cands)))

	jobs := make(chan int)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(jobs)
		for i := range cands {
			if int64(i) > best.Load() {
				return nil
			}
			select {
			case jobs <- i:
			case <-gctx.Done():
				return nil
			}
		}
		return nil
	})
	for _, l := range r.workers {
		l := l
		g.Go(func() error {
			for i := range jobs {
				if int64(i) > best.Load() {
					continue
				}
				listing, ok, err := r.list(gctx, l, level, cands[i].path)
				if err != nil {
					return err
				}
				if !ok {
					continue
				}
				listings[i] = &listing
				if listing.HasFile(r.req.Filename) {
					lowerTo(&best, int64(i))
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var next PathStack
	for i, listing := range listings {
		if listing == nil {
			continue
		}
		if listing.HasFile(r.req.Filename) {
			return &cands[i], nil, nil
		}
		r.seen.add(cands[i].path, listing.Files)
		next = record(next, cands[i].path, *listing, dropHidden)
	}
	return nil, next, nil
}

// list lists one directory below the start. ok is false when the listing
// failed and the directory counts as empty; err is set only when the whole
// search has to stop.
func (r *run) list(ctx context.Context, l remote.Lister, level int, dir string) (remote.Listing, bool, error) {
	if err := ctx.Err(); err != nil {
		return remote.Listing{}, false, err
	}
	r.listings.Add(1)
	r.emit(Event{Kind: EventList, Level: level, Path: dir})
	r.log.WithField("level", level).Infof("Searching %s", dir)

	listing, err := l.List(ctx, dir)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return remote.Listing{}, false, ctxErr
		}
		r.log.WithError(err).WithField("path", dir).Warn("Could not list directory, skipping")
		r.emit(Event{Kind: EventListFailed, Level: level, Path: dir, Err: err})
		return remote.Listing{}, false, nil
	}
	return listing, true, nil
}

func (r *run) excluded(level int, name, dir string) bool {
	if !r.req.Exclude.Excluded(name, dir) {
		return false
	}
	r.log.WithField("path", dir).Debug("Excluded")
	r.emit(Event{Kind: EventExcluded, Level: level, Path: dir})
	return true
}

func (r *run) found(dir string, depth int) Result {
	r.log.WithField("path", dir).Infof("Found %s", r.req.Filename)
	r.emit(Event{Kind: EventFound, Path: dir})
	return Result{Outcome: Found, Path: dir, Depth: depth}
}

func (r *run) notFound(o Outcome, level int) Result {
	if o == NotFoundBounded {
		r.log.Infof("Reached max depth %d without finding %s", r.req.MaxDepth, r.req.Filename)
	} else {
		r.log.Infof("Nothing left to search after level %d, %s not found", level-1, r.req.Filename)
	}
	return Result{Outcome: o}
}

func (r *run) emit(ev Event) {
	if r.observer != nil {
		r.observer(ev)
	}
}

// record adds dir to the next level's stack if it has subdirectories.
func record(next PathStack, dir string, listing remote.Listing, dropHidden bool) PathStack {
	subdirs := listing.Directories
	if dropHidden {
		subdirs = slices.DeleteFunc(slices.Clone(subdirs), isHidden)
	}
	if len(subdirs) == 0 {
		return next
	}
	return append(next, StackEntry{Path: dir, Subdirs: subdirs})
}

func lowerTo(v *atomic.Int64, n int64) {
	for {
		cur := v.Load()
		if n >= cur || v.CompareAndSwap(cur, n) {
			return
		}
	}
}
