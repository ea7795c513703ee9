package remote

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/time/rate"
)

// Pool is a fixed set of independent sessions to the same server, one per
// parallel worker.
type Pool struct {
	sessions []*Session
}

// DialPool opens n sessions. If any dial fails, the ones already open are
// closed and the error is returned.
func DialPool(ctx context.Context, creds Credentials, n int) (*Pool, error) {
	if n < 1 {
		n = 1
	}
	p := &Pool{}
	for i := 0; i < n; i++ {
		s, err := Dial(ctx, creds)
		if err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("opening session %d of %d: %w", i+1, n, err)
		}
		p.sessions = append(p.sessions, s)
	}
	return p, nil
}

// Listers returns the sessions as Listers, in dial order.
func (p *Pool) Listers() []Lister {
	out := make([]Lister, len(p.sessions))
	for i, s := range p.sessions {
		out[i] = s
	}
	return out
}

// Close closes every session and reports all failures together.
func (p *Pool) Close() error {
	var result *multierror.Error
	for _, s := range p.sessions {
		if err := s.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	p.sessions = nil
	return result.ErrorOrNil()
}

// NewLimiter returns a limiter allowing perSecond listing calls per second,
// or nil when perSecond is not positive.
func NewLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}

// Throttle makes every List call on l wait for limiter first. Listers that
// share a limiter share its budget. A nil limiter returns l unchanged.
func Throttle(l Lister, limiter *rate.Limiter) Lister {
	if limiter == nil {
		return l
	}
	return &throttled{Lister: l, limiter: limiter}
}

type throttled struct {
	Lister
	limiter *rate.Limiter
}

func (t *throttled) List(ctx context.Context, dir string) (Listing, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return Listing{}, &ListingError{Path: dir, Err: err}
	}
	return t.Lister.List(ctx, dir)
}
