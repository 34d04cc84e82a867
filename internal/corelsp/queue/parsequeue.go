// Package queue implements ParseQueue and AnalysisQueue (spec §4.2).
package queue

import (
	"context"

	"golang.org/x/sync/singleflight"

	"glint/internal/corelsp/contract"
)

// ParseFunc performs the actual parse and returns a cookie.
type ParseFunc func(ctx context.Context) (contract.ParseCookie, error)

// ParseQueue is a single-flight parse scheduler per document: concurrent
// Submit calls for the same URI coalesce onto one parser invocation and
// share its result, exactly the dedup golang.org/x/sync/singleflight is
// built for. Because Group.Do for a given key either joins an in-flight
// call or starts a fresh one only once the prior one has returned, two
// non-overlapping Submit calls for the same URI always run strictly in
// submission order — the per-document ordering spec §4.2 asks for.
// Dropping an intent when too many are already in flight is the
// pipeline's job (ParseAnalyzePipeline's VolatileCounter throttle, spec
// §4.5), not this queue's.
type ParseQueue struct {
	group singleflight.Group
}

func NewParseQueue() *ParseQueue {
	return &ParseQueue{}
}

// Submit schedules uri for parsing via fn and returns the resulting
// cookie, which may be shared with other concurrent Submit calls for the
// same uri.
func (q *ParseQueue) Submit(ctx context.Context, uri string, fn ParseFunc) (contract.ParseCookie, error) {
	v, err, _ := q.group.Do(uri, func() (any, error) {
		return fn(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(contract.ParseCookie), nil
}

// Forget detaches any in-flight call for uri, so the next Submit starts a
// fresh parse rather than joining one that is still running.
func (q *ParseQueue) Forget(uri string) {
	q.group.Forget(uri)
}
