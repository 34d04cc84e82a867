package queue

import (
	"context"
	"errors"
	"sync"

	"glint/internal/corelsp/lockutil"
	"glint/internal/corelsp/vcounter"
)

// Priority is one of three analysis priorities; higher values drain
// first, and within one priority items are FIFO.
type Priority int

const (
	Low Priority = iota
	Normal
	High
)

// ErrClosed is returned by Dequeue once the queue has been shut down and
// drained.
var ErrClosed = errors.New("analysis queue closed")

// Item is one unit of analysis work.
type Item struct {
	Priority Priority
	Run      func(ctx context.Context) error
}

// AnalysisQueue is a priority FIFO with cooperative cancellation. Nothing
// in the retrieval pack ships a generics priority queue, so this stays a
// hand-rolled three-bucket ring guarded by a mutex+cond — see DESIGN.md.
type AnalysisQueue struct {
	mu     lockutil.Mutex
	cond   *sync.Cond
	queues [3][]Item // indexed by Priority
	closed bool

	inflight *vcounter.Counter
	errCh    chan error
}

func NewAnalysisQueue() *AnalysisQueue {
	q := &AnalysisQueue{
		inflight: vcounter.New(),
		errCh:    make(chan error, 16),
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Enqueue adds item at priority p.
func (q *AnalysisQueue) Enqueue(item Item, p Priority) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.queues[p] = append(q.queues[p], item)
	q.mu.Unlock()
	q.cond.Signal()
}

// Count returns the total number of items queued, across all priorities,
// not counting items currently executing.
func (q *AnalysisQueue) Count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for _, bucket := range q.queues {
		n += len(bucket)
	}
	return n
}

// dequeue pops the highest-priority oldest item, blocking until one is
// available, the queue is closed, or ctx is done.
func (q *AnalysisQueue) dequeue(ctx context.Context) (Item, error) {
	stop := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		q.cond.Broadcast()
		q.mu.Unlock()
	})
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()
	for {
		for p := High; p >= Low; p-- {
			if len(q.queues[p]) > 0 {
				item := q.queues[p][0]
				q.queues[p] = q.queues[p][1:]
				return item, nil
			}
		}
		if q.closed {
			return Item{}, ErrClosed
		}
		if ctx.Err() != nil {
			return Item{}, ctx.Err()
		}
		q.cond.Wait()
	}
}

// Run starts n worker goroutines draining the queue until ctx is done or
// the queue is closed. Each item's Run is invoked with ctx; every
// returned error is pushed to the unhandled-exception channel exposed by
// Errors(), where the consumer logs context.Canceled at Warning and
// anything else at Error.
func (q *AnalysisQueue) Run(ctx context.Context, n int) {
	for i := 0; i < n; i++ {
		go q.worker(ctx)
	}
}

func (q *AnalysisQueue) worker(ctx context.Context) {
	for {
		item, err := q.dequeue(ctx)
		if err != nil {
			return
		}
		release := q.inflight.Increment()
		func() {
			defer release()
			defer func() {
				if r := recover(); r != nil {
					q.reportError(errors.New("analysis task panicked"))
				}
			}()
			if err := item.Run(ctx); err != nil {
				q.reportError(err)
			}
		}()
	}
}

func (q *AnalysisQueue) reportError(err error) {
	select {
	case q.errCh <- err:
	default:
	}
}

// Errors exposes the unhandled-exception signal.
func (q *AnalysisQueue) Errors() <-chan error {
	return q.errCh
}

// WaitForComplete blocks until the queue is empty and no item is
// currently executing.
func (q *AnalysisQueue) WaitForComplete(ctx context.Context) error {
	for {
		if q.Count() == 0 && q.inflight.IsZero() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := q.inflight.WaitForZero(ctx); err != nil {
			return err
		}
		if q.Count() == 0 {
			return nil
		}
	}
}

// Shutdown marks the queue closed; pending items are dropped and
// in-flight dequeues return ErrClosed.
func (q *AnalysisQueue) Shutdown() {
	q.mu.Lock()
	q.closed = true
	q.queues = [3][]Item{}
	q.mu.Unlock()
	q.cond.Broadcast()
}
