// Package reconcile implements the ChangeReconciler: it orders, gap-
// buffers, and applies incremental edit notifications against a
// DocumentStore entry, per spec §4.4.
package reconcile

import (
	"context"
	"sort"

	"glint/internal/corelsp/contract"
	"glint/internal/corelsp/docstore"
	"glint/internal/corelsp/lockutil"
)

// Notification is one didChange-shaped request: a target version, the
// edits to apply, and whether it declared a version at all (spec's "a
// missing version field is treated as V_from + (edit count)" edge case).
type Notification struct {
	URI            string // includes fragment
	HasVersion     bool
	TargetVersion  int
	Edits          []contract.Change
	SkipAnalysis   bool // "do not enqueue for analysis" option
}

// hasWholeBufferEdit reports whether edits contains a nil-Range entry.
func hasWholeBufferEdit(edits []contract.Change) bool {
	for _, e := range edits {
		if e.Range == nil {
			return true
		}
	}
	return false
}

// EnqueueFunc is called once a notification (original or drained-pending)
// has been applied, unless SkipAnalysis was set. uri includes fragment.
type EnqueueFunc func(uri string)

// Reconciler applies ChangeReconciler notifications against a
// docstore.Store, buffering out-of-order ones until their predecessor
// version arrives.
type Reconciler struct {
	store   *docstore.Store
	enqueue EnqueueFunc

	mu      lockutil.Mutex
	pending map[string][]Notification // keyed by full (fragment-sensitive) URI
}

func New(store *docstore.Store, enqueue EnqueueFunc) *Reconciler {
	return &Reconciler{
		store:   store,
		enqueue: enqueue,
		pending: make(map[string][]Notification),
	}
}

// Apply runs the algorithm in spec §4.4 steps 1-6 for n.
func (r *Reconciler) Apply(ctx context.Context, n Notification) error {
	entry, err := r.store.Get(n.URI, true)
	if err != nil {
		return err
	}
	part := docstore.GetPart(n.URI)
	return r.applyToEntry(ctx, entry, part, n)
}

func (r *Reconciler) applyToEntry(ctx context.Context, entry *docstore.Entry, part int, n Notification) error {
	if entry.Doc == nil || entry.Doc.IsClosed(part) {
		// Spec invariant 5: close followed by change for the same URI
		// fails UnknownDocument unless a real open happened in between.
		// A -1 version alone can't distinguish "closed" from "never
		// opened", so ask the Document directly rather than inferring it
		// from vCur below.
		return contract.ErrUnknownDocument(n.URI)
	}

	vCur := entry.Version(part)
	if vCur < 0 {
		vCur = 0
	}

	vFrom := vCur
	if n.HasVersion {
		vFrom = n.TargetVersion - 1
		if vFrom < 0 {
			vFrom = 0
		}
	}

	if vFrom > vCur && !hasWholeBufferEdit(n.Edits) {
		r.defer_(n)
		return nil
	}

	toVersion := n.TargetVersion
	if !n.HasVersion {
		toVersion = vFrom + len(n.Edits)
	}

	if err := entry.Doc.Update(ctx, part, vFrom, toVersion, n.Edits); err != nil {
		return err
	}

	r.drain(ctx, entry, part, n.URI, toVersion)

	if !n.SkipAnalysis {
		r.enqueue(n.URI)
	}
	return nil
}

func (r *Reconciler) defer_(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending[n.URI] = append(r.pending[n.URI], n)
}

// drain retains pending notifications with declared version >= toVersion,
// sorts them ascending, and re-applies the smallest, pushing the rest
// back — spec §4.4 step 5.
func (r *Reconciler) drain(ctx context.Context, entry *docstore.Entry, part int, uri string, toVersion int) {
	r.mu.Lock()
	list := r.pending[uri]
	delete(r.pending, uri)
	r.mu.Unlock()

	if len(list) == 0 {
		return
	}

	kept := list[:0:0]
	for _, p := range list {
		if p.TargetVersion >= toVersion {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].TargetVersion < kept[j].TargetVersion
	})

	next := kept[0]
	rest := kept[1:]

	if len(rest) > 0 {
		r.mu.Lock()
		r.pending[uri] = append(r.pending[uri], rest...)
		r.mu.Unlock()
	}

	r.applyToEntry(ctx, entry, part, next)
}

// PendingCount reports how many deferred notifications are queued for
// uri; used by tests and diagnostics.
func (r *Reconciler) PendingCount(uri string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending[uri])
}
