package reconcile_test

import (
	"context"
	"testing"

	"glint/internal/corelsp/contract"
	"glint/internal/corelsp/docstore"
	"glint/internal/corelsp/reconcile"
)

// textDocument is a single-line, single-part fake contract.Document that
// actually applies character-offset edits, so the reordering law and
// scenario 1 from spec §8 can be exercised end to end.
type textDocument struct {
	version int
	text    string
	closed  bool
}

func newTextDocument(version int, text string) *textDocument {
	return &textDocument{version: version, text: text}
}

func (d *textDocument) GetVersion(part int) int {
	if part != 0 {
		return -1
	}
	return d.version
}

func (d *textDocument) Reset(part, version int, text *string) error {
	d.version = version
	if text != nil {
		d.text = *text
		d.closed = false
	} else {
		d.closed = true
	}
	return nil
}

func (d *textDocument) Update(_ context.Context, part, from, to int, changes []contract.Change) error {
	d.closed = false
	for _, c := range changes {
		if c.Range == nil {
			d.text = c.NewText
			continue
		}
		start := int(c.Range.Start.Character)
		end := int(c.Range.End.Character)
		if start > len(d.text) {
			start = len(d.text)
		}
		if end > len(d.text) {
			end = len(d.text)
		}
		d.text = d.text[:start] + c.NewText + d.text[end:]
	}
	d.version = to
	return nil
}

func (d *textDocument) Parts() []int { return []int{0} }

func (d *textDocument) IsClosed(part int) bool {
	return part == 0 && d.closed
}

func newReconciler(t *testing.T, uri string, doc contract.Document) (*reconcile.Reconciler, *docstore.Store, *[]string) {
	t.Helper()
	store := docstore.NewStore()
	entry := docstore.NewEntry(docstore.Base(uri), doc, true)
	store.GetOrAdd(uri, entry)

	enqueued := &[]string{}
	r := reconcile.New(store, func(u string) { *enqueued = append(*enqueued, u) })
	return r, store, enqueued
}

func rng(startCh, endCh uint32) *contract.Range {
	return &contract.Range{
		Start: contract.Position{Character: startCh},
		End:   contract.Position{Character: endCh},
	}
}

// TestOutOfOrderEdits is spec §8 scenario 1.
func TestOutOfOrderEdits(t *testing.T) {
	doc := newTextDocument(1, "x")
	r, _, _ := newReconciler(t, "file:///a", doc)
	ctx := context.Background()

	// v3: delete char 0.
	err := r.Apply(ctx, reconcile.Notification{
		URI:           "file:///a",
		HasVersion:    true,
		TargetVersion: 3,
		Edits:         []contract.Change{{Range: rng(0, 1), NewText: ""}},
	})
	if err != nil {
		t.Fatalf("apply v3: %v", err)
	}
	if doc.text != "x" {
		t.Fatalf("expected v3 to be deferred, text changed to %q", doc.text)
	}

	// v2: insert "y" at offset 1.
	err = r.Apply(ctx, reconcile.Notification{
		URI:           "file:///a",
		HasVersion:    true,
		TargetVersion: 2,
		Edits:         []contract.Change{{Range: rng(1, 1), NewText: "y"}},
	})
	if err != nil {
		t.Fatalf("apply v2: %v", err)
	}

	if doc.text != "y" {
		t.Fatalf("expected final text %q, got %q", "y", doc.text)
	}
	if doc.version != 3 {
		t.Fatalf("expected final version 3, got %d", doc.version)
	}
}

func TestReorderingToleranceLaw(t *testing.T) {
	// Any permutation of a contiguous [v, v+k] range converges to the
	// same text as strict in-order application.
	perms := [][]int{
		{2, 3, 4},
		{4, 3, 2},
		{3, 2, 4},
		{2, 4, 3},
	}
	edits := map[int]contract.Change{
		2: {Range: rng(0, 0), NewText: "a"},
		3: {Range: rng(1, 1), NewText: "b"},
		4: {Range: rng(2, 2), NewText: "c"},
	}

	var results []string
	for _, order := range perms {
		doc := newTextDocument(1, "")
		r, _, _ := newReconciler(t, "file:///p", doc)
		ctx := context.Background()
		for _, v := range order {
			if err := r.Apply(ctx, reconcile.Notification{
				URI:           "file:///p",
				HasVersion:    true,
				TargetVersion: v,
				Edits:         []contract.Change{edits[v]},
			}); err != nil {
				t.Fatalf("apply v%d: %v", v, err)
			}
		}
		results = append(results, doc.text)
	}

	for i := 1; i < len(results); i++ {
		if results[i] != results[0] {
			t.Fatalf("permutation %v produced %q, want %q", perms[i], results[i], results[0])
		}
	}
}

func TestUnknownDocumentOnChange(t *testing.T) {
	store := docstore.NewStore()
	r := reconcile.New(store, func(string) {})
	err := r.Apply(context.Background(), reconcile.Notification{URI: "file:///missing", HasVersion: true, TargetVersion: 1})
	if err == nil {
		t.Fatalf("expected UnknownDocument error")
	}
	if code, ok := contract.CodeOf(err); !ok || code != contract.CodeUnknownDocument {
		t.Fatalf("expected CodeUnknownDocument, got %v", err)
	}
}

// TestUnknownDocumentOnChangeAfterClose is spec §8 invariant 5: close
// followed by change for the same URI fails UnknownDocument, since no
// open happened in between.
func TestUnknownDocumentOnChangeAfterClose(t *testing.T) {
	doc := newTextDocument(1, "x")
	r, store, _ := newReconciler(t, "file:///a", doc)
	ctx := context.Background()

	entry, err := store.Get("file:///a", true)
	if err != nil {
		t.Fatalf("get entry: %v", err)
	}
	if err := entry.Close(0); err != nil {
		t.Fatalf("close: %v", err)
	}

	err = r.Apply(ctx, reconcile.Notification{
		URI:           "file:///a",
		HasVersion:    true,
		TargetVersion: 2,
		Edits:         []contract.Change{{Range: rng(0, 1), NewText: "y"}},
	})
	if err == nil {
		t.Fatalf("expected UnknownDocument error after close without reopen")
	}
	if code, ok := contract.CodeOf(err); !ok || code != contract.CodeUnknownDocument {
		t.Fatalf("expected CodeUnknownDocument, got %v", err)
	}
}

// TestChangeSucceedsAfterReopen is the other half of invariant 5: a
// reopen (Reset with real text) since the close clears the closed state,
// so change succeeds again.
func TestChangeSucceedsAfterReopen(t *testing.T) {
	doc := newTextDocument(1, "x")
	r, store, _ := newReconciler(t, "file:///a", doc)
	ctx := context.Background()

	entry, err := store.Get("file:///a", true)
	if err != nil {
		t.Fatalf("get entry: %v", err)
	}
	if err := entry.Close(0); err != nil {
		t.Fatalf("close: %v", err)
	}
	text := "reopened"
	if err := entry.Doc.Reset(0, 1, &text); err != nil {
		t.Fatalf("reopen: %v", err)
	}

	err = r.Apply(ctx, reconcile.Notification{
		URI:           "file:///a",
		HasVersion:    true,
		TargetVersion: 2,
		Edits:         []contract.Change{{Range: rng(0, 0), NewText: "X"}},
	})
	if err != nil {
		t.Fatalf("unexpected error after reopen: %v", err)
	}
	if doc.text != "Xreopened" {
		t.Fatalf("expected edit to apply after reopen, got %q", doc.text)
	}
}

func TestMissingVersionAppliesAgainstCurrent(t *testing.T) {
	// Open question resolution: a notification with no declared version
	// applies against vCur and advances by len(edits).
	doc := newTextDocument(5, "abc")
	r, _, _ := newReconciler(t, "file:///q", doc)
	err := r.Apply(context.Background(), reconcile.Notification{
		URI:        "file:///q",
		HasVersion: false,
		Edits:      []contract.Change{{Range: rng(0, 0), NewText: "-"}},
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if doc.version != 6 {
		t.Fatalf("expected version vFrom+len(edits) = 6, got %d", doc.version)
	}
}

func TestEnqueuesForAnalysisUnlessSkipped(t *testing.T) {
	doc := newTextDocument(1, "x")
	r, _, enqueued := newReconciler(t, "file:///e", doc)
	_ = r.Apply(context.Background(), reconcile.Notification{
		URI: "file:///e", HasVersion: true, TargetVersion: 2,
		Edits: []contract.Change{{Range: rng(0, 0), NewText: "y"}},
	})
	if len(*enqueued) == 0 {
		t.Fatalf("expected enqueue callback to fire")
	}
}
