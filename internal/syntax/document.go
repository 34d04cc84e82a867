// Package syntax is glint's default production syntax layer: a
// tree-sitter-backed contract.Document/contract.Parser pair, generalizing
// the teacher's IncrementalParser (one buffer, one cgo-compiled grammar)
// into the multi-part, registry-driven shape spec.md needs (the Part
// glossary entry, and design note 9's "registry keyed by identifier" in
// place of reflection-based loading).
package syntax

import (
	"context"
	"sort"

	"glint/internal/corelsp/contract"
	"glint/internal/corelsp/lockutil"
)

type partState struct {
	version int
	text    []byte
	// closed marks a part that was reset to disk-backed (Reset with nil
	// text) and not reopened since. Kept as its own flag rather than
	// deleting the map entry, so IsClosed can tell "closed" apart from
	// "never opened" — both report version -1, but only one is the
	// close-without-reopen state spec invariant 5 cares about.
	closed bool
}

// Document is the default production contract.Document: an in-memory,
// per-part text buffer guarded by a single coarse lock.
type Document struct {
	mu    lockutil.Mutex
	parts map[int]*partState
}

// NewDocument returns an empty, disk-backed Document; callers populate a
// part with Reset once it is opened.
func NewDocument() *Document {
	return &Document{parts: make(map[int]*partState)}
}

// GetVersion implements contract.Document.
func (d *Document) GetVersion(part int) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.parts[part]
	if !ok {
		return -1
	}
	return p.version
}

// Reset implements contract.Document. text == nil closes the part back to
// disk-backed (the spec's "close resets to -1" path): the part stays
// tracked, marked closed, so reconcile.Reconciler rejects a subsequent
// change without an intervening real open. A non-nil
// text always reopens the part, closed or not.
func (d *Document) Reset(part int, version int, text *string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if text == nil {
		d.parts[part] = &partState{version: -1, closed: true}
		return nil
	}
	d.parts[part] = &partState{version: version, text: []byte(*text)}
	return nil
}

// IsClosed implements contract.Document.
func (d *Document) IsClosed(part int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.parts[part]
	return ok && p.closed
}

// Update implements contract.Document: apply changes to part, moving it
// from fromVersion to toVersion. A nil Range means whole-buffer replace.
// Update does not itself reject a part that was closed and never
// reopened: it clears the closed flag and applies the changes. Spec
// invariant 5 is enforced by the caller (reconcile.Reconciler), which
// checks IsClosed before calling Update and raises UnknownDocument
// itself, since only it carries the URI an error needs.
func (d *Document) Update(_ context.Context, part int, _, toVersion int, changes []contract.Change) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.parts[part]
	if !ok {
		p = &partState{}
		d.parts[part] = p
	}
	p.closed = false

	for _, ch := range changes {
		if ch.Range == nil {
			p.text = []byte(ch.NewText)
			continue
		}
		start := offsetOf(p.text, ch.Range.Start)
		end := offsetOf(p.text, ch.Range.End)
		next := make([]byte, 0, len(p.text)-(end-start)+len(ch.NewText))
		next = append(next, p.text[:start]...)
		next = append(next, []byte(ch.NewText)...)
		next = append(next, p.text[end:]...)
		p.text = next
	}
	p.version = toVersion
	return nil
}

// Parts implements contract.Document.
func (d *Document) Parts() []int {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]int, 0, len(d.parts))
	for p := range d.parts {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}

// Text returns a copy of part's current buffer. Not part of
// contract.Document: only this package's own Parser needs raw bytes, and
// keeping it off the interface stops other collaborators from mutating
// it behind the lock.
func (d *Document) Text(part int) ([]byte, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.parts[part]
	if !ok {
		return nil, false
	}
	out := make([]byte, len(p.text))
	copy(out, p.text)
	return out, true
}

func offsetOf(text []byte, pos contract.Position) int {
	line, col := uint32(0), uint32(0)
	for i, b := range text {
		if line == pos.Line && col == pos.Character {
			return i
		}
		if b == '\n' {
			line++
			col = 0
		} else {
			col++
		}
	}
	return len(text)
}
