// Package docstore implements the DocumentStore: a concurrent URI->Entry
// map with fragment-insensitive identity, plus the per-document
// pending-parse counter other core components key off of an Entry.
package docstore

import (
	"context"
	"sync"

	"glint/internal/corelsp/contract"
)

// Store owns every Document Entry. Reads never block (sync.Map), per
// spec §5's "DocumentStore map: lock-free concurrent" policy.
type Store struct {
	entries sync.Map // base URI -> *Entry
}

func NewStore() *Store {
	return &Store{}
}

// GetOrAdd inserts entry under uri's base if none exists yet, atomically.
// It returns the entry that ended up stored — entry itself on a fresh
// insert, or the pre-existing one on a concurrent race (spec invariant 1
// and the "idempotent open" law are both upheld by callers re-resetting
// the returned entry's Doc when it already existed).
func (s *Store) GetOrAdd(uri string, entry *Entry) (actual *Entry, inserted bool) {
	base := Base(uri)
	v, loaded := s.entries.LoadOrStore(base, entry)
	return v.(*Entry), !loaded
}

// Get looks up the entry for uri (any fragment). When throwIfMissing is
// true and no entry exists, it returns contract.ErrUnknownDocument.
func (s *Store) Get(uri string, throwIfMissing bool) (*Entry, error) {
	base := Base(uri)
	v, ok := s.entries.Load(base)
	if !ok {
		if throwIfMissing {
			return nil, contract.ErrUnknownDocument(uri)
		}
		return nil, nil
	}
	return v.(*Entry), nil
}

// Remove deletes the entry for uri, returning it if one existed.
func (s *Store) Remove(uri string) (*Entry, bool) {
	base := Base(uri)
	v, ok := s.entries.LoadAndDelete(base)
	if !ok {
		return nil, false
	}
	return v.(*Entry), true
}

// GetPart parses uri's fragment; 0 if absent, malformed, or non-integer.
func (s *Store) GetPart(uri string) int {
	return GetPart(uri)
}

// Range iterates every known entry. The callback must not call back into
// Store mutators.
func (s *Store) Range(fn func(*Entry) bool) {
	s.entries.Range(func(_, v any) bool {
		return fn(v.(*Entry))
	})
}

// Reset implements the "idempotent open" law: didOpen of an already-
// present URI resets the document in place rather than creating a
// duplicate entry.
func (e *Entry) Reset(ctx context.Context, part, version int, text string) error {
	e.mu.Lock()
	doc := e.Doc
	e.mu.Unlock()
	if doc == nil {
		return contract.ErrUnknownDocument(e.URI)
	}
	t := text
	return doc.Reset(part, version, &t)
}
