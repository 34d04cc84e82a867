package docstore

import (
	"context"
	"strings"
	"time"

	"github.com/iancoleman/strcase"

	"glint/internal/corelsp/contract"
	"glint/internal/corelsp/lockutil"
	"glint/internal/corelsp/vcounter"
)

// Entry is the server's handle for a file under management (spec §3).
type Entry struct {
	// URI is the canonical, fragment-stripped identity.
	URI string

	mu lockutil.Mutex

	// Doc is nil until a buffer is bound to the entry (by didOpen, or by a
	// disk read after directory scan); while it is nil, Version reports -1
	// for every part.
	Doc contract.Document

	// Analyzable marks whether this entry's kind can be enqueued for
	// analysis (spec glossary: Analyzable).
	Analyzable bool

	// ModuleNames are the qualified name(s) the analyzer knows this entry
	// by, populated once AddModule succeeds.
	ModuleNames []string

	// Aliases is the set of additional names (computed casings, etc.)
	// this entry's module is importable as.
	Aliases map[string]struct{}

	// Cookie is the most recent parse's cookie, or nil before any parse.
	Cookie contract.ParseCookie

	// AnalysisEntry is the analyzer's opaque handle for this module, once
	// AddModule has run.
	AnalysisEntry contract.Entry

	// PendingParses bounds in-flight parse intents at 3 (spec §5).
	PendingParses *vcounter.Counter

	// parseReady is closed and replaced every time Cookie changes, so
	// RequestResolver can block on "the next parse completes".
	parseReady chan struct{}
}

// NewEntry constructs an Entry for uri. doc may be nil for a disk-backed
// entry created by directory scan.
func NewEntry(uri string, doc contract.Document, analyzable bool) *Entry {
	return &Entry{
		URI:           uri,
		Doc:           doc,
		Analyzable:    analyzable,
		Aliases:       make(map[string]struct{}),
		PendingParses: vcounter.New(),
		parseReady:    make(chan struct{}),
	}
}

// Version returns the version of part, per invariant 2 (-1 sentinel for
// disk-backed / closed).
func (e *Entry) Version(part int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Doc == nil {
		return -1
	}
	return e.Doc.GetVersion(part)
}

// SetCookie installs a new parse cookie and wakes anyone blocked in
// WaitForParse.
func (e *Entry) SetCookie(cookie contract.ParseCookie) {
	e.mu.Lock()
	e.Cookie = cookie
	ready := e.parseReady
	e.parseReady = make(chan struct{})
	e.mu.Unlock()
	close(ready)
}

// CurrentParse returns the most recent cookie, which may be nil.
func (e *Entry) CurrentParse() contract.ParseCookie {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.Cookie
}

// parseSignal returns the channel that is closed on the next SetCookie.
func (e *Entry) parseSignal() chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.parseReady
}

// WaitForParse blocks until a parse cookie is available, per spec §4.7's
// request-resolver preamble: a negative timeout waits indefinitely
// (bounded only by ctx); a non-negative one is best-effort and returns
// whatever cookie is current (possibly nil) once it elapses.
func (e *Entry) WaitForParse(ctx context.Context, timeout time.Duration) contract.ParseCookie {
	if cookie := e.CurrentParse(); cookie != nil {
		return cookie
	}

	var timeoutCh <-chan time.Time
	if timeout >= 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	for {
		signal := e.parseSignal()
		select {
		case <-signal:
			if cookie := e.CurrentParse(); cookie != nil {
				return cookie
			}
		case <-ctx.Done():
			return e.CurrentParse()
		case <-timeoutCh:
			return e.CurrentParse()
		}
	}
}

// AddAliases registers name and its computed casing variants as aliases,
// the way an editor lets a user import a file `foo-bar.glint` as
// `foo_bar` or `fooBar` interchangeably. Returns the full set added.
func (e *Entry) AddAliases(name string) []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	variants := map[string]struct{}{
		name:                       {},
		strcase.ToSnake(name):      {},
		strcase.ToCamel(name):      {},
		strcase.ToLowerCamel(name): {},
	}
	added := make([]string, 0, len(variants))
	for v := range variants {
		if v == "" {
			continue
		}
		if _, exists := e.Aliases[v]; !exists {
			e.Aliases[v] = struct{}{}
			added = append(added, v)
		}
	}
	return added
}

// HasAlias reports whether alias is exactly (case-sensitively) one of
// this entry's registered aliases.
func (e *Entry) HasAlias(alias string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.Aliases[alias]
	return ok
}

// EnsureDoc installs doc() as this entry's buffer if none is bound yet,
// and returns whichever Document ends up installed. Used both when
// DirectoryLoader lazily loads a disk-backed file's text and when
// didOpen opens (or re-opens, per the "idempotent open" law) an entry
// that a prior directory scan already created.
func (e *Entry) EnsureDoc(factory func() contract.Document) contract.Document {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Doc == nil {
		e.Doc = factory()
	}
	return e.Doc
}

// Close resets part back to the disk-backed sentinel (spec invariant 2:
// "close resets to -1"), dropping its in-memory buffer.
func (e *Entry) Close(part int) error {
	e.mu.Lock()
	doc := e.Doc
	e.mu.Unlock()
	if doc == nil {
		return contract.ErrUnknownDocument(e.URI)
	}
	return doc.Reset(part, -1, nil)
}

// AliasFromPath derives the default module alias for a file path: the
// file name's stem, with the directories and the last extension dropped.
func AliasFromPath(path string) string {
	base := path
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	return base
}
