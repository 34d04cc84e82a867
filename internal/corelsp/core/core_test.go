package core_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"glint/internal/corelsp/contract"
	"glint/internal/corelsp/core"
	"glint/internal/corelsp/loader"
)

type fakeDoc struct {
	mu      sync.Mutex
	version int
	text    string
}

func (d *fakeDoc) GetVersion(int) int { d.mu.Lock(); defer d.mu.Unlock(); return d.version }

func (d *fakeDoc) Reset(_ int, version int, text *string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.version = version
	if text != nil {
		d.text = *text
	}
	return nil
}

func (d *fakeDoc) Update(context.Context, int, int, int, []contract.Change) error { return nil }
func (d *fakeDoc) Parts() []int                                                   { return []int{0} }
func (d *fakeDoc) IsClosed(int) bool                                              { return false }

type fakeCookie struct{ id string }

func (c fakeCookie) ID() string      { return c.id }
func (c fakeCookie) Parts() []int    { return []int{0} }
func (c fakeCookie) Version(int) int { return 1 }

// countingParser hands out a fresh cookie ID per call, the way a real
// parser's cookie ID changes across re-parses.
type countingParser struct {
	mu    sync.Mutex
	calls int
}

func (p *countingParser) Parse(context.Context, contract.Document, int) (contract.ParseCookie, error) {
	p.mu.Lock()
	p.calls++
	id := p.calls
	p.mu.Unlock()
	return fakeCookie{id: idOf(id)}, nil
}

func idOf(n int) string {
	return "cookie-" + string(rune('0'+n))
}

type fakeEntry struct{ uri, name string }

func (e fakeEntry) URI() string           { return e.uri }
func (e fakeEntry) QualifiedName() string { return e.name }

// fakeAnalyzer records every call the cascades in Core are responsible
// for making, and lets a test script which modules import which.
type fakeAnalyzer struct {
	mu sync.Mutex

	added        []string
	aliasesAdded []string
	removed      []string
	reloaded     bool

	// importers maps a module/alias name to the entries that import it,
	// for EntriesImporting.
	importers map[string][]contract.Entry
}

func newFakeAnalyzer() *fakeAnalyzer {
	return &fakeAnalyzer{importers: make(map[string][]contract.Entry)}
}

func (a *fakeAnalyzer) AddModule(_ context.Context, name, _, uri string, _ contract.ParseCookie) (contract.Entry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.added = append(a.added, name)
	return fakeEntry{uri: uri, name: name}, nil
}

func (a *fakeAnalyzer) AddModuleAlias(alias, _ string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.aliasesAdded = append(a.aliasesAdded, alias)
	return nil
}

func (a *fakeAnalyzer) RemoveModule(name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.removed = append(a.removed, name)
	return nil
}

func (a *fakeAnalyzer) EntriesImporting(name string, _ bool) []contract.Entry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.importers[name]
}

func (a *fakeAnalyzer) SearchPaths() []string                                { return nil }
func (a *fakeAnalyzer) GetDiagnostics(contract.Entry) []contract.Diagnostic   { return nil }
func (a *fakeAnalyzer) ReloadModules() error                                 { a.reloaded = true; return nil }
func (a *fakeAnalyzer) MembersOf(contract.Entry, string) ([]contract.Member, error) {
	return nil, nil
}
func (a *fakeAnalyzer) NamesAt(contract.Entry, contract.Position) ([]contract.Member, error) {
	return nil, nil
}
func (a *fakeAnalyzer) OverloadsOf(contract.Entry, string) ([]contract.Overload, error) {
	return nil, nil
}
func (a *fakeAnalyzer) VariablesOf(contract.Entry, string, contract.Position) ([]contract.Variable, error) {
	return nil, nil
}
func (a *fakeAnalyzer) ModuleDeclaration(string) (contract.Variable, bool) {
	return contract.Variable{}, false
}
func (a *fakeAnalyzer) WorkspaceSymbols(string) []contract.Symbol { return nil }

func (a *fakeAnalyzer) snapshot() (added, aliases, removed []string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.added...), append([]string(nil), a.aliasesAdded...), append([]string(nil), a.removed...)
}

type packagingRules struct{}

func (packagingRules) RequiresInitFile() bool     { return false }
func (packagingRules) HasInitFile(string) bool    { return true }
func (packagingRules) IsSourceFile(name string) bool { return true }
func (packagingRules) Analyzable(string) bool     { return true }

var _ loader.PackagingRules = packagingRules{}

type nilSink struct{}

func (nilSink) Publish(string, int, int, []contract.Diagnostic) {}

func newCore(analyzer contract.Analyzer, parser contract.Parser) *core.Core {
	return core.New(core.Options{
		Doc:                func() contract.Document { return &fakeDoc{} },
		Parser:             parser,
		Analyzer:           contract.NewAnalyzerHandle(analyzer),
		Sink:               nilSink{},
		Rules:              packagingRules{},
		CompletionsTimeout: 0,
	})
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}

// didOpen registers the module with the analyzer, through the
// onParseComplete cascade, without the transport layer ever calling
// AddModule directly.
func TestDidOpenRegistersModule(t *testing.T) {
	analyzer := newFakeAnalyzer()
	c := newCore(analyzer, &countingParser{})

	c.DidOpen(context.Background(), "file:///work/foo.py", 1, "x = 1", true)

	waitFor(t, time.Second, func() bool {
		added, _, _ := analyzer.snapshot()
		return len(added) == 1
	})

	added, _, _ := analyzer.snapshot()
	if added[0] != "foo" {
		t.Fatalf("expected module name %q, got %q", "foo", added[0])
	}
}

// A document opened once and re-parsed (e.g. via didChange) is handed to
// AddModule again on every parse with a new cookie, so the analyzer sees
// its fresh declarations; only alias registration is limited to the
// first parse.
func TestReparseCallsAddModuleAgain(t *testing.T) {
	analyzer := newFakeAnalyzer()
	parser := &countingParser{}
	c := newCore(analyzer, parser)

	c.DidOpen(context.Background(), "file:///work/bar.py", 1, "x = 1", true)
	waitFor(t, time.Second, func() bool {
		added, _, _ := analyzer.snapshot()
		return len(added) == 1
	})

	// Re-open with new text and a version bump; forces another Parse.
	c.DidOpen(context.Background(), "file:///work/bar.py", 2, "x = 2", true)
	waitFor(t, time.Second, func() bool {
		return parser.calls >= 2
	})
	time.Sleep(50 * time.Millisecond)

	added, _, _ := analyzer.snapshot()
	if len(added) != 2 {
		t.Fatalf("expected AddModule called once per parse (2 parses), got %d calls: %v", len(added), added)
	}
}

// Deleting an entry removes every module name it registered and
// re-enqueues every importer (spec §8's module deletion cascade).
func TestDeleteCascadesToImporters(t *testing.T) {
	analyzer := newFakeAnalyzer()
	parser := &countingParser{}
	c := newCore(analyzer, parser)

	c.DidOpen(context.Background(), "file:///work/dep.py", 1, "y = 1", true)
	waitFor(t, time.Second, func() bool {
		added, _, _ := analyzer.snapshot()
		return len(added) == 1
	})

	importerURI := "file:///work/importer.py"
	c.DidOpen(context.Background(), importerURI, 1, "import dep", true)
	waitFor(t, time.Second, func() bool {
		added, _, _ := analyzer.snapshot()
		return len(added) == 2
	})

	analyzer.mu.Lock()
	analyzer.importers["dep"] = []contract.Entry{fakeEntry{uri: importerURI, name: "importer"}}
	analyzer.mu.Unlock()

	callsBefore := parser.calls
	c.Delete(context.Background(), "file:///work/dep.py")

	waitFor(t, time.Second, func() bool {
		_, _, removed := analyzer.snapshot()
		return len(removed) == 1
	})
	_, _, removed := analyzer.snapshot()
	if removed[0] != "dep" {
		t.Fatalf("expected RemoveModule(\"dep\"), got %v", removed)
	}

	// The importer must have been re-enqueued for re-parse.
	waitFor(t, time.Second, func() bool {
		return parser.calls > callsBefore
	})
}

// Reload re-parses every known entry and calls ReloadModules on the
// analyzer (workspace/didChangeConfiguration, spec §6).
func TestReloadReparsesEverything(t *testing.T) {
	analyzer := newFakeAnalyzer()
	parser := &countingParser{}
	c := newCore(analyzer, parser)

	c.DidOpen(context.Background(), "file:///work/one.py", 1, "x = 1", true)
	waitFor(t, time.Second, func() bool { return parser.calls >= 1 })

	callsBefore := parser.calls
	c.Reload(context.Background())

	waitFor(t, time.Second, func() bool { return parser.calls > callsBefore })
	if !analyzer.reloaded {
		t.Fatal("expected ReloadModules to be called")
	}
}

// Shutdown clears the analyzer handle; a parse that completes afterward
// must not call into the analyzer (spec §5's cancellation model).
func TestShutdownStopsAnalyzerCalls(t *testing.T) {
	analyzer := newFakeAnalyzer()
	parser := &countingParser{}
	c := newCore(analyzer, parser)

	c.Shutdown()
	c.DidOpen(context.Background(), "file:///work/late.py", 1, "x = 1", true)

	time.Sleep(100 * time.Millisecond)
	added, _, _ := analyzer.snapshot()
	if len(added) != 0 {
		t.Fatalf("expected no AddModule calls after shutdown, got %v", added)
	}
}
