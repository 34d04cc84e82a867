// Package analysis is glint's default production contract.Analyzer: a
// symbol table per module, rebuilt from each parse's declarations and
// backed by internal/symbolindex for the name lookups completion,
// hover, references and workspace/symbol all need. It intentionally does
// no real dynamic-language type inference or call-target resolution -
// spec.md §1 scopes "resolve type hierarchies" out of the core, and this
// is the concrete collaborator the core talks to through
// internal/corelsp/contract, not the core itself.
package analysis

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"glint/internal/corelsp/contract"
	"glint/internal/interpreterfactory"
	"glint/internal/symbolindex"
	"glint/internal/syntax"
)

// RegisterBuiltin wires glint's own Analyzer into the interpreterfactory
// registry under id, closing over the shared symbol index so that an
// interpreter.assembly naming id resolves to this package's Analyzer
// rather than an out-of-tree plugin (design note 9's "registry keyed by
// identifier" path, as opposed to LoadPlugin's dynamic-library path).
func RegisterBuiltin(id string, index *symbolindex.Index) {
	interpreterfactory.Register(id, func(map[string]interface{}, string) (contract.Analyzer, error) {
		return New(index), nil
	})
}

// module is the Analyzer's contract.Entry implementation: an opaque
// handle the core stores on a Document Entry and passes back for every
// subsequent analyzer call.
type module struct {
	name string
	path string
	uri  string
}

func (m *module) URI() string           { return m.uri }
func (m *module) QualifiedName() string { return m.name }

// Analyzer implements contract.Analyzer.
type Analyzer struct {
	index *symbolindex.Index

	mu      sync.RWMutex
	modules map[string]*module          // qualified name / alias -> module
	byURI   map[string]*module          // uri -> module
	imports map[string]map[string]bool  // module name -> names it imports
}

// New builds an Analyzer backed by index. index is owned by the caller;
// Analyzer never closes it.
func New(index *symbolindex.Index) *Analyzer {
	return &Analyzer{
		index:   index,
		modules: make(map[string]*module),
		byURI:   make(map[string]*module),
		imports: make(map[string]map[string]bool),
	}
}

// AddModule implements contract.Analyzer.
func (a *Analyzer) AddModule(_ context.Context, name, path, uri string, cookie contract.ParseCookie) (contract.Entry, error) {
	sc, ok := cookie.(*syntax.Cookie)
	if !ok {
		return nil, contract.ErrInternal(fmt.Errorf("analysis.Analyzer requires a *syntax.Cookie, got %T", cookie))
	}
	decls := sc.AllDeclarations()

	a.mu.Lock()
	m, exists := a.modules[name]
	if !exists {
		m = &module{name: name, path: path, uri: uri}
		a.modules[name] = m
	}
	a.byURI[uri] = m

	imported := make(map[string]bool)
	for _, d := range decls {
		if d.Kind == contract.MemberModule {
			imported[d.Name] = true
		}
	}
	a.imports[name] = imported
	a.mu.Unlock()

	rows := make([]symbolindex.Row, 0, len(decls))
	for _, d := range decls {
		rows = append(rows, symbolindex.Row{Module: name, URI: uri, Name: d.Name, Kind: d.Kind})
	}
	if err := a.index.Reindex(name, rows); err != nil {
		return nil, contract.ErrInternal(err)
	}

	return m, nil
}

// AddModuleAlias implements contract.Analyzer.
func (a *Analyzer) AddModuleAlias(alias, name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	m, ok := a.modules[name]
	if !ok {
		return fmt.Errorf("analysis: unknown module %q for alias %q", name, alias)
	}
	a.modules[alias] = m
	return nil
}

// RemoveModule implements contract.Analyzer.
func (a *Analyzer) RemoveModule(name string) error {
	a.mu.Lock()
	m, ok := a.modules[name]
	if ok {
		delete(a.modules, name)
		delete(a.imports, name)
		if a.byURI[m.uri] == m {
			delete(a.byURI, m.uri)
		}
	}
	a.mu.Unlock()

	if !ok {
		return nil
	}
	return a.index.Remove(name)
}

// EntriesImporting implements contract.Analyzer: every module whose
// import set (directly, or transitively when recursive) contains name.
func (a *Analyzer) EntriesImporting(name string, recursive bool) []contract.Entry {
	a.mu.RLock()
	defer a.mu.RUnlock()

	visited := make(map[string]bool)
	var out []contract.Entry

	var visit func(target string)
	visit = func(target string) {
		for modName, imports := range a.imports {
			if visited[modName] || !imports[target] {
				continue
			}
			visited[modName] = true
			if m, ok := a.modules[modName]; ok {
				out = append(out, m)
			}
			if recursive {
				visit(modName)
			}
		}
	}
	visit(name)
	return out
}

// SearchPaths implements contract.Analyzer. glint's analyzer keeps no
// notion of external search paths beyond the workspace itself.
func (a *Analyzer) SearchPaths() []string { return nil }

// GetDiagnostics implements contract.Analyzer: a module with two
// declarations sharing both a name and a kind is flagged, the one real
// semantic check
// this minimal analyzer performs.
func (a *Analyzer) GetDiagnostics(entry contract.Entry) []contract.Diagnostic {
	m, ok := entry.(*module)
	if !ok {
		return nil
	}
	rows, err := a.index.ByModule(m.name)
	if err != nil {
		return nil
	}

	seen := make(map[string]symbolindex.Row)
	var diags []contract.Diagnostic
	for _, r := range rows {
		if prior, dup := seen[r.Name]; dup && prior.Kind == r.Kind {
			diags = append(diags, contract.Diagnostic{
				Severity: contract.SeverityWarning,
				Message:  fmt.Sprintf("%q is declared more than once", r.Name),
				Source:   "glint",
			})
			continue
		}
		seen[r.Name] = r
	}
	return diags
}

// ReloadModules implements contract.Analyzer. glint's symbol table is
// rebuilt per-parse already; a workspace-wide reload is a no-op here.
func (a *Analyzer) ReloadModules() error { return nil }

// MembersOf implements contract.Analyzer: members of the module named by
// expr's leading segment (e.g. "os" in "os.path").
func (a *Analyzer) MembersOf(_ contract.Entry, expr string) ([]contract.Member, error) {
	base := expr
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}

	a.mu.RLock()
	_, ok := a.modules[base]
	a.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	rows, err := a.index.ByModule(base)
	if err != nil {
		return nil, contract.ErrInternal(err)
	}
	return membersFromRows(rows), nil
}

// NamesAt implements contract.Analyzer: every name entry's own module
// declares, used as completion's fallback when no member expression is
// found at pos.
func (a *Analyzer) NamesAt(entry contract.Entry, _ contract.Position) ([]contract.Member, error) {
	m, ok := entry.(*module)
	if !ok {
		return nil, nil
	}
	rows, err := a.index.ByModule(m.name)
	if err != nil {
		return nil, contract.ErrInternal(err)
	}
	return membersFromRows(rows), nil
}

// OverloadsOf implements contract.Analyzer: the single declared function
// matching expr's trailing name segment within entry's own module.
// glint tracks no overload sets (a dynamically-typed scripting language
// has at most one definition per name in scope); "overloads" is always
// a slice of zero or one.
func (a *Analyzer) OverloadsOf(entry contract.Entry, expr string) ([]contract.Overload, error) {
	m, ok := entry.(*module)
	if !ok {
		return nil, nil
	}
	name := expr
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}

	rows, err := a.index.ByModule(m.name)
	if err != nil {
		return nil, contract.ErrInternal(err)
	}
	for _, r := range rows {
		if r.Name == name && r.Kind == contract.MemberFunction {
			return []contract.Overload{{Label: name, Parameters: nil}}, nil
		}
	}
	return nil, nil
}

// VariablesOf implements contract.Analyzer: the occurrence(s) of expr's
// trailing name within entry's own module, as declared.
func (a *Analyzer) VariablesOf(entry contract.Entry, expr string, _ contract.Position) ([]contract.Variable, error) {
	m, ok := entry.(*module)
	if !ok {
		return nil, nil
	}
	name := expr
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}

	rows, err := a.index.ByModule(m.name)
	if err != nil {
		return nil, contract.ErrInternal(err)
	}

	var out []contract.Variable
	for _, r := range rows {
		if r.Name != name {
			continue
		}
		out = append(out, contract.Variable{
			URI:      r.URI,
			Kind:     contract.VariableDefinition,
			ShortDoc: fmt.Sprintf("%s: %s", r.Name, kindLabel(r.Kind)),
		})
	}
	return out, nil
}

// ModuleDeclaration implements contract.Analyzer.
func (a *Analyzer) ModuleDeclaration(name string) (contract.Variable, bool) {
	a.mu.RLock()
	m, ok := a.modules[name]
	a.mu.RUnlock()
	if !ok {
		return contract.Variable{}, false
	}
	return contract.Variable{URI: m.uri, Kind: contract.VariableDefinition}, true
}

// WorkspaceSymbols implements contract.Analyzer: a single SQL prefix scan
// over the shared symbol index (internal/symbolindex), rather than a
// per-module linear scan, then a first-occurrence-wins dedup by name.
func (a *Analyzer) WorkspaceSymbols(query string) []contract.Symbol {
	rows, err := a.index.Prefix(query)
	if err != nil {
		return nil
	}

	seen := make(map[string]struct{}, len(rows))
	out := make([]contract.Symbol, 0, len(rows))
	for _, r := range rows {
		if _, dup := seen[r.Name]; dup {
			continue
		}
		seen[r.Name] = struct{}{}
		out = append(out, contract.Symbol{Name: r.Name, URI: r.URI, Kind: r.Kind})
	}
	return out
}

func membersFromRows(rows []symbolindex.Row) []contract.Member {
	out := make([]contract.Member, 0, len(rows))
	for _, r := range rows {
		out = append(out, contract.Member{Name: r.Name, Kind: r.Kind})
	}
	return out
}

func kindLabel(k contract.MemberKind) string {
	switch k {
	case contract.MemberFunction:
		return "function"
	case contract.MemberType:
		return "class"
	case contract.MemberModule:
		return "module"
	case contract.MemberNamedArgument:
		return "argument"
	default:
		return "variable"
	}
}
