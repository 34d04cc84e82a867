package resolve

import (
	"glint/internal/corelsp/contract"
)

// Symbol is one workspace/symbol result.
type Symbol struct {
	Name string
	URI  string
	Kind contract.MemberKind
}

// WorkspaceSymbols serves workspace/symbol (spec §4.7): delegate straight
// to the analyzer's indexed prefix search rather than walking every entry
// in Go, so a large workspace stays a single query instead of a linear
// scan over every known document.
func (r *Resolver) WorkspaceSymbols(query string) []Symbol {
	analyzer := r.analyzer.Load()
	if analyzer == nil {
		return nil
	}

	symbols := analyzer.WorkspaceSymbols(query)
	out := make([]Symbol, 0, len(symbols))
	for _, s := range symbols {
		out = append(out, Symbol{Name: s.Name, URI: s.URI, Kind: s.Kind})
	}
	return out
}
