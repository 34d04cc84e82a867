package resolve

import (
	"context"
	"sort"
	"time"

	"glint/internal/corelsp/contract"
)

// ReferencesRequest is the input to References.
type ReferencesRequest struct {
	URI                string
	Position           contract.Position
	ExpectedVersion    *int
	Timeout            time.Duration
	IncludeDeclaration bool
}

// References serves textDocument/references (spec §4.7): an import name
// at the cursor contributes the module's declaration; the expression at
// the cursor contributes every analyzer-known variable occurrence,
// filtered and deduplicated.
func (r *Resolver) References(ctx context.Context, req ReferencesRequest) ([]contract.Variable, error) {
	entry, cookie, err := r.snapshot(ctx, req.URI, req.ExpectedVersion, req.Timeout)
	if err != nil {
		return nil, err
	}
	analyzer := r.analyzer.Load()
	if analyzer == nil || entry.AnalysisEntry == nil {
		return nil, nil
	}

	var results []contract.Variable

	tree := treeOf(cookie)
	if tree != nil {
		if moduleName, ok := tree.ImportNameAt(req.Position); ok {
			if decl, ok := analyzer.ModuleDeclaration(moduleName); ok {
				results = append(results, decl)
			}
		}

		if expr, ok := tree.MemberExpressionAt(req.Position); ok {
			vars, err := analyzer.VariablesOf(entry.AnalysisEntry, expr, req.Position)
			if err != nil {
				return nil, err
			}
			results = append(results, vars...)
		}
	}

	filtered := results[:0]
	for _, v := range results {
		if v.Kind == contract.VariableNone {
			continue
		}
		if !req.IncludeDeclaration && (v.Kind == contract.VariableDefinition || v.Kind == contract.VariableValue) {
			continue
		}
		filtered = append(filtered, v)
	}

	return dedupeVariables(filtered), nil
}

// dedupeVariables implements "de-duplicate by (uri, start position),
// keeping the one with greatest end position and lowest kind ordinal."
func dedupeVariables(vars []contract.Variable) []contract.Variable {
	type key struct {
		uri   string
		line  uint32
		char  uint32
	}
	best := make(map[key]contract.Variable)
	var order []key

	for _, v := range vars {
		k := key{v.URI, v.Range.Start.Line, v.Range.Start.Character}
		existing, ok := best[k]
		if !ok {
			best[k] = v
			order = append(order, k)
			continue
		}
		if rangeEndLess(existing.Range.End, v.Range.End) ||
			(existing.Range.End == v.Range.End && v.Kind < existing.Kind) {
			best[k] = v
		}
	}

	out := make([]contract.Variable, 0, len(order))
	for _, k := range order {
		out = append(out, best[k])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].URI != out[j].URI {
			return out[i].URI < out[j].URI
		}
		return rangeStartLess(out[i].Range.Start, out[j].Range.Start)
	})
	return out
}

func rangeEndLess(a, b contract.Position) bool {
	if a.Line != b.Line {
		return a.Line < b.Line
	}
	return a.Character < b.Character
}

func rangeStartLess(a, b contract.Position) bool {
	return rangeEndLess(a, b)
}
