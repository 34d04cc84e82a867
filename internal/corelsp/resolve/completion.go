package resolve

import (
	"context"
	"time"

	"glint/internal/corelsp/contract"
	"glint/internal/corelsp/docstore"
)

// CompletionRequest carries the subset of spec §4.7's context bitset that
// contract.Analyzer can actually honor. NamesAt/MembersOf take no context
// parameter beyond the expression and position, so fields like
// intersect_multiple_results, statement_keywords, expression_keywords, and
// include_all_modules have no collaborator to carry them to: keyword
// completion would need a per-language keyword table and a MemberKeyword
// kind that nothing in this analyzer contract defines, and "all modules"
// completion would need a workspace-wide module listing the contract
// doesn't expose either. Both are out of scope for this analyzer contract
// rather than silently accepted and dropped.
type CompletionRequest struct {
	URI             string
	Position        contract.Position
	ExpectedVersion *int
	Timeout         time.Duration

	ExplicitExpression   string
	IncludeArgumentNames bool
	FilterKind           *contract.MemberKind
}

// CompletionItem is one ready-to-render completion entry.
type CompletionItem struct {
	Label         string
	InsertText    string
	Documentation string
	Kind          contract.MemberKind
}

// Complete serves textDocument/completion.
func (r *Resolver) Complete(ctx context.Context, req CompletionRequest) ([]CompletionItem, error) {
	entry, cookie, err := r.snapshot(ctx, req.URI, req.ExpectedVersion, req.Timeout)
	if err != nil {
		return nil, err
	}
	analyzer := r.analyzer.Load()
	if analyzer == nil || entry.AnalysisEntry == nil {
		return nil, nil
	}

	members, err := membersFor(analyzer, entry, cookie, req)
	if err != nil {
		return nil, err
	}

	if req.IncludeArgumentNames {
		members = append(members, argumentNameMembers(analyzer, entry, cookie, req)...)
	}

	if req.FilterKind != nil {
		members = filterMembers(members, *req.FilterKind)
	}

	items := make([]CompletionItem, 0, len(members))
	for _, m := range members {
		items = append(items, toCompletionItem(m))
	}
	return items, nil
}

// membersFor implements spec §4.7's completion core: an explicit
// expression bypasses tree walking; otherwise walk the tree for a member
// expression and query the analyzer for its members, falling back to
// every name visible at the position.
func membersFor(analyzer contract.Analyzer, entry *docstore.Entry, cookie contract.ParseCookie, req CompletionRequest) ([]contract.Member, error) {
	if req.ExplicitExpression != "" {
		return analyzer.MembersOf(entry.AnalysisEntry, req.ExplicitExpression)
	}

	if tree := treeOf(cookie); tree != nil {
		if expr, ok := tree.MemberExpressionAt(req.Position); ok {
			return analyzer.MembersOf(entry.AnalysisEntry, expr)
		}
	}

	return analyzer.NamesAt(entry.AnalysisEntry, req.Position)
}

func toCompletionItem(m contract.Member) CompletionItem {
	insert := m.InsertText
	if insert == "" {
		insert = m.Name
	}
	doc := m.ShortDoc
	if doc == "" {
		doc = m.LongDoc
	}
	return CompletionItem{
		Label:         m.Name,
		InsertText:    insert,
		Documentation: doc,
		Kind:          m.Kind,
	}
}

func filterMembers(members []contract.Member, kind contract.MemberKind) []contract.Member {
	out := make([]contract.Member, 0, len(members))
	for _, m := range members {
		if m.Kind == kind {
			out = append(out, m)
		}
	}
	return out
}

// argumentNameMembers implements spec §4.7's "named-argument suggestions
// equal to (parameter names of all overloads) - (argument names already
// present)", rendered `name=` with kind NamedArgument.
func argumentNameMembers(analyzer contract.Analyzer, entry *docstore.Entry, cookie contract.ParseCookie, req CompletionRequest) []contract.Member {
	tree := treeOf(cookie)
	if tree == nil {
		return nil
	}
	call, ok := tree.EnclosingCallAt(req.Position)
	if !ok {
		return nil
	}

	overloads, err := analyzer.OverloadsOf(entry.AnalysisEntry, call.Callee)
	if err != nil || len(overloads) == 0 {
		return nil
	}

	present := make(map[string]struct{}, len(call.ArgNames))
	for _, n := range call.ArgNames {
		present[n] = struct{}{}
	}

	seen := make(map[string]struct{})
	var members []contract.Member
	for _, ov := range overloads {
		for _, p := range ov.Parameters {
			if _, skip := present[p.Name]; skip {
				continue
			}
			if _, dup := seen[p.Name]; dup {
				continue
			}
			seen[p.Name] = struct{}{}
			members = append(members, contract.Member{
				Name:       p.Name,
				Kind:       contract.MemberNamedArgument,
				InsertText: p.Name + "=",
			})
		}
	}
	return members
}
