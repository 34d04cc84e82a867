package resolve

import (
	"context"
	"time"

	"glint/internal/corelsp/contract"
)

// SignatureHelpRequest is the input to SignatureHelp.
type SignatureHelpRequest struct {
	URI             string
	Position        contract.Position
	ExpectedVersion *int
	Timeout         time.Duration
}

// SignatureHelpResult names the active overload and parameter index.
type SignatureHelpResult struct {
	Signatures      []contract.Overload
	ActiveSignature int
	ActiveParameter int
}

// SignatureHelp serves textDocument/signatureHelp: locate the enclosing
// call, fetch its overloads, and pick the active signature as the
// lowest-arity overload whose parameter count strictly exceeds the
// active parameter index (spec §4.7).
func (r *Resolver) SignatureHelp(ctx context.Context, req SignatureHelpRequest) (*SignatureHelpResult, error) {
	entry, cookie, err := r.snapshot(ctx, req.URI, req.ExpectedVersion, req.Timeout)
	if err != nil {
		return nil, err
	}
	analyzer := r.analyzer.Load()
	if analyzer == nil || entry.AnalysisEntry == nil {
		return nil, nil
	}

	tree := treeOf(cookie)
	if tree == nil {
		return nil, nil
	}
	call, ok := tree.EnclosingCallAt(req.Position)
	if !ok {
		return nil, nil
	}

	overloads, err := analyzer.OverloadsOf(entry.AnalysisEntry, call.Callee)
	if err != nil || len(overloads) == 0 {
		return nil, err
	}

	active := -1
	for i, ov := range overloads {
		if len(ov.Parameters) <= call.ArgIndex {
			continue
		}
		if active == -1 || len(ov.Parameters) < len(overloads[active].Parameters) {
			active = i
		}
	}
	if active == -1 {
		active = 0
	}

	return &SignatureHelpResult{
		Signatures:      overloads,
		ActiveSignature: active,
		ActiveParameter: call.ArgIndex,
	}, nil
}
