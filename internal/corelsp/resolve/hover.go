package resolve

import (
	"context"
	"strings"
	"time"

	"glint/internal/corelsp/contract"
)

// HoverRequest is the input to Hover.
type HoverRequest struct {
	URI             string
	Position        contract.Position
	ExpectedVersion *int
	Timeout         time.Duration
}

const (
	hoverLabelLimit = 4093
	hoverMaxLines   = 30
	hoverMaxChars   = 200
)

// Hover serves textDocument/hover (spec §4.7): render the analyzed
// values at the cursor's expression as a short description, preferring
// a single long description when exactly one value has one.
func (r *Resolver) Hover(ctx context.Context, req HoverRequest) (string, error) {
	entry, cookie, err := r.snapshot(ctx, req.URI, req.ExpectedVersion, req.Timeout)
	if err != nil {
		return "", err
	}
	analyzer := r.analyzer.Load()
	if analyzer == nil || entry.AnalysisEntry == nil {
		return "", nil
	}

	tree := treeOf(cookie)
	if tree == nil {
		return "", nil
	}
	expr, ok := tree.MemberExpressionAt(req.Position)
	if !ok {
		return "", nil
	}

	vars, err := analyzer.VariablesOf(entry.AnalysisEntry, expr, req.Position)
	if err != nil {
		return "", err
	}

	return renderHover(expr, vars), nil
}

func renderHover(expr string, vars []contract.Variable) string {
	label := truncate(expr, hoverLabelLimit)

	if len(vars) == 0 {
		return label + ": <unknown type>"
	}

	if len(vars) == 1 && vars[0].LongDoc != "" {
		return label + ": " + capLines(collapseBlankLines(vars[0].LongDoc))
	}

	multiLine := false
	descs := make([]string, 0, len(vars))
	for _, v := range vars {
		d := v.ShortDoc
		if d == "" {
			d = v.LongDoc
		}
		if strings.Contains(d, "\n") {
			multiLine = true
		}
		descs = append(descs, d)
	}

	sep := ", "
	if multiLine {
		sep = "\n"
	}
	body := strings.Join(descs, sep)
	return label + ": " + capLines(collapseBlankLines(body))
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "…"
}

func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	prevBlank := false
	for _, l := range lines {
		blank := strings.TrimSpace(l) == ""
		if blank && prevBlank {
			continue
		}
		out = append(out, l)
		prevBlank = blank
	}
	return strings.Join(out, "\n")
}

// capLines enforces the 30-line / 200-char-per-line caps, appending "…"
// wherever truncation happened.
func capLines(s string) string {
	lines := strings.Split(s, "\n")
	truncated := false

	if len(lines) > hoverMaxLines {
		lines = lines[:hoverMaxLines]
		truncated = true
	}
	for i, l := range lines {
		if len(l) > hoverMaxChars {
			lines[i] = l[:hoverMaxChars] + "…"
		}
	}

	out := strings.Join(lines, "\n")
	if truncated {
		out += "…"
	}
	return out
}
