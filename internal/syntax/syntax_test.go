package syntax_test

import (
	"context"
	"testing"

	"glint/internal/corelsp/contract"
	"glint/internal/syntax"
)

func openDoc(t *testing.T, text string) *syntax.Document {
	t.Helper()
	doc := syntax.NewDocument()
	if err := doc.Reset(0, 1, &text); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	return doc
}

func TestParseDeclarations(t *testing.T) {
	parser, err := syntax.New("python")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	doc := openDoc(t, "import os\n\ndef greet(name):\n    return name\n\nvalue = 1\n")

	cookie, err := parser.Parse(context.Background(), doc, -1)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	tc, ok := cookie.(*syntax.Cookie)
	if !ok {
		t.Fatalf("expected *syntax.Cookie, got %T", cookie)
	}

	decls := tc.Declarations(0)
	want := map[string]contract.MemberKind{
		"os":    contract.MemberModule,
		"greet": contract.MemberFunction,
		"value": contract.MemberVariable,
	}
	if len(decls) != len(want) {
		t.Fatalf("expected %d declarations, got %d: %+v", len(want), len(decls), decls)
	}
	for _, d := range decls {
		kind, ok := want[d.Name]
		if !ok {
			t.Fatalf("unexpected declaration %q", d.Name)
		}
		if kind != d.Kind {
			t.Fatalf("declaration %q: expected kind %v, got %v", d.Name, kind, d.Kind)
		}
	}
}

func TestTreeMemberExpressionAt(t *testing.T) {
	parser, err := syntax.New("python")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	doc := openDoc(t, "os.path\n")
	cookie, err := parser.Parse(context.Background(), doc, -1)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	tc := cookie.(contract.TreeCookie)
	tree := tc.Tree()
	if tree == nil {
		t.Fatal("expected non-nil tree")
	}

	expr, ok := tree.MemberExpressionAt(contract.Position{Line: 0, Character: 6})
	if !ok {
		t.Fatal("expected a member expression at the cursor")
	}
	if expr != "os.path" {
		t.Fatalf("expected %q, got %q", "os.path", expr)
	}
}

func TestDocumentIncrementalUpdate(t *testing.T) {
	doc := openDoc(t, "x")

	err := doc.Update(context.Background(), 0, 1, 2, []contract.Change{{
		Range: &contract.Range{
			Start: contract.Position{Line: 0, Character: 0},
			End:   contract.Position{Line: 0, Character: 1},
		},
		NewText: "xy",
	}})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	text, ok := doc.Text(0)
	if !ok {
		t.Fatal("expected part 0 to exist")
	}
	if string(text) != "xy" {
		t.Fatalf("expected %q, got %q", "xy", text)
	}
	if doc.GetVersion(0) != 2 {
		t.Fatalf("expected version 2, got %d", doc.GetVersion(0))
	}
}
