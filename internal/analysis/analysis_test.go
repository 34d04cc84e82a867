package analysis_test

import (
	"context"
	"testing"

	"glint/internal/analysis"
	"glint/internal/corelsp/contract"
	"glint/internal/symbolindex"
	"glint/internal/syntax"
)

func parseModule(t *testing.T, text string) contract.ParseCookie {
	t.Helper()
	parser, err := syntax.New("python")
	if err != nil {
		t.Fatalf("syntax.New: %v", err)
	}
	doc := syntax.NewDocument()
	if err := doc.Reset(0, 1, &text); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	cookie, err := parser.Parse(context.Background(), doc, -1)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return cookie
}

func TestAddModuleAndMembersOf(t *testing.T) {
	idx, err := symbolindex.Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer idx.Close()

	a := analysis.New(idx)
	cookie := parseModule(t, "def greet(name):\n    return name\n")

	entry, err := a.AddModule(context.Background(), "m", "/m.glint", "file:///m.glint", cookie)
	if err != nil {
		t.Fatalf("AddModule: %v", err)
	}

	members, err := a.MembersOf(entry, "m")
	if err != nil {
		t.Fatalf("MembersOf: %v", err)
	}
	if len(members) != 1 || members[0].Name != "greet" {
		t.Fatalf("expected [greet], got %+v", members)
	}
}

func TestEntriesImportingCascade(t *testing.T) {
	idx, err := symbolindex.Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer idx.Close()

	a := analysis.New(idx)
	ctx := context.Background()

	mCookie := parseModule(t, "value = 1\n")
	if _, err := a.AddModule(ctx, "m", "/m.glint", "file:///m.glint", mCookie); err != nil {
		t.Fatalf("AddModule m: %v", err)
	}

	uCookie := parseModule(t, "import m\n")
	if _, err := a.AddModule(ctx, "u", "/u.glint", "file:///u.glint", uCookie); err != nil {
		t.Fatalf("AddModule u: %v", err)
	}

	importing := a.EntriesImporting("m", false)
	if len(importing) != 1 || importing[0].QualifiedName() != "u" {
		t.Fatalf("expected [u] to import m, got %+v", importing)
	}

	if err := a.RemoveModule("m"); err != nil {
		t.Fatalf("RemoveModule: %v", err)
	}
	if _, ok := a.ModuleDeclaration("m"); ok {
		t.Fatal("expected m's declaration to be gone after RemoveModule")
	}
}
