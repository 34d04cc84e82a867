package symbolindex_test

import (
	"testing"

	"glint/internal/corelsp/contract"
	"glint/internal/symbolindex"
)

func TestReindexAndPrefix(t *testing.T) {
	idx, err := symbolindex.Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer idx.Close()

	err = idx.Reindex("m", []symbolindex.Row{
		{URI: "file:///m.glint", Name: "greet", Kind: contract.MemberFunction},
		{URI: "file:///m.glint", Name: "greeting", Kind: contract.MemberVariable},
	})
	if err != nil {
		t.Fatalf("Reindex: %v", err)
	}

	rows, err := idx.Prefix("gree")
	if err != nil {
		t.Fatalf("Prefix: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d: %+v", len(rows), rows)
	}

	rows, err = idx.Prefix("GRE")
	if err != nil {
		t.Fatalf("Prefix: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected case-insensitive match, got %d rows", len(rows))
	}
}

func TestRemove(t *testing.T) {
	idx, err := symbolindex.Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer idx.Close()

	if err := idx.Reindex("m", []symbolindex.Row{{URI: "file:///m.glint", Name: "x"}}); err != nil {
		t.Fatalf("Reindex: %v", err)
	}
	if err := idx.Remove("m"); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	rows, err := idx.ByModule("m")
	if err != nil {
		t.Fatalf("ByModule: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected 0 rows after Remove, got %d", len(rows))
	}
}
