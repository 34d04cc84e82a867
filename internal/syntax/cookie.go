package syntax

import (
	"sort"

	sitter "github.com/smacker/go-tree-sitter"

	"glint/internal/corelsp/contract"
)

// Declaration is a top-level name the parser found while walking a part's
// tree, exported so internal/analysis can build its symbol table without
// touching tree-sitter node types itself.
type Declaration struct {
	Name   string
	Kind   contract.MemberKind
	Range  contract.Range
	Params []string // populated for Kind == MemberFunction
}

// Cookie is the default production contract.TreeCookie (spec glossary:
// Cookie): an opaque parse-generation id plus the per-part version map
// and tree-sitter trees a parse produced.
type Cookie struct {
	id       string
	versions map[int]int
	trees    map[int]*sitter.Tree
	texts    map[int][]byte
	decls    map[int][]Declaration
	primary  int
	hasTree  bool
}

// ID implements contract.ParseCookie.
func (c *Cookie) ID() string { return c.id }

// Parts implements contract.ParseCookie.
func (c *Cookie) Parts() []int {
	out := make([]int, 0, len(c.versions))
	for p := range c.versions {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}

// Version implements contract.ParseCookie.
func (c *Cookie) Version(part int) int {
	return c.versions[part]
}

// Tree implements contract.TreeCookie, returning the tree for this
// cookie's primary part (the lowest part index parsed). glint's own
// scripting-language documents are single-part, so this is exact; a
// multi-part (notebook-style) document would need a part-aware variant,
// which is out of scope here (see DESIGN.md).
func (c *Cookie) Tree() contract.Tree {
	if !c.hasTree {
		return nil
	}
	tree, ok := c.trees[c.primary]
	if !ok {
		return nil
	}
	return newTreeView(tree, c.texts[c.primary])
}

// Declarations returns the top-level names the parser found in part.
func (c *Cookie) Declarations(part int) []Declaration {
	return c.decls[part]
}

// AllDeclarations concatenates Declarations across every part this
// cookie covers, in ascending part order.
func (c *Cookie) AllDeclarations() []Declaration {
	var out []Declaration
	for _, part := range c.Parts() {
		out = append(out, c.decls[part]...)
	}
	return out
}
