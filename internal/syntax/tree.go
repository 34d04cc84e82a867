package syntax

import (
	sitter "github.com/smacker/go-tree-sitter"

	"glint/internal/corelsp/contract"
)

// treeView is the default production contract.Tree: it answers
// RequestResolver's tree-walking questions (member expression, enclosing
// call, import name, visible names) directly against a tree-sitter tree,
// generalizing the node-descent-plus-Content() style of the teacher's
// GetReferenceAt (internal/parser/incremental_parser.go) from one fixed
// "ref" node type to the handful of python node shapes glint's
// stand-in grammar needs.
type treeView struct {
	root *sitter.Node
	text []byte
}

func newTreeView(tree *sitter.Tree, text []byte) contract.Tree {
	if tree == nil {
		return nil
	}
	return &treeView{root: tree.RootNode(), text: text}
}

func toPoint(pos contract.Position) sitter.Point {
	return sitter.Point{Row: pos.Line, Column: pos.Character}
}

func (t *treeView) nodeAt(pos contract.Position) *sitter.Node {
	if t.root == nil {
		return nil
	}
	point := toPoint(pos)
	return t.root.NamedDescendantForPointRange(point, point)
}

func ancestorOfType(node *sitter.Node, kinds ...string) *sitter.Node {
	for n := node; n != nil; n = n.Parent() {
		for _, k := range kinds {
			if n.Type() == k {
				return n
			}
		}
	}
	return nil
}

func (t *treeView) content(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(t.text)
}

// MemberExpressionAt implements contract.Tree: the enclosing "attribute"
// node (python's `object.attr` member access), tuned for completion's
// member-evaluation lookup.
func (t *treeView) MemberExpressionAt(pos contract.Position) (string, bool) {
	attr := ancestorOfType(t.nodeAt(pos), "attribute")
	if attr == nil {
		return "", false
	}
	return t.content(attr), true
}

// EnclosingCallAt implements contract.Tree: the callee text, the
// argument-slot index the cursor falls within, and the keyword-argument
// names already present.
func (t *treeView) EnclosingCallAt(pos contract.Position) (contract.CallInfo, bool) {
	call := ancestorOfType(t.nodeAt(pos), "call")
	if call == nil {
		return contract.CallInfo{}, false
	}

	info := contract.CallInfo{Callee: t.content(call.ChildByFieldName("function"))}

	args := call.ChildByFieldName("arguments")
	if args == nil {
		return info, true
	}

	point := toPoint(pos)
	argIndex := 0
	for i := 0; i < int(args.NamedChildCount()); i++ {
		child := args.NamedChild(i)
		if child.Type() == "keyword_argument" {
			if name := child.ChildByFieldName("name"); name != nil {
				info.ArgNames = append(info.ArgNames, t.content(name))
			}
		}
		if pointLess(child.Range().EndPoint, point) {
			argIndex++
		}
	}
	info.ArgIndex = argIndex
	return info, true
}

// ImportNameAt implements contract.Tree: the module name or alias an
// import statement at pos names.
func (t *treeView) ImportNameAt(pos contract.Position) (string, bool) {
	imp := ancestorOfType(t.nodeAt(pos), "import_statement", "import_from_statement")
	if imp == nil {
		return "", false
	}

	point := toPoint(pos)
	target := imp.NamedDescendantForPointRange(point, point)
	for n := target; n != nil; n = n.Parent() {
		switch n.Type() {
		case "dotted_name", "identifier":
			return t.content(n), true
		}
		if n == imp {
			break
		}
	}
	return "", false
}

// NamesAt implements contract.Tree: every identifier visible in the
// tree, used as completion's fallback when no member expression is
// found at pos. Real scoping is the analyzer's job (spec §1 non-goal);
// this is a flat, deduplicated name list.
func (t *treeView) NamesAt(_ contract.Position) []string {
	if t.root == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.Type() == "identifier" {
			name := t.content(n)
			if _, ok := seen[name]; !ok {
				seen[name] = struct{}{}
				out = append(out, name)
			}
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(t.root)
	return out
}

func pointLess(a, b sitter.Point) bool {
	if a.Row != b.Row {
		return a.Row < b.Row
	}
	return a.Column < b.Column
}
