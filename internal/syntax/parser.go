package syntax

import (
	"context"
	"fmt"

	"github.com/segmentio/ksuid"
	sitter "github.com/smacker/go-tree-sitter"

	"glint/internal/corelsp/contract"
	"glint/internal/syntax/grammar"
)

// Parser is the default production contract.Parser: tree-sitter backed,
// with its grammar chosen at construction time from
// internal/syntax/grammar's registry rather than compiled in, the way
// the teacher's IncrementalParser hard-codes a single cgo-bound grammar
// (design note 9's "registry keyed by identifier").
type Parser struct {
	lang         *sitter.Language
	grammarName  string
}

// New builds a Parser for the named grammar (e.g. "python", the stand-in
// grammar for glint's dynamically-typed scripting language).
func New(grammarName string) (*Parser, error) {
	lang, err := grammar.Get(grammarName)
	if err != nil {
		return nil, fmt.Errorf("syntax.New: %w", err)
	}
	return &Parser{lang: lang, grammarName: grammarName}, nil
}

// Parse implements contract.Parser. part == -1 parses every part the
// document currently tracks; a non-negative part parses just that one.
func (p *Parser) Parse(ctx context.Context, doc contract.Document, part int) (contract.ParseCookie, error) {
	sd, ok := doc.(*Document)
	if !ok {
		return nil, contract.ErrInternal(fmt.Errorf("syntax.Parser requires a *syntax.Document, got %T", doc))
	}

	parts := sd.Parts()
	if part >= 0 {
		parts = []int{part}
	}

	cookie := &Cookie{
		id:       ksuid.New().String(),
		versions: make(map[int]int),
		trees:    make(map[int]*sitter.Tree),
		texts:    make(map[int][]byte),
		decls:    make(map[int][]Declaration),
		primary:  -1,
	}

	for _, pt := range parts {
		text, ok := sd.Text(pt)
		if !ok {
			continue
		}

		sp := sitter.NewParser()
		sp.SetLanguage(p.lang)
		tree, err := sp.ParseCtx(ctx, nil, text)
		if err != nil {
			return nil, contract.ErrBadSource(err)
		}

		cookie.versions[pt] = sd.GetVersion(pt)
		cookie.trees[pt] = tree
		cookie.texts[pt] = text
		cookie.decls[pt] = declarationsIn(tree.RootNode(), text)

		if cookie.primary == -1 || pt < cookie.primary {
			cookie.primary = pt
		}
	}

	cookie.hasTree = cookie.primary != -1
	if cookie.primary == -1 {
		cookie.primary = 0
	}

	return cookie, nil
}

// declarationsIn walks root's immediate named children for the
// top-level shapes glint's stand-in grammar (python) declares names
// with: function/class definitions, imports, and plain assignments.
// Generalized from the teacher's parseReferences query-cursor walk
// (internal/parser/incremental_parser.go), but structural instead of
// query-based since the declarations we want span several node kinds
// rather than one "ref" capture.
func declarationsIn(root *sitter.Node, text []byte) []Declaration {
	if root == nil {
		return nil
	}

	var out []Declaration
	for i := 0; i < int(root.NamedChildCount()); i++ {
		out = append(out, declarationsFor(root.NamedChild(i), text)...)
	}
	return out
}

func declarationsFor(n *sitter.Node, text []byte) []Declaration {
	switch n.Type() {
	case "function_definition":
		name := n.ChildByFieldName("name")
		if name == nil {
			return nil
		}
		return []Declaration{{
			Name:   name.Content(text),
			Kind:   contract.MemberFunction,
			Range:  rangeOf(n),
			Params: paramNames(n.ChildByFieldName("parameters"), text),
		}}

	case "class_definition":
		name := n.ChildByFieldName("name")
		if name == nil {
			return nil
		}
		return []Declaration{{Name: name.Content(text), Kind: contract.MemberType, Range: rangeOf(n)}}

	case "import_statement":
		return moduleNames(n, text)

	case "import_from_statement":
		return moduleNames(n, text)

	case "expression_statement":
		if n.NamedChildCount() == 1 {
			return declarationsFor(n.NamedChild(0), text)
		}
		return nil

	case "assignment":
		left := n.ChildByFieldName("left")
		if left == nil || left.Type() != "identifier" {
			return nil
		}
		return []Declaration{{Name: left.Content(text), Kind: contract.MemberVariable, Range: rangeOf(n)}}

	default:
		return nil
	}
}

func moduleNames(n *sitter.Node, text []byte) []Declaration {
	var out []Declaration
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "dotted_name", "identifier":
			out = append(out, Declaration{Name: c.Content(text), Kind: contract.MemberModule, Range: rangeOf(c)})
		case "aliased_import":
			name := c.ChildByFieldName("alias")
			if name == nil {
				name = c.NamedChild(0)
			}
			if name != nil {
				out = append(out, Declaration{Name: name.Content(text), Kind: contract.MemberModule, Range: rangeOf(c)})
			}
		}
	}
	return out
}

func paramNames(params *sitter.Node, text []byte) []string {
	if params == nil {
		return nil
	}
	var out []string
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		switch p.Type() {
		case "identifier":
			out = append(out, p.Content(text))
		case "typed_parameter", "default_parameter", "typed_default_parameter":
			if name := p.NamedChild(0); name != nil {
				out = append(out, name.Content(text))
			}
		}
	}
	return out
}

func rangeOf(n *sitter.Node) contract.Range {
	r := n.Range()
	return contract.Range{
		Start: contract.Position{Line: r.StartPoint.Row, Character: r.StartPoint.Column},
		End:   contract.Position{Line: r.EndPoint.Row, Character: r.EndPoint.Column},
	}
}
