// Package contract defines the narrow interfaces the core orchestration
// layer uses to talk to the syntax parser and the semantic analyzer. Both
// collaborators are implemented elsewhere (internal/syntax, a language
// runtime's analyzer); the core never reaches past these shapes.
package contract

import "context"

// Position is a zero-based line/character location, mirroring LSP.
type Position struct {
	Line      uint32
	Character uint32
}

// Range is a half-open [Start, End) span.
type Range struct {
	Start Position
	End   Position
}

// Change is one incremental edit. A nil Range means "replace the whole
// buffer"; NewText is the full replacement text in that case.
type Change struct {
	Range   *Range
	NewText string
}

// Document is the per-part editable buffer a Document Entry wraps.
type Document interface {
	// GetVersion returns the current version of the given part, or -1 if
	// the part is disk-backed (never opened, or closed).
	GetVersion(part int) int

	// Reset replaces the entire buffer for part with text and sets its
	// version. text == nil means "disk-backed, no buffer".
	Reset(part int, version int, text *string) error

	// Update applies changes to part atomically, moving it from version
	// fromVersion to toVersion.
	Update(ctx context.Context, part int, fromVersion, toVersion int, changes []Change) error

	// Parts lists the part indices currently tracked.
	Parts() []int

	// IsClosed reports whether part was explicitly closed (Reset with a
	// nil text) and has not been reopened (Reset with non-nil text)
	// since. A part that was never opened at all reports false here too
	// — only a close, not mere absence, marks a part closed.
	IsClosed(part int) bool
}

// ParseCookie is the opaque token a parse produces, carrying the version
// each part was parsed at.
type ParseCookie interface {
	// ID is a unique, opaque identifier for this parse generation.
	ID() string
	// Parts lists the part indices this cookie covers.
	Parts() []int
	// Version returns the version part was parsed at.
	Version(part int) int
}

// Diagnostic is a single analyzer- or parser-reported finding. Part
// identifies which part of a multi-part document (spec glossary: Part)
// the diagnostic belongs to.
type Diagnostic struct {
	Part     int
	Range    Range
	Severity DiagnosticSeverity
	Message  string
	Source   string
}

// DiagnosticSeverity mirrors the LSP severities the analyzer can report.
type DiagnosticSeverity int

const (
	SeverityError DiagnosticSeverity = iota + 1
	SeverityWarning
	SeverityInformation
	SeverityHint
)

// Entry is the analyzer's opaque handle for a module it has indexed.
// The core never inspects it beyond what QualifiedName/URI expose.
type Entry interface {
	URI() string
	QualifiedName() string
}

// Analyzer is the semantic-analysis collaborator. Implementations are
// externally synchronized: the core treats a live Analyzer reference as
// shared-immutable between initialize and shutdown.
type Analyzer interface {
	AddModule(ctx context.Context, name, path, uri string, cookie ParseCookie) (Entry, error)
	AddModuleAlias(alias, name string) error
	RemoveModule(name string) error
	EntriesImporting(name string, recursive bool) []Entry
	SearchPaths() []string
	GetDiagnostics(entry Entry) []Diagnostic
	ReloadModules() error

	// MembersOf returns the members of the value expr evaluates to,
	// within entry's scope. Used by completion when the cursor is on a
	// member expression.
	MembersOf(entry Entry, expr string) ([]Member, error)

	// NamesAt returns every name available at pos in entry, used by
	// completion when no member expression is found.
	NamesAt(entry Entry, pos Position) ([]Member, error)

	// OverloadsOf returns every call signature of the callable expr
	// evaluates to, for signature help and argument-name completion.
	OverloadsOf(entry Entry, expr string) ([]Overload, error)

	// VariablesOf returns every analyzer-known occurrence of expr,
	// for hover and references.
	VariablesOf(entry Entry, expr string, pos Position) ([]Variable, error)

	// ModuleDeclaration returns the declaration location of the module
	// named name, if known, for import-reference resolution.
	ModuleDeclaration(name string) (Variable, bool)

	// WorkspaceSymbols returns every known module-declared member whose
	// name starts with query, case-insensitively, for workspace/symbol.
	// Implementations are expected to do this with an index rather than
	// a linear scan over every known entry.
	WorkspaceSymbols(query string) []Symbol
}

// Parser is the syntax collaborator: it turns source text into a tree and
// a cookie, and supports the member/import/call lookups RequestResolver
// needs without the core ever touching a concrete AST node type.
type Parser interface {
	// Parse parses content for the given part and returns a cookie. part
	// -1 means "whole document" for parsers that don't distinguish parts.
	Parse(ctx context.Context, doc Document, part int) (ParseCookie, error)
}

// CallInfo describes the call expression enclosing a cursor position, as
// located by the parser's expression-finder.
type CallInfo struct {
	Callee   string
	ArgIndex int
	ArgNames []string
}

// Tree is the per-part syntax snapshot a ParseCookie exposes for
// RequestResolver's tree walks (spec §4.7). Implementations never leak
// concrete AST node types past this shape.
type Tree interface {
	// MemberExpressionAt returns the member-access expression (e.g.
	// "foo.bar") whose evaluation target encloses pos, tuned for member
	// completion.
	MemberExpressionAt(pos Position) (expr string, ok bool)

	// EnclosingCallAt locates the call expression enclosing pos, for
	// signature help and argument-name completion.
	EnclosingCallAt(pos Position) (CallInfo, bool)

	// ImportNameAt returns the module name/alias an import statement at
	// pos names, for reference resolution on imports.
	ImportNameAt(pos Position) (moduleName string, ok bool)

	// NamesAt returns every name visible at pos, used as the completion
	// fallback when no member expression is found.
	NamesAt(pos Position) []string
}

// TreeCookie is implemented by cookies whose parser also exposes a Tree
// snapshot; not every Parser implementation needs to (e.g. one serving
// only diagnostics).
type TreeCookie interface {
	ParseCookie
	Tree() Tree
}

// MemberKind classifies a Member for completion/hover rendering.
type MemberKind int

const (
	MemberVariable MemberKind = iota
	MemberFunction
	MemberType
	MemberModule
	MemberNamedArgument
)

// Member is one name the analyzer can offer for a completion context.
type Member struct {
	Name       string
	Kind       MemberKind
	InsertText string
	ShortDoc   string
	LongDoc    string
}

// Parameter is one formal parameter of an Overload.
type Parameter struct {
	Name string
}

// Overload is one call signature of a function/method the analyzer knows.
type Overload struct {
	Label      string
	Parameters []Parameter
}

// VariableKind classifies a Variable for reference filtering (spec
// §4.7's "optionally Definition/Value").
type VariableKind int

const (
	VariableNone VariableKind = iota
	VariableDefinition
	VariableValue
	VariableReference
)

// Variable is one analyzer-resolved occurrence of an expression, used by
// both hover (its ShortDoc/LongDoc) and references (its Range/Kind).
type Variable struct {
	URI       string
	Range     Range
	Kind      VariableKind
	ShortDoc  string
	LongDoc   string
}

// Symbol is one workspace/symbol result: a module-declared member
// together with the URI of the module that declares it.
type Symbol struct {
	Name string
	URI  string
	Kind MemberKind
}
