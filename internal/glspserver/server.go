// Package glspserver is glint's transport layer: it decodes and encodes
// github.com/tliron/glsp protocol_3_16 types at the wire boundary and
// delegates every actual decision to internal/corelsp/core. Grounded on
// the teacher's internal/lsp/{server,handler}.go, generalized the way
// the sibling zeta project's internal/server package adds
// workspace/symbol and a validated Config on top of the same
// protocol.Handler shape.
package glspserver

import (
	"fmt"
	"time"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserverpkg "github.com/tliron/glsp/server"

	"glint/internal/analysis"
	"glint/internal/config"
	"glint/internal/corelsp/contract"
	"glint/internal/corelsp/core"
	"glint/internal/interpreterfactory"
	"glint/internal/symbolindex"
	"glint/internal/syntax"
	"glint/internal/syntax/grammar"
	"glint/internal/watcher"
)

var log = commonlog.GetLogger("glint.glspserver")

const lsName = "glint"

// Server is glint's protocol.Handler host: one per client connection,
// same as the teacher's Server.
type Server struct {
	root    string
	handler *protocol.Handler
	core    *core.Core
	index   *symbolindex.Index
	watcher *watcher.Watcher
	flags   config.ClientCapabilityFlags
}

// New builds an unconfigured Server; initialize does the rest, since
// InitializationOptions (which interpreter to construct, which grammar to
// parse with) only arrives on the wire.
func New() *Server {
	s := &Server{}
	s.handler = &protocol.Handler{
		Initialize:                      s.initialize,
		Initialized:                     s.initialized,
		TextDocumentDidOpen:             s.textDocumentDidOpen,
		TextDocumentDidChange:           s.textDocumentDidChange,
		TextDocumentDidClose:            s.textDocumentDidClose,
		TextDocumentCompletion:          s.textDocumentCompletion,
		CompletionItemResolve:           s.completionItemResolve,
		TextDocumentHover:               s.textDocumentHover,
		TextDocumentSignatureHelp:       s.textDocumentSignatureHelp,
		TextDocumentReferences:          s.textDocumentReferences,
		WorkspaceSymbol:                 s.workspaceSymbol,
		WorkspaceDidChangeWatchedFiles:  s.workspaceDidChangeWatchedFiles,
		WorkspaceDidChangeConfiguration: s.workspaceDidChangeConfiguration,
		Shutdown:                        s.shutdown,
	}
	return s
}

// SetDefaultRoot records a workspace root URI to fall back to when a
// client's initialize request omits RootURI (the -root CLI flag).
func (s *Server) SetDefaultRoot(rootURI string) {
	if rootURI != "" {
		s.root = rootURI
	}
}

// Run starts the JSON-RPC loop over stdio, the transport the teacher's
// cmd/aftermath uses.
func (s *Server) Run() error {
	srv := glspserverpkg.NewServer(s.handler, lsName, false)
	return srv.RunStdio()
}

// publishSink adapts context.Notify to publish.Sink.
type publishSink struct {
	ctx *glsp.Context
}

func (p publishSink) Publish(uri string, _, _ int, diagnostics []contract.Diagnostic) {
	p.ctx.Notify("textDocument/publishDiagnostics", protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: toProtocolDiagnostics(diagnostics),
	})
}

func toProtocolDiagnostics(diags []contract.Diagnostic) []protocol.Diagnostic {
	out := make([]protocol.Diagnostic, 0, len(diags))
	for _, d := range diags {
		sev := toProtocolSeverity(d.Severity)
		source := d.Source
		out = append(out, protocol.Diagnostic{
			Range:    toProtocolRange(d.Range),
			Severity: &sev,
			Message:  d.Message,
			Source:   &source,
		})
	}
	return out
}

func toProtocolSeverity(s contract.DiagnosticSeverity) protocol.DiagnosticSeverity {
	switch s {
	case contract.SeverityError:
		return protocol.DiagnosticSeverityError
	case contract.SeverityWarning:
		return protocol.DiagnosticSeverityWarning
	case contract.SeverityInformation:
		return protocol.DiagnosticSeverityInformation
	default:
		return protocol.DiagnosticSeverityHint
	}
}

func toProtocolRange(r contract.Range) protocol.Range {
	return protocol.Range{
		Start: protocol.Position{Line: r.Start.Line, Character: r.Start.Character},
		End:   protocol.Position{Line: r.End.Line, Character: r.End.Character},
	}
}

func fromProtocolPosition(p protocol.Position) contract.Position {
	return contract.Position{Line: p.Line, Character: p.Character}
}

func fromProtocolRange(r *protocol.Range) *contract.Range {
	if r == nil {
		return nil
	}
	rg := &contract.Range{
		Start: fromProtocolPosition(r.Start),
		End:   fromProtocolPosition(r.End),
	}
	return rg
}

// buildCore wires the contract.Analyzer (built-in or plugin, per design
// note 9) and parser together once initialize's InitializationOptions
// are known.
func buildCore(opts config.InitializationOptions, flags config.ClientCapabilityFlags, ctx *glsp.Context) (*core.Core, *symbolindex.Index, error) {
	index, err := symbolindex.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("glspserver: open symbol index: %w", err)
	}

	analysis.RegisterBuiltin("glint.python", index)

	analyzer, err := interpreterfactory.Construct(opts.Interpreter.Assembly, opts.Interpreter.Properties, opts.Interpreter.Version)
	if err != nil {
		index.Close()
		return nil, nil, fmt.Errorf("glspserver: construct interpreter: %w", err)
	}

	parser, err := syntax.New(opts.Interpreter.TypeName)
	if err != nil {
		index.Close()
		return nil, nil, fmt.Errorf("glspserver: construct parser: %w", err)
	}

	ext := grammar.Extension(opts.Interpreter.TypeName)
	if ext == "" {
		ext = ".py"
	}

	c := core.New(core.Options{
		Doc: func() contract.Document {
			return syntax.NewDocument()
		},
		Parser:             parser,
		Analyzer:           contract.NewAnalyzerHandle(analyzer),
		Sink:               publishSink{ctx: ctx},
		Rules:              core.NewPackagingRules(ext, "__init__"+ext),
		ManualFileLoad:     flags.ManualFileLoad,
		CompletionsTimeout: completionsTimeout(flags.CompletionsTimeout),
	})

	return c, index, nil
}

// completionsTimeout converts the client-supplied millisecond budget into
// a time.Duration. The resolved Open Question (spec.md §9): zero (the
// field omitted) means "don't wait, return whatever is current"; a
// negative value means "wait indefinitely", bounded only by ctx.
func completionsTimeout(ms int) time.Duration {
	if ms == 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}

// shutdown implements the shutdown request (spec §5's cancellation
// model): tear down the core, the filesystem watcher, and the symbol
// index backing it, in that order.
func (s *Server) shutdown(_ *glsp.Context) error {
	log.Info("shutting down")
	if s.core != nil {
		s.core.Shutdown()
	}
	if s.watcher != nil {
		s.watcher.Close()
	}
	if s.index != nil {
		s.index.Close()
	}
	return nil
}
