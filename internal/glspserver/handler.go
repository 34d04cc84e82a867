package glspserver

import (
	"context"
	"fmt"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"glint/internal/config"
	"glint/internal/corelsp/contract"
	"glint/internal/corelsp/reconcile"
	"glint/internal/corelsp/resolve"
	"glint/internal/watcher"
)

func (s *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	opts, err := config.DecodeInitializationOptions(params.InitializationOptions)
	if err != nil {
		return nil, err
	}
	flags, err := config.DecodeClientCapabilityFlags(params.InitializationOptions)
	if err != nil {
		return nil, err
	}
	s.flags = flags

	c, index, err := buildCore(opts, flags, ctx)
	if err != nil {
		return nil, err
	}
	s.core = c
	s.index = index

	if params.RootURI != nil {
		s.root = *params.RootURI
	}
	if root := rootPath(s.root); root != "" {
		go func() {
			if err := s.core.LoadWorkspace(context.Background(), root); err != nil {
				log.Error("workspace load failed", "error", err)
			}
		}()

		if w, err := watcher.New(root); err != nil {
			log.Warning("cannot start file watcher", "error", err)
		} else {
			s.watcher = w
			go s.watchLoop()
		}
	}

	capabilities := s.handler.CreateServerCapabilities()
	syncKind := protocol.TextDocumentSyncKindIncremental
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: &protocol.True,
		Change:    &syncKind,
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name: lsName,
		},
	}, nil
}

func (s *Server) initialized(_ *glsp.Context, _ *protocol.InitializedParams) error {
	log.Info("initialized")
	return nil
}

// watchLoop translates synthesized filesystem events into the same
// handling workspace/didChangeWatchedFiles gets, so out-of-editor edits
// (git checkout, an external formatter) still reach the analyzer.
func (s *Server) watchLoop() {
	for ev := range s.watcher.Events() {
		switch ev.Kind {
		case watcher.Created:
			go func(uri string) {
				if root := rootPath(s.root); root != "" {
					if err := s.core.LoadWorkspace(context.Background(), root); err != nil {
						log.Warning("reload after create failed", "error", err)
					}
				}
			}(ev.URI)
		case watcher.Deleted:
			s.core.Delete(context.Background(), ev.URI)
		case watcher.Changed:
			s.core.WatchedFileChanged(context.Background(), ev.URI, uriToPath(ev.URI))
		}
	}
}

func (s *Server) textDocumentDidOpen(_ *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	s.core.DidOpen(context.Background(), params.TextDocument.URI, int(params.TextDocument.Version), params.TextDocument.Text, true)
	return nil
}

func (s *Server) textDocumentDidChange(_ *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	edits := make([]contract.Change, 0, len(params.ContentChanges))
	for _, raw := range params.ContentChanges {
		switch change := raw.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			edits = append(edits, contract.Change{NewText: change.Text})
		case protocol.TextDocumentContentChangeEvent:
			edits = append(edits, contract.Change{
				Range:   fromProtocolRange(change.Range),
				NewText: change.Text,
			})
		default:
			return fmt.Errorf("glspserver: unexpected change event type %T", raw)
		}
	}

	n := reconcile.Notification{
		URI:           params.TextDocument.URI,
		HasVersion:    true,
		TargetVersion: int(params.TextDocument.Version),
		Edits:         edits,
	}
	return s.core.DidChange(context.Background(), n)
}

func (s *Server) textDocumentDidClose(_ *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	return s.core.DidClose(params.TextDocument.URI)
}

func (s *Server) textDocumentCompletion(_ *glsp.Context, params *protocol.CompletionParams) (any, error) {
	req := resolve.CompletionRequest{
		URI:                  params.TextDocument.URI,
		Position:             fromProtocolPosition(params.Position),
		Timeout:              s.core.CompletionsTimeout(),
		IncludeArgumentNames: true,
	}
	items, err := s.core.Resolver().Complete(context.Background(), req)
	if err != nil {
		return nil, err
	}

	out := make([]protocol.CompletionItem, 0, len(items))
	for _, it := range items {
		kind := toCompletionKind(it.Kind)
		insertText := it.InsertText
		out = append(out, protocol.CompletionItem{
			Label:         it.Label,
			InsertText:    &insertText,
			Kind:          &kind,
			Documentation: it.Documentation,
		})
	}
	return out, nil
}

// completionItemResolve implements completionItem/resolve (spec §6): a
// no-op passthrough, since textDocument/completion already fills in every
// field (documentation, insert text) a client would resolve lazily.
func (s *Server) completionItemResolve(_ *glsp.Context, params *protocol.CompletionItem) (*protocol.CompletionItem, error) {
	return params, nil
}

func toCompletionKind(k contract.MemberKind) protocol.CompletionItemKind {
	switch k {
	case contract.MemberFunction:
		return protocol.CompletionItemKindFunction
	case contract.MemberType:
		return protocol.CompletionItemKindClass
	case contract.MemberModule:
		return protocol.CompletionItemKindModule
	case contract.MemberNamedArgument:
		return protocol.CompletionItemKindVariable
	default:
		return protocol.CompletionItemKindVariable
	}
}

func (s *Server) textDocumentHover(_ *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	req := resolve.HoverRequest{
		URI:      params.TextDocument.URI,
		Position: fromProtocolPosition(params.Position),
		Timeout:  s.core.CompletionsTimeout(),
	}
	text, err := s.core.Resolver().Hover(context.Background(), req)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, nil
	}
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindPlainText,
			Value: text,
		},
	}, nil
}

func (s *Server) textDocumentSignatureHelp(_ *glsp.Context, params *protocol.SignatureHelpParams) (*protocol.SignatureHelp, error) {
	req := resolve.SignatureHelpRequest{
		URI:      params.TextDocument.URI,
		Position: fromProtocolPosition(params.Position),
		Timeout:  s.core.CompletionsTimeout(),
	}
	result, err := s.core.Resolver().SignatureHelp(context.Background(), req)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}

	sigs := make([]protocol.SignatureInformation, 0, len(result.Signatures))
	for _, ov := range result.Signatures {
		paramInfos := make([]protocol.ParameterInformation, 0, len(ov.Parameters))
		for _, p := range ov.Parameters {
			paramInfos = append(paramInfos, protocol.ParameterInformation{Label: p.Name})
		}
		sigs = append(sigs, protocol.SignatureInformation{
			Label:      ov.Label,
			Parameters: paramInfos,
		})
	}

	active := uint32(result.ActiveSignature)
	activeParam := uint32(result.ActiveParameter)
	return &protocol.SignatureHelp{
		Signatures:      sigs,
		ActiveSignature: &active,
		ActiveParameter: &activeParam,
	}, nil
}

func (s *Server) textDocumentReferences(_ *glsp.Context, params *protocol.ReferenceParams) ([]protocol.Location, error) {
	req := resolve.ReferencesRequest{
		URI:                params.TextDocument.URI,
		Position:           fromProtocolPosition(params.Position),
		Timeout:            s.core.CompletionsTimeout(),
		IncludeDeclaration: params.Context.IncludeDeclaration,
	}
	vars, err := s.core.Resolver().References(context.Background(), req)
	if err != nil {
		return nil, err
	}

	out := make([]protocol.Location, 0, len(vars))
	for _, v := range vars {
		out = append(out, protocol.Location{
			URI:   v.URI,
			Range: toProtocolRange(v.Range),
		})
	}
	return out, nil
}

func (s *Server) workspaceSymbol(_ *glsp.Context, params *protocol.WorkspaceSymbolParams) ([]protocol.SymbolInformation, error) {
	symbols := s.core.Resolver().WorkspaceSymbols(params.Query)

	out := make([]protocol.SymbolInformation, 0, len(symbols))
	for _, sym := range symbols {
		out = append(out, protocol.SymbolInformation{
			Name:     sym.Name,
			Kind:     toSymbolKind(sym.Kind),
			Location: protocol.Location{URI: sym.URI},
		})
	}
	return out, nil
}

func toSymbolKind(k contract.MemberKind) protocol.SymbolKind {
	switch k {
	case contract.MemberFunction:
		return protocol.SymbolKindFunction
	case contract.MemberType:
		return protocol.SymbolKindClass
	case contract.MemberModule:
		return protocol.SymbolKindModule
	default:
		return protocol.SymbolKindVariable
	}
}

func (s *Server) workspaceDidChangeWatchedFiles(_ *glsp.Context, params *protocol.DidChangeWatchedFilesParams) error {
	ctx := context.Background()
	for _, change := range params.Changes {
		switch change.Type {
		case protocol.FileChangeTypeCreated:
			if root := rootPath(s.root); root != "" {
				if err := s.core.LoadWorkspace(ctx, root); err != nil {
					log.Warning("load after create notification failed", "error", err)
				}
			}
		case protocol.FileChangeTypeDeleted:
			s.core.Delete(ctx, string(change.URI))
		case protocol.FileChangeTypeChanged:
			s.core.WatchedFileChanged(ctx, string(change.URI), uriToPath(string(change.URI)))
		}
	}
	return nil
}

func (s *Server) workspaceDidChangeConfiguration(_ *glsp.Context, _ *protocol.DidChangeConfigurationParams) error {
	s.core.Reload(context.Background())
	return nil
}
