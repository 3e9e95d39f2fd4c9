// Package lsp provides a Language Server Protocol server for markup files.
// It republishes diagnostics on every open, change and save, and documents
// the special elements and attribute prefixes on hover.
package lsp

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"github.com/Sumatoshi-tech/uimarkup/pkg/markup"
	"github.com/Sumatoshi-tech/uimarkup/pkg/markup/diag"
	"github.com/Sumatoshi-tech/uimarkup/pkg/observability"
)

const serverName = "uimarkup"

// Server implements the markup language server.
type Server struct {
	store    *DocumentStore
	compiler *markup.Compiler
	red      *observability.REDMetrics
	logger   *slog.Logger
	version  string
	handler  protocol.Handler
}

// NewServer creates a language server compiling with compiler. red may be nil.
func NewServer(compiler *markup.Compiler, red *observability.REDMetrics, logger *slog.Logger, version string) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	srv := &Server{
		store:    NewDocumentStore(),
		compiler: compiler,
		red:      red,
		logger:   logger,
		version:  version,
	}

	srv.handler = protocol.Handler{
		Initialize:             srv.initialize,
		Initialized:            srv.initialized,
		Shutdown:               srv.shutdown,
		SetTrace:               srv.setTrace,
		TextDocumentDidOpen:    srv.didOpen,
		TextDocumentDidChange:  srv.didChange,
		TextDocumentDidSave:    srv.didSave,
		TextDocumentDidClose:   srv.didClose,
		TextDocumentCompletion: srv.completion,
		TextDocumentHover:      srv.hover,
	}

	return srv
}

// Run serves the protocol on stdio until the client disconnects.
func (srv *Server) Run() error {
	if err := server.NewServer(&srv.handler, serverName, false).RunStdio(); err != nil {
		return fmt.Errorf("lsp server: %w", err)
	}

	return nil
}

func (srv *Server) initialize(_ *glsp.Context, _ *protocol.InitializeParams) (any, error) {
	capabilities := srv.handler.CreateServerCapabilities()

	if syncOpts, ok := capabilities.TextDocumentSync.(*protocol.TextDocumentSyncOptions); ok {
		full := protocol.TextDocumentSyncKindFull
		syncOpts.Change = &full
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    serverName,
			Version: &srv.version,
		},
	}, nil
}

func (srv *Server) initialized(_ *glsp.Context, _ *protocol.InitializedParams) error {
	return nil
}

func (srv *Server) shutdown(_ *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)

	return nil
}

func (srv *Server) setTrace(_ *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)

	return nil
}

func (srv *Server) didOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	srv.store.Set(params.TextDocument.URI, params.TextDocument.Text)
	srv.publishDiagnostics(ctx, params.TextDocument.URI)

	return nil
}

func (srv *Server) didChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	text, _, ok := srv.store.Get(uri)
	if !ok || len(params.ContentChanges) == 0 {
		return nil
	}

	for _, change := range params.ContentChanges {
		text = applyChange(text, change)
	}

	srv.store.Set(uri, text)
	srv.publishDiagnostics(ctx, uri)

	return nil
}

func (srv *Server) didSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	uri := params.TextDocument.URI

	if params.Text != nil {
		srv.store.Set(uri, *params.Text)
	}

	if _, _, ok := srv.store.Get(uri); ok {
		srv.publishDiagnostics(ctx, uri)
	}

	return nil
}

func (srv *Server) didClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	srv.store.Delete(params.TextDocument.URI)

	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         params.TextDocument.URI,
		Diagnostics: []protocol.Diagnostic{},
	})

	return nil
}

var completionItems = buildCompletionItems()

func buildCompletionItems() []protocol.CompletionItem {
	names := make([]string, 0, len(elementDocs))
	for name := range elementDocs {
		names = append(names, name)
	}

	slices.Sort(names)

	kind := protocol.CompletionItemKindKeyword
	items := make([]protocol.CompletionItem, 0, len(names))

	for _, name := range names {
		detail := elementDocs[name]
		items = append(items, protocol.CompletionItem{Label: name, Kind: &kind, Detail: &detail})
	}

	return items
}

func (srv *Server) completion(_ *glsp.Context, _ *protocol.CompletionParams) (any, error) {
	return protocol.CompletionList{IsIncomplete: false, Items: completionItems}, nil
}

func (srv *Server) hover(_ *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	text, _, ok := srv.store.Get(params.TextDocument.URI)
	if !ok {
		return nil, nil //nolint:nilnil // no hover for unknown documents
	}

	doc := hoverDoc(wordAt(text, toOffset(text, params.Position)))
	if doc == "" {
		return nil, nil //nolint:nilnil // no hover outside documented words
	}

	return &protocol.Hover{
		Contents: protocol.MarkupContent{Kind: protocol.MarkupKindMarkdown, Value: doc},
	}, nil
}

// Diagnose compiles the stored document at uri and converts the problems
// into LSP diagnostics.
func (srv *Server) Diagnose(ctx context.Context, uri string) []protocol.Diagnostic {
	text, fileID, ok := srv.store.Get(uri)
	if !ok {
		return nil
	}

	var (
		res     *markup.Result
		compErr error
	)

	// The compile error is the finding itself; it never fails the request.
	_ = srv.red.Observe(ctx, "lsp.diagnose", func(ctx context.Context) error {
		res, compErr = srv.compiler.Compile(ctx, fileID, []byte(text))

		return nil
	})

	problems := markup.Problems(text, res, compErr)
	out := make([]protocol.Diagnostic, 0, len(problems))
	source := serverName

	for _, p := range problems {
		severity := protocol.DiagnosticSeverityError
		if p.Severity == diag.SeverityWarning {
			severity = protocol.DiagnosticSeverityWarning
		}

		d := protocol.Diagnostic{
			Range:    toRange(text, p.Start, p.End),
			Severity: &severity,
			Source:   &source,
			Message:  p.Message,
		}

		if p.Code != "" {
			d.Code = &protocol.IntegerOrString{Value: string(p.Code)}
		}

		out = append(out, d)
	}

	return out
}

func (srv *Server) publishDiagnostics(ctx *glsp.Context, uri string) {
	diagnostics := srv.Diagnose(context.Background(), uri)

	srv.logger.Debug("publish diagnostics", "lsp.uri", uri, "lsp.count", len(diagnostics))

	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}
