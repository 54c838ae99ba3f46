// Package lsp serves the engine over the Language Server Protocol. Editors
// get document formatting, and the diagnostics of a dry run are published
// whenever a document is opened or saved.
package lsp

import (
	"context"
	"net/url"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"github.com/dhamidi/groom/diag"
	"github.com/dhamidi/groom/engine"
	"github.com/dhamidi/groom/settings"
	"github.com/dhamidi/groom/transform"
)

const lsName = "groom"

var log = commonlog.GetLogger("groom.lsp")

type Server struct {
	mu      sync.Mutex
	cfg     *settings.Settings
	fixed   bool
	index   transform.TypeIndex
	info    transform.TypeInfo
	docs    map[string]string
	version string

	handler protocol.Handler
	server  *server.Server
}

type Option func(*Server)

// WithSettings fixes the configuration. Without it the server loads the
// groom.toml nearest to the workspace root on initialize.
func WithSettings(cfg *settings.Settings) Option {
	return func(s *Server) {
		s.cfg = cfg
		s.fixed = true
	}
}

func WithRepository(idx transform.TypeIndex) Option {
	return func(s *Server) { s.index = idx }
}

func WithTypeInfo(info transform.TypeInfo) Option {
	return func(s *Server) { s.info = info }
}

func NewServer(version string, opts ...Option) *Server {
	s := &Server{
		cfg:     settings.Default(),
		docs:    make(map[string]string),
		version: version,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.handler = protocol.Handler{
		Initialize:             s.initialize,
		Initialized:            s.initialized,
		Shutdown:               s.shutdown,
		SetTrace:               s.setTrace,
		TextDocumentDidOpen:    s.textDocumentDidOpen,
		TextDocumentDidChange:  s.textDocumentDidChange,
		TextDocumentDidClose:   s.textDocumentDidClose,
		TextDocumentDidSave:    s.textDocumentDidSave,
		TextDocumentFormatting: s.textDocumentFormatting,
	}
	s.server = server.NewServer(&s.handler, lsName, false)
	return s
}

func (s *Server) RunStdio() error {
	return s.server.RunStdio()
}

func (s *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	rootDir := "."
	if params.RootPath != nil && *params.RootPath != "" {
		rootDir = *params.RootPath
	} else if params.RootURI != nil && *params.RootURI != "" {
		if path, err := uriToPath(*params.RootURI); err == nil {
			rootDir = path
		}
	}
	if !s.fixed {
		cfg, err := settings.Load(rootDir)
		if err != nil {
			log.Warningf("using default settings: %s", err)
		} else {
			s.mu.Lock()
			s.cfg = cfg
			s.mu.Unlock()
		}
	}

	capabilities := s.handler.CreateServerCapabilities()
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    syncKindPtr(protocol.TextDocumentSyncKindFull),
		Save: &protocol.SaveOptions{
			IncludeText: boolPtr(true),
		},
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: &s.version,
		},
	}, nil
}

func (s *Server) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (s *Server) shutdown(ctx *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)
	return nil
}

func (s *Server) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (s *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	s.setDocument(params.TextDocument.URI, params.TextDocument.Text)
	s.publish(ctx, params.TextDocument.URI)
	return nil
}

func (s *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	if len(params.ContentChanges) > 0 {
		change := params.ContentChanges[len(params.ContentChanges)-1]
		if whole, ok := change.(protocol.TextDocumentContentChangeEventWhole); ok {
			s.setDocument(params.TextDocument.URI, whole.Text)
		}
	}
	return nil
}

func (s *Server) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	s.mu.Lock()
	delete(s.docs, params.TextDocument.URI)
	s.mu.Unlock()
	return nil
}

func (s *Server) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	if params.Text != nil {
		s.setDocument(params.TextDocument.URI, *params.Text)
	}
	s.publish(ctx, params.TextDocument.URI)
	return nil
}

// textDocumentFormatting answers with a single edit replacing the whole
// document, or no edit when formatting changes nothing.
func (s *Server) textDocumentFormatting(ctx *glsp.Context, params *protocol.DocumentFormattingParams) ([]protocol.TextEdit, error) {
	text, ok := s.document(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	formatted, _, err := s.Format(context.Background(), params.TextDocument.URI, text, tabSize(params.Options))
	if err != nil {
		return nil, err
	}
	if formatted == text {
		return nil, nil
	}
	return []protocol.TextEdit{{Range: wholeRange(text), NewText: formatted}}, nil
}

// Format runs the engine over text. indentSize overrides the configured
// indentation when positive.
func (s *Server) Format(ctx context.Context, uri, text string, indentSize int) (string, []diag.Diagnostic, error) {
	s.mu.Lock()
	cfg := *s.cfg
	s.mu.Unlock()
	if indentSize > 0 {
		cfg.Output.IndentSize = indentSize
	}
	// Documents live in the editor; history and backups do not apply.
	cfg.History.Policy = settings.HistoryNone

	opts := []engine.Option{}
	if s.index != nil {
		opts = append(opts, engine.WithRepository(s.index))
	}
	if s.info != nil {
		opts = append(opts, engine.WithTypeInfo(s.info))
	}
	e, err := engine.New(&cfg, opts...)
	if err != nil {
		return "", nil, err
	}
	name := uri
	if path, err := uriToPath(uri); err == nil {
		name = path
	}
	var out string
	if err := e.SetInputString(name, text); err != nil {
		return "", nil, err
	}
	if err := e.SetOutputString(&out); err != nil {
		return "", nil, err
	}
	if err := e.Format(ctx); err != nil {
		return "", e.Diagnostics(), err
	}
	return out, e.Diagnostics(), nil
}

func (s *Server) publish(ctx *glsp.Context, uri string) {
	text, ok := s.document(uri)
	if !ok {
		return
	}
	_, diags, err := s.Format(context.Background(), uri, text, 0)
	if err != nil && len(diags) == 0 {
		log.Errorf("failed to check %s: %s", uri, err)
		return
	}
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: toProtocol(diags),
	})
}

func (s *Server) setDocument(uri, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[uri] = text
}

func (s *Server) document(uri string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text, ok := s.docs[uri]
	return text, ok
}

func tabSize(opts protocol.FormattingOptions) int {
	switch v := opts[protocol.FormattingOptionTabSize].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case protocol.UInteger:
		return int(v)
	}
	return 0
}

func uriToPath(uri string) (string, error) {
	if strings.HasPrefix(uri, "file://") {
		parsed, err := url.Parse(uri)
		if err != nil {
			return "", err
		}
		return filepath.Clean(parsed.Path), nil
	}
	return uri, nil
}

func boolPtr(b bool) *bool {
	return &b
}

func syncKindPtr(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &k
}
