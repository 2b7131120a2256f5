package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	iLsp "github.com/jwtly10/litpost/internal/lsp"
	"github.com/sourcegraph/go-lsp"
	"github.com/sourcegraph/jsonrpc2"
)

type Server struct {
	conn *jsonrpc2.Conn
	// tracks canceled request IDs
	cancelMap sync.Map

	// tracking for method request counts
	trackRequestCount sync.Map

	// open documents and what we know about them
	docService *iLsp.DocumentService

	shutdown bool
	// exit ends the process, os.Exit outside of tests
	exit func(code int)
}

type Options struct {
	DocService iLsp.DocumentServiceOptions
}

func (o Options) Validate() error {
	return o.DocService.Validate()
}

func NewServer(options Options) (*Server, error) {
	if err := options.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server options: %w", err)
	}

	dService, err := iLsp.NewDocumentService(options.DocService)
	if err != nil {
		return nil, err
	}

	return &Server{
		docService: dService,
		exit:       os.Exit,
	}, nil
}

func (s *Server) Handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (result interface{}, err error) {
	if s.conn == nil {
		s.conn = conn
	}
	slog.Info("received request", "method", req.Method, "id", req.ID)
	reqCount, _ := s.trackRequestCount.LoadOrStore(req.Method, 0)
	if count, ok := reqCount.(int); ok {
		s.trackRequestCount.Store(req.Method, count+1)
	}

	if _, ok := s.cancelMap.Load(req.ID.String()); ok {
		slog.Debug("request was canceled", "id", req.ID)
		s.cancelMap.Delete(req.ID.String())
		return nil, nil
	}

	switch req.Method {
	case "initialize":
		slog.Info("initializing lsp server")

		var params lsp.InitializeParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}
		slog.Debug("client info", "root", params.Root(), "pid", params.ProcessID)

		kind := lsp.TDSKFull
		return lsp.InitializeResult{
			Capabilities: lsp.ServerCapabilities{
				TextDocumentSync: &lsp.TextDocumentSyncOptionsOrKind{Kind: &kind},
				HoverProvider:    true,
			},
		}, nil

	case "initialized":
		slog.Info("server initialized")
		return nil, nil

	case "shutdown":
		slog.Info("shutting down")
		s.shutdown = true
		s.printDebugStats()
		return nil, nil

	case "exit":
		slog.Info("exiting")
		if s.shutdown {
			s.exit(0)
		} else {
			s.exit(1)
		}
		return nil, nil

	// Biz logic
	case "textDocument/didOpen":
		var params lsp.DidOpenTextDocumentParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}

		s.docService.Open(params.TextDocument.URI, params.TextDocument.Text)
		return nil, s.publishDiagnostics(ctx, params.TextDocument.URI)

	case "textDocument/didChange":
		var params lsp.DidChangeTextDocumentParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}

		// full sync, the last change holds the whole document
		if n := len(params.ContentChanges); n > 0 {
			s.docService.Open(params.TextDocument.URI, params.ContentChanges[n-1].Text)
		}
		return nil, s.publishDiagnostics(ctx, params.TextDocument.URI)

	case "textDocument/didSave":
		var params lsp.DidSaveTextDocumentParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}

		if !s.docService.RenderOnSave() {
			return nil, nil
		}
		return nil, s.renderSaved(ctx, params.TextDocument.URI)

	case "textDocument/didClose":
		var params lsp.DidCloseTextDocumentParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}

		s.docService.Close(params.TextDocument.URI)
		return nil, s.SendDiagnostics(ctx, lsp.PublishDiagnosticsParams{
			URI:         params.TextDocument.URI,
			Diagnostics: []lsp.Diagnostic{},
		})

	case "textDocument/hover":
		var params lsp.TextDocumentPositionParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}

		return s.docService.Hover(params.TextDocument.URI, params.Position)

	case "$/cancelRequest":
		var params lsp.CancelParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}
		slog.Debug("canceling request", "id", params.ID)
		s.cancelMap.Store(params.ID.String(), struct{}{})
		return nil, nil

	default:
		if req.Notif {
			slog.Debug("ignoring notification", "method", req.Method)
			return nil, nil
		}
		return nil, &jsonrpc2.Error{
			Code:    jsonrpc2.CodeMethodNotFound,
			Message: fmt.Sprintf("method not supported: %s", req.Method),
		}
	}
}

func (s *Server) SendDiagnostics(ctx context.Context, params lsp.PublishDiagnosticsParams) error {
	return s.conn.Notify(ctx, "textDocument/publishDiagnostics", params)
}

func (s *Server) publishDiagnostics(ctx context.Context, uri lsp.DocumentURI) error {
	diagnostics, err := s.docService.Diagnostics(uri)
	if err != nil {
		return err
	}

	return s.SendDiagnostics(ctx, lsp.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

// renderSaved writes the rendered post for a saved document. Failures are
// shown to the user rather than returned, the save itself succeeded.
func (s *Server) renderSaved(ctx context.Context, uri lsp.DocumentURI) error {
	text, ok := s.docService.Text(uri)
	if !ok {
		return fmt.Errorf("document not open: %s", uri)
	}

	path, err := s.docService.URIToPath(uri)
	if err != nil {
		return fmt.Errorf("invalid document URI: %w", err)
	}

	out, err := s.docService.TransformFinalDoc(ctx, text, path)
	if err != nil {
		slog.Error("failed to render saved post", "path", path, "error", err)
		return s.conn.Notify(ctx, "window/showMessage", lsp.ShowMessageParams{
			Type:    lsp.MTError,
			Message: fmt.Sprintf("litpost: %v", err),
		})
	}

	slog.Info("rendered saved post", "source", path, "output", out)
	return nil
}

func decodeParams(req *jsonrpc2.Request, v any) error {
	if req.Params == nil {
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: "missing params"}
	}
	return json.Unmarshal(*req.Params, v)
}

func (s *Server) printDebugStats() {
	s.trackRequestCount.Range(func(key, value interface{}) bool {
		msg := fmt.Sprintf("Method: %-30s Count: %d", key.(string), value.(int))
		slog.Debug(msg)
		return true
	})
}
