// Package lsp implements a Language Server Protocol server for markdown notes.
//
// It provides tag and wiki link completion with lazily resolved note details.
package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/ahazxm/markdown-notes/internal/completion"
	"github.com/ahazxm/markdown-notes/internal/index"
	"github.com/ahazxm/markdown-notes/internal/note"
	"github.com/ahazxm/markdown-notes/internal/paths"
	"github.com/ahazxm/markdown-notes/internal/watcher"
	"github.com/ahazxm/markdown-notes/internal/workspace"
)

// Options configures a Server.
type Options struct {
	// Root is the workspace directory. If empty, the client's rootUri is used.
	Root string

	Convention         workspace.Convention
	DocumentationLines int
	Debug              bool

	// Watch reindexes notes changed outside the editor while the server runs.
	Watch bool
}

// Server is the markdown notes LSP server.
type Server struct {
	opts Options

	// Workspace infrastructure
	ws       *workspace.Workspace
	db       *index.Database
	provider *completion.Provider

	// File watching
	stopWatch func()
	watchDone chan struct{}

	// Document management
	documents *DocumentManager

	// LSP communication
	input  *bufio.Reader
	output io.Writer
	stderr io.Writer
	mu     sync.Mutex // Protects output writes

	shutdown bool
	exited   bool
}

// NewServer creates a new LSP server speaking over stdin and stdout.
func NewServer(opts Options) *Server {
	return newServer(opts, os.Stdin, os.Stdout)
}

func newServer(opts Options, in io.Reader, out io.Writer) *Server {
	return &Server{
		opts:      opts,
		documents: NewDocumentManager(),
		input:     bufio.NewReader(in),
		output:    out,
		stderr:    os.Stderr,
	}
}

// Run processes messages until the client sends exit or closes the input.
func (s *Server) Run(ctx context.Context) error {
	if s.opts.Root != "" {
		if err := s.initialize(ctx); err != nil {
			return fmt.Errorf("failed to initialize: %w", err)
		}
	}
	defer s.close()

	s.logDebug("server started for workspace: %s", s.opts.Root)

	for !s.exited {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if err := s.handleNextMessage(ctx); err != nil {
				if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
					return nil
				}
				s.logDebug("error handling message: %v", err)
			}
		}
	}

	return nil
}

// initialize opens the workspace index, brings it up to date and creates the provider.
func (s *Server) initialize(ctx context.Context) error {
	s.ws = workspace.New(s.opts.Root, s.opts.Convention)

	// A failed earlier attempt may have left a handle behind.
	if s.db != nil {
		s.db.Close()
		s.db = nil
	}

	db, err := index.Open(s.ws.IndexPath())
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}

	result, err := db.Rebuild(ctx, s.ws, index.RebuildOptions{})
	switch {
	case errors.Is(err, index.ErrIndexLocked):
		s.logDebug("index is being rebuilt by another process; using existing index")
	case err != nil:
		db.Close()
		return fmt.Errorf("failed to update index: %w", err)
	default:
		s.logDebug("indexed %d notes (%d unchanged, %d removed)", result.Indexed, result.Skipped, len(result.Removed))
		for _, fe := range result.Errors {
			s.logDebug("skipped %s: %s", fe.FilePath, fe.Message)
		}
	}

	s.db = db
	s.provider = completion.NewProvider(db, s.ws, s.ws, note.Loader{DocumentationLines: s.opts.DocumentationLines})
	s.provider.Debugf = s.logDebug

	if s.opts.Watch {
		if err := s.startWatcher(ctx); err != nil {
			return err
		}
	}
	return nil
}

// startWatcher reindexes notes changed on disk until the server closes.
func (s *Server) startWatcher(ctx context.Context) error {
	w, err := watcher.New(watcher.Config{
		Workspace: s.ws,
		Database:  s.db,
		Debug:     s.opts.Debug,
		Log:       s.stderr,
	})
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	s.stopWatch = cancel
	s.watchDone = make(chan struct{})
	go func() {
		defer close(s.watchDone)
		if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logDebug("watcher stopped: %v", err)
		}
	}()
	return nil
}

func (s *Server) close() {
	if s.stopWatch != nil {
		s.stopWatch()
		<-s.watchDone
	}
	if s.db != nil {
		s.db.Close()
	}
}

// handleNextMessage reads and processes a single LSP message.
func (s *Server) handleNextMessage(ctx context.Context) error {
	contentLength := -1
	for {
		line, err := s.input.ReadString('\n')
		if err != nil {
			return err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break // Empty line separates header from content
		}

		if value, ok := strings.CutPrefix(line, "Content-Length: "); ok {
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				return fmt.Errorf("invalid Content-Length %q", value)
			}
			contentLength = n
		}
	}

	if contentLength <= 0 {
		return fmt.Errorf("no Content-Length header")
	}

	content := make([]byte, contentLength)
	if _, err := io.ReadFull(s.input, content); err != nil {
		return err
	}

	var msg jsonRPCMessage
	if err := json.Unmarshal(content, &msg); err != nil {
		return fmt.Errorf("failed to parse message: %w", err)
	}

	s.logDebug("received: %s", msg.Method)

	return s.dispatch(ctx, msg)
}

// dispatch routes a message to the appropriate handler.
func (s *Server) dispatch(ctx context.Context, msg jsonRPCMessage) error {
	if s.shutdown && msg.Method != "exit" {
		if msg.ID != nil {
			return s.sendError(msg.ID, codeInvalidRequest, "server is shutting down")
		}
		return nil
	}

	switch msg.Method {
	case "initialize":
		return s.handleInitialize(ctx, msg)
	case "initialized":
		return nil
	case "shutdown":
		s.shutdown = true
		return s.sendResult(msg.ID, nil)
	case "exit":
		s.exited = true
		return nil
	case "textDocument/didOpen":
		return s.handleDidOpen(msg)
	case "textDocument/didChange":
		return s.handleDidChange(msg)
	case "textDocument/didSave":
		return s.handleDidSave(ctx, msg)
	case "textDocument/didClose":
		return s.handleDidClose(msg)
	case "textDocument/completion":
		return s.handleCompletion(ctx, msg)
	case "completionItem/resolve":
		return s.handleResolve(ctx, msg)
	default:
		if msg.ID != nil {
			return s.sendError(msg.ID, codeMethodNotFound, "method not found: "+msg.Method)
		}
		s.logDebug("unhandled notification: %s", msg.Method)
		return nil
	}
}

// JSON-RPC error codes
const (
	codeInvalidRequest = -32600
	codeInvalidParams  = -32602
	codeMethodNotFound = -32601
	codeInternalError  = -32603
)

// sendResult sends a successful response.
func (s *Server) sendResult(id any, result any) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return s.send(jsonRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result:  data,
	})
}

// sendError sends an error response.
func (s *Server) sendError(id any, code int, message string) error {
	return s.send(jsonRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &jsonRPCError{
			Code:    code,
			Message: message,
		},
	})
}

// send writes a JSON-RPC message to the output.
func (s *Server) send(msg any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	content, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	header := fmt.Sprintf("Content-Length: %d\r\n\r\n", len(content))
	if _, err := io.WriteString(s.output, header); err != nil {
		return err
	}
	_, err = s.output.Write(content)
	return err
}

// logDebug logs a debug message to stderr if debug mode is enabled.
func (s *Server) logDebug(format string, args ...any) {
	if s.opts.Debug {
		fmt.Fprintf(s.stderr, "[mdnotes-lsp] "+format+"\n", args...)
	}
}

func (s *Server) uriToPath(uri string) string {
	return paths.URIToPath(uri)
}

// JSON-RPC types

type jsonRPCMessage struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// jsonRPCResponse carries either Result (possibly JSON null) or Error.
type jsonRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *jsonRPCError   `json:"error,omitempty"`
}

type jsonRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
