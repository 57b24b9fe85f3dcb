package lsp

import (
	"context"
	"encoding/json"

	"github.com/ahazxm/markdown-notes/internal/completion"
	"github.com/ahazxm/markdown-notes/internal/refs"
)

// LSP Protocol Types
// Only the fields this server reads or writes are modelled.

type InitializeParams struct {
	RootURI  string `json:"rootUri"`
	RootPath string `json:"rootPath"`
}

type InitializeResult struct {
	Capabilities ServerCapabilities `json:"capabilities"`
	ServerInfo   *ServerInfo        `json:"serverInfo,omitempty"`
}

type ServerInfo struct {
	Name string `json:"name"`
}

type ServerCapabilities struct {
	TextDocumentSync   TextDocumentSyncOptions `json:"textDocumentSync"`
	CompletionProvider *CompletionOptions      `json:"completionProvider,omitempty"`
}

type TextDocumentSyncOptions struct {
	OpenClose bool `json:"openClose"`
	Change    int  `json:"change"`
	Save      bool `json:"save"`
}

type CompletionOptions struct {
	TriggerCharacters []string `json:"triggerCharacters"`
	ResolveProvider   bool     `json:"resolveProvider"`
}

type TextDocumentIdentifier struct {
	URI string `json:"uri"`
}

type VersionedTextDocumentIdentifier struct {
	URI     string `json:"uri"`
	Version int    `json:"version"`
}

type TextDocumentItem struct {
	URI        string `json:"uri"`
	LanguageID string `json:"languageId"`
	Version    int    `json:"version"`
	Text       string `json:"text"`
}

type DidOpenTextDocumentParams struct {
	TextDocument TextDocumentItem `json:"textDocument"`
}

type DidChangeTextDocumentParams struct {
	TextDocument   VersionedTextDocumentIdentifier  `json:"textDocument"`
	ContentChanges []TextDocumentContentChangeEvent `json:"contentChanges"`
}

type TextDocumentContentChangeEvent struct {
	Text string `json:"text"` // Full content (we use full sync)
}

type DidSaveTextDocumentParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

type DidCloseTextDocumentParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

type TextDocumentPositionParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Position     Position               `json:"position"`
}

type CompletionParams struct {
	TextDocumentPositionParams
}

type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

type TextEdit struct {
	Range   Range  `json:"range"`
	NewText string `json:"newText"`
}

type MarkupContent struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

type CompletionItem struct {
	Label            string          `json:"label"`
	Kind             int             `json:"kind,omitempty"`
	Detail           string          `json:"detail,omitempty"`
	Documentation    *MarkupContent  `json:"documentation,omitempty"`
	TextEdit         *TextEdit       `json:"textEdit,omitempty"`
	CommitCharacters []string        `json:"commitCharacters,omitempty"`
	Data             *CompletionData `json:"data,omitempty"`
}

// CompletionData round-trips through the client to completionItem/resolve.
type CompletionData struct {
	Label string `json:"label"`
}

type CompletionList struct {
	IsIncomplete bool             `json:"isIncomplete"`
	Items        []CompletionItem `json:"items"`
}

// Completion item kinds
const (
	CompletionKindText    = 1
	CompletionKindSnippet = 15
	CompletionKindFile    = 17
)

// TextDocumentSyncKindFull sends the whole document on every change.
const TextDocumentSyncKindFull = 1

// Handler implementations

func (s *Server) handleInitialize(ctx context.Context, msg jsonRPCMessage) error {
	var params InitializeParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendError(msg.ID, codeInvalidParams, "Invalid params")
	}

	// Fall back to the client's workspace folder when no root was configured
	if s.provider == nil {
		root := params.RootPath
		if params.RootURI != "" {
			root = s.uriToPath(params.RootURI)
		}
		if root != "" {
			s.opts.Root = root
			if err := s.initialize(ctx); err != nil {
				s.logDebug("failed to initialize with client root: %v", err)
			}
		}
	}

	return s.sendResult(msg.ID, InitializeResult{
		Capabilities: ServerCapabilities{
			TextDocumentSync: TextDocumentSyncOptions{
				OpenClose: true,
				Change:    TextDocumentSyncKindFull,
				Save:      true,
			},
			CompletionProvider: &CompletionOptions{
				TriggerCharacters: []string{"[", "#"},
				ResolveProvider:   true,
			},
		},
		ServerInfo: &ServerInfo{Name: "mdnotes"},
	})
}

func (s *Server) handleDidOpen(msg jsonRPCMessage) error {
	var params DidOpenTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}

	s.documents.Open(
		params.TextDocument.URI,
		s.uriToPath(params.TextDocument.URI),
		params.TextDocument.Text,
		params.TextDocument.Version,
	)
	s.logDebug("opened: %s", params.TextDocument.URI)
	return nil
}

func (s *Server) handleDidChange(msg jsonRPCMessage) error {
	var params DidChangeTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}

	// We use full sync, so take the last content change
	if len(params.ContentChanges) > 0 {
		content := params.ContentChanges[len(params.ContentChanges)-1].Text
		s.documents.Update(params.TextDocument.URI, content, params.TextDocument.Version)
	}
	return nil
}

func (s *Server) handleDidSave(ctx context.Context, msg jsonRPCMessage) error {
	var params DidSaveTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}

	s.logDebug("saved: %s", params.TextDocument.URI)
	if s.db == nil {
		return nil
	}

	path := s.uriToPath(params.TextDocument.URI)
	if err := s.db.ReindexFile(ctx, s.ws, path); err != nil {
		s.logDebug("failed to reindex %s: %v", path, err)
	}
	return nil
}

func (s *Server) handleDidClose(msg jsonRPCMessage) error {
	var params DidCloseTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}

	s.documents.Close(params.TextDocument.URI)
	s.logDebug("closed: %s", params.TextDocument.URI)
	return nil
}

func (s *Server) handleCompletion(ctx context.Context, msg jsonRPCMessage) error {
	var params CompletionParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendError(msg.ID, codeInvalidParams, "Invalid params")
	}

	doc := s.documents.Get(params.TextDocument.URI)
	if doc == nil || s.provider == nil {
		return s.sendResult(msg.ID, nil)
	}

	offset := OffsetAt(doc.Content, params.Position)
	candidates, err := s.provider.Complete(ctx, completion.Document{Path: doc.Path, Text: doc.Content}, offset)
	if err != nil {
		s.logDebug("completion failed: %v", err)
		return s.sendError(msg.ID, codeInternalError, err.Error())
	}

	items := make([]CompletionItem, 0, len(candidates))
	for _, c := range candidates {
		items = append(items, toCompletionItem(doc.Content, c))
	}

	return s.sendResult(msg.ID, CompletionList{
		IsIncomplete: false,
		Items:        items,
	})
}

func (s *Server) handleResolve(ctx context.Context, msg jsonRPCMessage) error {
	var item CompletionItem
	if err := json.Unmarshal(msg.Params, &item); err != nil {
		return s.sendError(msg.ID, codeInvalidParams, "Invalid params")
	}
	if s.provider == nil {
		return s.sendResult(msg.ID, item)
	}

	label := item.Label
	if item.Data != nil && item.Data.Label != "" {
		label = item.Data.Label
	}

	resolved, outcome := s.provider.Resolve(ctx, completion.Candidate{Label: label})
	if outcome != completion.OutcomeResolved {
		s.logDebug("resolve %q: %s", label, outcome)
		return s.sendResult(msg.ID, item)
	}

	item.Detail = resolved.Detail
	if resolved.Documentation != "" {
		item.Documentation = &MarkupContent{Kind: "markdown", Value: resolved.Documentation}
	}
	return s.sendResult(msg.ID, item)
}

func toCompletionItem(text string, c completion.Candidate) CompletionItem {
	item := CompletionItem{
		Label: c.Label,
		Kind:  completionKind(c.Kind),
		TextEdit: &TextEdit{
			Range: Range{
				Start: PositionAt(text, c.Range.Start),
				End:   PositionAt(text, c.Range.End),
			},
			NewText: c.Label,
		},
		CommitCharacters: c.CommitCharacters,
	}
	if c.Kind == refs.WikiLink {
		item.Data = &CompletionData{Label: c.Label}
	}
	return item
}

func completionKind(k refs.Kind) int {
	switch k {
	case refs.Tag:
		return CompletionKindFile
	case refs.WikiLink:
		return CompletionKindSnippet
	default:
		return CompletionKindText
	}
}
