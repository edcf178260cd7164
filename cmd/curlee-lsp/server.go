package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/url"
	"strconv"
	"strings"
	"sync"
)

// normalizeURI percent-decodes `file://` URIs (spec §6: "URIs with the
// file:// scheme are percent-decoded; other schemes pass through"). Other
// schemes are returned unchanged since nothing here resolves them to local
// paths.
func normalizeURI(uri string) string {
	if !strings.HasPrefix(uri, "file://") {
		return uri
	}
	decoded, err := url.PathUnescape(uri)
	if err != nil {
		return uri
	}
	return decoded
}

// server holds every open document, keyed by URI. Grounded on the teacher's
// cmd/lsp/server.go LanguageServer (a documents map guarded by a mutex, a
// writer for outbound frames) narrowed to Curlee's supported methods.
type server struct {
	mu        sync.Mutex
	documents map[string]*docState
	writer    io.Writer
}

func newServer(w io.Writer) *server {
	return &server{documents: map[string]*docState{}, writer: w}
}

// run reads Content-Length framed JSON-RPC messages from r until EOF or an
// `exit` notification, following the teacher's header-then-body read loop
// (accepting either \r\n or \n header terminators per spec §6).
func (s *server) run(r io.Reader) {
	reader := bufio.NewReader(r)
	for {
		length, err := readContentLength(reader)
		if err != nil {
			if err != io.EOF {
				log.Printf("curlee-lsp: %s", err)
			}
			return
		}
		body := make([]byte, length)
		if _, err := io.ReadFull(reader, body); err != nil {
			log.Printf("curlee-lsp: failed to read body: %s", err)
			return
		}
		if exit := s.handleMessage(body); exit {
			return
		}
	}
}

// readContentLength consumes header lines up to and including the blank
// line separator, returning the parsed Content-Length value.
func readContentLength(r *bufio.Reader) (int, error) {
	length := -1
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return 0, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if length < 0 {
				continue // blank line before any header seen; keep scanning
			}
			return length, nil
		}
		if v, ok := strings.CutPrefix(line, "Content-Length:"); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return 0, fmt.Errorf("invalid Content-Length: %w", err)
			}
			length = n
		}
	}
}

// handleMessage decodes one frame and dispatches it, returning true once an
// `exit` notification has been processed.
func (s *server) handleMessage(content []byte) (exit bool) {
	var base struct {
		ID     interface{} `json:"id,omitempty"`
		Method string      `json:"method"`
	}
	if err := json.Unmarshal(content, &base); err != nil {
		log.Printf("curlee-lsp: malformed message: %s", err)
		return false
	}

	if base.ID == nil {
		s.handleNotification(base.Method, content)
		return base.Method == "exit"
	}
	s.handleRequest(base.ID, base.Method, content)
	return false
}

func (s *server) handleRequest(id interface{}, method string, content []byte) {
	switch method {
	case "initialize":
		s.sendResult(id, InitializeResult{Capabilities: ServerCapabilities{
			TextDocumentSync:   1,
			HoverProvider:      true,
			DefinitionProvider: true,
		}})
	case "shutdown":
		s.sendResult(id, nil)
	case "textDocument/hover":
		var p HoverParams
		if err := unmarshalParams(content, &p); err != nil {
			s.sendError(id, err)
			return
		}
		s.sendResult(id, s.hover(p))
	case "textDocument/definition":
		var p DefinitionParams
		if err := unmarshalParams(content, &p); err != nil {
			s.sendError(id, err)
			return
		}
		s.sendResult(id, s.definition(p))
	default:
		s.sendRPCError(id, -32601, fmt.Sprintf("method not found: %s", method))
	}
}

func (s *server) handleNotification(method string, content []byte) {
	switch method {
	case "initialized", "exit":
		return
	case "textDocument/didOpen":
		var p DidOpenTextDocumentParams
		if err := unmarshalParams(content, &p); err != nil {
			log.Printf("curlee-lsp: %s", err)
			return
		}
		s.didOpen(p)
	case "textDocument/didChange":
		var p DidChangeTextDocumentParams
		if err := unmarshalParams(content, &p); err != nil {
			log.Printf("curlee-lsp: %s", err)
			return
		}
		s.didChange(p)
	case "textDocument/didClose":
		var p struct {
			TextDocument TextDocumentIdentifier `json:"textDocument"`
		}
		if err := unmarshalParams(content, &p); err == nil {
			s.mu.Lock()
			delete(s.documents, normalizeURI(p.TextDocument.URI))
			s.mu.Unlock()
		}
	}
}

func unmarshalParams(content []byte, params interface{}) error {
	var envelope struct {
		Params json.RawMessage `json:"params"`
	}
	if err := json.Unmarshal(content, &envelope); err != nil {
		return err
	}
	return json.Unmarshal(envelope.Params, params)
}

func (s *server) didOpen(p DidOpenTextDocumentParams) {
	uri := normalizeURI(p.TextDocument.URI)
	d := analyze(uri, p.TextDocument.Text)
	s.mu.Lock()
	s.documents[uri] = d
	s.mu.Unlock()
	s.publishDiagnostics(d)
}

func (s *server) didChange(p DidChangeTextDocumentParams) {
	if len(p.ContentChanges) == 0 {
		return
	}
	// spec §6: "first entry of contentChanges[] text is full replacement".
	uri := normalizeURI(p.TextDocument.URI)
	d := analyze(uri, p.ContentChanges[0].Text)
	s.mu.Lock()
	s.documents[uri] = d
	s.mu.Unlock()
	s.publishDiagnostics(d)
}

func (s *server) publishDiagnostics(d *docState) {
	s.sendNotification("textDocument/publishDiagnostics", PublishDiagnosticsParams{
		URI:         d.uri,
		Diagnostics: d.lspDiagnostics(),
	})
}

func (s *server) hover(p HoverParams) *Hover {
	d, ok := s.doc(normalizeURI(p.TextDocument.URI))
	if !ok {
		return nil
	}
	use, ok := d.useAt(d.offsetAt(p.Position))
	if !ok {
		return nil
	}
	sym, ok := d.symbol(use.Target)
	if !ok {
		return nil
	}
	rng := d.rangeFor(use.Span)
	return &Hover{
		Contents: MarkupContent{Kind: "plaintext", Value: fmt.Sprintf("%s: %s", sym.Name, sym.Kind)},
		Range:    &rng,
	}
}

func (s *server) definition(p DefinitionParams) *Location {
	d, ok := s.doc(normalizeURI(p.TextDocument.URI))
	if !ok {
		return nil
	}
	use, ok := d.useAt(d.offsetAt(p.Position))
	if !ok {
		return nil
	}
	sym, ok := d.symbol(use.Target)
	if !ok {
		return nil
	}
	return &Location{URI: d.uri, Range: d.rangeFor(sym.Span)}
}

func (s *server) doc(uri string) (*docState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.documents[uri]
	return d, ok
}

func (s *server) sendResult(id interface{}, result interface{}) {
	s.send(ResponseMessage{Jsonrpc: "2.0", ID: id, Result: result})
}

func (s *server) sendError(id interface{}, err error) {
	s.sendRPCError(id, -32602, err.Error())
}

func (s *server) sendRPCError(id interface{}, code int, message string) {
	s.send(ResponseMessage{Jsonrpc: "2.0", ID: id, Error: &RPCError{Code: code, Message: message}})
}

func (s *server) sendNotification(method string, params interface{}) {
	s.send(NotificationMessage{Jsonrpc: "2.0", Method: method, Params: params})
}

func (s *server) send(message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("curlee-lsp: failed to marshal message: %s", err)
		return
	}
	fmt.Fprintf(s.writer, "Content-Length: %d\r\n\r\n%s", len(data), data)
}
