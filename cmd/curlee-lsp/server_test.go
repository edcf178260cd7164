package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"
)

// frame builds one Content-Length framed JSON-RPC message.
func frame(t *testing.T, v interface{}) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return fmt.Sprintf("Content-Length: %d\r\n\r\n%s", len(data), data)
}

// readFrames parses every Content-Length framed message out of buf's
// accumulated output into raw JSON payloads.
func readFrames(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	data := buf.Bytes()
	for len(data) > 0 {
		sep := bytes.Index(data, []byte("\r\n\r\n"))
		if sep < 0 {
			break
		}
		header := string(data[:sep])
		var length int
		fmt.Sscanf(header, "Content-Length: %d", &length)
		body := data[sep+4 : sep+4+length]
		var msg map[string]interface{}
		if err := json.Unmarshal(body, &msg); err != nil {
			t.Fatalf("unmarshal frame: %v", err)
		}
		out = append(out, msg)
		data = data[sep+4+length:]
	}
	return out
}

func TestServerInitialize(t *testing.T) {
	var out bytes.Buffer
	s := newServer(&out)

	req := frame(t, RequestMessage{Jsonrpc: "2.0", ID: 1, Method: "initialize"})
	s.run(bytes.NewBufferString(req))

	frames := readFrames(t, &out)
	if len(frames) != 1 {
		t.Fatalf("expected one response, got %d", len(frames))
	}
	result, ok := frames[0]["result"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected a result object, got %v", frames[0])
	}
	caps, ok := result["capabilities"].(map[string]interface{})
	if !ok || caps["hoverProvider"] != true || caps["definitionProvider"] != true {
		t.Fatalf("unexpected capabilities: %v", result)
	}
}

func TestServerDidOpenPublishesDiagnostics(t *testing.T) {
	var out bytes.Buffer
	s := newServer(&out)

	params := DidOpenTextDocumentParams{
		TextDocument: TextDocumentItem{URI: "file:///main.curlee", Text: "fn main( -> int { return 1; }"},
	}
	req := frame(t, NotificationMessage{Jsonrpc: "2.0", Method: "textDocument/didOpen", Params: params})
	s.run(bytes.NewBufferString(req))

	frames := readFrames(t, &out)
	if len(frames) != 1 || frames[0]["method"] != "textDocument/publishDiagnostics" {
		t.Fatalf("expected a publishDiagnostics notification, got %v", frames)
	}
	p, ok := frames[0]["params"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected params object, got %v", frames[0])
	}
	diags, ok := p["diagnostics"].([]interface{})
	if !ok || len(diags) == 0 {
		t.Fatalf("expected at least one diagnostic for malformed source, got %v", p)
	}
}

func TestServerDidOpenCleanSourceHasNoDiagnostics(t *testing.T) {
	var out bytes.Buffer
	s := newServer(&out)

	params := DidOpenTextDocumentParams{
		TextDocument: TextDocumentItem{URI: "file:///main.curlee", Text: "fn main() -> int { return 1; }"},
	}
	req := frame(t, NotificationMessage{Jsonrpc: "2.0", Method: "textDocument/didOpen", Params: params})
	s.run(bytes.NewBufferString(req))

	frames := readFrames(t, &out)
	p := frames[0]["params"].(map[string]interface{})
	diags := p["diagnostics"].([]interface{})
	if len(diags) != 0 {
		t.Fatalf("expected no diagnostics for clean source, got %v", diags)
	}
}

func TestReadContentLengthAcceptsLFOnlyHeader(t *testing.T) {
	body := `{"jsonrpc":"2.0","id":1,"method":"initialize"}`
	raw := fmt.Sprintf("Content-Length: %d\n\n%s", len(body), body)

	var out bytes.Buffer
	s := newServer(&out)
	s.run(bytes.NewBufferString(raw))

	frames := readFrames(t, &out)
	if len(frames) != 1 {
		t.Fatalf("expected one response even with LF-only headers, got %d", len(frames))
	}
}
