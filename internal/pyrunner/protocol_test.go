package pyrunner

import "testing"

func TestHandleHandshake(t *testing.T) {
	resp := Handle(Request{ProtocolVersion: 1, ID: "abc", Op: "handshake"})
	if !resp.OK {
		t.Fatalf("expected ok response, got %+v", resp)
	}
	if resp.Result == nil || resp.Result.Type != "string" || resp.Result.Value != "ok" {
		t.Fatalf("expected result {string, ok}, got %+v", resp.Result)
	}
}

func TestHandleEcho(t *testing.T) {
	resp := Handle(Request{ProtocolVersion: 1, ID: "abc", Op: "echo", Echo: &EchoPayload{Value: "hi"}})
	if !resp.OK || resp.Result == nil || resp.Result.Value != "hi" {
		t.Fatalf("expected echoed value 'hi', got %+v", resp)
	}
}

func TestHandleEchoMissingPayloadIsInvalidRequest(t *testing.T) {
	resp := Handle(Request{ProtocolVersion: 1, ID: "abc", Op: "echo"})
	if resp.OK || resp.Error == nil || resp.Error.Kind != ErrInvalidRequest {
		t.Fatalf("expected invalid_request error, got %+v", resp)
	}
}

func TestHandleUnsupportedProtocolVersion(t *testing.T) {
	resp := Handle(Request{ProtocolVersion: 2, ID: "abc", Op: "handshake"})
	if resp.OK || resp.Error == nil || resp.Error.Kind != ErrProtocolVersionUnsupported {
		t.Fatalf("expected protocol_version_unsupported error, got %+v", resp)
	}
}

func TestHandleUnknownOp(t *testing.T) {
	resp := Handle(Request{ProtocolVersion: 1, ID: "abc", Op: "bogus"})
	if resp.OK || resp.Error == nil || resp.Error.Kind != ErrInvalidRequest {
		t.Fatalf("expected invalid_request error, got %+v", resp)
	}
}
