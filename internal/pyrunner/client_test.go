package pyrunner

import (
	"io"
	"testing"
)

// pipedClient wires a Client to an in-process Serve loop via io.Pipe, so the
// request/response exchange is exercised without spawning a subprocess.
func pipedClient(t *testing.T) *Client {
	t.Helper()
	reqR, reqW := io.Pipe()
	respR, respW := io.Pipe()

	go func() {
		_ = Serve(reqR, respW)
	}()
	t.Cleanup(func() {
		_ = reqW.Close()
	})

	return NewClient(reqW, respR)
}

func TestClientHandshake(t *testing.T) {
	c := pipedClient(t)
	got, err := c.Handshake()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok" {
		t.Fatalf("expected 'ok', got %q", got)
	}
}

func TestClientEcho(t *testing.T) {
	c := pipedClient(t)
	got, err := c.Echo("round-trip")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "round-trip" {
		t.Fatalf("expected 'round-trip', got %q", got)
	}
}

func TestClientRequestsGetDistinctIDs(t *testing.T) {
	c := pipedClient(t)
	if _, err := c.Handshake(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := c.Handshake(); err != nil {
		t.Fatalf("unexpected error on second call: %v", err)
	}
}
