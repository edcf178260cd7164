package pyrunner

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"github.com/google/uuid"
)

// Client speaks the pyrunner protocol to an external process's stdin/stdout.
// It satisfies internal/vm's PythonRunner interface (Handshake() (string,
// error)) so the VM can stay decoupled from process/transport concerns.
type Client struct {
	mu     sync.Mutex
	writer io.Writer
	reader *bufio.Scanner
	closer io.Closer
	cmd    *exec.Cmd
}

// Start launches command with args and wires a Client to its stdio.
func Start(command string, args ...string) (*Client, error) {
	cmd := exec.Command(command, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("pyrunner: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("pyrunner: stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("pyrunner: starting %s: %w", command, err)
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Client{writer: stdin, reader: scanner, closer: stdin, cmd: cmd}, nil
}

// NewClient wraps an already-open writer/reader pair (e.g. in tests, or a
// transport other than a child process) as a Client.
func NewClient(w io.Writer, r io.Reader) *Client {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Client{writer: w, reader: scanner}
}

// Close releases the underlying transport, waiting for a spawned process
// (if any) to exit.
func (c *Client) Close() error {
	if c.closer != nil {
		_ = c.closer.Close()
	}
	if c.cmd != nil {
		return c.cmd.Wait()
	}
	return nil
}

// Handshake performs the `handshake` op and returns its string result.
func (c *Client) Handshake() (string, error) {
	return c.call("handshake", nil)
}

// Echo performs the `echo` op, returning the runner's echoed string.
func (c *Client) Echo(value string) (string, error) {
	return c.call("echo", &EchoPayload{Value: value})
}

func (c *Client) call(op string, echo *EchoPayload) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	req := Request{ProtocolVersion: ProtocolVersion, ID: uuid.NewString(), Op: op, Echo: echo}
	line, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("pyrunner: encoding request: %w", err)
	}
	if _, err := c.writer.Write(append(line, '\n')); err != nil {
		return "", fmt.Errorf("pyrunner: writing request: %w", err)
	}

	if !c.reader.Scan() {
		if err := c.reader.Err(); err != nil {
			return "", fmt.Errorf("pyrunner: reading response: %w", err)
		}
		return "", fmt.Errorf("pyrunner: runner closed the connection")
	}

	var resp Response
	if err := json.Unmarshal(c.reader.Bytes(), &resp); err != nil {
		return "", fmt.Errorf("pyrunner: decoding response: %w", err)
	}
	if resp.ID != req.ID {
		return "", fmt.Errorf("pyrunner: response id %q does not match request id %q", resp.ID, req.ID)
	}
	if !resp.OK {
		kind, message := "unknown", "runner returned no error detail"
		if resp.Error != nil {
			kind, message = resp.Error.Kind, resp.Error.Message
		}
		return "", fmt.Errorf("pyrunner: %s: %s", kind, message)
	}
	if resp.Result == nil {
		return "", fmt.Errorf("pyrunner: ok response carried no result")
	}
	value, ok := resp.Result.Value.(string)
	if !ok {
		return "", fmt.Errorf("pyrunner: expected a string result, got %T", resp.Result.Value)
	}
	return value, nil
}
