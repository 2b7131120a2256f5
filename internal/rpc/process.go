// Package rpc talks JSON-RPC 2.0 to child processes over their stdio.
package rpc

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"
	"time"

	"github.com/sourcegraph/jsonrpc2"
)

// exitTimeout is how long Close waits for a process to exit on its own
// before killing it.
const exitTimeout = 2 * time.Second

// Process is a child process speaking newline-delimited JSON-RPC on its
// stdin and stdout. Anything it writes to stderr is buffered.
type Process struct {
	conn   *jsonrpc2.Conn
	cmd    *exec.Cmd
	stderr *lockedBuffer

	closeOnce sync.Once
	closeErr  error
}

// Start launches cmd and connects to it. Requests sent by the process are
// passed to handler, or rejected when handler is nil.
func Start(cmd *exec.Cmd, handler jsonrpc2.Handler) (*Process, error) {
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	p := &Process{
		cmd:    cmd,
		stderr: &lockedBuffer{},
	}
	cmd.Stderr = p.stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", cmd.Path, err)
	}

	if handler == nil {
		handler = jsonrpc2.HandlerWithError(rejectRequests)
	}
	p.conn = jsonrpc2.NewConn(
		context.Background(),
		jsonrpc2.NewPlainObjectStream(NewRWC(stdout, stdin)),
		handler,
	)

	slog.Debug("rpc process started", "path", cmd.Path, "pid", cmd.Process.Pid)
	return p, nil
}

// Call sends a request and waits for the reply.
func (p *Process) Call(ctx context.Context, method string, params, result any) error {
	return p.conn.Call(ctx, method, params, result)
}

// Done is closed once the connection to the process is lost.
func (p *Process) Done() <-chan struct{} {
	return p.conn.DisconnectNotify()
}

// Stderr returns and clears what the process has written to stderr so far.
func (p *Process) Stderr() string {
	return p.stderr.drain()
}

// Close disconnects and waits for the process to exit, killing it if it
// does not exit in time.
func (p *Process) Close() error {
	p.closeOnce.Do(func() {
		if err := p.conn.Close(); err != nil && err != jsonrpc2.ErrClosed {
			slog.Debug("closing rpc connection", "error", err)
		}

		exited := make(chan error, 1)
		go func() { exited <- p.cmd.Wait() }()

		select {
		case err := <-exited:
			if err != nil {
				p.closeErr = fmt.Errorf("process exited: %w", err)
			}
		case <-time.After(exitTimeout):
			slog.Debug("rpc process did not exit, killing", "pid", p.cmd.Process.Pid)
			_ = p.cmd.Process.Kill()
			<-exited
		}
	})
	return p.closeErr
}

func rejectRequests(_ context.Context, _ *jsonrpc2.Conn, req *jsonrpc2.Request) (any, error) {
	slog.Debug("unexpected request from rpc process", "method", req.Method)
	return nil, &jsonrpc2.Error{
		Code:    jsonrpc2.CodeMethodNotFound,
		Message: fmt.Sprintf("method not supported: %s", req.Method),
	}
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) drain() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.buf.String()
	b.buf.Reset()
	return s
}
