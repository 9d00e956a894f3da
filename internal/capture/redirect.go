package capture

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
)

// stdoutMu serializes redirects. os.Stdout is process-wide, so only one
// capture may own it at a time.
var stdoutMu sync.Mutex

// Scope is an active redirect. Child processes started through
// CommandContext while the scope is active write to its pipe by default.
type Scope struct {
	mu     sync.Mutex
	w      *os.File
	active bool
}

// Writer returns the pipe the scope captures, or nil once it has ended.
func (s *Scope) Writer() *os.File {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return nil
	}
	return s.w
}

func (s *Scope) end() {
	s.mu.Lock()
	s.active = false
	s.mu.Unlock()
}

type scopeKey struct{}

// ScopeFrom returns the capture scope carried by ctx, if any.
func ScopeFrom(ctx context.Context) (*Scope, bool) {
	s, ok := ctx.Value(scopeKey{}).(*Scope)
	return s, ok
}

// CommandContext is exec.CommandContext with a stdout default: the pipe of
// the active capture scope in ctx, or the current os.Stdout otherwise.
// Assign cmd.Stdout afterwards to send output elsewhere.
func CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = os.Stdout
	if s, ok := ScopeFrom(ctx); ok {
		if w := s.Writer(); w != nil {
			cmd.Stdout = w
		}
	}
	return cmd
}

// Redirect runs fn with os.Stdout pointed at a private pipe and returns
// everything written to it, by fn or by any child started with
// CommandContext(ctx, ...). os.Stdout is restored before Redirect returns,
// whether fn succeeds, fails, or panics.
func Redirect(ctx context.Context, fn func(ctx context.Context) error) (string, error) {
	stdoutMu.Lock()
	defer stdoutMu.Unlock()

	r, w, err := os.Pipe()
	if err != nil {
		return "", fmt.Errorf("create capture pipe: %w", err)
	}
	defer r.Close()

	// The pipe buffer is small; drain it while fn runs so large outputs
	// cannot block the writer.
	var buf bytes.Buffer
	drained := make(chan error, 1)
	go func() {
		_, err := io.Copy(&buf, r)
		drained <- err
	}()

	var closeOnce sync.Once
	var closeErr error
	closeWriter := func() {
		closeOnce.Do(func() { closeErr = w.Close() })
	}
	defer closeWriter()

	scope := &Scope{w: w, active: true}
	prev := os.Stdout
	os.Stdout = w
	runErr := func() error {
		defer func() {
			os.Stdout = prev
			scope.end()
		}()
		return fn(context.WithValue(ctx, scopeKey{}, scope))
	}()

	closeWriter()
	copyErr := <-drained

	if runErr != nil {
		return buf.String(), runErr
	}
	if closeErr != nil {
		return buf.String(), fmt.Errorf("close capture pipe: %w", closeErr)
	}
	if copyErr != nil {
		return buf.String(), fmt.Errorf("read capture pipe: %w", copyErr)
	}
	return buf.String(), nil
}
