package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
)

// Result is the outcome of capturing one token.
type Result struct {
	Action Action
	Source string
	Output string
}

// Engine classifies tokens and runs them under a stdout redirect.
type Engine struct {
	// Shell interprets ShellCommand lines as `Shell -c line`.
	Shell string
	// IgnoreExitStatus keeps output from commands that exit nonzero
	// instead of failing the capture.
	IgnoreExitStatus bool

	Fetch FetchOptions

	// Exists overrides file existence checks during classification.
	Exists func(string) bool
	Logger *slog.Logger
}

const defaultShell = "/bin/sh"

// Capture classifies token, runs the resulting action, and returns what it
// printed.
func (e *Engine) Capture(ctx context.Context, token string) (Result, error) {
	action := Classify(token, e.Exists)
	res := Result{Action: action, Source: action.Source()}

	e.logger().Debug("capture", "token", token, "kind", action.Kind.String(), "arg", action.Arg)

	output, err := Redirect(ctx, func(ctx context.Context) error {
		return e.execute(ctx, action)
	})
	res.Output = output
	return res, err
}

func (e *Engine) execute(ctx context.Context, action Action) error {
	switch action.Kind {
	case ShellCommand:
		return e.runShell(ctx, action.Arg)
	case WebFetch:
		return e.fetch(ctx, action.Arg)
	case FileRead:
		return readFile(action.Arg)
	default:
		return fmt.Errorf("unknown action kind %v", action.Kind)
	}
}

func (e *Engine) runShell(ctx context.Context, line string) error {
	shell := e.Shell
	if shell == "" {
		shell = defaultShell
	}

	cmd := CommandContext(ctx, shell, "-c", line)
	cmd.Stdin = os.Stdin
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && e.IgnoreExitStatus {
			e.logger().Warn("command exited nonzero", "command", line, "status", exitErr.ExitCode())
			return nil
		}
		return fmt.Errorf("run `%s`: %w", line, err)
	}
	return nil
}

func (e *Engine) fetch(ctx context.Context, rawURL string) error {
	client := e.Fetch.Client
	if client == nil {
		client = http.DefaultClient
	}
	body, status, err := fetchText(ctx, client, rawURL, e.Fetch)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		e.logger().Warn("fetch returned non-success status", "url", rawURL, "status", status)
	}
	_, err = io.WriteString(os.Stdout, body)
	return err
}

func readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return e.Logger
}
