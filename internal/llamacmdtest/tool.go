// Implementation of the `llamafile-cmdtest` harness.
//
// Key behaviors:
//   - Creates `/tmp/llamafile-transcripts/work-<id>` seeded with fixture files.
//   - Serves fixture pages on 127.0.0.1 and exports their base as `FIXTURE_URL`.
//   - Puts `<repo>/bin` first on PATH so transcripts run freshly built binaries.
//   - Honors `LLAMAFILE_CMDTEST_TIMEOUT` (default 10s) to cap setup + command runtime.
//   - Honors `LLAMAFILE_CMDTEST_ID` to isolate work dirs for parallel tests.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

type tool struct {
	repoRoot  string
	workRoot  string
	configDir string

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

const defaultTimeout = 10 * time.Second

func newToolFromExecutable() (*tool, error) {
	if root := os.Getenv("LLAMAFILE_REPO_ROOT"); root != "" {
		return newTool(root), nil
	}

	exe, err := os.Executable()
	if err != nil {
		return nil, err
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, err
	}
	repoRoot := filepath.Clean(filepath.Join(filepath.Dir(exe), ".."))
	return newTool(repoRoot), nil
}

func newTool(repoRoot string) *tool {
	repoRoot = filepath.Clean(repoRoot)
	return &tool{
		repoRoot:  repoRoot,
		workRoot:  "/tmp/llamafile-transcripts",
		configDir: filepath.Join(repoRoot, "transcripts"),
		stdin:     os.Stdin,
		stdout:    os.Stdout,
		stderr:    os.Stderr,
	}
}

func (t *tool) runCLI(ctx context.Context, args []string) int {
	ctx, cancel, timeout := withTimeoutFromEnv(ctx, "LLAMAFILE_CMDTEST_TIMEOUT", defaultTimeout)
	if cancel != nil {
		defer cancel()
	}

	opts, cmdArgs, err := parseArgs(args)
	if err != nil {
		fmt.Fprintln(t.stderr, err)
		t.printUsage()
		return 2
	}
	if opts.help {
		t.printUsage()
		return 0
	}

	exitCode, err := t.run(ctx, opts, cmdArgs, timeout)
	if err != nil {
		fmt.Fprintln(t.stderr, err)
		return 1
	}
	return exitCode
}

func (t *tool) printUsage() {
	fmt.Fprint(t.stderr, `Usage: llamafile-cmdtest [options] -- <command> [args...]

Sets up a disposable work directory with fixture files and a local fixture
web server, runs the given command inside it, and cleans up afterward.
Intended for transcript integration tests.

Options:
  --no-server      Do not start the fixture server.
  --config FILE    Use transcripts/FILE as the llamafile config.
  --keep           Preserve the work directory for debugging (prints its path).
`)
}

func (t *tool) run(ctx context.Context, opts options, cmdArgs []string, timeout time.Duration) (int, error) {
	if t.repoRoot == "" {
		return 1, errors.New("repo root is required")
	}
	if _, err := os.Stat(filepath.Join(t.repoRoot, "go.mod")); err != nil {
		return 1, fmt.Errorf("unable to locate llamafile repo root: %w", err)
	}

	workdir := filepath.Join(t.workRoot, workDirName())
	if err := removeAllUnder(t.workRoot, workdir); err != nil {
		return 1, err
	}
	if err := os.MkdirAll(workdir, 0o755); err != nil {
		return 1, err
	}

	if err := seedFixtures(workdir); err != nil {
		return 1, err
	}

	configPath := filepath.Join(workdir, ".llamafile.toml")
	if opts.config != "" {
		if err := copyFile(filepath.Join(t.configDir, opts.config), configPath); err != nil {
			return 1, fmt.Errorf("install config fixture: %w", err)
		}
	}

	childEnv := deterministicEnv(os.Environ())
	childEnv = withEnv(childEnv, "LLAMAFILE_CONFIG", configPath)
	childEnv = withEnv(childEnv, "PATH", filepath.Join(t.repoRoot, "bin")+string(os.PathListSeparator)+getEnv(childEnv, "PATH"))

	if !opts.noServer {
		srv := httptest.NewServer(fixtureHandler())
		defer srv.Close()
		childEnv = withEnv(childEnv, "FIXTURE_URL", srv.URL)
	}

	cmd := exec.CommandContext(ctx, cmdArgs[0], cmdArgs[1:]...)
	cmd.Dir = workdir
	cmd.Env = withEnv(childEnv, "PWD", workdir)
	cmd.Stdin = t.stdin
	cmd.Stdout = t.stdout
	cmd.Stderr = t.stderr

	runErr := cmd.Run()
	if runErr != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return 124, fmt.Errorf("llamafile-cmdtest: timed out after %s", timeout)
	}
	exitCode := exitStatus(runErr)

	if opts.keepWork {
		fmt.Fprintf(t.stderr, "work dir kept at %s\n", workdir)
	} else if cleanupErr := removeAllUnder(t.workRoot, workdir); cleanupErr != nil {
		return 1, cleanupErr
	}

	return exitCode, nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}

func deterministicEnv(base []string) []string {
	env := envMap(base)
	env["LLAMAFILE_LOG_LEVEL"] = "error"
	env["NO_COLOR"] = "1"
	env["CLICOLOR"] = "0"
	env["CLICOLOR_FORCE"] = "0"
	env["LC_ALL"] = "C"
	delete(env, "HTTP_PROXY")
	delete(env, "HTTPS_PROXY")
	delete(env, "http_proxy")
	delete(env, "https_proxy")
	return envSlice(env)
}

func removeAllUnder(root, target string) error {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return err
	}
	if rel == "." {
		return fmt.Errorf("refusing to remove root: %s", root)
	}
	if strings.HasPrefix(rel, ".."+string(filepath.Separator)) || rel == ".." {
		return fmt.Errorf("refusing to remove outside root: %s", target)
	}
	return os.RemoveAll(target)
}

func exitStatus(err error) int {
	if err == nil {
		return 0
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode()
	}
	return 127
}

func withTimeoutFromEnv(ctx context.Context, key string, def time.Duration) (context.Context, context.CancelFunc, time.Duration) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		raw = def.String()
	}
	if raw == "0" || raw == "0s" {
		return ctx, nil, 0
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		d = def
	}
	next, cancel := context.WithTimeout(ctx, d)
	return next, cancel, d
}

func envMap(env []string) map[string]string {
	out := make(map[string]string, len(env))
	for _, entry := range env {
		key, value, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		out[key] = value
	}
	return out
}

func envSlice(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k, v := range m {
		out = append(out, k+"="+v)
	}
	return out
}

func withEnv(env []string, key, value string) []string {
	m := envMap(env)
	m[key] = value
	return envSlice(m)
}

func getEnv(env []string, key string) string {
	return envMap(env)[key]
}

func workDirName() string {
	raw := strings.TrimSpace(os.Getenv("LLAMAFILE_CMDTEST_ID"))
	if raw != "" {
		safe := strings.Map(func(r rune) rune {
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' || r == '.' {
				return r
			}
			return '_'
		}, raw)
		if id := strings.Trim(safe, "._-"); id != "" {
			return "work-" + id
		}
	}
	return "work-" + uuid.NewString()
}
