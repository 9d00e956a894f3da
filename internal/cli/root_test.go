package cli

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/brandonbloom/llamafile/internal/config"
	"github.com/brandonbloom/llamafile/internal/logging"
	"github.com/brandonbloom/llamafile/internal/transcript"
)

func isolateEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(config.EnvPath, filepath.Join(dir, "config.toml"))
	t.Setenv(logging.EnvLevel, "error")
	return dir
}

func runCommand(t *testing.T, cmd *cobra.Command, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestFlatCommandReadsFile(t *testing.T) {
	dir := isolateEnv(t)
	readme := filepath.Join(dir, "README.md")
	if err := os.WriteFile(readme, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, _, err := runCommand(t, newFlatCommand(), "What does it say?\n", readme)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	want := "<|begin_of_text|><|start_header_id|>user<|end_header_id|>\n\n" +
		"What does it say?" +
		"\n\n**" + readme + "**\n```\nhello\n```" +
		"<|eot_id|><|start_header_id|>assistant<|end_header_id|>\n\n"
	if out != want {
		t.Fatalf("stdout mismatch\n got: %q\nwant: %q", out, want)
	}
}

func TestToolCommandRunsShell(t *testing.T) {
	if _, err := exec.LookPath("/bin/sh"); err != nil {
		t.Skipf("/bin/sh not available: %v", err)
	}
	isolateEnv(t)

	out, _, err := runCommand(t, newToolCommand(), "Run it.", "`echo hi`")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	want := "<|begin_of_text|><|start_header_id|>system<|end_header_id|>\n\n" +
		"Environment: ipython\nTools: brave_search, wolfram_alpha\n" +
		"<|eot_id|><|start_header_id|>user<|end_header_id|>\n\n" +
		"Run it.<|eot_id|><|start_header_id|>assistant<|end_header_id|>\n\n" +
		"<|python_tag|>import subprocess\nsubprocess.run('echo hi', shell=True)" +
		"<|eom_id|><|start_header_id|>ipython<|end_header_id|>\n\n" +
		"hi\n<|eot_id|><|start_header_id|>assistant<|end_header_id|>\n\n"
	if out != want {
		t.Fatalf("stdout mismatch\n got: %q\nwant: %q", out, want)
	}
}

func TestToolCommandUsesConfiguredTools(t *testing.T) {
	dir := isolateEnv(t)
	cfgPath := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(cfgPath, []byte("[tool]\nbuiltin_tools = [\"code_interpreter\"]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	notes := filepath.Join(dir, "notes")
	if err := os.WriteFile(notes, []byte("n\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, _, err := runCommand(t, newToolCommand(), "msg", notes)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, "Tools: code_interpreter\n") {
		t.Fatalf("configured tools missing from header: %q", out)
	}
}

func TestCommandsRequireTokens(t *testing.T) {
	isolateEnv(t)
	for _, cmd := range []*cobra.Command{newFlatCommand(), newToolCommand()} {
		out, _, err := runCommand(t, cmd, "msg")
		if !errors.Is(err, transcript.ErrNoTokens) {
			t.Fatalf("%s: err = %v, want ErrNoTokens", cmd.Name(), err)
		}
		if out != "" {
			t.Fatalf("%s: unexpected stdout %q", cmd.Name(), out)
		}
	}
}

func TestCommandFailureWritesNothing(t *testing.T) {
	dir := isolateEnv(t)
	readme := filepath.Join(dir, "README.md")
	if err := os.WriteFile(readme, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	before := os.Stdout

	out, _, err := runCommand(t, newFlatCommand(), "msg", readme, filepath.Join(dir, "missing"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("err = %v, want not-exist", err)
	}
	if out != "" {
		t.Fatalf("partial transcript written: %q", out)
	}
	if os.Stdout != before {
		t.Fatalf("os.Stdout not restored after failure")
	}
}

func TestCommandRejectsInvalidConfig(t *testing.T) {
	dir := isolateEnv(t)
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[log]\nlevel = \"loud\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, _, err := runCommand(t, newFlatCommand(), "msg", "README.md")
	if !errors.Is(err, config.ErrInvalidLogLevel) {
		t.Fatalf("err = %v, want ErrInvalidLogLevel", err)
	}
}
