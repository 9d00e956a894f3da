package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Fatalf("got %+v, want defaults %+v", cfg, Default())
	}
	if cfg.Shell.Program != "/bin/sh" || cfg.Log.Level != "warn" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.Tool.BuiltinTools, []string{"brave_search", "wolfram_alpha"}) {
		t.Fatalf("builtin tools = %v", cfg.Tool.BuiltinTools)
	}
}

func TestLoadParsesFile(t *testing.T) {
	path := writeConfig(t, `
[shell]
program = "/bin/bash"
ignore_exit_status = true

[fetch]
user_agent = "curl/8"
timeout_seconds = 5
max_bytes = 1024
html_to_text = true

[tool]
builtin_tools = ["code_interpreter"]

[log]
level = "DEBUG"
file = "/tmp/llamafile.log"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Shell.Program != "/bin/bash" || !cfg.Shell.IgnoreExitStatus {
		t.Fatalf("shell block = %+v", cfg.Shell)
	}
	if cfg.Fetch.UserAgent != "curl/8" || cfg.Fetch.Timeout() != 5*time.Second ||
		cfg.Fetch.MaxBytes != 1024 || !cfg.Fetch.HTMLToText {
		t.Fatalf("fetch block = %+v", cfg.Fetch)
	}
	if !reflect.DeepEqual(cfg.Tool.BuiltinTools, []string{"code_interpreter"}) {
		t.Fatalf("builtin tools = %v", cfg.Tool.BuiltinTools)
	}
	if cfg.Log.Level != "debug" || cfg.Log.File != "/tmp/llamafile.log" {
		t.Fatalf("log block = %+v", cfg.Log)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	cases := []struct {
		name string
		body string
		want error
	}{
		{"log level", "[log]\nlevel = \"loud\"\n", ErrInvalidLogLevel},
		{"negative timeout", "[fetch]\ntimeout_seconds = -1\n", ErrNegativeFetchLimit},
		{"negative max bytes", "[fetch]\nmax_bytes = -5\n", ErrNegativeFetchLimit},
		{"blank shell", "[shell]\nprogram = \"  \"\n", ErrMissingShell},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			if !errors.Is(err, tc.want) {
				t.Fatalf("Load error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestLoadReportsParseErrors(t *testing.T) {
	if _, err := Load(writeConfig(t, "[shell\n")); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestPathHonorsEnv(t *testing.T) {
	t.Setenv(EnvPath, "/somewhere/custom.toml")
	got, err := Path()
	if err != nil {
		t.Fatalf("Path: %v", err)
	}
	if got != "/somewhere/custom.toml" {
		t.Fatalf("Path() = %q", got)
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
