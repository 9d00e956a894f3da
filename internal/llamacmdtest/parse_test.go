package main

import "testing"

func TestParseArgs_SupportsFlagsAndCommandWithoutDashDash(t *testing.T) {
	opts, cmd, err := parseArgs([]string{
		"--no-server",
		"--config", "html.toml",
		"sh", "-c", "echo hi",
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !opts.noServer {
		t.Fatalf("expected noServer true")
	}
	if opts.config != "html.toml" {
		t.Fatalf("expected config=html.toml, got %q", opts.config)
	}
	if len(cmd) != 3 || cmd[0] != "sh" || cmd[1] != "-c" || cmd[2] != "echo hi" {
		t.Fatalf("unexpected command: %#v", cmd)
	}
}

func TestParseArgs_SupportsDashDashDelimiter(t *testing.T) {
	opts, cmd, err := parseArgs([]string{"--keep", "--", "sh", "-c", "echo hi"})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !opts.keepWork {
		t.Fatalf("expected keepWork true")
	}
	if len(cmd) != 3 || cmd[0] != "sh" || cmd[1] != "-c" || cmd[2] != "echo hi" {
		t.Fatalf("unexpected command: %#v", cmd)
	}
}

func TestParseArgs_RequiresCommand(t *testing.T) {
	_, _, err := parseArgs([]string{"--keep"})
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestParseArgs_Help(t *testing.T) {
	opts, cmd, err := parseArgs([]string{"-h"})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !opts.help || cmd != nil {
		t.Fatalf("expected help with no command, got %+v %#v", opts, cmd)
	}
}
