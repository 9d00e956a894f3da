package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// EnvPath names the environment variable that overrides the config location.
const EnvPath = "LLAMAFILE_CONFIG"

// Config captures the user editable settings stored in config.toml.
type Config struct {
	Shell ShellBlock `toml:"shell"`
	Fetch FetchBlock `toml:"fetch"`
	Tool  ToolBlock  `toml:"tool"`
	Log   LogBlock   `toml:"log"`
}

// ShellBlock governs backtick-wrapped shell commands.
type ShellBlock struct {
	Program          string `toml:"program"`
	IgnoreExitStatus bool   `toml:"ignore_exit_status"`
}

// FetchBlock governs URL fetches.
type FetchBlock struct {
	UserAgent      string `toml:"user_agent"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MaxBytes       int64  `toml:"max_bytes"`
	HTMLToText     bool   `toml:"html_to_text"`
}

// Timeout converts TimeoutSeconds; zero means no timeout.
func (f FetchBlock) Timeout() time.Duration {
	return time.Duration(f.TimeoutSeconds) * time.Second
}

// ToolBlock configures the system header of the tool transcript.
type ToolBlock struct {
	BuiltinTools []string `toml:"builtin_tools"`
}

// LogBlock configures diagnostics written to stderr and, optionally, a file.
type LogBlock struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

var (
	// ErrInvalidLogLevel indicates log.level is not recognized.
	ErrInvalidLogLevel = errors.New("config.log.level must be debug, info, warn, or error")
	// ErrNegativeFetchLimit indicates a negative fetch timeout or size cap.
	ErrNegativeFetchLimit = errors.New("config.fetch.timeout_seconds and config.fetch.max_bytes must not be negative")
	// ErrMissingShell indicates shell.program was set to whitespace.
	ErrMissingShell = errors.New("config.shell.program must not be blank")
)

// DefaultBuiltinTools are the tools the ipython system header advertises.
var DefaultBuiltinTools = []string{"brave_search", "wolfram_alpha"}

// Default returns the configuration used when no file exists.
func Default() Config {
	var cfg Config
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Shell.Program == "" {
		c.Shell.Program = "/bin/sh"
	}
	if c.Tool.BuiltinTools == nil {
		c.Tool.BuiltinTools = append([]string(nil), DefaultBuiltinTools...)
	}
	if c.Log.Level == "" {
		c.Log.Level = "warn"
	} else {
		c.Log.Level = strings.ToLower(c.Log.Level)
	}
}

// Validate ensures the configuration can drive a run.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Shell.Program) == "" {
		return ErrMissingShell
	}
	if c.Fetch.TimeoutSeconds < 0 || c.Fetch.MaxBytes < 0 {
		return ErrNegativeFetchLimit
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return ErrInvalidLogLevel
	}
	return nil
}

// Path returns the config file location: $LLAMAFILE_CONFIG, else
// llamafile/config.toml under the user config directory.
func Path() (string, error) {
	if p := os.Getenv(EnvPath); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "llamafile", "config.toml"), nil
}

// Load reads configuration from disk. Missing files return a default config.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, err
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}
