package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/brandonbloom/llamafile/internal/capture"
	"github.com/brandonbloom/llamafile/internal/config"
	"github.com/brandonbloom/llamafile/internal/logging"
	"github.com/brandonbloom/llamafile/internal/transcript"
	"github.com/brandonbloom/llamafile/internal/version"
)

func runTranscript(cmd *cobra.Command, variant transcript.Variant, tokens []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, closeLog, err := logging.New(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeLog()

	message, err := readMessage(cmd.InOrStdin(), cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("read message: %w", err)
	}

	assembler := &transcript.Assembler{
		Variant:  variant,
		Capturer: newEngine(cfg, logger.With("variant", variant.String())),
		Tools:    cfg.Tool.BuiltinTools,
		Logger:   logger,
	}

	out, err := assembler.Build(cmd.Context(), message, tokens)
	if err != nil {
		return err
	}
	_, err = io.WriteString(cmd.OutOrStdout(), out)
	return err
}

func loadConfig() (config.Config, error) {
	path, err := config.Path()
	if err != nil {
		return config.Default(), nil
	}
	return config.Load(path)
}

func newEngine(cfg config.Config, logger *slog.Logger) *capture.Engine {
	userAgent := cfg.Fetch.UserAgent
	if userAgent == "" {
		userAgent = "llamafile/" + version.String()
	}
	return &capture.Engine{
		Shell:            cfg.Shell.Program,
		IgnoreExitStatus: cfg.Shell.IgnoreExitStatus,
		Fetch: capture.FetchOptions{
			UserAgent:  userAgent,
			Timeout:    cfg.Fetch.Timeout(),
			MaxBytes:   cfg.Fetch.MaxBytes,
			HTMLToText: cfg.Fetch.HTMLToText,
		},
		Logger: logger,
	}
}

// readMessage slurps the user message, nudging interactive users about how
// to finish typing it.
func readMessage(in io.Reader, stderr io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprintln(stderr, "Type the message, then press Ctrl-D.")
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
