package cli

import (
	"github.com/spf13/cobra"

	"github.com/brandonbloom/llamafile/internal/transcript"
	"github.com/brandonbloom/llamafile/internal/version"
)

// ExecuteFlat runs llama-file-flat.
func ExecuteFlat() error {
	return newFlatCommand().Execute()
}

// ExecuteTool runs llama-file-tool.
func ExecuteTool() error {
	return newToolCommand().Execute()
}

func newFlatCommand() *cobra.Command {
	return newRootCommand(
		"llama-file-flat",
		"Inline files, URLs, and command output into a Llama user turn",
		transcript.Flat,
	)
}

func newToolCommand() *cobra.Command {
	return newRootCommand(
		"llama-file-tool",
		"Present files, URLs, and command output as Llama ipython tool calls",
		transcript.Tool,
	)
}

func newRootCommand(name, short string, variant transcript.Variant) *cobra.Command {
	cmd := &cobra.Command{
		Use:   name + " <file|url|`command`>...",
		Short: short,
		Long: short + `.

The user message is read from stdin. Each argument is captured in order:
  ` + "`cmd`" + `      runs cmd with the shell and captures its stdout
  URL        fetches http(s) URLs, and dotted names that are not local files
  path       reads a local file
The transcript is written to stdout once every capture has succeeded.
Commands run unsandboxed with your privileges; never pass untrusted arguments.`,
		Version:       version.String(),
		Args:          requireTokens,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranscript(cmd, variant, args)
		},
	}
	return cmd
}

func requireTokens(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return transcript.ErrNoTokens
	}
	return nil
}
