// Package transcript renders a user message and tool captures as Llama 3.1
// chat markup.
package transcript

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/brandonbloom/llamafile/internal/capture"
)

// Variant selects the markup template.
type Variant int

const (
	// Flat inlines each capture into the user turn as a fenced block.
	Flat Variant = iota
	// Tool frames each capture as an ipython tool call and response.
	Tool
)

func (v Variant) String() string {
	switch v {
	case Flat:
		return "flat"
	case Tool:
		return "tool"
	default:
		return fmt.Sprintf("Variant(%d)", int(v))
	}
}

const (
	beginText     = "<|begin_of_text|>"
	endOfTurn     = "<|eot_id|>"
	endOfMessage  = "<|eom_id|>"
	pythonTag     = "<|python_tag|>"
	fence         = "```"
	assistantTurn = endOfTurn + "<|start_header_id|>assistant<|end_header_id|>\n\n"
)

func header(role string) string {
	return "<|start_header_id|>" + role + "<|end_header_id|>\n\n"
}

// ErrNoTokens is returned when there is nothing to capture.
var ErrNoTokens = errors.New("no filenames provided")

// Capturer runs one token and reports what it printed.
type Capturer interface {
	Capture(ctx context.Context, token string) (capture.Result, error)
}

// Assembler builds transcripts from a message and a list of tokens.
type Assembler struct {
	Variant  Variant
	Capturer Capturer
	// Tools are advertised in the Tool variant's system header.
	Tools  []string
	Logger *slog.Logger
}

// Build captures every token in order and returns the finished transcript.
// The first capture error aborts the build; no partial transcript is
// returned.
func (a *Assembler) Build(ctx context.Context, message string, tokens []string) (string, error) {
	if len(tokens) == 0 {
		return "", ErrNoTokens
	}
	message = strings.TrimSpace(message)

	var sb strings.Builder
	a.writeOpening(&sb, message)
	for _, token := range tokens {
		res, err := withTraceRegion(ctx, "capture", func() (capture.Result, error) {
			return a.Capturer.Capture(ctx, token)
		})
		if err != nil {
			return "", fmt.Errorf("capture %s: %w", token, err)
		}
		a.logger().Info("captured", "token", token, "kind", res.Action.Kind.String(), "bytes", len(res.Output))
		a.writeCapture(&sb, token, res)
	}
	a.writeClosing(&sb)
	return sb.String(), nil
}

func (a *Assembler) writeOpening(sb *strings.Builder, message string) {
	switch a.Variant {
	case Tool:
		sb.WriteString(beginText + header("system"))
		sb.WriteString("Environment: ipython\n")
		sb.WriteString("Tools: " + strings.Join(a.Tools, ", ") + "\n")
		sb.WriteString(endOfTurn + header("user"))
		sb.WriteString(message)
		sb.WriteString(assistantTurn)
	default:
		sb.WriteString(beginText + header("user"))
		sb.WriteString(message)
	}
}

func (a *Assembler) writeCapture(sb *strings.Builder, token string, res capture.Result) {
	switch a.Variant {
	case Tool:
		sb.WriteString(pythonTag + res.Source + endOfMessage + header("ipython"))
		sb.WriteString(res.Output)
		sb.WriteString(assistantTurn)
	default:
		sb.WriteString("\n\n**" + token + "**\n")
		sb.WriteString(fence + "\n")
		sb.WriteString(res.Output)
		if res.Output != "" && !strings.HasSuffix(res.Output, "\n") {
			sb.WriteByte('\n')
		}
		sb.WriteString(fence)
	}
}

func (a *Assembler) writeClosing(sb *strings.Builder) {
	if a.Variant == Flat {
		sb.WriteString(assistantTurn)
	}
}

func (a *Assembler) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return a.Logger
}
