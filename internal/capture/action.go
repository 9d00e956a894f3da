package capture

import (
	"fmt"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Kind identifies how a token is executed.
type Kind int

const (
	FileRead Kind = iota
	ShellCommand
	WebFetch
)

func (k Kind) String() string {
	switch k {
	case ShellCommand:
		return "shell"
	case WebFetch:
		return "fetch"
	case FileRead:
		return "read"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Action is a classified token. Arg holds the command line, URL, or path.
type Action struct {
	Kind Kind
	Arg  string
}

// Classify decides what a token denotes. The first matching rule wins:
// backtick-wrapped tokens are shell commands, URL-shaped tokens (an http(s)
// prefix, or a dot with no file of that name) are fetched, and anything else
// is read as a file. exists reports whether a path names a file system entry;
// nil means os.Stat.
func Classify(token string, exists func(string) bool) Action {
	if exists == nil {
		exists = pathExists
	}
	switch {
	case len(token) >= 2 && strings.HasPrefix(token, "`") && strings.HasSuffix(token, "`"):
		return Action{Kind: ShellCommand, Arg: token[1 : len(token)-1]}
	case strings.HasPrefix(token, "http://") || strings.HasPrefix(token, "https://"):
		return Action{Kind: WebFetch, Arg: token}
	case strings.Contains(token, ".") && !exists(token):
		return Action{Kind: WebFetch, Arg: token}
	default:
		return Action{Kind: FileRead, Arg: token}
	}
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Source renders the action as the ipython snippet a model would have
// produced to perform it. The snippet is descriptive and never evaluated.
func (a Action) Source() string {
	switch a.Kind {
	case ShellCommand:
		return fmt.Sprintf("import subprocess\nsubprocess.run(%s, shell=True)", pyRepr(a.Arg))
	case WebFetch:
		return fmt.Sprintf("import requests\nprint(requests.get(%s).text)", pyRepr(a.Arg))
	default:
		return fmt.Sprintf("print(open(%s).read())", pyRepr(a.Arg))
	}
}

// pyRepr quotes s the way Python's repr quotes a str.
func pyRepr(s string) string {
	quote := byte('\'')
	if strings.Contains(s, "'") && !strings.Contains(s, `"`) {
		quote = '"'
	}

	var sb strings.Builder
	sb.WriteByte(quote)
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			fmt.Fprintf(&sb, `\x%02x`, s[i])
			i++
			continue
		}
		i += size

		switch {
		case r == '\\':
			sb.WriteString(`\\`)
		case r == rune(quote):
			sb.WriteByte('\\')
			sb.WriteByte(quote)
		case r == '\n':
			sb.WriteString(`\n`)
		case r == '\r':
			sb.WriteString(`\r`)
		case r == '\t':
			sb.WriteString(`\t`)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&sb, `\x%02x`, r)
		case r < 0x80 || unicode.IsPrint(r):
			sb.WriteRune(r)
		case r <= 0xff:
			fmt.Fprintf(&sb, `\x%02x`, r)
		case r <= 0xffff:
			fmt.Fprintf(&sb, `\u%04x`, r)
		default:
			fmt.Fprintf(&sb, `\U%08x`, r)
		}
	}
	sb.WriteByte(quote)
	return sb.String()
}
