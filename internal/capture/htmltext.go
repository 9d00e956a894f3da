package capture

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Subtrees under these elements carry no readable text.
var droppedElements = map[string]bool{
	"script": true, "style": true, "noscript": true, "head": true,
	"svg": true, "iframe": true, "object": true, "embed": true,
	"template": true,
}

var blockElements = map[string]bool{
	"p": true, "div": true, "section": true, "article": true, "main": true,
	"aside": true, "header": true, "footer": true, "nav": true,
	"blockquote": true, "li": true, "dt": true, "dd": true, "tr": true,
	"table": true, "ul": true, "ol": true, "dl": true,
	"figure": true, "figcaption": true, "form": true,
}

// htmlToText renders an HTML document as plain text: headings become
// markdown-style `#` lines, pre blocks become fences, links keep their
// targets in parentheses, and blank-line runs collapse to one.
func htmlToText(src string) string {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return src
	}
	var sb strings.Builder
	renderText(&sb, doc)
	return collapseBlankLines(sb.String())
}

func renderText(sb *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
		return
	case html.ElementNode:
	default:
		renderChildren(sb, n)
		return
	}

	tag := n.Data
	switch {
	case droppedElements[tag]:
	case tag == "br":
		sb.WriteByte('\n')
	case tag == "hr":
		sb.WriteString("\n---\n")
	case len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6':
		sb.WriteString("\n" + strings.Repeat("#", int(tag[1]-'0')) + " ")
		renderChildren(sb, n)
		sb.WriteString("\n\n")
	case tag == "pre":
		sb.WriteString("\n```\n")
		renderChildren(sb, n)
		sb.WriteString("\n```\n")
	case tag == "a":
		renderChildren(sb, n)
		href := attr(n, "href")
		if href != "" && !strings.HasPrefix(href, "#") && !strings.HasPrefix(href, "javascript:") &&
			strings.TrimSpace(nodeText(n)) != href {
			fmt.Fprintf(sb, " (%s)", href)
		}
	case tag == "img":
		if alt := attr(n, "alt"); alt != "" {
			fmt.Fprintf(sb, "[image: %s]", alt)
		}
	case blockElements[tag]:
		sb.WriteByte('\n')
		if tag == "li" {
			sb.WriteString("- ")
		}
		renderChildren(sb, n)
		sb.WriteByte('\n')
	default:
		renderChildren(sb, n)
	}
}

func renderChildren(sb *strings.Builder, n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		renderText(sb, c)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func collapseBlankLines(s string) string {
	var out []string
	blank := false
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n")) + "\n"
}
