// Package markdown renders an htmldoc tree into Markdown-flavored text.
// Rendering is a pure function of the tree: no I/O, deterministic output.
// Only the tag subset that shows up on catalog pages is given markup; any
// other element renders as the concatenation of its children.
package markdown

import (
	"fmt"
	"strings"

	"bricklink/inventory/internal/htmldoc"
)

// Elements that never contribute rendered output.
var suppressed = map[string]bool{
	"script": true, "style": true, "iframe": true, "nav": true,
	"meta": true, "link": true, "title": true, "select": true,
	"input": true, "button": true, "noscript": true, "footer": true,
}

// Elements whose output is always separated from siblings by a blank line.
var blockLevel = map[string]bool{
	"p": true, "div": true, "ul": true, "ol": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "pre": true, "figure": true, "table": true,
	"noscript": true,
}

// Render converts a tree into a Markdown document.
func Render(n *htmldoc.Node) string {
	return renderNode(n)
}

func renderNode(n *htmldoc.Node) string {
	if n.Kind == htmldoc.KindText {
		return renderText(n)
	}
	if suppressed[n.Tag] {
		return ""
	}

	var out string
	switch n.Tag {
	case "p", "div":
		out = strings.TrimSpace(renderBlockChildren(n))
	case "b", "strong":
		out = wrapInline(renderChildren(n), "**")
	case "i", "em":
		out = wrapInline(renderChildren(n), "*")
	case "code":
		out = wrapInline(renderChildren(n), "`")
	case "a":
		out = renderLink(n)
	case "img":
		out = renderImage(n)
	case "br":
		out = "\n"
	case "ul":
		out = renderList(n, false)
	case "ol":
		out = renderList(n, true)
	case "li":
		out = strings.TrimSpace(renderChildren(n))
	case "h1", "h2", "h3", "h4", "h5", "h6":
		level := int(n.Tag[1] - '0')
		out = strings.Repeat("#", level) + " " + strings.TrimSpace(renderChildren(n))
	case "blockquote":
		out = renderBlockquote(n)
	case "pre":
		out = renderPre(n)
	case "table":
		out = renderTable(n)
	case "th":
		cell := normalizeCell(renderChildren(n))
		if cell != "" {
			cell = "**" + cell + "**"
		}
		out = cell
	case "td":
		out = normalizeCell(renderChildren(n))
	case "figcaption":
		out = "\n" + renderChildren(n)
	default:
		out = renderChildren(n)
	}

	if out != "" && blockLevel[n.Tag] {
		out = closeBlock(out)
	}
	return out
}

func renderChildren(n *htmldoc.Node) string {
	var b strings.Builder
	for _, c := range n.Children {
		b.WriteString(renderNode(c))
	}
	return b.String()
}

// renderBlockChildren concatenates children, forcing a paragraph break
// before every block-level child so inline runs cannot glue onto it.
func renderBlockChildren(n *htmldoc.Node) string {
	var b strings.Builder
	for _, c := range n.Children {
		r := renderNode(c)
		if r == "" {
			continue
		}
		if c.Kind == htmldoc.KindElement && blockLevel[c.Tag] && b.Len() > 0 {
			cur := strings.TrimRight(b.String(), "\n")
			b.Reset()
			b.WriteString(cur)
			b.WriteString("\n\n")
		}
		b.WriteString(r)
	}
	return b.String()
}

// renderText collapses whitespace runs to single spaces while keeping at
// most one leading and one trailing space from the original, so inline
// boundaries like "a <b>c</b>" survive the collapse. Preserved text (pre
// and code content) passes through verbatim.
func renderText(n *htmldoc.Node) string {
	if n.Preserve {
		return n.Content
	}
	s := n.Content
	if s == "" {
		return ""
	}
	body := strings.Join(strings.Fields(s), " ")
	var b strings.Builder
	if isSpace(s[0]) {
		b.WriteByte(' ')
	}
	b.WriteString(body)
	if body != "" && isSpace(s[len(s)-1]) {
		b.WriteByte(' ')
	}
	return b.String()
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// wrapInline wraps trimmed content in the given marker, re-attaching a
// single leading/trailing space that existed before trimming so
// " foo " becomes " **foo** " rather than "** foo **".
func wrapInline(content, marker string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return ""
	}
	var b strings.Builder
	if strings.HasPrefix(content, " ") {
		b.WriteByte(' ')
	}
	b.WriteString(marker)
	b.WriteString(trimmed)
	b.WriteString(marker)
	if strings.HasSuffix(content, " ") {
		b.WriteByte(' ')
	}
	return b.String()
}

func renderLink(n *htmldoc.Node) string {
	href := n.Attr("href")
	content := strings.TrimSpace(renderChildren(n))
	if strings.HasPrefix(href, "#") {
		// In-page navigation carries no value outside the page.
		return content
	}
	if href == "" || content == "" {
		return ""
	}
	return fmt.Sprintf("[%s](%s)", content, href)
}

func renderImage(n *htmldoc.Node) string {
	src := n.Attr("src")
	if src == "" || strings.HasPrefix(src, "data:") {
		return ""
	}
	return fmt.Sprintf("![%s](%s)", n.Attr("alt"), src)
}

func renderList(n *htmldoc.Node, ordered bool) string {
	var b strings.Builder
	counter := 0
	for _, c := range n.Children {
		item := strings.TrimSpace(renderNode(c))
		if item == "" {
			continue
		}
		if ordered {
			counter++
			b.WriteString(fmt.Sprintf("%d. %s\n", counter, item))
		} else {
			b.WriteString("- " + item + "\n")
		}
	}
	return b.String()
}

func renderBlockquote(n *htmldoc.Node) string {
	var parts []string
	for _, c := range n.Children {
		r := strings.TrimSpace(renderNode(c))
		if r == "" {
			continue
		}
		parts = append(parts, strings.Split(r, "\n")...)
	}
	if len(parts) == 0 {
		return ""
	}
	for i, line := range parts {
		parts[i] = "> " + line
	}
	return strings.Join(parts, "\n")
}

func renderPre(n *htmldoc.Node) string {
	var body string
	if len(n.Children) == 1 &&
		n.Children[0].Kind == htmldoc.KindElement && n.Children[0].Tag == "code" {
		body = renderChildren(n.Children[0])
	} else {
		body = renderChildren(n)
	}
	body = strings.Trim(body, "\n")
	return "```\n" + body + "\n```"
}

// normalizeCell flattens a rendered table cell: CRLF to LF, runs of blank
// lines squeezed to one, blank lines stripped from both ends.
func normalizeCell(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	var kept []string
	blank := false
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			blank = true
			continue
		}
		if blank && len(kept) > 0 {
			kept = append(kept, "")
		}
		blank = false
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// closeBlock makes the output end in exactly one paragraph break, unless
// the content already carries two or more trailing newlines.
func closeBlock(s string) string {
	if strings.HasSuffix(s, "\n\n") {
		return s
	}
	return strings.TrimRight(s, "\n") + "\n\n"
}
