package htmldoc

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, src, base string) *Node {
	t.Helper()
	var baseURL *url.URL
	if base != "" {
		var err error
		baseURL, err = url.Parse(base)
		require.NoError(t, err)
	}
	root, err := Parse(strings.NewReader(src), baseURL)
	require.NoError(t, err)
	return root
}

// findTag returns the first element with the given tag, depth first.
func findTag(n *Node, tag string) *Node {
	if n.Kind == KindElement && n.Tag == tag {
		return n
	}
	for _, c := range n.Children {
		if found := findTag(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func findAllTags(n *Node, tag string) []*Node {
	var out []*Node
	if n.Kind == KindElement && n.Tag == tag {
		out = append(out, n)
	}
	for _, c := range n.Children {
		out = append(out, findAllTags(c, tag)...)
	}
	return out
}

func TestParseBuildsTree(t *testing.T) {
	root := mustParse(t, `<html><body><div><p>hello</p></div></body></html>`, "")

	assert.Equal(t, "html", root.Tag)
	p := findTag(root, "p")
	require.NotNil(t, p)
	require.Len(t, p.Children, 1)
	assert.Equal(t, KindText, p.Children[0].Kind)
	assert.Equal(t, "hello", p.Children[0].Content)
}

func TestParseResolvesRelativeHref(t *testing.T) {
	root := mustParse(t,
		`<html><body><a href="/catalogItemInv.asp?S=8480-1">inv</a></body></html>`,
		"https://www.bricklink.com")

	a := findTag(root, "a")
	require.NotNil(t, a)
	assert.Equal(t, "https://www.bricklink.com/catalogItemInv.asp?S=8480-1", a.Attr("href"))
}

func TestParseKeepsAbsoluteHref(t *testing.T) {
	root := mustParse(t,
		`<html><body><a href="https://example.com/x">x</a></body></html>`,
		"https://www.bricklink.com")

	a := findTag(root, "a")
	require.NotNil(t, a)
	assert.Equal(t, "https://example.com/x", a.Attr("href"))
}

func TestParseDropsJavascriptHref(t *testing.T) {
	root := mustParse(t,
		`<html><body><a href="javascript:void(0)">click</a></body></html>`,
		"https://www.bricklink.com")

	a := findTag(root, "a")
	require.NotNil(t, a)
	assert.Equal(t, "", a.Attr("href"))
}

func TestParseDiscardsIndentationWhitespace(t *testing.T) {
	root := mustParse(t, "<html><body><ul>\n  <li>one</li>\n  <li>two</li>\n</ul></body></html>", "")

	ul := findTag(root, "ul")
	require.NotNil(t, ul)
	for _, c := range ul.Children {
		assert.Equal(t, KindElement, c.Kind, "whitespace between list items should be dropped")
	}
	assert.Len(t, findAllTags(ul, "li"), 2)
}

func TestParseKeepsWhitespaceInsideSpan(t *testing.T) {
	root := mustParse(t, `<html><body><span>a</span> <span>b</span></body></html>`, "")

	body := findTag(root, "body")
	require.NotNil(t, body)
	// body is whitespace insignificant, so the separator text is dropped
	// there; but inside a span it must survive.
	span := findTag(root, "span")
	require.NotNil(t, span)
	assert.Equal(t, "a", span.Children[0].Content)
}

func TestParsePreservesPreContent(t *testing.T) {
	root := mustParse(t, "<html><body><pre>line1\n  line2</pre></body></html>", "")

	pre := findTag(root, "pre")
	require.NotNil(t, pre)
	require.Len(t, pre.Children, 1)
	text := pre.Children[0]
	assert.True(t, text.Preserve)
	assert.Equal(t, "line1\n  line2", text.Content)
}

func TestParseToleratesUnmatchedClose(t *testing.T) {
	root, err := Parse(strings.NewReader(`</div><html><body></span><p>ok</p></body></html>`), nil)
	require.NoError(t, err)
	assert.NotNil(t, findTag(root, "p"))
}

func TestParseVoidElements(t *testing.T) {
	root := mustParse(t, `<html><body><p>a<br>b<img src="x.png" alt="x">c</p></body></html>`, "")

	p := findTag(root, "p")
	require.NotNil(t, p)
	// br and img never open a scope, so all of a, b and c are p's children.
	assert.NotNil(t, findTag(p, "br"))
	assert.NotNil(t, findTag(p, "img"))
	var texts []string
	for _, c := range p.Children {
		if c.Kind == KindText {
			texts = append(texts, c.Content)
		}
	}
	assert.Equal(t, []string{"a", "b", "c"}, texts)
}
