package htmldoc

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Tags whose start token never has a matching end token.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// Tags inside which pure-whitespace text is layout noise from source
// indentation, not content.
var whitespaceInsignificant = map[string]bool{
	"ul": true, "ol": true, "body": true, "div": true,
	"blockquote": true, "tr": true, "table": true,
}

// Parse assembles an Element/Text tree from the tokenizer's event stream.
// The tokenizer is error tolerant, so unmatched close tags are ignored
// rather than failing the build. When base is non-nil, relative hrefs on
// anchor tags are resolved against it; javascript: hrefs are dropped.
func Parse(r io.Reader, base *url.URL) (*Node, error) {
	z := html.NewTokenizer(r)

	var root *Node
	var stack []*Node
	preDepth := 0

	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return nil, fmt.Errorf("failed to tokenize document: %w", err)
			}
			if root == nil {
				return nil, fmt.Errorf("document contains no elements")
			}
			return root, nil

		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			el := &Node{Kind: KindElement, Tag: tok.Data}
			if len(tok.Attr) > 0 {
				el.Attrs = make(map[string]string, len(tok.Attr))
				for _, a := range tok.Attr {
					el.Attrs[a.Key] = a.Val
				}
			}
			if el.Tag == "a" {
				rewriteHref(el, base)
			}

			if len(stack) == 0 {
				if root == nil {
					root = el
				} else {
					root.appendChild(el)
				}
			} else {
				stack[len(stack)-1].appendChild(el)
			}

			if tok.Type == html.SelfClosingTagToken || voidElements[el.Tag] {
				continue
			}
			stack = append(stack, el)
			if el.Tag == "pre" || el.Tag == "code" {
				preDepth++
			}

		case html.TextToken:
			text := string(z.Text())
			if len(stack) == 0 {
				continue
			}
			top := stack[len(stack)-1]
			if preDepth > 0 {
				top.appendChild(&Node{Kind: KindText, Content: text, Preserve: true})
				continue
			}
			if strings.TrimSpace(text) == "" && whitespaceInsignificant[top.Tag] {
				continue
			}
			top.appendChild(&Node{Kind: KindText, Content: text})

		case html.EndTagToken:
			tag, _ := z.TagName()
			if voidElements[string(tag)] {
				continue
			}
			// Unbalanced closes are a no-op: the tokenizer already saw
			// markup it could not pair up.
			if len(stack) == 0 {
				continue
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if top.Tag == "pre" || top.Tag == "code" {
				preDepth--
			}
		}
	}
}

func rewriteHref(el *Node, base *url.URL) {
	href, ok := el.Attrs["href"]
	if !ok {
		return
	}
	if strings.HasPrefix(strings.ToLower(href), "javascript:") {
		delete(el.Attrs, "href")
		return
	}
	if base == nil {
		return
	}
	ref, err := url.Parse(href)
	if err != nil {
		return
	}
	if ref.IsAbs() || strings.HasPrefix(href, "#") {
		return
	}
	el.Attrs["href"] = base.ResolveReference(ref).String()
}
