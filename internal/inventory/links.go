package inventory

import (
	"net/url"
	"regexp"
	"strings"
)

// Host serving catalog item images; relative image paths resolve here, not
// against the page host.
const imageHost = "https://img.bricklink.com"

var markdownLinkRe = regexp.MustCompile(`\[([^\]]*)\]\(([^)\s]+)\)`)

type mdLink struct {
	Text string
	Href string
}

// findLinks returns the markdown links in s, skipping image references.
func findLinks(s string) []mdLink {
	var links []mdLink
	for _, m := range markdownLinkRe.FindAllStringSubmatchIndex(s, -1) {
		if m[0] > 0 && s[m[0]-1] == '!' {
			continue
		}
		links = append(links, mdLink{Text: s[m[2]:m[3]], Href: s[m[4]:m[5]]})
	}
	return links
}

// findImages returns the markdown image references in s; Text is the alt
// text and Href the source.
func findImages(s string) []mdLink {
	var images []mdLink
	for _, m := range markdownLinkRe.FindAllStringSubmatchIndex(s, -1) {
		if m[0] == 0 || s[m[0]-1] != '!' {
			continue
		}
		images = append(images, mdLink{Text: s[m[2]:m[3]], Href: s[m[4]:m[5]]})
	}
	return images
}

func absolutize(href, base string) string {
	switch {
	case strings.HasPrefix(href, "//"):
		return "https:" + href
	case strings.HasPrefix(href, "/"):
		return strings.TrimRight(base, "/") + href
	default:
		return href
	}
}

func absolutizeImage(src string) string {
	return absolutize(src, imageHost)
}

// queryParam extracts a single query parameter from a URL string, tolerating
// unparsable input.
func queryParam(rawURL, key string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Query().Get(key)
}
