package novelpub

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// blockTags start a new line in plainText output.
var blockTags = map[atom.Atom]bool{
	atom.P:          true,
	atom.Br:         true,
	atom.Div:        true,
	atom.H1:         true,
	atom.H2:         true,
	atom.H3:         true,
	atom.H4:         true,
	atom.H5:         true,
	atom.H6:         true,
	atom.Li:         true,
	atom.Tr:         true,
	atom.Blockquote: true,
	atom.Hr:         true,
}

// unsafeTags are removed from chapter content and skipped by plainText.
var unsafeTags = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Iframe:   true,
}

// plainText returns the text under n. Block elements start a new line,
// whitespace runs collapse to one space, and script/style content is skipped.
func plainText(n *html.Node) string {
	var lines []string
	var cur strings.Builder
	flush := func() {
		if line := normalizeSpace(cur.String()); line != "" {
			lines = append(lines, line)
		}
		cur.Reset()
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			cur.WriteString(n.Data)
			return
		case html.ElementNode:
			if unsafeTags[n.DataAtom] {
				return
			}
			if blockTags[n.DataAtom] {
				flush()
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockTags[n.DataAtom] {
			flush()
		}
	}
	walk(n)
	flush()
	return strings.Join(lines, "\n")
}

// normalizeSpace trims s and collapses internal whitespace runs to one space.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// findElement performs a depth-first search for a node with the given atom tag.
func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if result := findElement(c, a); result != nil {
			return result
		}
	}
	return nil
}

// sanitizeNode strips the subtree rooted at n of script-like elements,
// event handler attributes, and href/src values with unsafe schemes. Web
// chapter pages routinely carry all three and none belong in an ePub.
func sanitizeNode(n *html.Node) {
	var next *html.Node
	for c := n.FirstChild; c != nil; c = next {
		next = c.NextSibling
		switch c.Type {
		case html.ElementNode:
			if unsafeTags[c.DataAtom] {
				n.RemoveChild(c)
				continue
			}
			c.Attr = safeAttributes(c.Attr)
		case html.CommentNode:
			n.RemoveChild(c)
			continue
		}
		sanitizeNode(c)
	}
}

// safeAttributes filters attrs in place, dropping on* handlers and unsafe URIs.
func safeAttributes(attrs []html.Attribute) []html.Attribute {
	kept := attrs[:0]
	for _, attr := range attrs {
		if strings.HasPrefix(strings.ToLower(attr.Key), "on") {
			continue
		}
		if isURIAttribute(attr) && !isSafeURI(attr.Val) {
			continue
		}
		kept = append(kept, attr)
	}
	return kept
}

// isURIAttribute reports whether attr may carry a URL.
func isURIAttribute(attr html.Attribute) bool {
	switch attr.Key {
	case "href", "src", "xlink:href":
		return true
	}
	return false
}

// isSafeURI accepts relative references, http(s), mailto and data:image/* URIs.
func isSafeURI(raw string) bool {
	v := strings.TrimSpace(raw)
	if v == "" || strings.HasPrefix(v, "#") || strings.HasPrefix(v, "/") || strings.HasPrefix(v, "./") || strings.HasPrefix(v, "../") || strings.HasPrefix(v, "?") {
		return true
	}

	u, err := url.Parse(v)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "", "http", "https", "mailto":
		return true
	case "data":
		return strings.HasPrefix(strings.ToLower(v), "data:image/")
	default:
		return false
	}
}
