package novelpub

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Node is a node of a source paragraph: either Text or *Element.
// The set of implementations is closed; anything else reaching the splitter
// (a nil Node, for instance) is reported as ErrMalformedNode.
type Node interface {
	sourceNode()
}

// Text is character data. It is stored unescaped.
type Text string

// Element is a tag with ordered attributes and ordered children.
type Element struct {
	Tag      string
	Attr     []html.Attribute
	Children []Node
}

func (Text) sourceNode()     {}
func (*Element) sourceNode() {}

// Attribute returns the value of the named attribute and whether it is present.
func (e *Element) Attribute(name string) (string, bool) {
	for _, a := range e.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// isLineBreak reports whether n is a <br> marker.
func isLineBreak(n Node) bool {
	el, ok := n.(*Element)
	return ok && el != nil && strings.EqualFold(el.Tag, "br")
}

// NodeFromHTML converts a parsed x/net/html node and its subtree.
// Only text and element nodes are accepted; comments, doctypes, documents
// and raw nodes anywhere in the subtree yield ErrMalformedNode.
func NodeFromHTML(n *html.Node) (Node, error) {
	if n == nil {
		return nil, fmt.Errorf("%w: nil node", ErrMalformedNode)
	}
	switch n.Type {
	case html.TextNode:
		return Text(n.Data), nil
	case html.ElementNode:
		el := &Element{
			Tag:  n.Data,
			Attr: append([]html.Attribute(nil), n.Attr...),
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			child, err := NodeFromHTML(c)
			if err != nil {
				return nil, err
			}
			el.Children = append(el.Children, child)
		}
		return el, nil
	default:
		return nil, fmt.Errorf("%w: %s node %q", ErrMalformedNode, nodeTypeName(n.Type), n.Data)
	}
}

// ElementFromHTML is NodeFromHTML for callers that require an element,
// such as a selected <p>.
func ElementFromHTML(n *html.Node) (*Element, error) {
	node, err := NodeFromHTML(n)
	if err != nil {
		return nil, err
	}
	el, ok := node.(*Element)
	if !ok {
		return nil, fmt.Errorf("%w: expected element, got text", ErrMalformedNode)
	}
	return el, nil
}

// Markup serializes n with the x/net/html renderer: tag, attributes in
// source order, then children. Attribute values get standard HTML escaping;
// text escapes only &, < and >, so quotes and apostrophes in prose stay as
// written.
func Markup(n Node) (string, error) {
	hn, err := toHTML(n)
	if err != nil {
		return "", err
	}
	var buf strings.Builder
	if err := html.Render(&buf, hn); err != nil {
		return "", fmt.Errorf("novelpub: render <%s>: %w", hn.Data, err)
	}
	return buf.String(), nil
}

// toHTML rebuilds an x/net/html tree so that rendering and escaping rules stay
// those of the upstream parser.
func toHTML(n Node) (*html.Node, error) {
	switch v := n.(type) {
	case Text:
		return &html.Node{Type: html.RawNode, Data: textEscaper.Replace(string(v))}, nil
	case *Element:
		if v == nil || v.Tag == "" {
			return nil, fmt.Errorf("%w: element without tag", ErrMalformedNode)
		}
		hn := &html.Node{
			Type:     html.ElementNode,
			Data:     v.Tag,
			DataAtom: atom.Lookup([]byte(v.Tag)),
			Attr:     v.Attr,
		}
		for _, c := range v.Children {
			child, err := toHTML(c)
			if err != nil {
				return nil, err
			}
			if child.Type == html.RawNode && rawTextElements[hn.DataAtom] {
				child = &html.Node{Type: html.TextNode, Data: string(c.(Text))}
			}
			hn.AppendChild(child)
		}
		return hn, nil
	default:
		return nil, fmt.Errorf("%w: unsupported node %T", ErrMalformedNode, n)
	}
}

func nodeTypeName(t html.NodeType) string {
	switch t {
	case html.ErrorNode:
		return "error"
	case html.DocumentNode:
		return "document"
	case html.CommentNode:
		return "comment"
	case html.DoctypeNode:
		return "doctype"
	case html.RawNode:
		return "raw"
	default:
		return fmt.Sprintf("type-%d", t)
	}
}

var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// Children of these elements are written verbatim by the renderer.
var rawTextElements = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Xmp:      true,
	atom.Iframe:   true,
	atom.Noembed:  true,
	atom.Noframes: true,
	atom.Noscript: true,
}
