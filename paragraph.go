package novelpub

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// SpacerParagraph is emitted in place of each <br>. ePub readers collapse
// line breaks between paragraphs, so an empty-looking paragraph keeps the
// visual gap.
const SpacerParagraph = "<p> </p>"

// SplitParagraphs splits every source paragraph in order and concatenates the
// results. A malformed paragraph aborts the batch; the error names its index.
func SplitParagraphs(paragraphs []*Element) ([]string, error) {
	var out []string
	for i, p := range paragraphs {
		ps, err := SplitParagraph(p)
		if err != nil {
			return nil, fmt.Errorf("paragraph %d: %w", i, err)
		}
		out = append(out, ps...)
	}
	return out, nil
}

// SplitParagraph turns one source <p> into one or more self-contained <p>
// strings.
//
// Inline children are accumulated as markup. A direct child whose own
// children include a <br> is split at every <br>: the content before the
// break is closed inside the child's tag, a SpacerParagraph follows, and the
// content after it is reopened in the same tag, so
//
//	<p><strong>a<br>b</strong></p>
//
// becomes "<p><strong>a</strong></p>", "<p> </p>", "<p><strong>b</strong></p>".
// Only the immediate children of such a wrapper are scanned for breaks.
//
// The paragraph's style attribute, when present, is copied onto every
// emitted paragraph except spacers. Nothing is emitted for an empty
// paragraph, and nothing at all when an error is returned.
func SplitParagraph(p *Element) ([]string, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: nil paragraph", ErrMalformedNode)
	}

	s := &paragraphSplitter{open: paragraphOpenTag(p)}
	var acc []string
	for _, child := range p.Children {
		switch c := child.(type) {
		case Text:
			frag, err := Markup(c)
			if err != nil {
				return nil, err
			}
			acc = append(acc, frag)
		case *Element:
			if !hasLineBreakChild(c) {
				frag, err := Markup(c)
				if err != nil {
					return nil, err
				}
				acc = append(acc, frag)
				continue
			}
			if err := s.splitWrapper(c); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("%w: unsupported node %T in <p>", ErrMalformedNode, child)
		}
	}

	if len(acc) > 0 {
		s.out = append(s.out, s.open+strings.Join(acc, "")+"</p>")
	}
	return s.out, nil
}

// paragraphSplitter collects the output of one source paragraph.
type paragraphSplitter struct {
	open string // <p> or <p style="...">
	out  []string
}

// splitWrapper walks w's children, flushing the wrapped content and a spacer
// at every <br>. The flush on a break happens even when nothing was
// accumulated; the final flush only when something was.
func (s *paragraphSplitter) splitWrapper(w *Element) error {
	if w.Tag == "" {
		return fmt.Errorf("%w: element without tag", ErrMalformedNode)
	}
	var acc []string
	for _, child := range w.Children {
		switch c := child.(type) {
		case Text:
			frag, err := Markup(c)
			if err != nil {
				return err
			}
			acc = append(acc, frag)
		case *Element:
			if !isLineBreak(c) {
				frag, err := Markup(c)
				if err != nil {
					return err
				}
				acc = append(acc, frag)
				continue
			}
			s.flushWrapped(w.Tag, acc)
			s.out = append(s.out, SpacerParagraph)
			acc = acc[:0]
		default:
			return fmt.Errorf("%w: unsupported node %T in <%s>", ErrMalformedNode, child, w.Tag)
		}
	}
	if len(acc) > 0 {
		s.flushWrapped(w.Tag, acc)
	}
	return nil
}

func (s *paragraphSplitter) flushWrapped(tag string, acc []string) {
	s.out = append(s.out, s.open+"<"+tag+">"+strings.Join(acc, "")+"</"+tag+"></p>")
}

// hasLineBreakChild reports whether any immediate child of el is a <br>.
func hasLineBreakChild(el *Element) bool {
	if el == nil {
		return false
	}
	for _, c := range el.Children {
		if isLineBreak(c) {
			return true
		}
	}
	return false
}

// paragraphOpenTag returns the opening tag shared by all non-spacer output
// paragraphs of p.
func paragraphOpenTag(p *Element) string {
	style, ok := p.Attribute("style")
	if !ok {
		return "<p>"
	}
	return `<p style="` + html.EscapeString(style) + `">`
}
