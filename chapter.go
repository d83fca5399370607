package novelpub

import (
	"fmt"
	"io"

	"github.com/PuerkitoBio/goquery"
)

// ChapterParagraphSelector matches the paragraphs of a chapter page.
const ChapterParagraphSelector = ".chapter-content p"

// chapterContainerSelector matches the element sanitised before selection.
const chapterContainerSelector = ".chapter-content"

// ParseChapter reads a chapter page and returns its paragraphs split for
// ePub output. A page without chapter content yields an empty slice.
func ParseChapter(r io.Reader) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("novelpub: parse chapter page: %w", err)
	}
	return ChapterParagraphs(doc)
}

// ChapterParagraphs sanitises the chapter content of doc in place and
// splits every paragraph matched by ChapterParagraphSelector, in document
// order.
func ChapterParagraphs(doc *goquery.Document) ([]string, error) {
	for _, n := range doc.Find(chapterContainerSelector).Nodes {
		sanitizeNode(n)
	}

	sel := doc.Find(ChapterParagraphSelector)
	paragraphs := make([]*Element, 0, sel.Length())
	for i, n := range sel.Nodes {
		p, err := ElementFromHTML(n)
		if err != nil {
			return nil, fmt.Errorf("paragraph %d: %w", i, err)
		}
		paragraphs = append(paragraphs, p)
	}

	out, err := SplitParagraphs(paragraphs)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}
