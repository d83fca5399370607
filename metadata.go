package novelpub

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// chapterIndexMarker identifies the script assignment holding the chapter list.
const chapterIndexMarker = "window.chapters"

// ParseFiction extracts book metadata and the chapter index from a fiction
// page. The returned Book has no chapters yet; refs lists them in page order
// with URLs resolved against pageURL.
func ParseFiction(r io.Reader, pageURL string) (*Book, []ChapterRef, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, nil, fmt.Errorf("novelpub: parse fiction URL: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("novelpub: parse fiction page: %w", err)
	}

	book := &Book{URL: pageURL}

	// "Some Fiction | Site Name" keeps the first segment.
	title, _, _ := strings.Cut(doc.Find("title").First().Text(), "|")
	book.Title = normalizeSpace(title)
	if book.Title == "" {
		return nil, nil, fmt.Errorf("%w: title", ErrMissingMetadata)
	}

	book.Author = normalizeSpace(metaProperty(doc, "books:author"))
	if book.Author == "" {
		return nil, nil, fmt.Errorf("%w: author", ErrMissingMetadata)
	}

	if cover := strings.TrimSpace(metaProperty(doc, "og:image")); cover != "" {
		book.CoverImageURL = resolveURL(base, cover)
	}

	book.Description = extractDescription(doc.Find(".description").First())

	book.Rating, err = extractRating(doc)
	if err != nil {
		return nil, nil, err
	}

	refs, err := extractChapterIndex(doc)
	if err != nil {
		return nil, nil, err
	}
	for i := range refs {
		refs[i].URL = resolveURL(base, refs[i].URL)
	}

	return book, refs, nil
}

// metaProperty returns the content of <meta property="name">, or "".
func metaProperty(doc *goquery.Document, name string) string {
	content, _ := doc.Find(`meta[property="` + name + `"]`).First().Attr("content")
	return content
}

// extractDescription joins the description's paragraphs with blank lines.
// Descriptions without <p> children fall back to their whole text.
func extractDescription(sel *goquery.Selection) string {
	var paras []string
	sel.Find("p").Each(func(_ int, p *goquery.Selection) {
		if len(p.Nodes) == 0 {
			return
		}
		if text := plainText(p.Nodes[0]); text != "" {
			paras = append(paras, text)
		}
	})
	if len(paras) == 0 && len(sel.Nodes) > 0 {
		return plainText(sel.Nodes[0])
	}
	return strings.Join(paras, "\n\n")
}

// extractRating reads books:rating:value and books:rating:scale. A page that
// publishes neither has a zero rating.
func extractRating(doc *goquery.Document) (Rating, error) {
	value := strings.TrimSpace(metaProperty(doc, "books:rating:value"))
	scale := strings.TrimSpace(metaProperty(doc, "books:rating:scale"))
	if value == "" && scale == "" {
		return Rating{}, nil
	}

	var r Rating
	var err error
	if r.Rating, err = strconv.ParseFloat(value, 64); err != nil {
		return Rating{}, fmt.Errorf("%w: rating value %q", ErrMissingMetadata, value)
	}
	if r.Base, err = strconv.ParseFloat(scale, 64); err != nil {
		return Rating{}, fmt.Errorf("%w: rating scale %q", ErrMissingMetadata, scale)
	}
	return r, nil
}

// extractChapterIndex finds the script line "window.chapters = [...];" and
// decodes its JSON array.
func extractChapterIndex(doc *goquery.Document) ([]ChapterRef, error) {
	var line string
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		for _, l := range strings.Split(s.Text(), "\n") {
			if strings.Contains(l, chapterIndexMarker) {
				line = l
				return false
			}
		}
		return true
	})
	if line == "" {
		return nil, ErrNoChapterIndex
	}

	rest := line[strings.Index(line, chapterIndexMarker)+len(chapterIndexMarker):]
	_, data, ok := strings.Cut(rest, "=")
	if !ok {
		return nil, fmt.Errorf("%w: no assignment in %q", ErrNoChapterIndex, strings.TrimSpace(line))
	}
	data = strings.TrimSuffix(strings.TrimSpace(data), ";")

	var refs []ChapterRef
	if err := json.Unmarshal([]byte(data), &refs); err != nil {
		return nil, fmt.Errorf("novelpub: decode chapter index: %w", err)
	}
	return refs, nil
}

// resolveURL resolves ref against base, returning ref unchanged if it does
// not parse.
func resolveURL(base *url.URL, ref string) string {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}
