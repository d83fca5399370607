package novelpub

import (
	"bytes"
	"fmt"
	"path"
	"strings"

	"github.com/yuin/goldmark"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"golang.org/x/net/html"
)

// descriptionMarkdown renders escaped description text as XHTML paragraphs
// with a <br /> for every line break.
var descriptionMarkdown = goldmark.New(
	goldmark.WithRendererOptions(
		gmhtml.WithXHTML(),
		gmhtml.WithHardWraps(),
	),
)

// renderDescription converts a plain-text description with blank-line
// separated paragraphs into XHTML. The text is escaped first, so goldmark
// only contributes paragraphs and line breaks.
func renderDescription(description string) (string, error) {
	if strings.TrimSpace(description) == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := descriptionMarkdown.Convert([]byte(escapeMarkdown(description)), &buf); err != nil {
		return "", fmt.Errorf("novelpub: render description: %w", err)
	}
	return buf.String(), nil
}

// markdownPunct is the ASCII punctuation CommonMark lets a backslash escape.
const markdownPunct = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// escapeMarkdown makes plain text literal Markdown: every ASCII punctuation
// character is backslash-escaped and leading indentation is dropped so no
// line opens a code block.
func escapeMarkdown(text string) string {
	lines := strings.Split(text, "\n")
	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		for _, r := range strings.TrimLeft(line, " \t") {
			if strings.ContainsRune(markdownPunct, r) {
				b.WriteByte('\\')
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

// buildCoverPage renders the title page: title, author and rating, the
// cover image when present, then the description. coverHref is the image
// path relative to the OPF directory, or "" for no image.
func buildCoverPage(book *Book, coverHref, lang string) ([]byte, error) {
	var body strings.Builder
	fmt.Fprintf(&body, "<h1>%s</h1>\n", html.EscapeString(book.Title))
	fmt.Fprintf(&body, "<h3>by %s", html.EscapeString(book.Author))
	if !book.Rating.IsZero() {
		fmt.Fprintf(&body, " <small>%s</small>", html.EscapeString(book.Rating.String()))
	}
	body.WriteString("</h3>\n")

	if coverHref != "" {
		// The cover page lives in text/, one level below the OPF directory.
		src := path.Join("..", coverHref)
		fmt.Fprintf(&body, "<img src=\"%s\" alt=\"%s\"/>\n", html.EscapeString(src), html.EscapeString(book.Title))
	}

	desc, err := renderDescription(book.Description)
	if err != nil {
		return nil, err
	}
	if desc != "" {
		body.WriteString("<div class=\"description\">\n" + desc + "</div>\n")
	}
	return xhtmlDocument("cover page", lang, body.String()), nil
}

// xhtmlDocument wraps body markup in an ePub 3 XHTML document.
func xhtmlDocument(title, lang, body string) []byte {
	var b strings.Builder
	b.WriteString(xmlDeclaration)
	b.WriteString("<!DOCTYPE html>\n")
	fmt.Fprintf(&b, "<html xmlns=\"http://www.w3.org/1999/xhtml\" xmlns:epub=\"http://www.idpf.org/2007/ops\" xml:lang=\"%[1]s\" lang=\"%[1]s\">\n", html.EscapeString(lang))
	fmt.Fprintf(&b, "<head><title>%s</title></head>\n", html.EscapeString(title))
	b.WriteString("<body>\n")
	b.WriteString(body)
	b.WriteString("</body>\n</html>\n")
	return []byte(b.String())
}

const xmlDeclaration = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"
