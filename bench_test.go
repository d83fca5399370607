package novelpub

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
)

// benchChapterHTML builds a chapter page with n paragraphs, every third one
// carrying breaks inside formatting.
func benchChapterHTML(n int) string {
	var b strings.Builder
	b.WriteString(`<html><body><div class="chapter-content">`)
	for i := range n {
		if i%3 == 0 {
			fmt.Fprintf(&b, `<p style="text-align: center"><strong>Line %d<br>continued<br>again</strong> tail</p>`, i)
			continue
		}
		fmt.Fprintf(&b, `<p>Paragraph %d with <em>some</em> ordinary prose that runs for a while.</p>`, i)
	}
	b.WriteString(`</div></body></html>`)
	return b.String()
}

func BenchmarkSplitParagraph(b *testing.B) {
	p := el("p", Text("lead "), el("strong", Text("a"), br(), Text("b"), br(), Text("c")), el("em", Text("tail")))
	b.ReportAllocs()
	for b.Loop() {
		if _, err := SplitParagraph(p); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkParseChapter(b *testing.B) {
	page := benchChapterHTML(300)
	b.SetBytes(int64(len(page)))
	b.ReportAllocs()
	for b.Loop() {
		if _, err := ParseChapter(strings.NewReader(page)); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkWrite(b *testing.B) {
	book := testBook()
	paragraphs, err := ParseChapter(strings.NewReader(benchChapterHTML(300)))
	if err != nil {
		b.Fatal(err)
	}
	book.Chapters = nil
	for i := range 50 {
		book.Chapters = append(book.Chapters, Chapter{Order: i, Title: fmt.Sprintf("Chapter %d", i+1), Paragraphs: paragraphs})
	}
	var buf bytes.Buffer
	b.ReportAllocs()
	for b.Loop() {
		buf.Reset()
		if err := Write(&buf, book, nil, WriteOptions{Modified: testModified}); err != nil {
			b.Fatal(err)
		}
	}
}
