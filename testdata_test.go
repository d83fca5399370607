package novelpub

import (
	"archive/zip"
	"bytes"
	"io"
	"sort"
	"testing"
	"time"
)

// testModified is the fixed timestamp used for reproducible archives.
var testModified = time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

// buildTestZip creates an in-memory ZIP archive from the provided files map
// (path → content). Entries are written in sorted order, except that
// "mimetype" always comes first when present.
func buildTestZip(t *testing.T, files map[string]string) *zip.Reader {
	t.Helper()
	names := make([]string, 0, len(files))
	for name := range files {
		if name != "mimetype" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	if _, ok := files["mimetype"]; ok {
		names = append([]string{"mimetype"}, names...)
	}

	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)
	for _, name := range names {
		fw, err := zw.Create(name)
		if err != nil {
			t.Fatalf("buildTestZip: create %s: %v", name, err)
		}
		if _, err := io.WriteString(fw, files[name]); err != nil {
			t.Fatalf("buildTestZip: write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("buildTestZip: close writer: %v", err)
	}

	data := buf.Bytes()
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("buildTestZip: open reader: %v", err)
	}
	return r
}

// testBook returns a small scraped book with three chapters.
func testBook() *Book {
	return &Book{
		Title:       "The Lighthouse & The Sea",
		URL:         "https://www.royalroad.com/fiction/12345/the-lighthouse",
		Author:      "Ada Keeper",
		Description: "A keeper and a storm.\n\nSecond paragraph of the blurb.",
		Rating:      Rating{Rating: 4.5, Base: 5},
		Chapters: []Chapter{
			{ID: 101, Order: 0, Title: "Chapter 1: Dusk", Paragraphs: []string{
				"<p>The lamp was lit at dusk.</p>",
				SpacerParagraph,
				"<p><em>Waves</em> broke below.</p>",
			}},
			{ID: 102, Order: 1, Title: "Chapter 2: Night", Paragraphs: []string{
				"<p>Nothing moved on the water tonight.</p>",
			}},
			{ID: 103, Order: 2, Title: "", Paragraphs: nil},
		},
	}
}

// writeTestEPub renders book into memory with a fixed timestamp.
func writeTestEPub(t *testing.T, book *Book, cover *CoverImage) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := Write(&buf, book, cover, WriteOptions{Modified: testModified}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	return buf.Bytes()
}

// zipEntry returns the contents of name in the archive data.
func zipEntry(t *testing.T, data []byte, name string) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	f := findFileInsensitive(zr, name)
	if f == nil {
		t.Fatalf("entry %s not found", name)
	}
	b, err := readZipFile(f)
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return string(b)
}
