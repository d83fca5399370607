package novelpub

import (
	"bytes"
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func inspectBytes(t *testing.T, data []byte) *Report {
	t.Helper()
	rep, err := InspectReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("InspectReader: %v", err)
	}
	return rep
}

func TestInspect_WrittenBook(t *testing.T) {
	book := testBook()
	rep := inspectBytes(t, writeTestEPub(t, book, nil))

	if len(rep.Warnings) != 0 {
		t.Errorf("warnings = %q", rep.Warnings)
	}
	if rep.Version != "3.0" {
		t.Errorf("Version = %q", rep.Version)
	}
	if !slices.Equal(rep.Titles, []string{book.Title}) {
		t.Errorf("Titles = %q", rep.Titles)
	}
	if !slices.Equal(rep.Authors, []string{"Ada Keeper"}) {
		t.Errorf("Authors = %q", rep.Authors)
	}
	if !slices.Equal(rep.Languages, []string{"en"}) {
		t.Errorf("Languages = %q", rep.Languages)
	}
	if len(rep.Identifiers) != 2 || rep.Identifiers[0] != book.URL {
		t.Errorf("Identifiers = %q", rep.Identifiers)
	}

	wantTOC := []TOCItem{
		{Title: "Chapter 1: Dusk", Href: "OEBPS/text/chap0001.xhtml"},
		{Title: "Chapter 2: Night", Href: "OEBPS/text/chap0002.xhtml"},
		{Title: "Chapter 3", Href: "OEBPS/text/chap0003.xhtml"},
	}
	if !slices.Equal(rep.TOC, wantTOC) {
		t.Errorf("TOC = %+v", rep.TOC)
	}

	if len(rep.Chapters) != 4 {
		t.Fatalf("spine = %d items, want 4", len(rep.Chapters))
	}
	if c := rep.Chapters[0]; c.ID != "cover" || c.Href != "OEBPS/text/cover.xhtml" || c.Title != "" || c.Words == 0 {
		t.Errorf("cover = %+v", c)
	}
	wantWords := []int{9, 6, 0}
	for i, c := range rep.Chapters[1:] {
		if c.Title != wantTOC[i].Title || c.Href != wantTOC[i].Href {
			t.Errorf("chapter %d = %+v", i, c)
		}
		if c.Words != wantWords[i] {
			t.Errorf("chapter %d words = %d, want %d", i, c.Words, wantWords[i])
		}
	}
}

func TestInspect_File(t *testing.T) {
	name := filepath.Join(t.TempDir(), "book.epub")
	if err := WriteFile(name, testBook(), nil, WriteOptions{Modified: testModified}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	rep, err := Inspect(name)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if len(rep.Chapters) != 4 {
		t.Errorf("spine = %d items, want 4", len(rep.Chapters))
	}
}

func TestInspect_MissingFile(t *testing.T) {
	if _, err := Inspect(filepath.Join(t.TempDir(), "nope.epub")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestInspect_NotAZip(t *testing.T) {
	data := []byte("definitely not a zip")
	if _, err := InspectReader(bytes.NewReader(data), int64(len(data))); err == nil {
		t.Fatal("expected error for non-zip input")
	}
}

const minimalOPF = `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="id">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:identifier id="id">x</dc:identifier>
    <dc:title>Minimal</dc:title>
  </metadata>
  <manifest>
    <item id="c1" href="c1.xhtml" media-type="application/xhtml+xml"/>
    <item id="gone" href="gone.xhtml" media-type="application/xhtml+xml"/>
  </manifest>
  <spine>
    <itemref idref="c1"/>
    <itemref idref="gone"/>
    <itemref idref="unknown"/>
  </spine>
</package>`

const minimalContainer = `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles><rootfile full-path="OPS/package.opf" media-type="application/oebps-package+xml"/></rootfiles>
</container>`

func TestInspect_Warnings(t *testing.T) {
	zr := buildTestZip(t, map[string]string{
		"mimetype":               "application/epub+zip",
		"META-INF/container.xml": minimalContainer,
		"OPS/package.opf":        minimalOPF,
		"OPS/c1.xhtml":           `<html><body><p>two words</p></body></html>`,
	})
	rep, err := inspectZip(zr)
	if err != nil {
		t.Fatalf("inspectZip: %v", err)
	}

	joined := strings.Join(rep.Warnings, "\n")
	for _, want := range []string{
		"mimetype entry is compressed",
		"manifest has no nav document",
		"OPS/gone.xhtml",
		`spine itemref "unknown" has no manifest item`,
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("warnings missing %q:\n%s", want, joined)
		}
	}
	if len(rep.Chapters) != 2 || rep.Chapters[0].Words != 2 {
		t.Errorf("chapters = %+v", rep.Chapters)
	}
	if rep.Titles[0] != "Minimal" {
		t.Errorf("Titles = %q", rep.Titles)
	}
}

func TestInspect_FallbackOPFWithoutMimetype(t *testing.T) {
	zr := buildTestZip(t, map[string]string{
		"OPS/package.opf": minimalOPF,
		"OPS/c1.xhtml":    `<html><body><p>x</p></body></html>`,
	})
	rep, err := inspectZip(zr)
	if err != nil {
		t.Fatalf("inspectZip: %v", err)
	}
	if !strings.Contains(strings.Join(rep.Warnings, "\n"), `first ZIP entry is not "mimetype"`) {
		t.Errorf("warnings = %q", rep.Warnings)
	}
}

func TestInspect_NoPackageDocument(t *testing.T) {
	zr := buildTestZip(t, map[string]string{
		"mimetype":    "application/epub+zip",
		"chapter.xml": "<p/>",
	})
	if _, err := inspectZip(zr); !errors.Is(err, ErrInvalidEPub) {
		t.Fatalf("err = %v, want ErrInvalidEPub", err)
	}
}

func TestInspect_ContainerPointsNowhere(t *testing.T) {
	zr := buildTestZip(t, map[string]string{
		"mimetype":               "application/epub+zip",
		"META-INF/container.xml": minimalContainer,
	})
	if _, err := inspectZip(zr); !errors.Is(err, ErrInvalidEPub) {
		t.Fatalf("err = %v, want ErrInvalidEPub", err)
	}
}

func TestMimetypeWarnings_WrongContent(t *testing.T) {
	zr := buildTestZip(t, map[string]string{"mimetype": "application/zip"})
	w := mimetypeWarnings(zr)
	if !strings.Contains(strings.Join(w, "\n"), `unexpected mimetype: "application/zip"`) {
		t.Errorf("warnings = %q", w)
	}
}
