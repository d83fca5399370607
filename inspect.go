package novelpub

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Report summarises an ePub read back from disk.
type Report struct {
	// Version is the package version attribute (e.g., "3.0").
	Version string

	Titles      []string
	Authors     []string
	Languages   []string
	Identifiers []string

	// Chapters lists the spine in reading order.
	Chapters []ChapterReport

	// TOC is the nav document's table of contents, flattened.
	TOC []TOCItem

	// Warnings holds non-fatal problems such as a misplaced mimetype entry
	// or a spine item missing from the archive.
	Warnings []string
}

// ChapterReport describes one spine item.
type ChapterReport struct {
	ID    string
	Href  string // ZIP-internal path
	Title string // from the TOC, "" if not listed
	Words int
}

// Inspect opens the ePub at name and reports on its structure.
func Inspect(name string) (*Report, error) {
	zrc, err := zip.OpenReader(name)
	if err != nil {
		return nil, fmt.Errorf("novelpub: open %s: %w", name, err)
	}
	defer zrc.Close()
	return inspectZip(&zrc.Reader)
}

// InspectReader is Inspect for an in-memory or already open archive.
func InspectReader(r io.ReaderAt, size int64) (*Report, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("novelpub: open zip: %w", err)
	}
	return inspectZip(zr)
}

func inspectZip(zr *zip.Reader) (*Report, error) {
	rep := &Report{}
	rep.Warnings = append(rep.Warnings, mimetypeWarnings(zr)...)

	opfFile, err := parseContainer(zr)
	if err != nil {
		return nil, err
	}
	f := findFileInsensitive(zr, opfFile)
	if f == nil {
		return nil, fmt.Errorf("novelpub: OPF file not found in archive: %s: %w", opfFile, ErrInvalidEPub)
	}
	data, err := readZipFile(f)
	if err != nil {
		return nil, fmt.Errorf("novelpub: read OPF file: %w", err)
	}
	pkg, err := parseOPF(data)
	if err != nil {
		return nil, err
	}

	rep.Version = pkg.Version
	rep.Titles = dcValues(pkg.Metadata.Titles)
	rep.Authors = dcValues(pkg.Metadata.Creators)
	rep.Languages = dcValues(pkg.Metadata.Languages)
	rep.Identifiers = dcValues(pkg.Metadata.Identifiers)

	dir := path.Dir(opfFile)
	resolve := func(href string) string {
		if dir == "." {
			return href
		}
		return path.Join(dir, href)
	}
	byID := manifestByID(pkg.Manifest)

	// Nav document, for chapter titles. Its absence is only a warning.
	titles := map[string]string{}
	navIdx := slices.IndexFunc(pkg.Manifest.Items, func(item opfManifestItem) bool {
		return slices.Contains(strings.Fields(item.Properties), "nav")
	})
	if navIdx < 0 {
		rep.Warnings = append(rep.Warnings, "manifest has no nav document")
	} else if toc, err := readNavTOC(zr, resolve(pkg.Manifest.Items[navIdx].Href)); err != nil {
		rep.Warnings = append(rep.Warnings, err.Error())
	} else {
		rep.TOC = toc
		for _, t := range toc {
			if _, ok := titles[t.Href]; !ok {
				titles[t.Href] = t.Title
			}
		}
	}

	for _, ref := range pkg.Spine.ItemRefs {
		item, ok := byID[ref.IDRef]
		if !ok {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("spine itemref %q has no manifest item", ref.IDRef))
			continue
		}
		href := resolve(item.Href)
		ch := ChapterReport{ID: item.ID, Href: href, Title: titles[href]}

		f := findFileInsensitive(zr, href)
		if f == nil {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("spine item %s: %v", href, ErrFileNotFound))
			rep.Chapters = append(rep.Chapters, ch)
			continue
		}
		words, err := countWords(f)
		if err != nil {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("spine item %s: %v", href, err))
		}
		ch.Words = words
		rep.Chapters = append(rep.Chapters, ch)
	}
	return rep, nil
}

// mimetypeWarnings checks that the first entry is an uncompressed
// "mimetype" containing "application/epub+zip".
func mimetypeWarnings(zr *zip.Reader) []string {
	if len(zr.File) == 0 {
		return []string{"empty ZIP archive; mimetype entry missing"}
	}
	first := zr.File[0]
	if first.Name != "mimetype" {
		return []string{`first ZIP entry is not "mimetype"`}
	}

	var warnings []string
	if first.Method != zip.Store {
		warnings = append(warnings, "mimetype entry is compressed")
	}
	data, err := readZipFile(first)
	if err != nil {
		return append(warnings, fmt.Sprintf("cannot read mimetype entry: %v", err))
	}
	if string(data) != expectedMimetype {
		warnings = append(warnings, fmt.Sprintf("unexpected mimetype: %q", string(data)))
	}
	return warnings
}

func readNavTOC(zr *zip.Reader, navPath string) ([]TOCItem, error) {
	f := findFileInsensitive(zr, navPath)
	if f == nil {
		return nil, fmt.Errorf("nav document %s: %w", navPath, ErrFileNotFound)
	}
	data, err := readZipFile(f)
	if err != nil {
		return nil, err
	}
	return parseNavTOC(data, navPath)
}

// countWords reads an XHTML entry and counts whitespace-separated words in
// its body text.
func countWords(f *zip.File) (int, error) {
	data, err := readZipFile(f)
	if err != nil {
		return 0, err
	}
	doc, err := html.Parse(bytes.NewReader(stripBOM(data)))
	if err != nil {
		return 0, fmt.Errorf("novelpub: parse %s: %w", f.Name, err)
	}
	root := doc
	if body := findElement(doc, atom.Body); body != nil {
		root = body
	}
	return len(strings.Fields(plainText(root))), nil
}

func dcValues(elems []opfDCElement) []string {
	var out []string
	for _, e := range elems {
		if v := strings.TrimSpace(e.Value); v != "" {
			out = append(out, v)
		}
	}
	return out
}
