package novelpub

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Archive layout.
const (
	expectedMimetype = "application/epub+zip"
	opfDir           = "OEBPS"
	opfPath          = opfDir + "/content.opf"
	navHref          = "nav.xhtml"
	ncxHref          = "toc.ncx"
	coverPageHref    = "text/cover.xhtml"

	xhtmlMediaType = "application/xhtml+xml"
	ncxMediaType   = "application/x-dtbncx+xml"

	// DefaultLanguage is the dc:language used when WriteOptions.Language is empty.
	DefaultLanguage = "en"
)

// WriteOptions controls ePub generation.
type WriteOptions struct {
	// Language is the BCP 47 tag written to dc:language and xml:lang.
	Language string

	// Modified is written to dcterms:modified and to every ZIP entry.
	// Zero means time.Now.
	Modified time.Time
}

// bookItem is a manifest entry together with its content.
type bookItem struct {
	id         string
	href       string // relative to opfDir
	mediaType  string
	properties string
	data       []byte
	spine      bool
}

// Write assembles book as an ePub 3 archive on w. Chapters are written in
// slice order, their paragraphs concatenated verbatim. cover may be nil.
func Write(w io.Writer, book *Book, cover *CoverImage, opts WriteOptions) error {
	if book == nil || len(book.Chapters) == 0 {
		return ErrNoChapters
	}
	if opts.Language == "" {
		opts.Language = DefaultLanguage
	}
	if opts.Modified.IsZero() {
		opts.Modified = time.Now()
	}
	opts.Modified = opts.Modified.UTC().Truncate(time.Second)

	items, err := bookItems(book, cover, opts)
	if err != nil {
		return err
	}
	opf, err := marshalOPF(packageDocument(book, items, cover != nil, opts))
	if err != nil {
		return err
	}
	container, err := buildContainerXML(opfPath)
	if err != nil {
		return err
	}

	aw := newArchiveWriter(w, opts.Modified)
	if err := aw.store("mimetype", []byte(expectedMimetype)); err != nil {
		return err
	}
	if err := aw.deflate(containerPath, container); err != nil {
		return err
	}
	if err := aw.deflate(opfPath, opf); err != nil {
		return err
	}
	for _, item := range items {
		if err := aw.deflate(path.Join(opfDir, item.href), item.data); err != nil {
			return err
		}
	}
	return aw.close()
}

// WriteFile writes the ePub to name, creating parent directories. A partial
// file is removed on failure.
func WriteFile(name string, book *Book, cover *CoverImage, opts WriteOptions) (err error) {
	if dir := filepath.Dir(name); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("novelpub: create output dir: %w", err)
		}
	}
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("novelpub: create %s: %w", name, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("novelpub: close %s: %w", name, cerr)
		}
		if err != nil {
			os.Remove(name)
		}
	}()
	return Write(f, book, cover, opts)
}

// bookItems lists every manifest item in archive order: nav, NCX, cover
// image, cover page, then one XHTML document per chapter.
func bookItems(book *Book, cover *CoverImage, opts WriteOptions) ([]bookItem, error) {
	chapterHrefs := make([]string, len(book.Chapters))
	toc := make([]TOCItem, len(book.Chapters))
	for i, ch := range book.Chapters {
		chapterHrefs[i] = fmt.Sprintf("text/chap%04d.xhtml", i+1)
		toc[i] = TOCItem{Title: chapterTitle(ch, i), Href: chapterHrefs[i]}
	}

	landmarks := []landmark{
		{Type: "cover", Title: "cover page", Href: coverPageHref},
		{Type: "bodymatter", Title: toc[0].Title, Href: chapterHrefs[0]},
	}
	ncx, err := buildNCX(book.URL, book.Title, toc)
	if err != nil {
		return nil, err
	}

	items := []bookItem{
		{id: "nav", href: navHref, mediaType: xhtmlMediaType, properties: "nav",
			data: buildNavDocument(book.Title, opts.Language, toc, landmarks)},
		{id: "ncx", href: ncxHref, mediaType: ncxMediaType, data: ncx},
	}

	coverHref := ""
	if cover != nil {
		coverHref = cover.Path
		if coverHref == "" {
			coverHref = coverPath(cover.MediaType)
		}
		items = append(items, bookItem{
			id: "cover-image", href: coverHref, mediaType: cover.MediaType,
			properties: "cover-image", data: cover.Data,
		})
	}
	coverPage, err := buildCoverPage(book, coverHref, opts.Language)
	if err != nil {
		return nil, err
	}
	items = append(items, bookItem{
		id: "cover", href: coverPageHref, mediaType: xhtmlMediaType, data: coverPage, spine: true,
	})

	for i, ch := range book.Chapters {
		body := strings.Join(ch.Paragraphs, "\n")
		if body != "" {
			body += "\n"
		}
		items = append(items, bookItem{
			id:        fmt.Sprintf("chap%04d", i+1),
			href:      chapterHrefs[i],
			mediaType: xhtmlMediaType,
			data:      xhtmlDocument(toc[i].Title, opts.Language, body),
			spine:     true,
		})
	}
	return items, nil
}

// packageDocument builds content.opf for items.
func packageDocument(book *Book, items []bookItem, hasCover bool, opts WriteOptions) *opfDocument {
	doc := &opfDocument{
		Version:          "3.0",
		UniqueIdentifier: "BookID",
	}
	md := &doc.Metadata
	md.Identifiers = []opfDCOut{
		{ID: "BookID", Value: book.URL},
		{ID: "uuid", Value: "urn:uuid:" + BookUUID(book.URL).String()},
	}
	md.Titles = []opfDCOut{{ID: "title", Value: book.Title}}
	md.Creators = []opfDCOut{{ID: "creator", Value: book.Author}}
	md.Languages = []opfDCOut{{Value: opts.Language}}
	if d := strings.TrimSpace(book.Description); d != "" {
		md.Descriptions = []opfDCOut{{Value: d}}
	}
	md.Sources = []opfDCOut{{Value: book.URL}}
	md.Metas = []opfMeta{
		{Refines: "#title", Property: "title-type", Value: "main"},
		{Refines: "#title", Property: "display-seq", Value: "1"},
		{Refines: "#creator", Property: "role", Scheme: "marc:relators", Value: "aut"},
		{Refines: "#creator", Property: "display-seq", Value: "1"},
		{Property: "dcterms:modified", Value: opts.Modified.Format("2006-01-02T15:04:05Z")},
	}
	if hasCover {
		md.Metas = append(md.Metas, opfMeta{Name: "cover", Content: "cover-image"})
	}

	doc.Spine.Toc = "ncx"
	for _, item := range items {
		doc.Manifest.Items = append(doc.Manifest.Items, opfManifestItem{
			ID:         item.id,
			Href:       item.href,
			MediaType:  item.mediaType,
			Properties: item.properties,
		})
		if item.spine {
			doc.Spine.ItemRefs = append(doc.Spine.ItemRefs, opfSpineItemRef{IDRef: item.id})
		}
	}
	return doc
}

// BookUUID derives a stable UUID (version 5, URL namespace) from a fiction URL.
func BookUUID(fictionURL string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(fictionURL))
}

func chapterTitle(ch Chapter, i int) string {
	if t := strings.TrimSpace(ch.Title); t != "" {
		return t
	}
	return fmt.Sprintf("Chapter %d", i+1)
}
