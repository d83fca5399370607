package novelpub

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"path"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of chapter pages fetched at once.
const DefaultConcurrency = 4

// Getter fetches a URL. *Fetcher implements it.
type Getter interface {
	Get(ctx context.Context, rawURL string) ([]byte, error)
}

// typedGetter is implemented by getters that also report the Content-Type.
type typedGetter interface {
	GetWithType(ctx context.Context, rawURL string) ([]byte, string, error)
}

// Scraper builds a Book from a fiction page and its chapter pages.
type Scraper struct {
	getter      Getter
	concurrency int
	log         *slog.Logger
}

// NewScraper returns a Scraper that fetches up to concurrency chapters at a
// time (DefaultConcurrency if concurrency < 1). A nil logger discards output.
func NewScraper(g Getter, concurrency int, logger *slog.Logger) *Scraper {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	return &Scraper{getter: g, concurrency: concurrency, log: loggerOrDiscard(logger)}
}

// FetchBook fetches the fiction page at fictionURL and every chapter it
// lists. Chapters are returned sorted by Order regardless of the order in
// which their pages arrive. The first failure cancels outstanding fetches.
func (s *Scraper) FetchBook(ctx context.Context, fictionURL string) (*Book, error) {
	page, err := s.getter.Get(ctx, fictionURL)
	if err != nil {
		return nil, err
	}
	book, refs, err := ParseFiction(bytes.NewReader(page), fictionURL)
	if err != nil {
		return nil, err
	}
	s.log.Info("fetched fiction page", "url", fictionURL, "title", book.Title, "total", len(refs))

	chapters := make([]Chapter, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, ref := range refs {
		g.Go(func() error {
			ch, err := s.fetchChapter(gctx, ref, len(refs))
			if err != nil {
				return err
			}
			chapters[i] = ch
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(chapters, func(i, j int) bool {
		return chapters[i].Order < chapters[j].Order
	})
	book.Chapters = chapters
	return book, nil
}

func (s *Scraper) fetchChapter(ctx context.Context, ref ChapterRef, total int) (Chapter, error) {
	s.log.Info("fetching chapter", "order", ref.Order+1, "total", total, "chapter", ref.Title)
	page, err := s.getter.Get(ctx, ref.URL)
	if err != nil {
		return Chapter{}, fmt.Errorf("chapter %d %q: %w", ref.Order, ref.Title, err)
	}
	paragraphs, err := ParseChapter(bytes.NewReader(page))
	if err != nil {
		return Chapter{}, fmt.Errorf("chapter %d %q: %w", ref.Order, ref.Title, err)
	}
	return Chapter{
		ID:          ref.ID,
		Order:       ref.Order,
		URL:         ref.URL,
		Title:       ref.Title,
		ReleaseDate: ref.Date,
		Paragraphs:  paragraphs,
	}, nil
}

// FetchCover downloads the book's cover image. It returns ErrNoCover when the
// book has no cover URL or the download is not an image.
func (s *Scraper) FetchCover(ctx context.Context, book *Book) (*CoverImage, error) {
	if book.CoverImageURL == "" {
		return nil, ErrNoCover
	}
	s.log.Info("downloading cover image", "url", book.CoverImageURL)

	var (
		data        []byte
		contentType string
		err         error
	)
	if tg, ok := s.getter.(typedGetter); ok {
		data, contentType, err = tg.GetWithType(ctx, book.CoverImageURL)
	} else {
		data, err = s.getter.Get(ctx, book.CoverImageURL)
	}
	if err != nil {
		return nil, err
	}

	mediaType := coverMediaType(contentType, data, book.CoverImageURL)
	if !isImageMediaType(mediaType) {
		return nil, fmt.Errorf("%w: %s is %q", ErrNoCover, book.CoverImageURL, mediaType)
	}
	return &CoverImage{
		Path:      coverPath(mediaType),
		MediaType: mediaType,
		Data:      data,
	}, nil
}

// coverMediaType picks the first usable of the Content-Type header, the
// sniffed bytes, and the URL's extension.
func coverMediaType(contentType string, data []byte, rawURL string) string {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil && isImageMediaType(mt) {
		return mt
	}
	if mt, _, err := mime.ParseMediaType(http.DetectContentType(data)); err == nil && isImageMediaType(mt) {
		return mt
	}
	if u, err := url.Parse(rawURL); err == nil {
		if mt, _, err := mime.ParseMediaType(mime.TypeByExtension(strings.ToLower(path.Ext(u.Path)))); err == nil {
			return mt
		}
	}
	return ""
}

// imageExtensions maps supported cover media types to file extensions.
var imageExtensions = map[string]string{
	"image/jpeg":    "jpg",
	"image/png":     "png",
	"image/gif":     "gif",
	"image/webp":    "webp",
	"image/svg+xml": "svg",
}

func isImageMediaType(mediaType string) bool {
	_, ok := imageExtensions[strings.ToLower(mediaType)]
	return ok
}

// coverPath returns the OPF-relative path of a cover with the given type.
func coverPath(mediaType string) string {
	return "img/cover." + imageExtensions[strings.ToLower(mediaType)]
}
