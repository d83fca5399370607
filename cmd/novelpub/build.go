package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path/filepath"

	"github.com/simp-lee/novelpub"
	"github.com/simp-lee/novelpub/internal/config"
)

// descriptionPreview is the number of description runes printed with the
// book details.
const descriptionPreview = 100

func runBuild(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	f, positional, fs, err := parseBuildFlags(args, stderr)
	if err != nil {
		return err
	}
	if len(positional) != 1 {
		fs.Usage()
		return fmt.Errorf("%w: expected one fiction URL, got %d arguments", ErrUsage, len(positional))
	}
	fictionURL, err := checkFictionURL(positional[0])
	if err != nil {
		return err
	}

	cfg, err := config.Load(f.common.config)
	if err != nil {
		return err
	}
	f.applyTo(cfg, fs)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(stderr, f.common.verbose, f.common.quiet)
	defer setMaxProcs(logger)()

	b, err := newBuilder(cfg, stdout, logger)
	if err != nil {
		return err
	}
	return b.build(ctx, fictionURL, !f.noCover)
}

// checkFictionURL accepts absolute http(s) URLs only.
func checkFictionURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: %q is not an http(s) URL", ErrUsage, raw)
	}
	return u.String(), nil
}

// builder runs one fetch-cache-write-inspect cycle.
type builder struct {
	cfg     *config.Config
	scraper *novelpub.Scraper
	cache   *novelpub.Cache
	stdout  io.Writer
	log     *slog.Logger
}

func newBuilder(cfg *config.Config, stdout io.Writer, logger *slog.Logger) (*builder, error) {
	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return nil, err
	}
	fetcher := novelpub.NewFetcher(novelpub.FetcherConfig{
		UserAgent:    cfg.UserAgent,
		MaxRedirects: cfg.MaxRedirects,
		MaxRetries:   cfg.MaxRetries,
		Timeout:      timeout,
		Logger:       logger,
	})
	return &builder{
		cfg:     cfg,
		scraper: novelpub.NewScraper(fetcher, cfg.Concurrency, logger),
		cache:   novelpub.NewCache(cfg.CacheDir),
		stdout:  stdout,
		log:     logger,
	}, nil
}

func (b *builder) build(ctx context.Context, fictionURL string, withCover bool) error {
	book, err := b.loadBook(ctx, fictionURL)
	if err != nil {
		return err
	}
	if b.cfg.CacheDir != "" {
		if err := b.cache.Store(book); err != nil {
			return err
		}
	}
	printDetails(b.stdout, book)

	var cover *novelpub.CoverImage
	if withCover {
		cover, err = b.scraper.FetchCover(ctx, book)
		switch {
		case errors.Is(err, novelpub.ErrNoCover):
			b.log.Warn("building without cover image", "error", err)
			cover = nil
		case err != nil:
			return fmt.Errorf("download cover: %w", err)
		}
	}

	out := filepath.Join(b.cfg.OutputDir, novelpub.Slug(book.Title)+".epub")
	if err := novelpub.WriteFile(out, book, cover, novelpub.WriteOptions{Language: b.cfg.Language}); err != nil {
		return err
	}
	b.log.Info("wrote epub", "path", out, "chapters", len(book.Chapters))

	rep, err := novelpub.Inspect(out)
	if err != nil {
		return fmt.Errorf("check %s: %w", out, err)
	}
	for _, w := range rep.Warnings {
		b.log.Warn("epub check", "path", out, "warning", w)
	}
	fmt.Fprintf(b.stdout, "Wrote %s (%d spine items, %d words)\n", out, len(rep.Chapters), totalWords(rep))
	return nil
}

// loadBook returns the cached book unless caching is off or the entry is
// missing or unreadable, in which case the book is scraped.
func (b *builder) loadBook(ctx context.Context, fictionURL string) (*novelpub.Book, error) {
	if !b.cfg.NoCache && b.cfg.CacheDir != "" {
		book, err := b.cache.Load(fictionURL)
		switch {
		case err == nil:
			b.log.Info("using cached book", "path", b.cache.Path(fictionURL))
			return book, nil
		case errors.Is(err, novelpub.ErrCacheMiss):
		default:
			b.log.Warn("ignoring unreadable cache entry", "error", err)
		}
	}
	return b.scraper.FetchBook(ctx, fictionURL)
}

func printDetails(w io.Writer, book *novelpub.Book) {
	fmt.Fprintln(w, "Book Details")
	fmt.Fprintf(w, "  Title:       %s\n", book.Title)
	fmt.Fprintf(w, "  Author:      %s\n", book.Author)
	fmt.Fprintf(w, "  Description: %s\n", preview(book.Description, descriptionPreview))
	fmt.Fprintf(w, "  Chapters:    %d\n", len(book.Chapters))
	if !book.Rating.IsZero() {
		fmt.Fprintf(w, "  Rating:      %s\n", book.Rating)
	}
}

// preview returns the first n runes of s on one line, with "..." appended
// when s was cut.
func preview(s string, n int) string {
	r := []rune(s)
	for i, c := range r {
		if c == '\n' || c == '\r' {
			r[i] = ' '
		}
	}
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n]) + "..."
}

func totalWords(rep *novelpub.Report) int {
	n := 0
	for _, c := range rep.Chapters {
		n += c.Words
	}
	return n
}
