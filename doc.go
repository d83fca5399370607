// Package novelpub converts serialized web fiction into ePub 3 books.
//
// A fiction page lists the chapters of a story in a window.chapters script
// and carries the book metadata in <meta> tags; every chapter page holds its
// text in ".chapter-content p" paragraphs. novelpub fetches both, turns
// each chapter into ePub-ready paragraphs, and assembles the archive.
//
// # Paragraph splitting
//
// Chapter paragraphs often contain <br> inside inline formatting, which has
// no good equivalent in a paragraph-oriented ePub. [SplitParagraph] closes
// the formatting element at every break and reopens it in a new paragraph,
// inserting a [SpacerParagraph] for the break itself:
//
//	p, _ := novelpub.ElementFromHTML(node) // <p><strong>Chapter 1<br>Hello</strong></p>
//	out, _ := novelpub.SplitParagraph(p)
//	// <p><strong>Chapter 1</strong></p>
//	// <p> </p>
//	// <p><strong>Hello</strong></p>
//
// # Fetching a book
//
// [Scraper] combines a [Fetcher] (redirects, retries, size limits) with
// [ParseFiction] and [ParseChapter]:
//
//	s := novelpub.NewScraper(novelpub.NewFetcher(novelpub.FetcherConfig{}), 4, nil)
//	book, err := s.FetchBook(ctx, "https://www.royalroad.com/fiction/12345")
//
// [Cache] keeps fetched books on disk, keyed by the SHA-256 of the URL.
//
// # Writing and checking
//
// [WriteFile] assembles the ePub (container, package document, nav and NCX,
// cover page, one XHTML file per chapter) and [Inspect] reads it back,
// reporting spine, table of contents and structural warnings.
//
// # Error Handling
//
// The package defines sentinel errors for common failure cases:
//   - [ErrMalformedNode] – a paragraph subtree holds a non-text, non-element node
//   - [ErrMissingMetadata] – the fiction page lacks a title or author
//   - [ErrNoChapterIndex] – the fiction page has no chapter list
//   - [ErrRedirectTooDeep], [ErrHTTPRequestFailed] – fetch failures
//   - [ErrCacheMiss] – no cached book for a URL
//   - [ErrNoChapters], [ErrNoCover] – writer inputs
//   - [ErrInvalidEPub], [ErrFileNotFound] – read-back failures
package novelpub
