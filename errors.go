package novelpub

import "errors"

// Sentinel errors returned by the novelpub package.
var (
	// ErrMalformedNode indicates a paragraph subtree contains a node that is
	// neither text nor an element (comments, doctypes, nil nodes, or elements
	// without a tag name).
	ErrMalformedNode = errors.New("novelpub: malformed node")

	// ErrMissingMetadata indicates the fiction page lacks a required field
	// (title or author) or carries one that cannot be parsed.
	ErrMissingMetadata = errors.New("novelpub: missing fiction metadata")

	// ErrNoChapterIndex indicates the fiction page has no window.chapters script.
	ErrNoChapterIndex = errors.New("novelpub: chapter index not found")

	// ErrRedirectTooDeep indicates a fetch followed more redirects than allowed.
	ErrRedirectTooDeep = errors.New("novelpub: HTTP redirect too deep")

	// ErrHTTPRequestFailed indicates a fetch ended with a non-success status
	// or an empty body.
	ErrHTTPRequestFailed = errors.New("novelpub: HTTP request failed")

	// ErrCacheMiss indicates no cached book exists for the requested URL.
	ErrCacheMiss = errors.New("novelpub: book not cached")

	// ErrNoChapters indicates a book without chapters was handed to the writer.
	ErrNoChapters = errors.New("novelpub: book has no chapters")

	// ErrNoCover indicates the cover image is absent or not an image.
	ErrNoCover = errors.New("novelpub: no cover image")

	// ErrInvalidEPub indicates an archive could not be read back as an ePub
	// (e.g., no container.xml and no .opf file).
	ErrInvalidEPub = errors.New("novelpub: invalid ePub file")

	// ErrFileNotFound indicates the requested file does not exist in the archive.
	ErrFileNotFound = errors.New("novelpub: file not found in archive")
)
