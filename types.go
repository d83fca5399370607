package novelpub

import "strconv"

// Book is a scraped fiction with its chapters in reading order.
// It is the unit stored by Cache and consumed by Write.
type Book struct {
	// Title is the fiction title taken from the page <title>.
	Title string `json:"title"`

	// URL is the fiction page URL. It doubles as the primary ePub identifier
	// and as the cache key.
	URL string `json:"url"`

	// CoverImageURL is the absolute URL of the cover image (may be empty).
	CoverImageURL string `json:"cover_image_url"`

	// Author is the display name of the author.
	Author string `json:"author"`

	// Description is the plain-text blurb; paragraphs are separated by blank lines.
	Description string `json:"description"`

	// Chapters are sorted by Order.
	Chapters []Chapter `json:"chapters"`

	// Rating is the page rating; the zero value means no rating was published.
	Rating Rating `json:"rating"`
}

// Chapter is a single fetched chapter.
type Chapter struct {
	// ID is the site's chapter ID.
	ID int `json:"id"`

	// Order is the zero-based reading position.
	Order int `json:"order"`

	// URL is the absolute chapter page URL.
	URL string `json:"url"`

	// Title is the chapter title from the chapter index.
	Title string `json:"title"`

	// ReleaseDate is the raw date string from the chapter index.
	ReleaseDate string `json:"release_date"`

	// Paragraphs are self-closed <p> elements produced by SplitParagraphs.
	Paragraphs []string `json:"paragraphs"`
}

// Rating is a score on a fixed scale, e.g. 4.5 out of 5.
type Rating struct {
	Rating float64 `json:"rating"`
	Base   float64 `json:"base"`
}

// IsZero reports whether no rating was published.
func (r Rating) IsZero() bool {
	return r.Rating == 0 && r.Base == 0
}

// String formats the rating as "4.52/5".
func (r Rating) String() string {
	return strconv.FormatFloat(r.Rating, 'f', -1, 64) + "/" + strconv.FormatFloat(r.Base, 'f', -1, 64)
}

// ChapterRef is an entry of the fiction page's chapter index.
type ChapterRef struct {
	ID    int    `json:"id"`
	Order int    `json:"order"`
	URL   string `json:"url"`
	Title string `json:"title"`
	Date  string `json:"date"`
}

// CoverImage holds a downloaded cover image.
type CoverImage struct {
	// Path is the ZIP-internal path the image is written to or was read from.
	Path string

	// MediaType is the MIME type of the image (e.g., "image/jpeg").
	MediaType string

	// Data is the raw image bytes.
	Data []byte
}
