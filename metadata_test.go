package novelpub

import (
	"errors"
	"strings"
	"testing"
)

const fictionURL = "https://www.royalroad.com/fiction/12345/the-lighthouse"

func fictionPage(head, body string) string {
	return `<!DOCTYPE html><html><head>` + head + `</head><body>` + body + `</body></html>`
}

const fictionHead = `<title>The Lighthouse | Royal Road</title>
<meta property="books:author" content=" Ada  Keeper ">
<meta property="og:image" content="/covers/12345.jpg">
<meta property="books:rating:value" content="4.5">
<meta property="books:rating:scale" content="5">`

const fictionBody = `<div class="description"><div><p>A keeper and a storm.</p><p>Second   paragraph.</p></div></div>
<script>
  window.fiction = {id: 12345};
  window.chapters = [{"id":1,"order":1,"url":"/fiction/12345/the-lighthouse/chapter/2/two","title":"Two","date":"2024-01-02T00:00:00Z"},{"id":0,"order":0,"url":"/fiction/12345/the-lighthouse/chapter/1/one","title":"One","date":"2024-01-01T00:00:00Z"}];
  window.volumes = [];
</script>`

func TestParseFiction(t *testing.T) {
	book, refs, err := ParseFiction(strings.NewReader(fictionPage(fictionHead, fictionBody)), fictionURL)
	if err != nil {
		t.Fatalf("ParseFiction: %v", err)
	}

	if book.Title != "The Lighthouse" {
		t.Errorf("Title = %q", book.Title)
	}
	if book.Author != "Ada Keeper" {
		t.Errorf("Author = %q", book.Author)
	}
	if book.URL != fictionURL {
		t.Errorf("URL = %q", book.URL)
	}
	if book.CoverImageURL != "https://www.royalroad.com/covers/12345.jpg" {
		t.Errorf("CoverImageURL = %q", book.CoverImageURL)
	}
	if book.Description != "A keeper and a storm.\n\nSecond paragraph." {
		t.Errorf("Description = %q", book.Description)
	}
	if book.Rating != (Rating{Rating: 4.5, Base: 5}) {
		t.Errorf("Rating = %+v", book.Rating)
	}
	if len(book.Chapters) != 0 {
		t.Errorf("Chapters = %d, want none before fetching", len(book.Chapters))
	}

	if len(refs) != 2 {
		t.Fatalf("refs = %d, want 2", len(refs))
	}
	// Page order is kept; sorting happens after fetching.
	if refs[0].Title != "Two" || refs[0].Order != 1 || refs[0].ID != 1 {
		t.Errorf("refs[0] = %+v", refs[0])
	}
	if refs[1].URL != "https://www.royalroad.com/fiction/12345/the-lighthouse/chapter/1/one" {
		t.Errorf("refs[1].URL = %q", refs[1].URL)
	}
	if refs[1].Date != "2024-01-01T00:00:00Z" {
		t.Errorf("refs[1].Date = %q", refs[1].Date)
	}
}

func TestParseFiction_MissingMetadata(t *testing.T) {
	tests := []struct {
		name string
		head string
		want string
	}{
		{"no title", `<meta property="books:author" content="A">`, "title"},
		{"title is only separator", `<title> | Royal Road</title><meta property="books:author" content="A">`, "title"},
		{"no author", `<title>T | Royal Road</title>`, "author"},
		{"bad rating", `<title>T</title><meta property="books:author" content="A"><meta property="books:rating:value" content="high">`, "rating"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseFiction(strings.NewReader(fictionPage(tt.head, fictionBody)), fictionURL)
			if !errors.Is(err, ErrMissingMetadata) {
				t.Fatalf("err = %v, want ErrMissingMetadata", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestParseFiction_OptionalFields(t *testing.T) {
	head := `<title>Bare</title><meta property="books:author" content="Anon">`
	body := `<div class="description">Just text, no paragraphs.</div><script>window.chapters = [];</script>`
	book, refs, err := ParseFiction(strings.NewReader(fictionPage(head, body)), fictionURL)
	if err != nil {
		t.Fatalf("ParseFiction: %v", err)
	}
	if book.CoverImageURL != "" {
		t.Errorf("CoverImageURL = %q, want empty", book.CoverImageURL)
	}
	if !book.Rating.IsZero() {
		t.Errorf("Rating = %+v, want zero", book.Rating)
	}
	if book.Description != "Just text, no paragraphs." {
		t.Errorf("Description = %q", book.Description)
	}
	if len(refs) != 0 {
		t.Errorf("refs = %d, want 0", len(refs))
	}
}

func TestParseFiction_NoChapterIndex(t *testing.T) {
	_, _, err := ParseFiction(strings.NewReader(fictionPage(fictionHead, `<script>var x = 1;</script>`)), fictionURL)
	if !errors.Is(err, ErrNoChapterIndex) {
		t.Fatalf("err = %v, want ErrNoChapterIndex", err)
	}
}

func TestParseFiction_BadChapterIndex(t *testing.T) {
	_, _, err := ParseFiction(strings.NewReader(fictionPage(fictionHead, `<script>window.chapters = [{"id": ;</script>`)), fictionURL)
	if err == nil || errors.Is(err, ErrNoChapterIndex) {
		t.Fatalf("err = %v, want a decode error", err)
	}
}

func TestParseFiction_BadURL(t *testing.T) {
	if _, _, err := ParseFiction(strings.NewReader(""), "://bad"); err == nil {
		t.Fatal("expected error for unparseable page URL")
	}
}

func TestRating(t *testing.T) {
	if got := (Rating{Rating: 4.25, Base: 5}).String(); got != "4.25/5" {
		t.Errorf("String = %q, want 4.25/5", got)
	}
	if (Rating{}).IsZero() != true || (Rating{Base: 5}).IsZero() {
		t.Error("IsZero misreports")
	}
}
