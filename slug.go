package novelpub

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Slug turns a book title into a file name stem: lowercased, accents
// stripped, whitespace runs replaced by "-", and everything outside
// [a-z0-9-] dropped. A title with nothing left yields "book".
func Slug(title string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, title)
	if err != nil {
		folded = title
	}
	folded = cases.Lower(language.Und).String(folded)

	var parts []string
	for _, field := range strings.Fields(folded) {
		field = strings.Map(func(r rune) rune {
			if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
				return r
			}
			return -1
		}, field)
		if field = strings.Trim(field, "-"); field != "" {
			parts = append(parts, field)
		}
	}
	if len(parts) == 0 {
		return "book"
	}
	return strings.Join(parts, "-")
}
