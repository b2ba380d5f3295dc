// Package slug derives URL-safe identifiers from titles.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	invalid  = regexp.MustCompile(`[^a-z0-9_\s-]+`)
	spaces   = regexp.MustCompile(`\s+`)
	hyphens  = regexp.MustCompile(`-+`)
	validate = regexp.MustCompile(`^[a-z0-9_]+(-[a-z0-9_]+)*$`)
)

// Make lowercases text, strips accents and punctuation, and joins words with single hyphens.
func Make(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plain, _, err := transform.String(t, text)
	if err != nil {
		plain = text
	}
	s := strings.ToLower(plain)
	s = invalid.ReplaceAllString(s, "")
	s = spaces.ReplaceAllString(strings.TrimSpace(s), "-")
	s = hyphens.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// FromID builds a slug from the first segment of an item id, for titles
// that leave nothing after Make.
func FromID(id string) string {
	head, _, _ := strings.Cut(id, "-")
	if s := Make(head); s != "" {
		return "item-" + s
	}
	return "item"
}

// Valid reports whether s is already in slug form.
func Valid(s string) bool { return validate.MatchString(s) }

// Pattern is the slug format, for validation rules.
func Pattern() *regexp.Regexp { return validate }
