// Package normalize cleans user-entered names and provides the comparison
// keys used for duplicate detection and display ordering of tags and collections.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Name returns s in NFC form with surrounding whitespace trimmed, inner runs
// of whitespace collapsed to a single space and control characters removed.
// "  Blue\tSky " -> "Blue Sky".
func Name(s string) string {
	s = norm.NFC.String(s)

	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			space = b.Len() > 0
		case unicode.IsControl(r):
		default:
			if space {
				b.WriteByte(' ')
				space = false
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Key returns the case- and accent-insensitive form of a name.
// Two names with the same Key are considered duplicates.
// "Café" and "CAFE" share the key "cafe".
func Key(s string) string {
	s = norm.NFKD.String(Name(s))
	s = strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Mn, r) {
			return -1
		}
		return r
	}, s)
	return cases.Fold().String(s)
}

// Collator sorts names the way a user expects to see them listed.
// Not safe for concurrent use; create one per goroutine.
type Collator struct {
	c *collate.Collator
}

// NewCollator returns a case-insensitive collator for the given BCP 47 tag.
// An unparsable tag falls back to English.
func NewCollator(tag string) *Collator {
	lang, err := language.Parse(tag)
	if err != nil {
		lang = language.English
	}
	return &Collator{c: collate.New(lang, collate.IgnoreCase, collate.Numeric)}
}

// Compare returns -1, 0 or 1 comparing a and b.
func (c *Collator) Compare(a, b string) int {
	return c.c.CompareString(a, b)
}

// Sort sorts names in place.
func (c *Collator) Sort(names []string) {
	c.c.SortStrings(names)
}
