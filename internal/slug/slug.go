// Package slug derives URL slugs from display names.
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Make lower cases s, strips diacritics and joins the remaining ASCII letter
// and digit runs with single hyphens. It returns "" when nothing is left.
func Make(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	folded = cases.Lower(language.Und).String(folded)

	var b strings.Builder

	pendingDash := false

	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}

			b.WriteRune(r)
			pendingDash = false

			continue
		}

		pendingDash = true
	}

	return b.String()
}
