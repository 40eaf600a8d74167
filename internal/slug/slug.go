// Package slug derives URL-safe identifiers from free text.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	disallowed = regexp.MustCompile(`[^\w\s-]`)
	separators = regexp.MustCompile(`[-\s]+`)
)

// Make converts s to ASCII, lowercases it, drops everything that is not a
// letter, digit, underscore, hyphen or space, and joins words with single
// hyphens. Leading and trailing hyphens and underscores are trimmed.
//
// The result may be empty when s contains no usable characters.
func Make(s string) string {
	var b strings.Builder
	for _, r := range norm.NFKD.String(s) {
		if r < unicode.MaxASCII {
			b.WriteRune(r)
		}
	}

	out := disallowed.ReplaceAllString(strings.ToLower(b.String()), "")
	out = separators.ReplaceAllString(out, "-")
	return strings.Trim(out, "-_")
}
