package ai

import (
	"regexp"
	"strings"
)

// NoDataText is shown when the service answered without any text segment.
const NoDataText = "Brak danych w odpowiedzi AI."

var (
	leadingFence  = regexp.MustCompile("(?i)^\\s*(\\*\\*html\\*\\*|```html|```)")
	trailingFence = regexp.MustCompile("\\s*```\\s*$")
)

// Normalize joins the response segments and strips code fences. noData is
// true when there were no segments at all; text is then NoDataText.
func Normalize(segments []string) (text string, noData bool) {
	if len(segments) == 0 {
		return NoDataText, true
	}
	return StripFences(strings.Join(segments, "\n")), false
}

// StripFences removes one leading fence opener, one trailing fence closer and
// the surrounding whitespace.
func StripFences(s string) string {
	if loc := leadingFence.FindStringIndex(s); loc != nil {
		s = s[loc[1]:]
	}
	if loc := trailingFence.FindStringIndex(s); loc != nil {
		s = s[:loc[0]]
	}
	return strings.TrimSpace(s)
}
