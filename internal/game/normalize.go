package game

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// NormalizeAnswer prepares a guess or a stored answer for exact comparison:
// surrounding whitespace is trimmed, the text is put in NFC form and
// lowercased.
func NormalizeAnswer(s string) string {
	// cases.Caser keeps state, so one is created per call.
	return cases.Lower(language.Und).String(norm.NFC.String(strings.TrimSpace(s)))
}
