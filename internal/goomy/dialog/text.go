package dialog

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Fold lower-cases s using Spanish casing rules. All case-insensitive
// matching goes through Fold so user text and configured word lists agree.
func Fold(s string) string {
	return cases.Lower(language.Spanish).String(s)
}

// Present returns the entries of words that occur in folded as substrings.
// words must already be folded.
func Present(folded string, words []string) []string {
	var found []string
	for _, w := range words {
		if w != "" && strings.Contains(folded, w) {
			found = append(found, w)
		}
	}
	return found
}

// CountPresent is len(Present(folded, words)) without the allocation.
func CountPresent(folded string, words []string) int {
	n := 0
	for _, w := range words {
		if w != "" && strings.Contains(folded, w) {
			n++
		}
	}
	return n
}
