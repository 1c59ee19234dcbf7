package analysis

import (
	"slices"
	"strings"
	"unicode/utf8"
)

// minKeywordRunes: tokens must be longer than this to count as keywords.
const minKeywordRunes = 3

// keywords splits folded text on whitespace and keeps the long tokens that
// are not stop words. Duplicates are kept.
func (a *Analyzer) keywords(folded string) []string {
	out := []string{}
	for _, tok := range strings.Fields(folded) {
		if utf8.RuneCountInString(tok) <= minKeywordRunes {
			continue
		}
		if slices.Contains(a.cfg.Lexicon.StopWords, tok) {
			continue
		}
		out = append(out, tok)
	}
	return out
}
