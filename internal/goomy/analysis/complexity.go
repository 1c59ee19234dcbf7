package analysis

import (
	"strings"

	"github.com/bdobrica/goomy/internal/goomy/dialog"
)

const (
	complexWordWeight   = 2
	technicalTermWeight = 1
	longMessageRunes    = 100
	veryLongRunes       = 200
)

// complexity scores text on the 1..5 scale. Each configured complex word or
// technical term counts once no matter how often it appears.
func (a *Analyzer) complexity(raw, folded string, length int) int {
	score := dialog.MinComplexity
	score += complexWordWeight * dialog.CountPresent(folded, a.cfg.Lexicon.ComplexWords)

	if length > longMessageRunes {
		score++
	}
	if length > veryLongRunes {
		score++
	}
	if strings.Contains(raw, "?") {
		score++
	}

	score += technicalTermWeight * dialog.CountPresent(folded, a.cfg.Lexicon.TechnicalTerms)

	if score > dialog.MaxComplexity {
		score = dialog.MaxComplexity
	}
	return score
}
