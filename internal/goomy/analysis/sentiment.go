package analysis

import "github.com/bdobrica/goomy/internal/goomy/dialog"

const (
	positiveWeight = 1.0
	negativeWeight = -1.0
	hedgeWeight    = 0.5
	// labelMargin is the |score| a message must exceed to leave neutral.
	labelMargin = 1.0
)

// sentiment scores phrase presence; repeated phrases count once.
func (a *Analyzer) sentiment(folded string) dialog.Sentiment {
	lx := a.cfg.Lexicon
	score := positiveWeight*float64(dialog.CountPresent(folded, lx.Positive)) +
		negativeWeight*float64(dialog.CountPresent(folded, lx.Negative)) +
		hedgeWeight*float64(dialog.CountPresent(folded, lx.Neutral))

	label := dialog.MoodNeutral
	switch {
	case score > labelMargin:
		label = dialog.MoodPositive
	case score < -labelMargin:
		label = dialog.MoodNegative
	}
	return dialog.Sentiment{Label: label, Score: score}
}
