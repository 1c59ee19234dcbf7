package analysis

import (
	"sort"

	"github.com/bdobrica/goomy/internal/goomy/dialog"
)

const (
	// specificKeywordBoost is added to confidence per high-signal keyword hit.
	specificKeywordBoost = 0.3
	// confidenceThreshold separates confident matches from weak ones.
	confidenceThreshold = 0.2
)

// classify ranks the configured topics for folded text.
//
// Topics with no keyword hit are skipped. When at least one topic clears
// confidenceThreshold every such topic is returned; otherwise only the single
// best weak match is. Ties keep configuration order.
func (a *Analyzer) classify(folded string) []dialog.TopicMatch {
	var all []dialog.TopicMatch
	for _, t := range a.cfg.Topics {
		matched := dialog.Present(folded, t.Keywords)
		if len(matched) == 0 {
			continue
		}
		specific := dialog.CountPresent(folded, t.SpecificKeywords)
		confidence := float64(len(matched))/float64(len(t.Keywords)) + specificKeywordBoost*float64(specific)
		if confidence > 1.0 {
			confidence = 1.0
		}
		all = append(all, dialog.TopicMatch{
			Topic:           t.ID,
			Confidence:      confidence,
			MatchedKeywords: matched,
			SpecificMatches: specific,
		})
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Confidence > all[j].Confidence
	})

	confident := all[:0:0]
	for _, m := range all {
		if m.Confidence > confidenceThreshold {
			confident = append(confident, m)
		}
	}
	if len(confident) > 0 {
		return confident
	}
	if len(all) > 0 {
		return all[:1]
	}
	return []dialog.TopicMatch{}
}
