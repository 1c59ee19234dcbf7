package analysis

import (
	"strings"

	"github.com/bdobrica/goomy/internal/goomy/dialog"
)

// questions emits one direct question for a "?" message followed by one
// implicit question per configured phrase found in the text.
func (a *Analyzer) questions(raw, folded string, complexity int) []dialog.Question {
	qs := []dialog.Question{}
	if strings.Contains(raw, "?") {
		qs = append(qs, dialog.Question{
			Kind:       dialog.QuestionDirect,
			Text:       raw,
			Complexity: complexity,
		})
	}
	for _, phrase := range dialog.Present(folded, a.cfg.Lexicon.ImplicitQuestions) {
		qs = append(qs, dialog.Question{
			Kind:   dialog.QuestionImplicit,
			Text:   phrase,
			Medium: true,
		})
	}
	return qs
}
