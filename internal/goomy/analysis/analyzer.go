// Package analysis turns a raw user message into a dialog.Analysis: topic
// classification, sentiment, complexity, question detection, keyword
// extraction and a snapshot of the conversation context it arrived in.
//
// The analyzer holds no conversation state of its own. Everything it knows
// about the conversation comes from the History passed to Analyze, so the
// same Analyzer can serve any number of sessions.
package analysis

import (
	"unicode/utf8"

	"github.com/bdobrica/goomy/common/spec/topics"
	"github.com/bdobrica/goomy/internal/goomy/dialog"
)

// History is the read-only view of conversation memory the analyzer needs
// to build a ContextSnapshot. It must reflect the state before the message
// being analysed is recorded.
type History interface {
	// RecentTopics returns the last n context-history topics, oldest first.
	RecentTopics(n int) []string
	// Mood returns the mood recorded by the previous turn.
	Mood() dialog.Mood
	// Depth returns the number of stored memory entries.
	Depth() int
}

// previousTopicsWindow is how many context-history topics a snapshot carries.
const previousTopicsWindow = 3

// Analyzer scores messages against a topic configuration.
type Analyzer struct {
	cfg *topics.Config
}

// New returns an Analyzer reading from cfg. cfg must not be mutated while
// the analyzer is in use.
func New(cfg *topics.Config) *Analyzer {
	return &Analyzer{cfg: cfg}
}

// Analyze produces the analysis for text. id identifies the turn and is
// copied into the result. hist may be nil for a message with no history.
func (a *Analyzer) Analyze(id, text string, hist History) *dialog.Analysis {
	folded := dialog.Fold(text)
	length := utf8.RuneCountInString(text)
	complexity := a.complexity(text, folded, length)
	matches := a.classify(folded)

	return &dialog.Analysis{
		ID:         id,
		Text:       folded,
		Length:     length,
		Complexity: complexity,
		Topics:     matches,
		Sentiment:  a.sentiment(folded),
		Questions:  a.questions(text, folded, complexity),
		Keywords:   a.keywords(folded),
		Context:    contextSnapshot(hist, matches),
	}
}

// Classify exposes topic classification on its own.
func (a *Analyzer) Classify(text string) []dialog.TopicMatch {
	return a.classify(dialog.Fold(text))
}

// contextSnapshot reads the pre-turn memory state. Continuity is decided from
// the classification already computed for this message; classification is
// deterministic, so reusing it is equivalent to classifying again.
func contextSnapshot(hist History, matches []dialog.TopicMatch) dialog.ContextSnapshot {
	if hist == nil {
		return dialog.ContextSnapshot{
			PreviousTopics: []string{},
			Mood:           dialog.MoodNeutral,
			Continuity:     dialog.ContinuityNew,
		}
	}

	prev := hist.RecentTopics(previousTopicsWindow)
	snap := dialog.ContextSnapshot{
		PreviousTopics:    prev,
		Mood:              hist.Mood(),
		ConversationDepth: hist.Depth(),
	}

	last := hist.RecentTopics(1)
	switch {
	case len(last) == 0:
		snap.Continuity = dialog.ContinuityNew
	case len(matches) > 0 && matches[0].Topic == last[0]:
		snap.Continuity = dialog.ContinuityContinuous
	default:
		snap.Continuity = dialog.ContinuityShift
	}
	return snap
}
