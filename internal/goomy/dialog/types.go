// Package dialog holds the data types shared by the analyzer, the
// conversation memory and the planner.
package dialog

import "slices"

// Mood is a sentiment label.
type Mood string

const (
	MoodPositive Mood = "positive"
	MoodNegative Mood = "negative"
	MoodNeutral  Mood = "neutral"
)

// Continuity relates a message's dominant topic to the previous one.
type Continuity string

const (
	ContinuityNew        Continuity = "new"
	ContinuityContinuous Continuity = "continuous"
	ContinuityShift      Continuity = "shift"
)

// QuestionKind distinguishes "?"-questions from phrase-detected ones.
type QuestionKind string

const (
	QuestionDirect   QuestionKind = "direct"
	QuestionImplicit QuestionKind = "implicit"
)

// MinComplexity and MaxComplexity bound Analysis.Complexity.
const (
	MinComplexity = 1
	MaxComplexity = 5
)

// Analysis is the per-message result of the analyzer. It is treated as
// immutable once produced.
type Analysis struct {
	ID         string // turn identifier, also used to recognise the turn in memory
	Text       string // case-folded message text
	Length     int    // rune count of the raw message
	Complexity int
	Topics     []TopicMatch // sorted by descending confidence
	Sentiment  Sentiment
	Questions  []Question
	Keywords   []string
	Context    ContextSnapshot
}

// TopTopic returns the highest-ranked topic id, if any.
func (a *Analysis) TopTopic() (string, bool) {
	if a == nil || len(a.Topics) == 0 {
		return "", false
	}
	return a.Topics[0].Topic, true
}

// Clone returns a copy of a that shares no slices with it.
func (a Analysis) Clone() Analysis {
	a.Topics = slices.Clone(a.Topics)
	for i := range a.Topics {
		a.Topics[i].MatchedKeywords = slices.Clone(a.Topics[i].MatchedKeywords)
	}
	a.Questions = slices.Clone(a.Questions)
	a.Keywords = slices.Clone(a.Keywords)
	a.Context.PreviousTopics = slices.Clone(a.Context.PreviousTopics)
	return a
}

// TopicMatch is one classified topic.
type TopicMatch struct {
	Topic           string
	Confidence      float64
	MatchedKeywords []string
	SpecificMatches int
}

// Sentiment carries the label and the raw score it was derived from.
type Sentiment struct {
	Label Mood
	Score float64
}

// Question is a detected direct or implicit question.
type Question struct {
	Kind QuestionKind
	Text string
	// Complexity is the message complexity for direct questions. Implicit
	// questions report ComplexityMedium instead.
	Complexity int
	Medium     bool
}

// ComplexityLabel renders the question complexity the way it is reported
// to clients: an integer for direct questions, "medium" for implicit ones.
func (q Question) ComplexityLabel() any {
	if q.Medium {
		return ComplexityMedium
	}
	return q.Complexity
}

// ComplexityMedium is the literal complexity of implicit questions.
const ComplexityMedium = "medium"

// ContextSnapshot describes the conversation state the message arrived in.
type ContextSnapshot struct {
	PreviousTopics    []string // last ≤3 context-history topics before this turn
	Mood              Mood     // memory mood before this turn
	ConversationDepth int      // memory entry count before this turn
	Continuity        Continuity
}
