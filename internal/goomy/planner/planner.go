// Package planner chooses and composes Goomy's reply for an analysed
// message.
//
// Strategies are tried in priority order and the first that applies wins:
//
//  1. continuity  the message continues the previous turn's topic
//  2. question    the message asks something, directly or implicitly
//  3. empathy     the message is negative
//  4. topic       the message is about a configured topic
//  5. default     shaped by complexity, keyword count and conversation depth
//
// Missing configuration never surfaces as an error: a strategy that cannot
// produce text defers to the default strategy, and an unexpected failure
// yields the configured apology.
package planner

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/bdobrica/goomy/common/spec/topics"
	"github.com/bdobrica/goomy/internal/goomy/dialog"
	"github.com/bdobrica/goomy/internal/goomy/memory"
	"github.com/bdobrica/goomy/internal/goomy/random"
)

// Branch names the strategy that produced a reply.
type Branch string

const (
	BranchContinuity      Branch = "continuity"
	BranchQuestion        Branch = "question"
	BranchEmpathy         Branch = "empathy"
	BranchTopic           Branch = "topic"
	BranchTopicContinuity Branch = "topic_continuity"
	BranchTopicFallback   Branch = "topic_fallback"
	BranchDefault         Branch = "default"
	BranchApology         Branch = "apology"
)

// Window sizes and thresholds of the decision rules.
const (
	recentTopicalWindow   = 5
	deepComplexity        = 3
	variedKeywordCount    = 2
	richConversationDepth = 5
)

// Decision is a planned reply and the strategy that produced it.
type Decision struct {
	Text   string
	Branch Branch
}

// Planner composes replies from a topic configuration.
type Planner struct {
	cfg    *topics.Config
	rnd    random.Source
	logger *slog.Logger
}

// New returns a Planner drawing content from cfg and randomness from rnd.
// If logger is nil, the default slog logger is used.
func New(cfg *topics.Config, rnd random.Source, logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{cfg: cfg, rnd: rnd, logger: logger}
}

// Plan returns the reply text for a. It never returns an empty string.
func (p *Planner) Plan(a *dialog.Analysis, snap memory.Snapshot) string {
	return p.Decide(a, snap).Text
}

// Decide is Plan with the chosen branch attached.
func (p *Planner) Decide(a *dialog.Analysis, snap memory.Snapshot) (d Decision) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("planner: recovered from panic", "panic", r, "turn_id", analysisID(a))
			d = p.apology()
		}
	}()

	if a == nil {
		return p.apology()
	}

	d, ok := p.choose(a, snap)
	if !ok || strings.TrimSpace(d.Text) == "" {
		d = p.defaultReply(a)
	}
	if strings.TrimSpace(d.Text) == "" {
		d = p.apology()
	}

	p.logger.Debug("planner: reply chosen", "turn_id", a.ID, "branch", d.Branch)
	return d
}

// choose walks the strategies in priority order. ok is false when the
// matching strategy could not produce text.
func (p *Planner) choose(a *dialog.Analysis, snap memory.Snapshot) (Decision, bool) {
	if a.Context.Continuity == dialog.ContinuityContinuous {
		return p.continuity(snap), true
	}
	if len(a.Questions) > 0 {
		return p.question(a.Questions[0]), true
	}
	if a.Sentiment.Label == dialog.MoodNegative {
		text := random.Pick(p.rnd, p.cfg.Replies.Empathy)
		return Decision{Text: text, Branch: BranchEmpathy}, text != ""
	}
	if len(a.Topics) > 0 {
		return p.topic(a, snap)
	}
	return p.defaultReply(a), true
}

// continuity continues the last context-history topic with a random prefix.
func (p *Planner) continuity(snap memory.Snapshot) Decision {
	generic := Decision{Text: p.cfg.Replies.Continuation, Branch: BranchContinuity}

	last, ok := snap.LastTopic()
	if !ok {
		return generic
	}
	t, ok := p.cfg.Topic(last)
	if !ok || len(t.Responses) == 0 {
		return generic
	}

	response := random.Pick(p.rnd, t.Responses)
	prefix := random.Pick(p.rnd, p.cfg.Replies.ContinuationPrefixes)
	return Decision{Text: join(prefix, response), Branch: BranchContinuity}
}

// question tailors the reply to the interrogative used in the first question.
// Implicit questions only carry the matched phrase, so they get the generic
// reply.
func (p *Planner) question(q dialog.Question) Decision {
	r := p.cfg.Replies
	reply := r.QuestionGeneric
	if q.Kind == dialog.QuestionDirect {
		text := dialog.Fold(q.Text)
		switch {
		case strings.Contains(text, "por qué"):
			reply = r.QuestionWhy
		case strings.Contains(text, "cómo"):
			reply = r.QuestionHow
		case strings.Contains(text, "qué"):
			reply = r.QuestionWhat
		}
	}
	if strings.TrimSpace(reply) == "" {
		reply = r.QuestionGeneric
	}
	return Decision{Text: reply, Branch: BranchQuestion}
}

// topic replies about the top-ranked topic. When the most recent earlier
// topical turn had the same top topic, a continuity reply is used instead.
func (p *Planner) topic(a *dialog.Analysis, snap memory.Snapshot) (Decision, bool) {
	top := a.Topics[0].Topic
	t, known := p.cfg.Topic(top)

	recent := snap.RecentTopical(recentTopicalWindow, a.ID)
	if n := len(recent); n > 0 && recent[n-1].Analysis.Topics[0].Topic == top {
		text := p.cfg.Replies.Continuation
		if known && len(t.ContinuityResponses) > 0 {
			text = random.Pick(p.rnd, t.ContinuityResponses)
		}
		return Decision{Text: text, Branch: BranchTopicContinuity}, true
	}

	if known && len(t.Responses) > 0 {
		response := random.Pick(p.rnd, t.Responses)
		info := random.Pick(p.rnd, t.TechnicalInfo)
		return Decision{Text: join(response, info), Branch: BranchTopic}, true
	}

	if p.cfg.Replies.TopicFallback == "" {
		return Decision{}, false
	}
	name := top
	if known {
		name = t.DisplayName()
	}
	return Decision{
		Text:   fmt.Sprintf(p.cfg.Replies.TopicFallback, name),
		Branch: BranchTopicFallback,
	}, true
}

// defaultReply is the content-free strategy, shaped by the message itself.
func (p *Planner) defaultReply(a *dialog.Analysis) Decision {
	r := p.cfg.Replies
	text := ""
	switch {
	case a.Complexity > deepComplexity && r.DeepThinking != "":
		text = r.DeepThinking
	case len(a.Keywords) > variedKeywordCount && r.VariedInterests != "":
		text = r.VariedInterests
	case a.Context.ConversationDepth > richConversationDepth && r.RichConversation != "":
		text = r.RichConversation
	default:
		text = random.Pick(p.rnd, r.Engagement)
	}
	return Decision{Text: text, Branch: BranchDefault}
}

func (p *Planner) apology() Decision {
	return Decision{Text: p.cfg.Replies.Apology, Branch: BranchApology}
}

// join concatenates the non-empty parts with single spaces.
func join(parts ...string) string {
	kept := parts[:0:0]
	for _, s := range parts {
		if s = strings.TrimSpace(s); s != "" {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, " ")
}

func analysisID(a *dialog.Analysis) string {
	if a == nil {
		return ""
	}
	return a.ID
}
