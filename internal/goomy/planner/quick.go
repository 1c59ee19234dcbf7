package planner

import (
	"fmt"

	"github.com/bdobrica/goomy/internal/goomy/random"
)

// QuickTopic composes the reply for a topic picked directly by the user,
// bypassing message analysis. It returns false for unknown topics.
//
// The reply opens with the configured quick intro and the topic question,
// then an optional technical intro (topics with QuickIntros only), then a
// canned response. Topics without responses answer with their question.
func (p *Planner) QuickTopic(id string) (string, bool) {
	t, ok := p.cfg.Topic(id)
	if !ok {
		return "", false
	}
	r := p.cfg.Replies

	if len(t.Responses) == 0 {
		if t.Question != "" {
			return t.Question, true
		}
		if r.TopicFallback != "" {
			return fmt.Sprintf(r.TopicFallback, t.DisplayName()), true
		}
		return r.Continuation, true
	}

	response := random.Pick(p.rnd, t.Responses)
	intro := join(r.QuickIntro, t.Question)

	technical := ""
	if len(t.QuickIntros) > 0 {
		technical = join(r.TechnicalIntro, random.Pick(p.rnd, t.QuickIntros))
	}
	return join(intro, technical, response), true
}
