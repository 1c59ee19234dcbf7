package memory

import (
	"maps"
	"slices"

	"github.com/bdobrica/goomy/internal/goomy/dialog"
)

// Snapshot is a deep point-in-time copy of a Memory. Mutating it does not
// affect the Memory it came from.
type Snapshot struct {
	Entries   []Entry
	History   []string
	Frequency map[string]int
	Mood      dialog.Mood
	Technical map[string][]TechnicalNote
}

// Snapshot returns a copy of the current state.
func (m *Memory) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := make([]Entry, len(m.entries))
	for i, e := range m.entries {
		e.Analysis = e.Analysis.Clone()
		details := make(map[string][]string, len(e.TechnicalDetails))
		for k, v := range e.TechnicalDetails {
			details[k] = slices.Clone(v)
		}
		e.TechnicalDetails = details
		entries[i] = e
	}
	technical := make(map[string][]TechnicalNote, len(m.technical))
	for k, v := range m.technical {
		notes := make([]TechnicalNote, len(v))
		for i, n := range v {
			n.Keywords = slices.Clone(n.Keywords)
			notes[i] = n
		}
		technical[k] = notes
	}
	return Snapshot{
		Entries:   entries,
		History:   append([]string(nil), m.history...),
		Frequency: maps.Clone(m.frequency),
		Mood:      m.mood,
		Technical: technical,
	}
}

// LastTopic returns the most recent context-history topic.
func (s Snapshot) LastTopic() (string, bool) {
	if len(s.History) == 0 {
		return "", false
	}
	return s.History[len(s.History)-1], true
}

// RecentTopical returns up to n of the most recent entries that have at
// least one topic, oldest first, skipping the entry whose analysis id is
// excludeID (pass "" to skip nothing).
func (s Snapshot) RecentTopical(n int, excludeID string) []Entry {
	var out []Entry
	for i := len(s.Entries) - 1; i >= 0 && len(out) < n; i-- {
		e := s.Entries[i]
		if len(e.Analysis.Topics) == 0 {
			continue
		}
		if excludeID != "" && e.Analysis.ID == excludeID {
			continue
		}
		out = append(out, e)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// RecentTechnical returns the last n technical notes recorded for topic.
func (s Snapshot) RecentTechnical(topic string, n int) []TechnicalNote {
	return lastN(s.Technical[topic], n)
}

// Discussed returns, in configured order, the topics whose frequency is
// above zero.
func (s Snapshot) Discussed(order []string) []string {
	out := []string{}
	for _, id := range order {
		if s.Frequency[id] > 0 {
			out = append(out, id)
		}
	}
	return out
}
