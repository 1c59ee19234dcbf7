package memory

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/bdobrica/goomy/common/spec/topics"
	"github.com/bdobrica/goomy/internal/goomy/dialog"
)

func analysisFor(id, topic string, mood dialog.Mood) *dialog.Analysis {
	a := &dialog.Analysis{
		ID:         id,
		Complexity: 2,
		Keywords:   []string{"kw-" + id},
		Sentiment:  dialog.Sentiment{Label: mood},
		Topics:     []dialog.TopicMatch{},
	}
	if topic != "" {
		a.Topics = []dialog.TopicMatch{{Topic: topic, Confidence: 0.5}}
	}
	return a
}

func newTestMemory(t *testing.T) *Memory {
	t.Helper()
	now := time.Date(2026, 2, 24, 10, 0, 0, 0, time.UTC)
	return New(DefaultConfig(), topics.MustDefault(), WithClock(func() time.Time {
		now = now.Add(time.Second)
		return now
	}))
}

func TestNew_Defaults(t *testing.T) {
	m := New(Config{}, topics.MustDefault())
	if m.config != DefaultConfig() {
		t.Errorf("config = %+v, want defaults", m.config)
	}
	snap := m.Snapshot()
	if len(snap.Frequency) != len(topics.MustDefault().Topics) {
		t.Errorf("frequency has %d keys, want one per topic", len(snap.Frequency))
	}
	for id, n := range snap.Frequency {
		if n != 0 {
			t.Errorf("frequency[%s] = %d, want 0", id, n)
		}
	}
	if snap.Mood != dialog.MoodNeutral {
		t.Errorf("initial mood = %q, want neutral", snap.Mood)
	}
}

func TestRecord_TopicalMessage(t *testing.T) {
	m := newTestMemory(t)
	m.Record("Mi servidor usa una api rara", analysisFor("t1", "tecnologia", dialog.MoodPositive))

	snap := m.Snapshot()
	if len(snap.Entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(snap.Entries))
	}
	e := snap.Entries[0]
	want := map[string][]string{
		"tecnologia": {"api", "servidor"},
		"juegos":     {"servidor"},
	}
	if diff := cmp.Diff(want, e.TechnicalDetails); diff != "" {
		t.Errorf("TechnicalDetails mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"tecnologia"}, snap.History); diff != "" {
		t.Errorf("History mismatch (-want +got):\n%s", diff)
	}
	if snap.Frequency["tecnologia"] != 1 {
		t.Errorf("frequency = %d, want 1", snap.Frequency["tecnologia"])
	}
	if snap.Mood != dialog.MoodPositive {
		t.Errorf("mood = %q, want positive", snap.Mood)
	}
	notes := snap.Technical["tecnologia"]
	if len(notes) != 1 || notes[0].Message != "Mi servidor usa una api rara" || notes[0].Complexity != 2 {
		t.Errorf("technical notes = %+v", notes)
	}
}

func TestRecord_NoTopicLeavesHistoryAlone(t *testing.T) {
	m := newTestMemory(t)
	m.Record("hola", analysisFor("t1", "", dialog.MoodNegative))

	snap := m.Snapshot()
	if len(snap.Entries) != 1 {
		t.Errorf("entries = %d, want 1", len(snap.Entries))
	}
	if len(snap.History) != 0 {
		t.Errorf("history = %v, want empty", snap.History)
	}
	if len(snap.Technical) != 0 {
		t.Errorf("technical = %v, want empty", snap.Technical)
	}
	if snap.Mood != dialog.MoodNegative {
		t.Errorf("mood = %q, want negative", snap.Mood)
	}
	if len(snap.Entries[0].TechnicalDetails) != 0 {
		t.Errorf("technical details = %v, want empty", snap.Entries[0].TechnicalDetails)
	}
}

func TestRecord_FIFOEviction(t *testing.T) {
	m := newTestMemory(t)
	for i := 0; i < 40; i++ {
		m.Record(fmt.Sprintf("msg-%d", i), analysisFor(fmt.Sprintf("t%d", i), "musica", dialog.MoodNeutral))
	}

	snap := m.Snapshot()
	if len(snap.Entries) != 30 {
		t.Fatalf("entries = %d, want 30", len(snap.Entries))
	}
	if snap.Entries[0].Message != "msg-10" || snap.Entries[29].Message != "msg-39" {
		t.Errorf("entries span %q..%q, want msg-10..msg-39", snap.Entries[0].Message, snap.Entries[29].Message)
	}
	if len(snap.History) != 15 {
		t.Errorf("history = %d, want 15", len(snap.History))
	}
	notes := snap.Technical["musica"]
	if len(notes) != 10 {
		t.Fatalf("technical = %d, want 10", len(notes))
	}
	if notes[0].Message != "msg-30" || notes[9].Message != "msg-39" {
		t.Errorf("technical span %q..%q, want msg-30..msg-39", notes[0].Message, notes[9].Message)
	}
	if snap.Frequency["musica"] != 40 {
		t.Errorf("frequency = %d, want 40 (never decreases)", snap.Frequency["musica"])
	}
	if m.Depth() != 30 {
		t.Errorf("Depth = %d, want 30", m.Depth())
	}
}

func TestRecord_HistoryEvictsOldestFirst(t *testing.T) {
	m := newTestMemory(t)
	ids := topics.MustDefault().IDs()
	var pushed []string
	for i := 0; i < 20; i++ {
		id := ids[i%len(ids)]
		pushed = append(pushed, id)
		m.Record("x", analysisFor(fmt.Sprintf("t%d", i), id, dialog.MoodNeutral))
	}
	if diff := cmp.Diff(pushed[5:], m.Snapshot().History); diff != "" {
		t.Errorf("History mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(pushed[17:], m.RecentTopics(3)); diff != "" {
		t.Errorf("RecentTopics mismatch (-want +got):\n%s", diff)
	}
}

func TestPushTopic(t *testing.T) {
	m := newTestMemory(t)
	if !m.PushTopic("juegos") {
		t.Fatal("PushTopic(juegos) = false")
	}
	if m.PushTopic("cocina") {
		t.Error("PushTopic(cocina) = true for unknown topic")
	}
	snap := m.Snapshot()
	if snap.Frequency["juegos"] != 1 {
		t.Errorf("frequency = %d, want 1", snap.Frequency["juegos"])
	}
	if _, ok := snap.Frequency["cocina"]; ok {
		t.Error("unknown topic added to frequency table")
	}
	if len(snap.Entries) != 0 {
		t.Errorf("PushTopic created %d entries", len(snap.Entries))
	}

	for i := 0; i < 20; i++ {
		m.PushTopic("anime")
	}
	if n := len(m.Snapshot().History); n != 15 {
		t.Errorf("history = %d after pushes, want 15", n)
	}
}

func TestSnapshot_IsACopy(t *testing.T) {
	m := newTestMemory(t)
	m.Record("rock", analysisFor("t1", "musica", dialog.MoodNeutral))

	snap := m.Snapshot()
	snap.History[0] = "changed"
	snap.Frequency["musica"] = 99
	snap.Technical["musica"][0].Message = "changed"

	again := m.Snapshot()
	if again.History[0] != "musica" || again.Frequency["musica"] != 1 || again.Technical["musica"][0].Message != "rock" {
		t.Errorf("snapshot mutation leaked into memory: %+v", again)
	}
}

func TestSnapshot_NestedValuesAreCopies(t *testing.T) {
	m := newTestMemory(t)
	a := analysisFor("t1", "tecnologia", dialog.MoodNeutral)
	a.Topics[0].MatchedKeywords = []string{"código"}
	a.Questions = []dialog.Question{{Kind: dialog.QuestionDirect, Text: "¿api?"}}
	a.Context.PreviousTopics = []string{"musica"}
	m.Record("una api con framework", a)

	before := m.Snapshot()
	if len(before.Entries[0].TechnicalDetails["tecnologia"]) == 0 {
		t.Fatalf("TechnicalDetails = %v, want tecnologia hits", before.Entries[0].TechnicalDetails)
	}

	snap := m.Snapshot()
	e := &snap.Entries[0]
	e.TechnicalDetails["tecnologia"][0] = "changed"
	e.TechnicalDetails["musica"] = []string{"changed"}
	e.Analysis.Topics[0].MatchedKeywords[0] = "changed"
	e.Analysis.Topics[0].Topic = "changed"
	e.Analysis.Keywords[0] = "changed"
	e.Analysis.Questions[0].Text = "changed"
	e.Analysis.Context.PreviousTopics[0] = "changed"
	snap.Technical["tecnologia"][0].Keywords[0] = "changed"

	if diff := cmp.Diff(before, m.Snapshot()); diff != "" {
		t.Errorf("snapshot mutation leaked into memory (-before +after):\n%s", diff)
	}
}

func TestSnapshot_RecentTopical(t *testing.T) {
	m := newTestMemory(t)
	m.Record("a", analysisFor("t1", "musica", dialog.MoodNeutral))
	m.Record("b", analysisFor("t2", "", dialog.MoodNeutral))
	m.Record("c", analysisFor("t3", "anime", dialog.MoodNeutral))
	m.Record("d", analysisFor("t4", "juegos", dialog.MoodNeutral))

	snap := m.Snapshot()
	got := snap.RecentTopical(5, "t4")
	var msgs []string
	for _, e := range got {
		msgs = append(msgs, e.Message)
	}
	if diff := cmp.Diff([]string{"a", "c"}, msgs); diff != "" {
		t.Errorf("RecentTopical mismatch (-want +got):\n%s", diff)
	}
	if n := len(snap.RecentTopical(2, "")); n != 2 {
		t.Errorf("RecentTopical(2) = %d entries, want 2", n)
	}
	if top, ok := snap.LastTopic(); !ok || top != "juegos" {
		t.Errorf("LastTopic = %q,%v want juegos", top, ok)
	}
}

func TestSnapshot_RecentTechnicalAndDiscussed(t *testing.T) {
	m := newTestMemory(t)
	for i := 0; i < 5; i++ {
		m.Record(fmt.Sprintf("m%d", i), analysisFor(fmt.Sprintf("t%d", i), "ciencia", dialog.MoodNeutral))
	}
	m.PushTopic("arte")

	snap := m.Snapshot()
	notes := snap.RecentTechnical("ciencia", 3)
	if len(notes) != 3 || notes[0].Message != "m2" || notes[2].Message != "m4" {
		t.Errorf("RecentTechnical = %+v", notes)
	}
	if n := len(snap.RecentTechnical("anime", 3)); n != 0 {
		t.Errorf("RecentTechnical(anime) = %d, want 0", n)
	}
	order := topics.MustDefault().IDs()
	if diff := cmp.Diff([]string{"ciencia", "arte"}, snap.Discussed(order)); diff != "" {
		t.Errorf("Discussed mismatch (-want +got):\n%s", diff)
	}
}
