package topics_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bdobrica/goomy/common/spec/topics"
)

const minimalValid = `
apiVersion: goomy/v1
topics:
  - id: musica
    keywords: [Música, Rock]
replies:
  continuation: "sigue"
  questionGeneric: "buena pregunta"
  engagement: ["cuéntame más"]
  apology: "ups"
`

func TestParse_MinimalValid(t *testing.T) {
	cfg, err := topics.Parse([]byte(minimalValid))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(cfg.Topics) != 1 {
		t.Fatalf("expected 1 topic, got %d", len(cfg.Topics))
	}
	got := cfg.Topics[0].Keywords
	if got[0] != "música" || got[1] != "rock" {
		t.Errorf("keywords not case-folded: %v", got)
	}
	if _, ok := cfg.Topic("musica"); !ok {
		t.Error("Topic(musica) not found")
	}
	if _, ok := cfg.Topic("nope"); ok {
		t.Error("Topic(nope) unexpectedly found")
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(string) string
		wantSub string
	}{
		{
			name:    "wrong api version",
			mutate:  func(s string) string { return strings.Replace(s, "goomy/v1", "goomy/v0", 1) },
			wantSub: "apiVersion",
		},
		{
			name:    "empty keywords",
			mutate:  func(s string) string { return strings.Replace(s, "[Música, Rock]", "[]", 1) },
			wantSub: "keywords",
		},
		{
			name:    "blank keyword",
			mutate:  func(s string) string { return strings.Replace(s, "[Música, Rock]", `["  "]`, 1) },
			wantSub: "blank",
		},
		{
			name:    "missing apology",
			mutate:  func(s string) string { return strings.Replace(s, `  apology: "ups"`, "", 1) },
			wantSub: "apology",
		},
		{
			name:    "empty engagement",
			mutate:  func(s string) string { return strings.Replace(s, `["cuéntame más"]`, "[]", 1) },
			wantSub: "engagement",
		},
		{
			name:    "unknown topic field",
			mutate:  func(s string) string { return strings.Replace(s, "    keywords:", "    colour: red\n    keywords:", 1) },
			wantSub: "colour",
		},
		{
			name: "duplicate id",
			mutate: func(s string) string {
				return strings.Replace(s, "replies:", "  - id: musica\n    keywords: [jazz]\nreplies:", 1)
			},
			wantSub: "duplicate",
		},
		{
			name: "bad fallback format",
			mutate: func(s string) string {
				return strings.Replace(s, `  apology: "ups"`, "  apology: \"ups\"\n  topicFallback: \"sin verbo\"", 1)
			},
			wantSub: "topicFallback",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := topics.Parse([]byte(tt.mutate(minimalValid)))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, topics.ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q does not mention %q", err, tt.wantSub)
			}
		})
	}
}

func TestParse_MalformedYAML(t *testing.T) {
	if _, err := topics.Parse([]byte("topics: [unclosed")); err == nil {
		t.Fatal("expected YAML error")
	}
}

func TestDefault(t *testing.T) {
	cfg, err := topics.Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}

	for _, id := range []string{"tecnologia", "musica", "anime", "juegos", "ciencia"} {
		tp, ok := cfg.Topic(id)
		if !ok {
			t.Fatalf("default config lacks topic %q", id)
		}
		if len(tp.Responses) == 0 {
			t.Errorf("topic %q has no responses", id)
		}
		if len(tp.Suggestions) == 0 {
			t.Errorf("topic %q has no suggestions", id)
		}
	}

	if n := len(cfg.Replies.Empathy); n != 4 {
		t.Errorf("expected 4 empathy replies, got %d", n)
	}
	if n := len(cfg.Replies.ContinuationPrefixes); n != 4 {
		t.Errorf("expected 4 continuation prefixes, got %d", n)
	}
	tech, _ := cfg.Topic("tecnologia")
	if n := len(tech.QuickIntros); n != 5 {
		t.Errorf("expected 5 technical intros for tecnologia, got %d", n)
	}
}

func TestDefault_IndependentCopies(t *testing.T) {
	a := topics.MustDefault()
	b := topics.MustDefault()
	a.Topics[0].Keywords[0] = "changed"
	if b.Topics[0].Keywords[0] == "changed" {
		t.Error("Default returned shared state")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topics.yaml")
	if err := os.WriteFile(path, topics.DefaultYAML(), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := topics.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.IDs()[0]; got != "tecnologia" {
		t.Errorf("first topic = %q, want tecnologia", got)
	}

	if _, err := topics.Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
