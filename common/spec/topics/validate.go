package topics

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every structural or semantic validation failure.
var ErrInvalid = errors.New("topics: invalid document")

//go:embed schema.json
var schemaJSON string

const schemaURL = "goomy-topics.schema.json"

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, strings.NewReader(schemaJSON)); err != nil {
			schemaErr = fmt.Errorf("topics: load schema: %w", err)
			return
		}
		schema, schemaErr = c.Compile(schemaURL)
	})
	return schema, schemaErr
}

// Load reads and parses the topic document at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("topics: read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a topic YAML document, checks it against the embedded JSON
// Schema, normalises it and runs the semantic checks in Validate. It is the
// canonical entry point for loading topic configuration.
func Parse(data []byte) (*Config, error) {
	if err := validateSchema(data); err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("topics parse: %w", err)
	}
	normalise(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	cfg.buildIndex()
	return &cfg, nil
}

// validateSchema converts the YAML document to its JSON form and validates it
// against schema.json.
func validateSchema(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("topics parse: %w", err)
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: document is not representable as JSON: %v", ErrInvalid, err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("topics parse: %w", err)
	}

	sch, err := compiledSchema()
	if err != nil {
		return err
	}
	if err := sch.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Validate checks a Config for semantic correctness. It returns the first
// failure encountered, wrapped in ErrInvalid, or nil if the config is usable.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config must not be nil", ErrInvalid)
	}
	if cfg.APIVersion != SpecVersion {
		return fmt.Errorf("%w: apiVersion must be %q, got %q", ErrInvalid, SpecVersion, cfg.APIVersion)
	}
	if len(cfg.Topics) == 0 {
		return fmt.Errorf("%w: at least one topic is required", ErrInvalid)
	}

	seen := make(map[string]struct{}, len(cfg.Topics))
	for i, t := range cfg.Topics {
		if strings.TrimSpace(t.ID) == "" {
			return fmt.Errorf("%w: topics[%d]: id must not be empty", ErrInvalid, i)
		}
		if _, dup := seen[t.ID]; dup {
			return fmt.Errorf("%w: topics[%d]: duplicate id %q", ErrInvalid, i, t.ID)
		}
		seen[t.ID] = struct{}{}
		if err := validateTopic(t); err != nil {
			return fmt.Errorf("%w: topics[%d] (%q): %v", ErrInvalid, i, t.ID, err)
		}
	}

	if err := validateReplies(cfg.Replies); err != nil {
		return fmt.Errorf("%w: replies: %v", ErrInvalid, err)
	}
	return nil
}

func validateTopic(t Topic) error {
	if len(t.Keywords) == 0 {
		return fmt.Errorf("keywords must not be empty")
	}
	for _, k := range t.Keywords {
		if strings.TrimSpace(k) == "" {
			return fmt.Errorf("keywords must not contain blank entries")
		}
	}
	return nil
}

// validateReplies requires the replies that the planner falls back to when
// everything else is missing, so a reply can always be produced.
func validateReplies(r Replies) error {
	if strings.TrimSpace(r.Apology) == "" {
		return fmt.Errorf("apology must not be empty")
	}
	if strings.TrimSpace(r.Continuation) == "" {
		return fmt.Errorf("continuation must not be empty")
	}
	if strings.TrimSpace(r.QuestionGeneric) == "" {
		return fmt.Errorf("questionGeneric must not be empty")
	}
	if len(nonBlank(r.Engagement)) == 0 {
		return fmt.Errorf("engagement must contain at least one reply")
	}
	if r.TopicFallback != "" && strings.Count(r.TopicFallback, "%s") != 1 {
		return fmt.Errorf("topicFallback must contain exactly one %%s verb")
	}
	return nil
}

// normalise case-folds every list that is matched against user text and
// drops blank entries from reply pools.
func normalise(cfg *Config) {
	for i := range cfg.Topics {
		t := &cfg.Topics[i]
		t.Keywords = foldAll(t.Keywords)
		t.SpecificKeywords = foldAll(t.SpecificKeywords)
		t.TechnicalKeywords = foldAll(t.TechnicalKeywords)
		t.Responses = nonBlank(t.Responses)
		t.ContinuityResponses = nonBlank(t.ContinuityResponses)
		t.TechnicalInfo = nonBlank(t.TechnicalInfo)
		t.QuickIntros = nonBlank(t.QuickIntros)
	}

	lx := &cfg.Lexicon
	lx.StopWords = foldAll(lx.StopWords)
	lx.ComplexWords = foldAll(lx.ComplexWords)
	lx.TechnicalTerms = foldAll(lx.TechnicalTerms)
	lx.Positive = foldAll(lx.Positive)
	lx.Negative = foldAll(lx.Negative)
	lx.Neutral = foldAll(lx.Neutral)
	lx.ImplicitQuestions = foldAll(lx.ImplicitQuestions)

	r := &cfg.Replies
	r.ContinuationPrefixes = nonBlank(r.ContinuationPrefixes)
	r.Empathy = nonBlank(r.Empathy)
	r.Engagement = nonBlank(r.Engagement)
}

func foldAll(words []string) []string {
	if len(words) == 0 {
		return words
	}
	lower := cases.Lower(language.Spanish)
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = lower.String(strings.TrimSpace(w))
	}
	return out
}

func nonBlank(pool []string) []string {
	out := pool[:0:0]
	for _, s := range pool {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}
