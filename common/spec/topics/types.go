// Package topics defines the Goomy topic configuration document (v1).
//
// The document is the only source of conversational content: topic keyword
// tables, canned reply pools, suggestion lists, technical snippets and the
// lexicons the analyzer scores against. It is loaded once at startup and
// treated as read-only afterwards.
package topics

// SpecVersion is the API version string required in every topic document.
const SpecVersion = "goomy/v1"

// Config is the root type for a topic configuration document.
type Config struct {
	// APIVersion must be "goomy/v1".
	APIVersion string `yaml:"apiVersion" json:"apiVersion"`

	// Topics lists the configured conversation categories. Order matters:
	// classification ties are broken by position in this list.
	Topics []Topic `yaml:"topics" json:"topics"`

	// Lexicon holds the word lists the analyzer scores messages against.
	Lexicon Lexicon `yaml:"lexicon" json:"lexicon"`

	// Replies holds the topic-independent canned replies used by the planner.
	Replies Replies `yaml:"replies" json:"replies"`

	index map[string]int
}

// Topic is a single conversation category.
type Topic struct {
	// ID is the stable identifier (e.g. "tecnologia"). Must be unique.
	ID string `yaml:"id" json:"id"`

	// Name is the human-readable topic name used in fallback replies.
	// Defaults to ID when empty.
	Name string `yaml:"name,omitempty" json:"name,omitempty"`

	// Keywords are matched as case-insensitive substrings. Required.
	Keywords []string `yaml:"keywords" json:"keywords"`

	// SpecificKeywords are high-signal terms; each hit adds 0.3 confidence.
	SpecificKeywords []string `yaml:"specificKeywords,omitempty" json:"specificKeywords,omitempty"`

	// TechnicalKeywords are recorded per message into the memory entry's
	// technical details.
	TechnicalKeywords []string `yaml:"technicalKeywords,omitempty" json:"technicalKeywords,omitempty"`

	// Responses is the canned reply pool. May be empty; the planner then
	// falls back to generic replies.
	Responses []string `yaml:"responses,omitempty" json:"responses,omitempty"`

	// ContinuityResponses are used when the recent conversation keeps
	// returning to this topic.
	ContinuityResponses []string `yaml:"continuityResponses,omitempty" json:"continuityResponses,omitempty"`

	// TechnicalInfo sentences may be appended to a topic reply.
	TechnicalInfo []string `yaml:"technicalInfo,omitempty" json:"technicalInfo,omitempty"`

	// QuickIntros are technical intro sentences prepended to quick-topic
	// replies (only configured for "tecnologia" in the default document).
	QuickIntros []string `yaml:"quickIntros,omitempty" json:"quickIntros,omitempty"`

	// Question is the prompt shown when the topic is picked as a quick topic.
	Question string `yaml:"question,omitempty" json:"question,omitempty"`

	// Suggestions are follow-up prompts returned with a quick-topic reply.
	Suggestions []string `yaml:"suggestions,omitempty" json:"suggestions,omitempty"`
}

// DisplayName returns Name, or ID when no name is configured.
func (t Topic) DisplayName() string {
	if t.Name != "" {
		return t.Name
	}
	return t.ID
}

// Lexicon holds the fixed vocabularies consumed by the analyzer.
type Lexicon struct {
	StopWords         []string `yaml:"stopWords,omitempty" json:"stopWords,omitempty"`
	ComplexWords      []string `yaml:"complexWords,omitempty" json:"complexWords,omitempty"`
	TechnicalTerms    []string `yaml:"technicalTerms,omitempty" json:"technicalTerms,omitempty"`
	Positive          []string `yaml:"positive,omitempty" json:"positive,omitempty"`
	Negative          []string `yaml:"negative,omitempty" json:"negative,omitempty"`
	Neutral           []string `yaml:"neutral,omitempty" json:"neutral,omitempty"`
	ImplicitQuestions []string `yaml:"implicitQuestions,omitempty" json:"implicitQuestions,omitempty"`
}

// Replies holds every canned reply that is not tied to a topic.
type Replies struct {
	// ContinuationPrefixes are prepended to topic replies on a continuous turn.
	ContinuationPrefixes []string `yaml:"continuationPrefixes" json:"continuationPrefixes"`

	// Continuation is used when the continuing topic has no reply pool.
	Continuation string `yaml:"continuation" json:"continuation"`

	QuestionWhy     string `yaml:"questionWhy" json:"questionWhy"`
	QuestionHow     string `yaml:"questionHow" json:"questionHow"`
	QuestionWhat    string `yaml:"questionWhat" json:"questionWhat"`
	QuestionGeneric string `yaml:"questionGeneric" json:"questionGeneric"`

	// Empathy is the pool for negative-sentiment messages.
	Empathy []string `yaml:"empathy" json:"empathy"`

	// TopicFallback is a fmt format with a single %s for the topic name.
	TopicFallback string `yaml:"topicFallback" json:"topicFallback"`

	DeepThinking     string   `yaml:"deepThinking" json:"deepThinking"`
	VariedInterests  string   `yaml:"variedInterests" json:"variedInterests"`
	RichConversation string   `yaml:"richConversation" json:"richConversation"`
	Engagement       []string `yaml:"engagement" json:"engagement"`

	// QuickIntro opens every quick-topic reply, followed by the topic question.
	QuickIntro string `yaml:"quickIntro" json:"quickIntro"`

	// TechnicalIntro precedes a topic's QuickIntros sentence.
	TechnicalIntro string `yaml:"technicalIntro,omitempty" json:"technicalIntro,omitempty"`

	// Apology is returned when planning fails unexpectedly.
	Apology string `yaml:"apology" json:"apology"`
}

// Topic returns the topic with the given id.
func (c *Config) Topic(id string) (Topic, bool) {
	if c.index == nil {
		for _, t := range c.Topics {
			if t.ID == id {
				return t, true
			}
		}
		return Topic{}, false
	}
	i, ok := c.index[id]
	if !ok {
		return Topic{}, false
	}
	return c.Topics[i], true
}

// IDs returns the topic ids in configured order.
func (c *Config) IDs() []string {
	ids := make([]string, len(c.Topics))
	for i, t := range c.Topics {
		ids[i] = t.ID
	}
	return ids
}

func (c *Config) buildIndex() {
	c.index = make(map[string]int, len(c.Topics))
	for i, t := range c.Topics {
		c.index[t.ID] = i
	}
}
