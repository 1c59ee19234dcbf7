package topics

import (
	_ "embed"
	"fmt"
)

//go:embed default.yaml
var defaultYAML []byte

// DefaultYAML returns a copy of the embedded default document.
func DefaultYAML() []byte {
	out := make([]byte, len(defaultYAML))
	copy(out, defaultYAML)
	return out
}

// Default parses the embedded default document. Each call returns an
// independent Config.
func Default() (*Config, error) {
	cfg, err := Parse(defaultYAML)
	if err != nil {
		return nil, fmt.Errorf("topics: embedded default: %w", err)
	}
	return cfg, nil
}

// MustDefault is Default for callers that cannot recover from a broken
// build, such as tests and main.
func MustDefault() *Config {
	cfg, err := Default()
	if err != nil {
		panic(err)
	}
	return cfg
}
