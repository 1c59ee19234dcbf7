// Package environment reads process settings from prefixed environment
// variables (GOOMY_LOG_LEVEL, GOOMY_HTTP_ADDR, ...).
//
// Every getter returns the parsed value or the given default; unparsable
// values fall back to the default as well. Required settings return an
// error rather than exiting, keeping that decision in main.
package environment

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Env looks up variables under a common prefix.
type Env struct {
	prefix string
	lookup func(string) (string, bool)
}

// New returns an Env reading the process environment under prefix.
func New(prefix string) Env {
	return Env{prefix: prefix, lookup: os.LookupEnv}
}

// FromMap returns an Env backed by vars instead of the process environment.
func FromMap(prefix string, vars map[string]string) Env {
	return Env{prefix: prefix, lookup: func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}}
}

// Name returns the full variable name for key.
func (e Env) Name(key string) string {
	return e.prefix + key
}

func (e Env) get(key string) string {
	v, _ := e.lookup(e.Name(key))
	return strings.TrimSpace(v)
}

// StringOr returns the variable's value, or def if unset or empty.
func (e Env) StringOr(key, def string) string {
	if v := e.get(key); v != "" {
		return v
	}
	return def
}

// Required returns the variable's value or an error naming it.
func (e Env) Required(key string) (string, error) {
	if v := e.get(key); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("required environment variable %q is not set", e.Name(key))
}

// BoolOr parses the variable with strconv.ParseBool.
func (e Env) BoolOr(key string, def bool) bool {
	b, err := strconv.ParseBool(e.get(key))
	if err != nil {
		return def
	}
	return b
}

// IntOr parses the variable as a decimal integer.
func (e Env) IntOr(key string, def int) int {
	n, err := strconv.Atoi(e.get(key))
	if err != nil {
		return def
	}
	return n
}

// Uint64Or parses the variable as an unsigned decimal integer.
func (e Env) Uint64Or(key string, def uint64) uint64 {
	n, err := strconv.ParseUint(e.get(key), 10, 64)
	if err != nil {
		return def
	}
	return n
}

// DurationOr parses the variable with time.ParseDuration.
func (e Env) DurationOr(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(e.get(key))
	if err != nil {
		return def
	}
	return d
}

// StringsOr splits the variable on commas, dropping blank elements.
func (e Env) StringsOr(key string, def []string) []string {
	var out []string
	for _, p := range strings.Split(e.get(key), ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
