// Package redact strips secrets, such as the Matrix access token, from log
// output before it leaves the process.
//
// Redaction is best-effort: it works on string representations and relies
// on callers to name the secret values. Keeping secrets away from log
// call-sites in the first place still matters.
package redact

import (
	"log/slog"
	"strings"
)

// Placeholder replaces redacted values.
const Placeholder = "[REDACTED]"

// minSecretLen is the shortest value String will redact; shorter values
// would match common substrings.
const minSecretLen = 4

// String replaces every occurrence of each secret in s with Placeholder.
func String(s string, secrets ...string) string {
	for _, v := range secrets {
		if len(v) < minSecretLen {
			continue
		}
		s = strings.ReplaceAll(s, v, Placeholder)
	}
	return s
}

// IsSensitiveKey reports whether an attribute or field name suggests it
// holds a secret.
func IsSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, word := range []string{"password", "passwd", "token", "secret", "credential", "auth", "apikey"} {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

// ReplaceAttr returns a slog.HandlerOptions.ReplaceAttr hook that blanks
// string attributes with sensitive keys and scrubs the given secrets from
// every other string attribute, the message included.
func ReplaceAttr(secrets ...string) func(groups []string, a slog.Attr) slog.Attr {
	return func(_ []string, a slog.Attr) slog.Attr {
		if a.Value.Kind() != slog.KindString {
			return a
		}
		v := a.Value.String()
		if v != "" && IsSensitiveKey(a.Key) {
			return slog.String(a.Key, Placeholder)
		}
		if redacted := String(v, secrets...); redacted != v {
			return slog.String(a.Key, redacted)
		}
		return a
	}
}
