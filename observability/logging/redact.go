package logging

import (
	"log/slog"
	"strings"
)

// RedactedValue replaces secrets in emitted records.
const RedactedValue = "[REDACTED]"

// Key fragments that mark an attribute as credential material. Matching is
// case-insensitive on the attribute key.
var sensitiveFragments = []string{
	"token",
	"secret",
	"passphrase",
	"password",
	"authorization",
	"private_key",
	"jwt",
}

// IsSensitive reports whether values logged under key are masked.
func IsSensitive(key string) bool {
	normalized := strings.ToLower(strings.TrimSpace(key))
	for _, fragment := range sensitiveFragments {
		if strings.Contains(normalized, fragment) {
			return true
		}
	}
	return false
}

// MaskValue returns RedactedValue for non-empty values.
func MaskValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return value
	}
	return RedactedValue
}

// Configured logs whether a secret was supplied without revealing it.
func Configured(key, value string) slog.Attr {
	if strings.TrimSpace(value) == "" {
		return slog.String(key, "unset")
	}
	return slog.String(key, RedactedValue)
}

// redact masks string attributes whose key looks like a credential. It runs
// inside the handler so call sites cannot leak a bearer token by accident.
func redact(attr slog.Attr) slog.Attr {
	if !IsSensitive(attr.Key) {
		return attr
	}
	if attr.Value.Kind() == slog.KindString && attr.Value.String() == "unset" {
		return attr
	}
	return slog.String(attr.Key, MaskValue(attr.Value.String()))
}
