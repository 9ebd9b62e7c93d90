// Package report parses seller inventory report files into coerced row
// payloads. It owns the field-type table and the header normalization rules;
// nothing downstream touches raw file tokens.
package report

import (
	"strings"
	"time"
)

// Report columns with a declared non-string type. Every other column is kept
// as a string.
var (
	floatFields = map[string]bool{
		"price": true,
	}
	intFields = map[string]bool{
		"quantity":         true,
		"pending-quantity": true,
	}
	boolFields = map[string]bool{
		"item-is-marketplace":       true,
		"will-ship-internationally": true,
		"expedited-shipping":        true,
		"zshop-boldface":            true,
	}
)

// TimestampField is the column used as the intrinsic recency signal for
// duplicate candidates when present.
const TimestampField = "open-date"

var timestampLayouts = []string{
	"2006-01-02 15:04:05 MST",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006",
}

// NormalizeHeader maps a raw header token to its canonical field name:
// trimmed, lower-cased, spaces replaced with hyphens.
func NormalizeHeader(h string) string {
	normalized := strings.ToLower(strings.TrimSpace(h))
	return strings.ReplaceAll(normalized, " ", "-")
}

// ParseTimestamp attempts to read a report timestamp cell. Returns the zero
// time and false when the cell does not parse.
func ParseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func isTrueToken(v string) bool {
	switch strings.ToLower(v) {
	case "y", "yes", "true":
		return true
	}
	return false
}

func isFalseToken(v string) bool {
	switch strings.ToLower(v) {
	case "n", "no", "false":
		return true
	}
	return false
}
