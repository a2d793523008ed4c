// Package dates parses the date formats the remote backend is known to emit.
//
// The backend is not consistent: depending on the endpoint (and apparently on
// the age of the record) a date arrives as an extended ISO timestamp with
// fractional seconds, the same without fractional seconds, or a bare
// YYYY-MM-DD. Strategies are tried in that order and the first hit wins.
package dates

import (
	"strings"
	"time"
)

// Wire is the date-only layout used for outgoing request fields.
const Wire = "2006-01-02"

// layouts in strict priority order.
var layouts = []string{
	"2006-01-02T15:04:05.999999999Z07:00", // extended ISO with fractional seconds
	time.RFC3339,                          // extended ISO without fractional seconds
	Wire,                                  // plain date
}

// Parse attempts each known layout in order and returns the first success.
// The second return value is false when no layout matches; callers decide
// what to substitute (and should log that they did).
func Parse(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Format renders a time as the YYYY-MM-DD wire format.
func Format(t time.Time) string {
	return t.Format(Wire)
}
