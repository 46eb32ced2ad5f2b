package normalize

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Strict layouts tried before the generic parser.
const (
	layoutDateTime = "2006-01-02 15:04:05"
	layoutDate     = "2006-01-02"
)

// ParseDate resolves a free-text publication date. Attempts, in order:
// the strict datetime layout, the strict date layout, a generic
// best-effort parse, and finally a legacy positional form where the first
// and last whitespace tokens are stripped and the remainder reversed
// before re-parsing (handles "Published 3 July 2025 Updated" strings).
// Returns ok=false when every attempt fails.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}

	if t, err := time.Parse(layoutDateTime, raw); err == nil {
		return t, true
	}
	if t, err := time.Parse(layoutDate, raw); err == nil {
		return t, true
	}
	if t, err := dateparse.ParseAny(raw); err == nil {
		return t, true
	}

	tokens := strings.Fields(raw)
	if len(tokens) >= 3 {
		inner := tokens[1 : len(tokens)-1]
		for i, j := 0, len(inner)-1; i < j; i, j = i+1, j-1 {
			inner[i], inner[j] = inner[j], inner[i]
		}
		if t, err := dateparse.ParseAny(strings.Join(inner, " ")); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}
