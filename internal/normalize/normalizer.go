// Package normalize turns extracted field sets into canonical records.
package normalize

import (
	"strings"

	"go.uber.org/zap"

	"github.com/newsmill/blog-ingest/internal/article"
)

// MaxBodyLength is the body size ceiling in characters; longer bodies
// are truncated to keep downstream indexing happy.
const MaxBodyLength = 10000

// TruncationMarker is appended to a truncated body.
const TruncationMarker = "... [truncated]"

const topicDelimiter = "|"

// Normalizer builds canonical records from raw field sets. Recoverable
// conditions (bad date, oversize body) are logged as warnings and never
// abort the record; only missing required fields reject it.
type Normalizer struct {
	clock  article.Clock
	logger *zap.Logger
}

// New constructs a Normalizer.
func New(clock article.Clock, logger *zap.Logger) *Normalizer {
	return &Normalizer{clock: clock, logger: logger}
}

// Record converts one field set into a canonical record. ok is false when
// the record lacks a required field (title or url); no partial record is
// produced in that case.
func (n *Normalizer) Record(f article.Fields) (article.Record, bool) {
	rec := article.Record{
		Author:     strings.TrimSpace(f.Author),
		Title:      strings.TrimSpace(f.Title),
		Body:       strings.TrimSpace(f.Body),
		URL:        strings.TrimSpace(f.URL),
		Topics:     CleanTopics(f.TopicsRaw),
		Section:    strings.TrimSpace(f.Section),
		IngestedAt: n.clock.Now(),
		SourceFile: f.SourceFile,
	}
	if rec.SourceFile == "" {
		rec.SourceFile = "unknown"
	}

	if rec.URL == "" || rec.Title == "" {
		n.logger.Warn("skipping record with missing url or title",
			zap.String("url", rec.URL),
			zap.String("title", rec.Title),
		)
		return article.Record{}, false
	}

	if raw := strings.TrimSpace(f.PublishedRaw); raw != "" {
		if t, ok := ParseDate(raw); ok {
			rec.Published = &t
		} else {
			n.logger.Warn("failed to parse published date",
				zap.String("published", raw),
				zap.String("url", rec.URL),
			)
		}
	}

	if body := []rune(rec.Body); len(body) > MaxBodyLength {
		rec.Body = string(body[:MaxBodyLength]) + TruncationMarker
		n.logger.Warn("truncated oversize body", zap.String("url", rec.URL))
	}

	// Derived metrics are always recomputed from the final body, never
	// trusted from input.
	rec.ContentLength = len([]rune(rec.Body))
	rec.WordCount = len(strings.Fields(rec.Body))

	return rec, true
}

// CleanTopics canonicalizes a raw pipe-delimited topic string: elements
// are trimmed, empty elements dropped, order and duplicates preserved.
func CleanTopics(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	var topics []string
	for _, t := range strings.Split(raw, topicDelimiter) {
		if t = strings.TrimSpace(t); t != "" {
			topics = append(topics, t)
		}
	}
	return strings.Join(topics, topicDelimiter)
}
