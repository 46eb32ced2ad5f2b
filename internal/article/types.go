// Package article defines core types shared across subsystems.
package article

import "time"

// RawPage is one fetched page plus the metadata needed to process it
// independently of any other page.
type RawPage struct {
	URL        string
	Section    string
	SourceFile string
	HTML       []byte
	FetchedAt  time.Time
}

// Fields holds the best-effort raw value for each logical field produced
// by the extractor. Transient; discarded once a Record is built.
type Fields struct {
	Author       string
	Title        string
	Body         string
	PublishedRaw string
	TopicsRaw    string
	Section      string
	URL          string
	SourceFile   string
}

// Record is the canonical document written to the store. JSON field names
// are stable: downstream search mappings depend on them.
type Record struct {
	ID            string     `json:"id"             bson:"id"`
	Author        string     `json:"author"         bson:"author"`
	Title         string     `json:"article_title"  bson:"article_title"`
	Body          string     `json:"article"        bson:"article"`
	URL           string     `json:"url"            bson:"url"`
	Topics        string     `json:"topics"         bson:"topics"`
	Section       string     `json:"source_section" bson:"source_section"`
	Published     *time.Time `json:"published,omitempty" bson:"published,omitempty"`
	IngestedAt    time.Time  `json:"ingested_at"    bson:"ingested_at"`
	SourceFile    string     `json:"source_file"    bson:"source_file"`
	ContentLength int        `json:"content_length" bson:"content_length"`
	WordCount     int        `json:"word_count"     bson:"word_count"`
}

// OutcomeKind is the store's verdict for one upserted item.
type OutcomeKind string

const (
	OutcomeCreated OutcomeKind = "created"
	OutcomeUpdated OutcomeKind = "updated"
	OutcomeFailed  OutcomeKind = "error"
)

// BatchItem pairs a record with its pre-computed document identity.
type BatchItem struct {
	ID     string
	Record Record
}

// ItemOutcome reports what the store did with one item.
type ItemOutcome struct {
	ID     string
	Kind   OutcomeKind
	Detail string
}

// MaxErrorDetails bounds how many verbatim failure details a BatchResult
// retains for diagnostics.
const MaxErrorDetails = 5

// BatchResult aggregates per-item outcomes for one submitted batch.
// Created + Updated + Failed always equals the number of records that
// passed validation and were submitted.
type BatchResult struct {
	Created      int      `json:"created"`
	Updated      int      `json:"updated"`
	Failed       int      `json:"errors"`
	ErrorDetails []string `json:"error_details,omitempty"`
}

// Add folds another batch's counts into this one.
func (r *BatchResult) Add(other BatchResult) {
	r.Created += other.Created
	r.Updated += other.Updated
	r.Failed += other.Failed
	for _, d := range other.ErrorDetails {
		if len(r.ErrorDetails) >= MaxErrorDetails {
			break
		}
		r.ErrorDetails = append(r.ErrorDetails, d)
	}
}

// Report is the aggregated result of one ingestion run.
type Report struct {
	RunID     string `json:"run_id"`
	Processed int    `json:"processed"`
	Created   int    `json:"created"`
	Updated   int    `json:"updated"`
	Failed    int    `json:"errors"`
	Skipped   int    `json:"skipped"`
}

// SearchQuery carries the supported article search filters.
type SearchQuery struct {
	Text    string
	Author  string
	Topic   string
	Section string
	From    *time.Time
	To      *time.Time
	Limit   int
	Offset  int
}

// CorpusStats summarizes the stored corpus.
type CorpusStats struct {
	Articles int            `json:"total_articles"`
	Authors  int            `json:"total_authors"`
	Sections map[string]int `json:"articles_by_section"`
}
