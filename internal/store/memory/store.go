// Package memory provides an in-process article store for tests and local runs.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/newsmill/blog-ingest/internal/article"
)

// Store keeps records in a map guarded by a RWMutex. It implements both
// article.Store and article.Catalog.
type Store struct {
	mu      sync.RWMutex
	records map[string]article.Record
	order   []string
}

// New creates an empty Store.
func New() *Store {
	return &Store{records: map[string]article.Record{}}
}

// UpsertBatch inserts or replaces each item and reports per-item outcomes.
func (s *Store) UpsertBatch(_ context.Context, items []article.BatchItem) ([]article.ItemOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	outcomes := make([]article.ItemOutcome, 0, len(items))
	for _, item := range items {
		kind := article.OutcomeCreated
		if _, ok := s.records[item.ID]; ok {
			kind = article.OutcomeUpdated
		} else {
			s.order = append(s.order, item.ID)
		}
		s.records[item.ID] = item.Record
		outcomes = append(outcomes, article.ItemOutcome{ID: item.ID, Kind: kind})
	}
	return outcomes, nil
}

// ExistsByTitle reports whether any stored record carries the exact title.
func (s *Store) ExistsByTitle(_ context.Context, title string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.records {
		if rec.Title == title {
			return true, nil
		}
	}
	return false, nil
}

// GetArticle fetches one record by id.
func (s *Store) GetArticle(_ context.Context, id string) (article.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return article.Record{}, article.ErrNotFound
	}
	return rec, nil
}

// ListArticles returns a page of records, newest ingested first.
func (s *Store) ListArticles(_ context.Context, limit, offset int) ([]article.Record, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return page(s.sorted(), limit, offset)
}

// SearchArticles filters records by the populated query fields.
func (s *Store) SearchArticles(_ context.Context, q article.SearchQuery) ([]article.Record, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []article.Record
	for _, rec := range s.sorted() {
		if matches(rec, q) {
			matched = append(matched, rec)
		}
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	return page(matched, limit, q.Offset)
}

func matches(rec article.Record, q article.SearchQuery) bool {
	containsFold := func(haystack, needle string) bool {
		return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
	}
	if q.Text != "" && !containsFold(rec.Title, q.Text) && !containsFold(rec.Body, q.Text) {
		return false
	}
	if q.Author != "" && !containsFold(rec.Author, q.Author) {
		return false
	}
	if q.Topic != "" && !containsFold(rec.Topics, q.Topic) {
		return false
	}
	if q.Section != "" && rec.Section != q.Section {
		return false
	}
	if q.From != nil && (rec.Published == nil || rec.Published.Before(*q.From)) {
		return false
	}
	if q.To != nil && (rec.Published == nil || rec.Published.After(*q.To)) {
		return false
	}
	return true
}

func (s *Store) sorted() []article.Record {
	records := make([]article.Record, 0, len(s.order))
	for _, id := range s.order {
		records = append(records, s.records[id])
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].IngestedAt.After(records[j].IngestedAt)
	})
	return records
}

func page(records []article.Record, limit, offset int) ([]article.Record, int, error) {
	total := len(records)
	if offset >= total {
		return nil, total, nil
	}
	records = records[offset:]
	if limit > 0 && limit < len(records) {
		records = records[:limit]
	}
	return records, total, nil
}

// DeleteArticle removes one record by id.
func (s *Store) DeleteArticle(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return article.ErrNotFound
	}
	delete(s.records, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Stats summarizes the stored corpus.
func (s *Store) Stats(_ context.Context) (article.CorpusStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := article.CorpusStats{
		Articles: len(s.records),
		Sections: map[string]int{},
	}
	authors := map[string]struct{}{}
	for _, rec := range s.records {
		authors[rec.Author] = struct{}{}
		stats.Sections[rec.Section]++
	}
	stats.Authors = len(authors)
	return stats, nil
}

// Close is a no-op.
func (s *Store) Close(_ context.Context) error {
	return nil
}
