package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsmill/blog-ingest/internal/article"
)

func item(id, title, author, section string, ingested time.Time) article.BatchItem {
	return article.BatchItem{
		ID: id,
		Record: article.Record{
			ID:         id,
			Author:     author,
			Title:      title,
			Body:       "Body of " + title,
			Section:    section,
			IngestedAt: ingested,
		},
	}
}

func TestUpsertBatchCreatedThenUpdated(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	base := time.Unix(1700000000, 0).UTC()

	outcomes, err := s.UpsertBatch(ctx, []article.BatchItem{
		item("a", "Alpha", "Ann", "engineering", base),
	})
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, article.OutcomeCreated, outcomes[0].Kind)

	outcomes, err = s.UpsertBatch(ctx, []article.BatchItem{
		item("a", "Alpha v2", "Ann", "engineering", base.Add(time.Hour)),
	})
	require.NoError(t, err)
	assert.Equal(t, article.OutcomeUpdated, outcomes[0].Kind)

	rec, err := s.GetArticle(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Alpha v2", rec.Title)
}

func TestExistsByTitle(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	_, err := s.UpsertBatch(ctx, []article.BatchItem{
		item("a", "Alpha", "Ann", "engineering", time.Now()),
	})
	require.NoError(t, err)

	exists, err := s.ExistsByTitle(ctx, "Alpha")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = s.ExistsByTitle(ctx, "alpha")
	require.NoError(t, err)
	assert.False(t, exists, "title match is byte-exact")
}

func TestListNewestFirstAndPaging(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	base := time.Unix(1700000000, 0).UTC()
	_, err := s.UpsertBatch(ctx, []article.BatchItem{
		item("a", "Alpha", "Ann", "engineering", base),
		item("b", "Beta", "Bob", "culture", base.Add(time.Hour)),
		item("c", "Gamma", "Ann", "culture", base.Add(2*time.Hour)),
	})
	require.NoError(t, err)

	records, total, err := s.ListArticles(ctx, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, records, 2)
	assert.Equal(t, "Gamma", records[0].Title)
	assert.Equal(t, "Beta", records[1].Title)

	records, _, err = s.ListArticles(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Alpha", records[0].Title)
}

func TestSearchFilters(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	base := time.Unix(1700000000, 0).UTC()
	_, err := s.UpsertBatch(ctx, []article.BatchItem{
		item("a", "Go Memory Model", "Ann", "engineering", base),
		item("b", "Team Offsite", "Bob", "culture", base),
	})
	require.NoError(t, err)

	records, total, err := s.SearchArticles(ctx, article.SearchQuery{Text: "memory"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, records, 1)
	assert.Equal(t, "a", records[0].ID)

	_, total, err = s.SearchArticles(ctx, article.SearchQuery{Section: "culture"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	_, total, err = s.SearchArticles(ctx, article.SearchQuery{Author: "nobody"})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
}

func TestDeleteAndStats(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	base := time.Unix(1700000000, 0).UTC()
	_, err := s.UpsertBatch(ctx, []article.BatchItem{
		item("a", "Alpha", "Ann", "engineering", base),
		item("b", "Beta", "Bob", "culture", base),
		item("c", "Gamma", "Ann", "culture", base),
	})
	require.NoError(t, err)

	require.NoError(t, s.DeleteArticle(ctx, "b"))
	assert.ErrorIs(t, s.DeleteArticle(ctx, "b"), article.ErrNotFound)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Articles)
	assert.Equal(t, 1, stats.Authors)
	assert.Equal(t, map[string]int{"engineering": 1, "culture": 1}, stats.Sections)
}
