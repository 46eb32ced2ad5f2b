package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsmill/blog-ingest/internal/article"
)

func testItem(id, title string) article.BatchItem {
	now := time.Unix(1700000000, 0).UTC()
	return article.BatchItem{
		ID: id,
		Record: article.Record{
			ID:            id,
			Author:        "Jane Writer",
			Title:         title,
			Body:          "Body text.",
			URL:           "https://example.com/post",
			Topics:        "go|testing",
			Section:       "engineering",
			IngestedAt:    now,
			SourceFile:    "engineering-2025-07-03.csv",
			ContentLength: 10,
			WordCount:     2,
		},
	}
}

func TestUpsertBatchOutcomes(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "articles")
	require.NoError(t, err)

	created := testItem("id-created", "New Story")
	updated := testItem("id-updated", "Old Story")

	eb := mock.ExpectBatch()
	for _, pair := range []struct {
		item     article.BatchItem
		inserted bool
	}{{created, true}, {updated, false}} {
		r := pair.item.Record
		eb.ExpectQuery("INSERT INTO articles").
			WithArgs(pair.item.ID, r.Author, r.Title, r.Body, r.URL, r.Topics, r.Section,
				r.Published, r.IngestedAt, r.SourceFile, r.ContentLength, r.WordCount).
			WillReturnRows(pgxmock.NewRows([]string{"inserted"}).AddRow(pair.inserted))
	}

	outcomes, err := store.UpsertBatch(context.Background(), []article.BatchItem{created, updated})
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	assert.Equal(t, article.OutcomeCreated, outcomes[0].Kind)
	assert.Equal(t, "id-created", outcomes[0].ID)
	assert.Equal(t, article.OutcomeUpdated, outcomes[1].Kind)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertBatchEmpty(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "articles")
	require.NoError(t, err)

	outcomes, err := store.UpsertBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, outcomes)
}

func TestNewWithPoolRejectsBadTable(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewWithPool(mock, "articles; DROP TABLE articles")
	require.Error(t, err)
}

func TestExistsByTitle(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "articles")
	require.NoError(t, err)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("Sample Story").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := store.ExistsByTitle(context.Background(), "Sample Story")
	require.NoError(t, err)
	assert.True(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetArticleNotFound(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "articles")
	require.NoError(t, err)

	mock.ExpectQuery("SELECT .+ FROM articles WHERE id").
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "author", "article_title", "article", "url", "topics",
			"source_section", "published", "ingested_at", "source_file",
			"content_length", "word_count",
		}))

	_, err = store.GetArticle(context.Background(), "missing")
	assert.ErrorIs(t, err, article.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteArticle(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "articles")
	require.NoError(t, err)

	mock.ExpectExec("DELETE FROM articles").
		WithArgs("id-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, store.DeleteArticle(context.Background(), "id-1"))

	mock.ExpectExec("DELETE FROM articles").
		WithArgs("id-2").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	assert.ErrorIs(t, store.DeleteArticle(context.Background(), "id-2"), article.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStats(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "articles")
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT COUNT\(\*\), COUNT\(DISTINCT author\)`).
		WillReturnRows(pgxmock.NewRows([]string{"count", "authors"}).AddRow(7, 3))
	mock.ExpectQuery("SELECT source_section, COUNT").
		WillReturnRows(pgxmock.NewRows([]string{"source_section", "count"}).
			AddRow("engineering", 4).
			AddRow("culture", 3))

	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, stats.Articles)
	assert.Equal(t, 3, stats.Authors)
	assert.Equal(t, map[string]int{"engineering": 4, "culture": 3}, stats.Sections)
	require.NoError(t, mock.ExpectationsWereMet())
}
