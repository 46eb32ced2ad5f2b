package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/newsmill/blog-ingest/internal/article"
	"github.com/newsmill/blog-ingest/internal/store/memory"
)

func seededServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()

	store := memory.New()
	base := time.Date(2025, 7, 3, 12, 0, 0, 0, time.UTC)
	published := base.Add(-24 * time.Hour)
	_, err := store.UpsertBatch(context.Background(), []article.BatchItem{
		{ID: "id-1", Record: article.Record{
			ID: "id-1", Author: "Jane Writer", Title: "Go Memory Model",
			Body: "All about happens-before.", Section: "engineering",
			Topics: "go|memory", Published: &published, IngestedAt: base,
		}},
		{ID: "id-2", Record: article.Record{
			ID: "id-2", Author: "Bob Poet", Title: "Team Offsite",
			Body: "We went hiking.", Section: "culture",
			IngestedAt: base.Add(time.Hour),
		}},
	})
	require.NoError(t, err)
	return NewServer(store, zap.NewNop()), store
}

func doRequest(t *testing.T, s *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	s, _ := seededServer(t)
	rec := doRequest(t, s, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestListArticles(t *testing.T) {
	t.Parallel()

	s, _ := seededServer(t)
	rec := doRequest(t, s, http.MethodGet, "/v1/articles?limit=1")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Total)
	require.Len(t, resp.Articles, 1)
	assert.Equal(t, "Team Offsite", resp.Articles[0].Title, "newest ingested first")
}

func TestListArticlesRejectsBadLimit(t *testing.T) {
	t.Parallel()

	s, _ := seededServer(t)
	rec := doRequest(t, s, http.MethodGet, "/v1/articles?limit=nope")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchArticles(t *testing.T) {
	t.Parallel()

	s, _ := seededServer(t)

	rec := doRequest(t, s, http.MethodGet, "/v1/articles/search?q=memory")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Articles, 1)
	assert.Equal(t, "id-1", resp.Articles[0].ID)

	rec = doRequest(t, s, http.MethodGet, "/v1/articles/search?section=culture")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Articles, 1)
	assert.Equal(t, "id-2", resp.Articles[0].ID)

	rec = doRequest(t, s, http.MethodGet, "/v1/articles/search?date_from=2025-07-01&date_to=2025-07-05")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Articles, 1)
	assert.Equal(t, "id-1", resp.Articles[0].ID, "only id-1 has a published date in range")
}

func TestSearchRejectsBadDate(t *testing.T) {
	t.Parallel()

	s, _ := seededServer(t)
	rec := doRequest(t, s, http.MethodGet, "/v1/articles/search?date_from=not-a-date")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetArticle(t *testing.T) {
	t.Parallel()

	s, _ := seededServer(t)

	rec := doRequest(t, s, http.MethodGet, "/v1/articles/id-1")
	require.Equal(t, http.StatusOK, rec.Code)
	var got article.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Go Memory Model", got.Title)

	rec = doRequest(t, s, http.MethodGet, "/v1/articles/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteArticle(t *testing.T) {
	t.Parallel()

	s, store := seededServer(t)

	rec := doRequest(t, s, http.MethodDelete, "/v1/articles/id-2")
	require.Equal(t, http.StatusOK, rec.Code)

	_, err := store.GetArticle(context.Background(), "id-2")
	assert.ErrorIs(t, err, article.ErrNotFound)

	rec = doRequest(t, s, http.MethodDelete, "/v1/articles/id-2")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStats(t *testing.T) {
	t.Parallel()

	s, _ := seededServer(t)
	rec := doRequest(t, s, http.MethodGet, "/v1/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats article.CorpusStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.Articles)
	assert.Equal(t, 2, stats.Authors)
	assert.Equal(t, map[string]int{"engineering": 1, "culture": 1}, stats.Sections)
}
