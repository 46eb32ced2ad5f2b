// Package api exposes the read surface of the article corpus over HTTP.
// Notable routes:
//   - GET /healthz and /readyz for probes.
//   - GET /metrics for Prometheus scraping.
//   - GET /v1/articles, /v1/articles/search and /v1/articles/{article_id}
//     for corpus access, DELETE /v1/articles/{article_id} for removal.
//   - GET /v1/stats for corpus totals.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/newsmill/blog-ingest/internal/article"
	"github.com/newsmill/blog-ingest/internal/metrics"
	"github.com/newsmill/blog-ingest/internal/normalize"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
	requestTimeout   = 30 * time.Second
)

// Server wires HTTP handlers to the article catalog.
type Server struct {
	router  chi.Router
	catalog article.Catalog
	logger  *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(catalog article.Catalog, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{catalog: catalog, logger: logger}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(timeoutMiddleware(requestTimeout))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Route("/articles", func(r chi.Router) {
			r.Get("/", s.listArticles)
			r.Get("/search", s.searchArticles)
			r.Route("/{article_id}", func(r chi.Router) {
				r.Get("/", s.getArticle)
				r.Delete("/", s.deleteArticle)
			})
		})
		r.Get("/stats", s.stats)
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(s.logger, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	if s.catalog == nil {
		writeError(s.logger, w, http.StatusServiceUnavailable, "catalog unavailable")
		return
	}
	if _, err := s.catalog.Stats(r.Context()); err != nil {
		writeError(s.logger, w, http.StatusServiceUnavailable, "store unreachable")
		return
	}
	writeJSON(s.logger, w, http.StatusOK, map[string]string{"status": "ready"})
}

type listResponse struct {
	Articles []article.Record `json:"articles"`
	Total    int              `json:"total"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
}

func (s *Server) listArticles(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parseLimitOffset(r)
	if err != nil {
		writeError(s.logger, w, http.StatusBadRequest, err.Error())
		return
	}
	records, total, err := s.catalog.ListArticles(r.Context(), limit, offset)
	if err != nil {
		s.logger.Error("list articles failed", zap.Error(err))
		writeError(s.logger, w, http.StatusInternalServerError, "list articles failed")
		return
	}
	writeJSON(s.logger, w, http.StatusOK, listResponse{
		Articles: emptyIfNil(records),
		Total:    total,
		Limit:    limit,
		Offset:   offset,
	})
}

func (s *Server) searchArticles(w http.ResponseWriter, r *http.Request) {
	q, err := parseSearchQuery(r)
	if err != nil {
		writeError(s.logger, w, http.StatusBadRequest, err.Error())
		return
	}
	records, total, err := s.catalog.SearchArticles(r.Context(), q)
	if err != nil {
		s.logger.Error("search articles failed", zap.Error(err))
		writeError(s.logger, w, http.StatusInternalServerError, "search failed")
		return
	}
	writeJSON(s.logger, w, http.StatusOK, listResponse{
		Articles: emptyIfNil(records),
		Total:    total,
		Limit:    q.Limit,
		Offset:   q.Offset,
	})
}

func (s *Server) getArticle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "article_id")
	rec, err := s.catalog.GetArticle(r.Context(), id)
	if errors.Is(err, article.ErrNotFound) {
		writeError(s.logger, w, http.StatusNotFound, "article not found")
		return
	}
	if err != nil {
		s.logger.Error("get article failed", zap.String("id", id), zap.Error(err))
		writeError(s.logger, w, http.StatusInternalServerError, "get article failed")
		return
	}
	writeJSON(s.logger, w, http.StatusOK, rec)
}

func (s *Server) deleteArticle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "article_id")
	err := s.catalog.DeleteArticle(r.Context(), id)
	if errors.Is(err, article.ErrNotFound) {
		writeError(s.logger, w, http.StatusNotFound, "article not found")
		return
	}
	if err != nil {
		s.logger.Error("delete article failed", zap.String("id", id), zap.Error(err))
		writeError(s.logger, w, http.StatusInternalServerError, "delete article failed")
		return
	}
	writeJSON(s.logger, w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.catalog.Stats(r.Context())
	if err != nil {
		s.logger.Error("stats failed", zap.Error(err))
		writeError(s.logger, w, http.StatusInternalServerError, "stats failed")
		return
	}
	writeJSON(s.logger, w, http.StatusOK, stats)
}

func parseLimitOffset(r *http.Request) (int, int, error) {
	limit := defaultPageLimit
	offset := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			return 0, 0, fmt.Errorf("invalid limit %q", raw)
		}
		if v > maxPageLimit {
			v = maxPageLimit
		}
		limit = v
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return 0, 0, fmt.Errorf("invalid offset %q", raw)
		}
		offset = v
	}
	return limit, offset, nil
}

func parseSearchQuery(r *http.Request) (article.SearchQuery, error) {
	limit, offset, err := parseLimitOffset(r)
	if err != nil {
		return article.SearchQuery{}, err
	}
	values := r.URL.Query()
	q := article.SearchQuery{
		Text:    strings.TrimSpace(values.Get("q")),
		Author:  strings.TrimSpace(values.Get("author")),
		Topic:   strings.TrimSpace(values.Get("topic")),
		Section: strings.TrimSpace(values.Get("section")),
		Limit:   limit,
		Offset:  offset,
	}
	if raw := values.Get("date_from"); raw != "" {
		t, ok := normalize.ParseDate(raw)
		if !ok {
			return article.SearchQuery{}, fmt.Errorf("invalid date_from %q", raw)
		}
		q.From = &t
	}
	if raw := values.Get("date_to"); raw != "" {
		t, ok := normalize.ParseDate(raw)
		if !ok {
			return article.SearchQuery{}, fmt.Errorf("invalid date_to %q", raw)
		}
		q.To = &t
	}
	return q, nil
}

func emptyIfNil(records []article.Record) []article.Record {
	if records == nil {
		return []article.Record{}
	}
	return records
}

type requestIDKey struct{}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)

		elapsed := time.Since(start)
		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = r.URL.Path
		}
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(ww.status)).Inc()
		metrics.HTTPDuration.WithLabelValues(route).Observe(elapsed.Seconds())
		s.logger.Info("request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Duration("duration", elapsed))
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", zap.Any("panic", rec))
				writeError(s.logger, w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func writeJSON(logger *zap.Logger, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("write JSON failed", zap.Error(err))
	}
}

func writeError(logger *zap.Logger, w http.ResponseWriter, status int, msg string) {
	writeJSON(logger, w, status, map[string]string{"error": msg})
}
