// Package postgres provides a Postgres-backed article store.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/newsmill/blog-ingest/internal/article"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Close()
}

// Store implements article.Store and article.Catalog over Postgres.
type Store struct {
	pool  pool
	table string
}

// New connects a pool and returns a Store.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "articles"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{pool: p, table: table}, nil
}

// NewWithPool constructs a Store from an existing pool (primarily for testing).
func NewWithPool(p pool, table string) (*Store, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "articles"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &Store{pool: p, table: table}, nil
}

const columnList = "id, author, article_title, article, url, topics, source_section, " +
	"published, ingested_at, source_file, content_length, word_count"

func (s *Store) upsertQuery() string {
	return fmt.Sprintf(`INSERT INTO %s (%s)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (id) DO UPDATE SET
	author = EXCLUDED.author,
	article_title = EXCLUDED.article_title,
	article = EXCLUDED.article,
	url = EXCLUDED.url,
	topics = EXCLUDED.topics,
	source_section = EXCLUDED.source_section,
	published = EXCLUDED.published,
	ingested_at = EXCLUDED.ingested_at,
	source_file = EXCLUDED.source_file,
	content_length = EXCLUDED.content_length,
	word_count = EXCLUDED.word_count
RETURNING (xmax = 0) AS inserted`, s.table, columnList)
}

// UpsertBatch writes all items in one pipelined batch. Each item yields a
// created/updated/error outcome; only a connectivity-class failure that
// sinks the whole call produces a non-nil error.
func (s *Store) UpsertBatch(ctx context.Context, items []article.BatchItem) ([]article.ItemOutcome, error) {
	if len(items) == 0 {
		return nil, nil
	}

	query := s.upsertQuery()
	batch := &pgx.Batch{}
	for _, item := range items {
		r := item.Record
		batch.Queue(query,
			item.ID, r.Author, r.Title, r.Body, r.URL, r.Topics, r.Section,
			r.Published, r.IngestedAt, r.SourceFile, r.ContentLength, r.WordCount)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close() //nolint:errcheck // per-item errors are collected below

	outcomes := make([]article.ItemOutcome, 0, len(items))
	failed := 0
	sawPgError := false
	var firstErr error
	for _, item := range items {
		var inserted bool
		err := results.QueryRow().Scan(&inserted)
		switch {
		case err == nil:
			kind := article.OutcomeUpdated
			if inserted {
				kind = article.OutcomeCreated
			}
			outcomes = append(outcomes, article.ItemOutcome{ID: item.ID, Kind: kind})
		default:
			failed++
			if firstErr == nil {
				firstErr = err
			}
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) {
				sawPgError = true
			}
			outcomes = append(outcomes, article.ItemOutcome{
				ID:     item.ID,
				Kind:   article.OutcomeFailed,
				Detail: err.Error(),
			})
		}
	}

	// When every row fails without a single server-side error, the batch
	// never reached the server. Report a wholesale failure so the caller
	// can retry a prefix individually.
	if failed == len(items) && !sawPgError && firstErr != nil {
		return nil, fmt.Errorf("batch upsert: %w", firstErr)
	}
	return outcomes, nil
}

// ExistsByTitle reports whether any stored article carries the exact title.
func (s *Store) ExistsByTitle(ctx context.Context, title string) (bool, error) {
	query := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE article_title = $1)", s.table)
	var exists bool
	if err := s.pool.QueryRow(ctx, query, title).Scan(&exists); err != nil {
		return false, fmt.Errorf("exists by title: %w", err)
	}
	return exists, nil
}

// GetArticle fetches one document by id.
func (s *Store) GetArticle(ctx context.Context, id string) (article.Record, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", columnList, s.table)
	rec, err := scanRecord(s.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return article.Record{}, article.ErrNotFound
	}
	if err != nil {
		return article.Record{}, fmt.Errorf("get article: %w", err)
	}
	return rec, nil
}

// ListArticles returns a page of documents, newest ingested first, plus the
// total corpus size.
func (s *Store) ListArticles(ctx context.Context, limit, offset int) ([]article.Record, int, error) {
	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s", s.table)
	if err := s.pool.QueryRow(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count articles: %w", err)
	}

	query := fmt.Sprintf(
		"SELECT %s FROM %s ORDER BY ingested_at DESC, id LIMIT $1 OFFSET $2",
		columnList, s.table)
	rows, err := s.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	records, err := collectRecords(rows)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// SearchArticles filters the corpus by the populated query fields.
func (s *Store) SearchArticles(ctx context.Context, q article.SearchQuery) ([]article.Record, int, error) {
	where, args := buildSearchWhere(q)

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s%s", s.table, where)
	var total int
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count search: %w", err)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf(
		"SELECT %s FROM %s%s ORDER BY ingested_at DESC, id LIMIT $%d OFFSET $%d",
		columnList, s.table, where, len(args)+1, len(args)+2)
	args = append(args, limit, q.Offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("search articles: %w", err)
	}
	defer rows.Close()

	records, err := collectRecords(rows)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func buildSearchWhere(q article.SearchQuery) (string, []any) {
	var clauses []string
	var args []any
	add := func(clause string, arg any) {
		args = append(args, arg)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if q.Text != "" {
		add("(article_title ILIKE $%[1]d OR article ILIKE $%[1]d)", "%"+q.Text+"%")
	}
	if q.Author != "" {
		add("author ILIKE $%d", "%"+q.Author+"%")
	}
	if q.Topic != "" {
		add("topics ILIKE $%d", "%"+q.Topic+"%")
	}
	if q.Section != "" {
		add("source_section = $%d", q.Section)
	}
	if q.From != nil {
		add("published >= $%d", *q.From)
	}
	if q.To != nil {
		add("published <= $%d", *q.To)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// DeleteArticle removes one document by id.
func (s *Store) DeleteArticle(ctx context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", s.table)
	tag, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return article.ErrNotFound
	}
	return nil
}

// Stats summarizes the stored corpus.
func (s *Store) Stats(ctx context.Context) (article.CorpusStats, error) {
	stats := article.CorpusStats{Sections: map[string]int{}}

	query := fmt.Sprintf("SELECT COUNT(*), COUNT(DISTINCT author) FROM %s", s.table)
	if err := s.pool.QueryRow(ctx, query).Scan(&stats.Articles, &stats.Authors); err != nil {
		return article.CorpusStats{}, fmt.Errorf("corpus totals: %w", err)
	}

	sectionQuery := fmt.Sprintf(
		"SELECT source_section, COUNT(*) FROM %s GROUP BY source_section", s.table)
	rows, err := s.pool.Query(ctx, sectionQuery)
	if err != nil {
		return article.CorpusStats{}, fmt.Errorf("section counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var section string
		var count int
		if err := rows.Scan(&section, &count); err != nil {
			return article.CorpusStats{}, fmt.Errorf("scan section count: %w", err)
		}
		stats.Sections[section] = count
	}
	if err := rows.Err(); err != nil {
		return article.CorpusStats{}, fmt.Errorf("section counts: %w", err)
	}
	return stats, nil
}

// Close releases the connection pool.
func (s *Store) Close(_ context.Context) error {
	s.pool.Close()
	return nil
}

func scanRecord(row pgx.Row) (article.Record, error) {
	var rec article.Record
	err := row.Scan(
		&rec.ID, &rec.Author, &rec.Title, &rec.Body, &rec.URL, &rec.Topics,
		&rec.Section, &rec.Published, &rec.IngestedAt, &rec.SourceFile,
		&rec.ContentLength, &rec.WordCount)
	if err != nil {
		return article.Record{}, err
	}
	return rec, nil
}

func collectRecords(rows pgx.Rows) ([]article.Record, error) {
	var records []article.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read articles: %w", err)
	}
	return records, nil
}
