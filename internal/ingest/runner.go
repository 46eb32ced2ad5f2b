package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/newsmill/blog-ingest/internal/article"
	"github.com/newsmill/blog-ingest/internal/extract"
	"github.com/newsmill/blog-ingest/internal/metrics"
	"github.com/newsmill/blog-ingest/internal/normalize"
)

// RunnerConfig controls batching and the optional duplicate pre-check.
type RunnerConfig struct {
	BatchSize int
	Precheck  bool
	Topic     string
}

// Runner drives a whole ingestion run: extract, normalize, dedup, batch,
// report.
type Runner struct {
	coord      *Coordinator
	normalizer *normalize.Normalizer
	extractor  *extract.Extractor
	idGen      article.IDGenerator
	publisher  article.Publisher
	logger     *zap.Logger
	cfg        RunnerConfig
}

// NewRunner wires a Runner. publisher may be nil when no completion
// notifications are wanted.
func NewRunner(
	coord *Coordinator,
	normalizer *normalize.Normalizer,
	extractor *extract.Extractor,
	idGen article.IDGenerator,
	publisher article.Publisher,
	logger *zap.Logger,
	cfg RunnerConfig,
) *Runner {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &Runner{
		coord:      coord,
		normalizer: normalizer,
		extractor:  extractor,
		idGen:      idGen,
		publisher:  publisher,
		logger:     logger,
		cfg:        cfg,
	}
}

// IngestPages runs the page source to completion and ingests everything it
// emits.
func (r *Runner) IngestPages(ctx context.Context, source article.PageSource) (article.Report, error) {
	var mu sync.Mutex
	var fields []article.Fields
	err := source.Run(ctx, func(page article.RawPage) {
		f := r.extractor.Extract(page)
		mu.Lock()
		fields = append(fields, f)
		mu.Unlock()
	})
	if err != nil {
		return article.Report{}, fmt.Errorf("page source: %w", err)
	}
	return r.IngestFields(ctx, fields)
}

// IngestFields normalizes and writes one run's worth of raw field sets.
//
// Invalid records are skipped, duplicate titles within the run keep only
// their first occurrence, and each batch is written independently so one
// failing batch never aborts the run.
func (r *Runner) IngestFields(ctx context.Context, fields []article.Fields) (article.Report, error) {
	runID, err := r.idGen.NewID()
	if err != nil {
		return article.Report{}, fmt.Errorf("generate run id: %w", err)
	}
	logger := r.logger.With(zap.String("run_id", runID))
	logger.Info("ingestion run started", zap.Int("raw_records", len(fields)))

	report := article.Report{RunID: runID, Processed: len(fields)}

	var records []article.Record
	seen := map[string]bool{}
	for _, f := range fields {
		rec, ok := r.normalizer.Record(f)
		if !ok {
			report.Skipped++
			metrics.RecordsSkipped.WithLabelValues("invalid").Inc()
			continue
		}
		if seen[rec.Title] {
			report.Skipped++
			metrics.RecordsSkipped.WithLabelValues("duplicate").Inc()
			continue
		}
		seen[rec.Title] = true
		records = append(records, rec)
	}

	if r.cfg.Precheck && len(records) > 0 {
		titles := make([]string, 0, len(records))
		for _, rec := range records {
			titles = append(titles, rec.Title)
		}
		existing := r.coord.ExistingTitles(ctx, titles)
		if len(existing) > 0 {
			kept := records[:0]
			for _, rec := range records {
				if existing[rec.Title] {
					report.Skipped++
					metrics.RecordsSkipped.WithLabelValues("duplicate").Inc()
					continue
				}
				kept = append(kept, rec)
			}
			records = kept
		}
	}

	var result article.BatchResult
	for start := 0; start < len(records); start += r.cfg.BatchSize {
		end := start + r.cfg.BatchSize
		if end > len(records) {
			end = len(records)
		}
		batchResult, err := r.coord.UpsertBatch(ctx, records[start:end])
		if err != nil {
			return article.Report{}, fmt.Errorf("batch %d: %w", start/r.cfg.BatchSize, err)
		}
		result.Add(batchResult)
	}

	report.Created = result.Created
	report.Updated = result.Updated
	report.Failed = result.Failed

	logger.Info("ingestion run finished",
		zap.Int("created", report.Created),
		zap.Int("updated", report.Updated),
		zap.Int("errors", report.Failed),
		zap.Int("skipped", report.Skipped))
	for _, detail := range result.ErrorDetails {
		logger.Warn("ingestion error detail", zap.String("detail", detail))
	}

	r.publishReport(ctx, logger, report)
	return report, nil
}

// publishReport sends the run report as a completion event. Best-effort.
func (r *Runner) publishReport(ctx context.Context, logger *zap.Logger, report article.Report) {
	if r.publisher == nil || r.cfg.Topic == "" {
		return
	}
	payload, err := json.Marshal(report)
	if err != nil {
		logger.Warn("marshal run report", zap.Error(err))
		return
	}
	msgID, err := r.publisher.Publish(ctx, r.cfg.Topic, payload)
	if err != nil {
		logger.Warn("publish run report", zap.Error(err))
		return
	}
	logger.Info("run report published",
		zap.String("topic", r.cfg.Topic),
		zap.String("message_id", msgID))
}
