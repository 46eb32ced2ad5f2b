// Package ingest coordinates normalization, identity resolution and batch
// writes into the article store.
package ingest

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/newsmill/blog-ingest/internal/article"
	"github.com/newsmill/blog-ingest/internal/identity"
	"github.com/newsmill/blog-ingest/internal/metrics"
)

// ErrInvalidBatch is returned when a submitted batch contains a record that
// cannot be identified. The whole batch is rejected; nothing is written.
var ErrInvalidBatch = errors.New("invalid batch")

// retryProbeSize bounds how many items are retried individually after a
// wholesale batch failure. The probe diagnoses whether the failure is
// systemic or item-specific without hammering a struggling store.
const retryProbeSize = 3

// Coordinator turns validated records into store batches and folds the
// store's per-item outcomes into a BatchResult.
type Coordinator struct {
	store    article.Store
	resolver *identity.Resolver
	logger   *zap.Logger
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(store article.Store, resolver *identity.Resolver, logger *zap.Logger) *Coordinator {
	return &Coordinator{store: store, resolver: resolver, logger: logger}
}

// UpsertBatch validates, identifies and writes one batch of records.
//
// Validation is all-or-nothing: a single record without a title fails the
// whole batch with ErrInvalidBatch. A wholesale store failure is absorbed
// by retrying a small prefix individually; the returned result then counts
// the un-probed remainder as failed.
func (c *Coordinator) UpsertBatch(ctx context.Context, records []article.Record) (article.BatchResult, error) {
	if len(records) == 0 {
		return article.BatchResult{}, nil
	}

	items := make([]article.BatchItem, 0, len(records))
	for i, rec := range records {
		if rec.Title == "" {
			return article.BatchResult{}, fmt.Errorf("%w: record %d has no title", ErrInvalidBatch, i)
		}
		rec.ID = c.resolver.Resolve(rec.Title)
		items = append(items, article.BatchItem{ID: rec.ID, Record: rec})
	}

	outcomes, err := c.store.UpsertBatch(ctx, items)
	if err != nil {
		metrics.BatchesTotal.WithLabelValues("failed").Inc()
		c.logger.Error("batch upsert failed wholesale, probing prefix",
			zap.Int("batch_size", len(items)),
			zap.Error(err))
		return c.retryPrefix(ctx, items, err), nil
	}

	metrics.BatchesTotal.WithLabelValues("ok").Inc()
	var result article.BatchResult
	for _, out := range outcomes {
		tally(&result, out)
	}
	return result, nil
}

// retryPrefix retries the first few items one at a time after a wholesale
// failure. Everything beyond the probe is counted as failed.
func (c *Coordinator) retryPrefix(ctx context.Context, items []article.BatchItem, cause error) article.BatchResult {
	metrics.BatchesTotal.WithLabelValues("retried").Inc()

	probe := retryProbeSize
	if probe > len(items) {
		probe = len(items)
	}

	var result article.BatchResult
	for _, item := range items[:probe] {
		outcomes, err := c.store.UpsertBatch(ctx, []article.BatchItem{item})
		if err != nil || len(outcomes) != 1 {
			c.logger.Error("individual retry failed",
				zap.String("id", item.ID),
				zap.String("title", item.Record.Title),
				zap.Error(err))
			tally(&result, article.ItemOutcome{
				ID:     item.ID,
				Kind:   article.OutcomeFailed,
				Detail: fmt.Sprintf("retry %s: %v", item.ID, err),
			})
			continue
		}
		c.logger.Info("individual retry succeeded",
			zap.String("id", item.ID),
			zap.String("outcome", string(outcomes[0].Kind)))
		tally(&result, outcomes[0])
	}

	rest := len(items) - probe
	if rest > 0 {
		result.Failed += rest
		metrics.RecordsTotal.WithLabelValues(string(article.OutcomeFailed)).Add(float64(rest))
		if len(result.ErrorDetails) < article.MaxErrorDetails {
			result.ErrorDetails = append(result.ErrorDetails,
				fmt.Sprintf("%d items not retried after wholesale failure: %v", rest, cause))
		}
	}
	return result
}

func tally(result *article.BatchResult, out article.ItemOutcome) {
	metrics.RecordsTotal.WithLabelValues(string(out.Kind)).Inc()
	switch out.Kind {
	case article.OutcomeCreated:
		result.Created++
	case article.OutcomeUpdated:
		result.Updated++
	default:
		result.Failed++
		if out.Detail != "" && len(result.ErrorDetails) < article.MaxErrorDetails {
			result.ErrorDetails = append(result.ErrorDetails, out.Detail)
		}
	}
}
