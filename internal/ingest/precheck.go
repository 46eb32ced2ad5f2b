package ingest

import (
	"context"

	"go.uber.org/zap"
)

// ExistingTitles reports which of the given titles are already stored.
// The check is best-effort: a store error logs a warning and treats the
// title as new, so a flaky store never blocks ingestion.
func (c *Coordinator) ExistingTitles(ctx context.Context, titles []string) map[string]bool {
	existing := make(map[string]bool, len(titles))
	for _, title := range titles {
		ok, err := c.store.ExistsByTitle(ctx, title)
		if err != nil {
			c.logger.Warn("duplicate pre-check failed, treating title as new",
				zap.String("title", title),
				zap.Error(err))
			continue
		}
		if ok {
			existing[title] = true
		}
	}
	return existing
}
