package article

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Catalog lookups for unknown document ids.
var ErrNotFound = errors.New("article not found")

// Store is the document store's write surface. UpsertBatch issues one
// combined write; the returned outcomes correspond positionally to items.
// A non-nil error means the call failed wholesale (connectivity class),
// not that individual items failed.
type Store interface {
	UpsertBatch(ctx context.Context, items []BatchItem) ([]ItemOutcome, error)
	ExistsByTitle(ctx context.Context, title string) (bool, error)
	Close(ctx context.Context) error
}

// Catalog is the read surface used by the API. Store providers may
// optionally implement it.
type Catalog interface {
	GetArticle(ctx context.Context, id string) (Record, error)
	ListArticles(ctx context.Context, limit, offset int) ([]Record, int, error)
	SearchArticles(ctx context.Context, q SearchQuery) ([]Record, int, error)
	DeleteArticle(ctx context.Context, id string) error
	Stats(ctx context.Context) (CorpusStats, error)
}

// PageSource yields raw pages. No ordering contract beyond "each page is
// independently processable".
type PageSource interface {
	Run(ctx context.Context, emit func(RawPage)) error
}

// Publisher pushes completion events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
