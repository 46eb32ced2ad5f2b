// Package mongo provides a MongoDB-backed article store.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/newsmill/blog-ingest/internal/article"
)

// Config controls the Mongo client and target collection.
type Config struct {
	URI        string
	Database   string
	Collection string
}

// Store implements article.Store and article.Catalog over MongoDB.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// New connects a client and pings the deployment.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongo uri is required")
	}
	db := cfg.Database
	if db == "" {
		db = "articles"
	}
	coll := cfg.Collection
	if coll == "" {
		coll = "articles"
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &Store{client: client, coll: client.Database(db).Collection(coll)}, nil
}

type document struct {
	article.Record `bson:",inline"`
	DocID          string `bson:"_id"`
}

// UpsertBatch replaces-or-inserts every item in one unordered bulk write.
func (s *Store) UpsertBatch(ctx context.Context, items []article.BatchItem) ([]article.ItemOutcome, error) {
	if len(items) == 0 {
		return nil, nil
	}

	models := make([]mongo.WriteModel, 0, len(items))
	for _, item := range items {
		doc := document{Record: item.Record, DocID: item.ID}
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": item.ID}).
			SetReplacement(doc).
			SetUpsert(true))
	}

	res, err := s.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))

	failedIdx := map[int]string{}
	if err != nil {
		var bulkErr mongo.BulkWriteException
		if !errors.As(err, &bulkErr) {
			return nil, fmt.Errorf("bulk write: %w", err)
		}
		for _, we := range bulkErr.WriteErrors {
			failedIdx[we.Index] = we.Message
		}
	}

	outcomes := make([]article.ItemOutcome, 0, len(items))
	for i, item := range items {
		if msg, ok := failedIdx[i]; ok {
			outcomes = append(outcomes, article.ItemOutcome{
				ID:     item.ID,
				Kind:   article.OutcomeFailed,
				Detail: msg,
			})
			continue
		}
		kind := article.OutcomeUpdated
		if res != nil {
			if _, created := res.UpsertedIDs[int64(i)]; created {
				kind = article.OutcomeCreated
			}
		}
		outcomes = append(outcomes, article.ItemOutcome{ID: item.ID, Kind: kind})
	}
	return outcomes, nil
}

// ExistsByTitle reports whether any stored document carries the exact title.
func (s *Store) ExistsByTitle(ctx context.Context, title string) (bool, error) {
	count, err := s.coll.CountDocuments(ctx, bson.M{"article_title": title},
		options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("exists by title: %w", err)
	}
	return count > 0, nil
}

// GetArticle fetches one document by id.
func (s *Store) GetArticle(ctx context.Context, id string) (article.Record, error) {
	var doc document
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return article.Record{}, article.ErrNotFound
	}
	if err != nil {
		return article.Record{}, fmt.Errorf("get article: %w", err)
	}
	return doc.Record, nil
}

// ListArticles returns a page of documents, newest ingested first.
func (s *Store) ListArticles(ctx context.Context, limit, offset int) ([]article.Record, int, error) {
	return s.find(ctx, bson.M{}, limit, offset)
}

// SearchArticles filters documents by the populated query fields.
func (s *Store) SearchArticles(ctx context.Context, q article.SearchQuery) ([]article.Record, int, error) {
	filter := bson.M{}
	if q.Text != "" {
		pattern := bson.M{"$regex": q.Text, "$options": "i"}
		filter["$or"] = bson.A{
			bson.M{"article_title": pattern},
			bson.M{"article": pattern},
		}
	}
	if q.Author != "" {
		filter["author"] = bson.M{"$regex": q.Author, "$options": "i"}
	}
	if q.Topic != "" {
		filter["topics"] = bson.M{"$regex": q.Topic, "$options": "i"}
	}
	if q.Section != "" {
		filter["source_section"] = q.Section
	}
	published := bson.M{}
	if q.From != nil {
		published["$gte"] = *q.From
	}
	if q.To != nil {
		published["$lte"] = *q.To
	}
	if len(published) > 0 {
		filter["published"] = published
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	return s.find(ctx, filter, limit, q.Offset)
}

func (s *Store) find(ctx context.Context, filter bson.M, limit, offset int) ([]article.Record, int, error) {
	total, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count articles: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "ingested_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))
	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find articles: %w", err)
	}
	defer cursor.Close(ctx) //nolint:errcheck // read errors surface via cursor.All

	var docs []document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode articles: %w", err)
	}
	records := make([]article.Record, 0, len(docs))
	for _, doc := range docs {
		records = append(records, doc.Record)
	}
	return records, int(total), nil
}

// DeleteArticle removes one document by id.
func (s *Store) DeleteArticle(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	if res.DeletedCount == 0 {
		return article.ErrNotFound
	}
	return nil
}

// Stats summarizes the stored corpus.
func (s *Store) Stats(ctx context.Context) (article.CorpusStats, error) {
	stats := article.CorpusStats{Sections: map[string]int{}}

	total, err := s.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return article.CorpusStats{}, fmt.Errorf("count articles: %w", err)
	}
	stats.Articles = int(total)

	authors, err := s.coll.Distinct(ctx, "author", bson.M{})
	if err != nil {
		return article.CorpusStats{}, fmt.Errorf("distinct authors: %w", err)
	}
	stats.Authors = len(authors)

	cursor, err := s.coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$source_section", "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return article.CorpusStats{}, fmt.Errorf("section counts: %w", err)
	}
	defer cursor.Close(ctx) //nolint:errcheck // read errors surface via cursor.All

	var groups []struct {
		Section string `bson:"_id"`
		Count   int    `bson:"count"`
	}
	if err := cursor.All(ctx, &groups); err != nil {
		return article.CorpusStats{}, fmt.Errorf("decode section counts: %w", err)
	}
	for _, g := range groups {
		stats.Sections[g.Section] = g.Count
	}
	return stats, nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect mongo: %w", err)
	}
	return nil
}
