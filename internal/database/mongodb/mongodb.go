// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

// Package mongodb implements the content store on MongoDB.
//
// Each content collection uses the uniqueness key as its _id, so the
// server's own duplicate key error (E11000) signals an existing record.
// History uses the source ID as _id in sync_history and the attempt ID in
// sync_attempts. The two history writes are not transactional because
// standalone servers do not support multi-document transactions; the latest
// row is written first so a partial failure never leaves it stale.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/tomtom215/twangwire/internal/config"
	"github.com/tomtom215/twangwire/internal/database"
	"github.com/tomtom215/twangwire/internal/logging"
	"github.com/tomtom215/twangwire/internal/metrics"
	"github.com/tomtom215/twangwire/internal/models"
)

const (
	historyCollection  = "sync_history"
	attemptsCollection = "sync_attempts"
)

// Store is a MongoDB-backed database.Backend.
type Store struct {
	client       *mongo.Client
	db           *mongo.Database
	queryTimeout time.Duration
}

var _ database.Backend = (*Store)(nil)

type entityDoc struct {
	Key         string         `bson:"_id"`
	SourceID    string         `bson:"source_id"`
	Title       string         `bson:"title"`
	URL         string         `bson:"url"`
	ImageURL    string         `bson:"image_url"`
	PublishedAt *time.Time     `bson:"published_at,omitempty"`
	Fields      map[string]any `bson:"fields,omitempty"`
	CreatedAt   time.Time      `bson:"created_at"`
}

type attemptDoc struct {
	ID              string    `bson:"_id"`
	AttemptID       string    `bson:"attempt_id"`
	SourceID        string    `bson:"source_id"`
	TriggeredBy     string    `bson:"triggered_by"`
	StartedAt       time.Time `bson:"started_at"`
	FinishedAt      time.Time `bson:"finished_at"`
	Outcome         string    `bson:"outcome"`
	RecordsFetched  int       `bson:"records_fetched"`
	RecordsInserted int       `bson:"records_inserted"`
	RecordsSkipped  int       `bson:"records_skipped"`
	RecordsDropped  int       `bson:"records_dropped"`
	RecordsDeleted  int64     `bson:"records_deleted"`
	Message         string    `bson:"message"`
	ErrorDetail     string    `bson:"error_detail,omitempty"`
}

// New connects to MongoDB, verifies the connection and creates indexes.
func New(ctx context.Context, cfg *config.DatabaseConfig) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	timeout := cfg.QueryTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	s := &Store{
		client:       client,
		db:           client.Database(cfg.MongoDatabase),
		queryTimeout: timeout,
	}

	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	logging.Info().Str("database", cfg.MongoDatabase).Msg("MongoDB store ready")
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	for _, c := range models.Collections {
		_, err := s.db.Collection(string(c)).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys: bson.D{{Key: "published_at", Value: -1}, {Key: "_id", Value: -1}},
		})
		if err != nil {
			return fmt.Errorf("create %s index: %w", c, err)
		}
	}
	_, err := s.db.Collection(attemptsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "source_id", Value: 1}, {Key: "started_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create %s index: %w", attemptsCollection, err)
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Ping checks the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) ensureContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.queryTimeout)
}

// ExistsByKey reports whether collection already holds key.
func (s *Store) ExistsByKey(ctx context.Context, collection models.Collection, key string) (bool, error) {
	if err := database.CheckCollection(collection); err != nil {
		return false, err
	}
	ctx, cancel := s.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	n, err := s.db.Collection(string(collection)).CountDocuments(ctx, bson.M{"_id": key}, options.Count().SetLimit(1))
	metrics.RecordDBQuery("exists", string(collection), time.Since(start), err)
	if err != nil {
		return false, fmt.Errorf("check %s key: %w", collection, err)
	}
	return n > 0, nil
}

// Insert stores rec. An existing _id yields models.ErrDuplicateKey.
func (s *Store) Insert(ctx context.Context, collection models.Collection, sourceID string, rec models.NormalizedRecord) error {
	if err := database.CheckCollection(collection); err != nil {
		return err
	}
	ctx, cancel := s.ensureContext(ctx)
	defer cancel()

	doc := entityDoc{
		Key:       rec.UniquenessKey,
		SourceID:  sourceID,
		Title:     rec.Title,
		URL:       rec.URL,
		ImageURL:  rec.ImageURL,
		Fields:    rec.Fields,
		CreatedAt: time.Now().UTC(),
	}
	if !rec.PublishedAt.IsZero() {
		t := rec.PublishedAt.UTC()
		doc.PublishedAt = &t
	}

	start := time.Now()
	_, err := s.db.Collection(string(collection)).InsertOne(ctx, doc)
	metrics.RecordDBQuery("insert", string(collection), time.Since(start), err)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", models.ErrDuplicateKey, rec.UniquenessKey)
		}
		return fmt.Errorf("insert into %s: %w", collection, err)
	}
	return nil
}

// DeleteOutsideNewest keeps the newest keep documents by orderBy. Documents
// without the field sort last.
func (s *Store) DeleteOutsideNewest(ctx context.Context, collection models.Collection, keep int, orderBy string) (int64, error) {
	if err := database.CheckRetention(collection, orderBy); err != nil {
		return 0, err
	}
	if keep <= 0 {
		return 0, nil
	}
	ctx, cancel := s.ensureContext(ctx)
	defer cancel()

	coll := s.db.Collection(string(collection))
	start := time.Now()

	cur, err := coll.Find(ctx, bson.M{}, options.Find().
		SetSort(bson.D{{Key: orderBy, Value: -1}, {Key: "_id", Value: -1}}).
		SetProjection(bson.M{"_id": 1}).
		SetLimit(int64(keep)))
	if err != nil {
		metrics.RecordDBQuery("retention", string(collection), time.Since(start), err)
		return 0, fmt.Errorf("trim %s: find newest: %w", collection, err)
	}
	var kept []struct {
		Key string `bson:"_id"`
	}
	if err := cur.All(ctx, &kept); err != nil {
		metrics.RecordDBQuery("retention", string(collection), time.Since(start), err)
		return 0, fmt.Errorf("trim %s: decode newest: %w", collection, err)
	}

	keys := make([]string, len(kept))
	for i, k := range kept {
		keys[i] = k.Key
	}

	res, err := coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$nin": keys}})
	metrics.RecordDBQuery("retention", string(collection), time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("trim %s: %w", collection, err)
	}
	return res.DeletedCount, nil
}

// ListEntities returns up to limit entities, newest first.
func (s *Store) ListEntities(ctx context.Context, collection models.Collection, limit int) ([]models.StoredEntity, error) {
	if err := database.CheckCollection(collection); err != nil {
		return nil, err
	}
	ctx, cancel := s.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	cur, err := s.db.Collection(string(collection)).Find(ctx, bson.M{}, options.Find().
		SetSort(bson.D{{Key: models.OrderPublishedAt, Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(database.ClampLimit(limit))))
	if err != nil {
		metrics.RecordDBQuery("list", string(collection), time.Since(start), err)
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	var docs []entityDoc
	err = cur.All(ctx, &docs)
	metrics.RecordDBQuery("list", string(collection), time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}

	entities := make([]models.StoredEntity, 0, len(docs))
	for _, d := range docs {
		e := models.StoredEntity{
			Collection:    collection,
			UniquenessKey: d.Key,
			SourceID:      d.SourceID,
			Title:         d.Title,
			URL:           d.URL,
			ImageURL:      d.ImageURL,
			CreatedAt:     d.CreatedAt.UTC(),
			Fields:        d.Fields,
		}
		if d.PublishedAt != nil {
			e.PublishedAt = d.PublishedAt.UTC()
		}
		entities = append(entities, e)
	}
	return entities, nil
}

// CountEntities returns the document count of collection.
func (s *Store) CountEntities(ctx context.Context, collection models.Collection) (int64, error) {
	if err := database.CheckCollection(collection); err != nil {
		return 0, err
	}
	ctx, cancel := s.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	n, err := s.db.Collection(string(collection)).CountDocuments(ctx, bson.M{})
	metrics.RecordDBQuery("count", string(collection), time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", collection, err)
	}
	return n, nil
}

// UpsertHistory replaces the latest document of the source and appends the
// attempt to the log. A repeated attempt ID is ignored.
func (s *Store) UpsertHistory(ctx context.Context, attempt *models.SyncAttempt) error {
	if attempt == nil || attempt.SourceID == "" || attempt.ID == "" {
		return errors.New("history attempt requires an id and a source id")
	}
	ctx, cancel := s.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	err := s.upsertHistory(ctx, attempt)
	metrics.RecordDBQuery("upsert", historyCollection, time.Since(start), err)
	return err
}

func (s *Store) upsertHistory(ctx context.Context, a *models.SyncAttempt) error {
	latest := toAttemptDoc(a, a.SourceID)
	_, err := s.db.Collection(historyCollection).ReplaceOne(ctx,
		bson.M{"_id": a.SourceID}, latest, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert %s: %w", historyCollection, err)
	}

	_, err = s.db.Collection(attemptsCollection).InsertOne(ctx, toAttemptDoc(a, a.ID))
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("append %s: %w", attemptsCollection, err)
	}
	return nil
}

func toAttemptDoc(a *models.SyncAttempt, id string) attemptDoc {
	finished := a.FinishedAt
	if finished.IsZero() {
		finished = a.StartedAt
	}
	return attemptDoc{
		ID:              id,
		AttemptID:       a.ID,
		SourceID:        a.SourceID,
		TriggeredBy:     string(a.TriggeredBy),
		StartedAt:       a.StartedAt.UTC(),
		FinishedAt:      finished.UTC(),
		Outcome:         string(a.Outcome),
		RecordsFetched:  a.RecordsFetched,
		RecordsInserted: a.RecordsInserted,
		RecordsSkipped:  a.RecordsSkipped,
		RecordsDropped:  a.RecordsDropped,
		RecordsDeleted:  a.RecordsDeleted,
		Message:         a.Message,
		ErrorDetail:     a.ErrorDetail,
	}
}

func (d attemptDoc) toModel() models.SyncAttempt {
	return models.SyncAttempt{
		ID:              d.AttemptID,
		SourceID:        d.SourceID,
		TriggeredBy:     models.Trigger(d.TriggeredBy),
		StartedAt:       d.StartedAt.UTC(),
		FinishedAt:      d.FinishedAt.UTC(),
		Outcome:         models.Outcome(d.Outcome),
		RecordsFetched:  d.RecordsFetched,
		RecordsInserted: d.RecordsInserted,
		RecordsSkipped:  d.RecordsSkipped,
		RecordsDropped:  d.RecordsDropped,
		RecordsDeleted:  d.RecordsDeleted,
		Message:         d.Message,
		ErrorDetail:     d.ErrorDetail,
	}
}

// LatestHistory returns the latest attempt per source ordered by source ID.
func (s *Store) LatestHistory(ctx context.Context) ([]models.SyncAttempt, error) {
	ctx, cancel := s.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	attempts, err := s.findAttempts(ctx, historyCollection, bson.M{},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	metrics.RecordDBQuery("select", historyCollection, time.Since(start), err)
	return attempts, err
}

// AttemptLog returns up to limit attempts of sourceID, newest first.
func (s *Store) AttemptLog(ctx context.Context, sourceID string, limit int) ([]models.SyncAttempt, error) {
	ctx, cancel := s.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	attempts, err := s.findAttempts(ctx, attemptsCollection, bson.M{"source_id": sourceID},
		options.Find().
			SetSort(bson.D{{Key: "started_at", Value: -1}, {Key: "_id", Value: -1}}).
			SetLimit(int64(database.ClampLimit(limit))))
	metrics.RecordDBQuery("select", attemptsCollection, time.Since(start), err)
	return attempts, err
}

func (s *Store) findAttempts(ctx context.Context, collection string, filter bson.M, opts *options.FindOptions) ([]models.SyncAttempt, error) {
	cur, err := s.db.Collection(collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	var docs []attemptDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", collection, err)
	}
	attempts := make([]models.SyncAttempt, 0, len(docs))
	for _, d := range docs {
		attempts = append(attempts, d.toModel())
	}
	return attempts, nil
}
