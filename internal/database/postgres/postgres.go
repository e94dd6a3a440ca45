// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

// Package postgres implements the content store on PostgreSQL via pgxpool.
//
// Duplicate keys surface as SQLSTATE 23505 (unique_violation) and are mapped
// onto models.ErrDuplicateKey, so the upsert engine treats them exactly like
// an existence hit.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tomtom215/twangwire/internal/config"
	"github.com/tomtom215/twangwire/internal/database"
	"github.com/tomtom215/twangwire/internal/logging"
	"github.com/tomtom215/twangwire/internal/metrics"
	"github.com/tomtom215/twangwire/internal/models"
)

const uniqueViolation = "23505"

// Store is a PostgreSQL-backed database.Backend.
type Store struct {
	pool         *pgxpool.Pool
	queryTimeout time.Duration
}

var _ database.Backend = (*Store)(nil)

// New connects to PostgreSQL and creates the schema.
func New(ctx context.Context, cfg *config.DatabaseConfig) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database connection string: %w", err)
	}
	if cfg.PostgresMaxConns > 0 {
		poolConfig.MaxConns = cfg.PostgresMaxConns
	}
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection pool: %w", err)
	}

	timeout := cfg.QueryTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	s := &Store{pool: pool, queryTimeout: timeout}

	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	logging.Info().Int32("max_conns", poolConfig.MaxConns).Msg("PostgreSQL store ready")
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	for _, q := range schemaQueries() {
		if _, err := s.pool.Exec(ctx, q); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", q, err)
		}
	}
	return nil
}

func schemaQueries() []string {
	queries := make([]string, 0, len(models.Collections)+3)
	for _, c := range models.Collections {
		queries = append(queries, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %[1]s (
			uniqueness_key TEXT PRIMARY KEY,
			source_id TEXT NOT NULL,
			title TEXT NOT NULL,
			url TEXT NOT NULL,
			image_url TEXT NOT NULL,
			published_at TIMESTAMPTZ,
			fields JSONB NOT NULL DEFAULT '{}'::jsonb,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, c))
	}
	queries = append(queries,
		`CREATE TABLE IF NOT EXISTS sync_history (
			source_id TEXT PRIMARY KEY,
			attempt_id TEXT NOT NULL,
			triggered_by TEXT NOT NULL,
			started_at TIMESTAMPTZ NOT NULL,
			finished_at TIMESTAMPTZ NOT NULL,
			outcome TEXT NOT NULL,
			records_fetched INTEGER NOT NULL,
			records_inserted INTEGER NOT NULL,
			records_skipped INTEGER NOT NULL,
			records_dropped INTEGER NOT NULL,
			records_deleted BIGINT NOT NULL,
			message TEXT NOT NULL,
			error_detail TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sync_attempts (
			attempt_id TEXT PRIMARY KEY,
			source_id TEXT NOT NULL,
			triggered_by TEXT NOT NULL,
			started_at TIMESTAMPTZ NOT NULL,
			finished_at TIMESTAMPTZ NOT NULL,
			outcome TEXT NOT NULL,
			records_fetched INTEGER NOT NULL,
			records_inserted INTEGER NOT NULL,
			records_skipped INTEGER NOT NULL,
			records_dropped INTEGER NOT NULL,
			records_deleted BIGINT NOT NULL,
			message TEXT NOT NULL,
			error_detail TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sync_attempts_source_started ON sync_attempts (source_id, started_at DESC)`,
	)
	return queries
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Ping checks that a connection can be acquired.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
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
	var exists bool
	err := s.pool.QueryRow(ctx,
		fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE uniqueness_key = $1)", collection), key,
	).Scan(&exists)
	metrics.RecordDBQuery("exists", string(collection), time.Since(start), err)
	if err != nil {
		return false, fmt.Errorf("check %s key: %w", collection, err)
	}
	return exists, nil
}

// Insert stores rec. A unique violation yields models.ErrDuplicateKey.
func (s *Store) Insert(ctx context.Context, collection models.Collection, sourceID string, rec models.NormalizedRecord) error {
	if err := database.CheckCollection(collection); err != nil {
		return err
	}
	fields, err := database.EncodeFields(rec.Fields)
	if err != nil {
		return err
	}
	ctx, cancel := s.ensureContext(ctx)
	defer cancel()

	var published *time.Time
	if !rec.PublishedAt.IsZero() {
		t := rec.PublishedAt.UTC()
		published = &t
	}

	start := time.Now()
	_, err = s.pool.Exec(ctx, fmt.Sprintf(`INSERT INTO %s
		(uniqueness_key, source_id, title, url, image_url, published_at, fields, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, now())`, collection),
		rec.UniquenessKey, sourceID, rec.Title, rec.URL, rec.ImageURL, published, fields,
	)
	metrics.RecordDBQuery("insert", string(collection), time.Since(start), err)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", models.ErrDuplicateKey, rec.UniquenessKey)
		}
		return fmt.Errorf("insert into %s: %w", collection, err)
	}
	return nil
}

// DeleteOutsideNewest keeps the newest keep rows of collection by orderBy.
func (s *Store) DeleteOutsideNewest(ctx context.Context, collection models.Collection, keep int, orderBy string) (int64, error) {
	if err := database.CheckRetention(collection, orderBy); err != nil {
		return 0, err
	}
	if keep <= 0 {
		return 0, nil
	}
	ctx, cancel := s.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	tag, err := s.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %[1]s WHERE uniqueness_key NOT IN (
		SELECT uniqueness_key FROM %[1]s
		ORDER BY %[2]s DESC NULLS LAST, uniqueness_key DESC
		LIMIT $1
	)`, collection, orderBy), keep)
	metrics.RecordDBQuery("retention", string(collection), time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("trim %s: %w", collection, err)
	}
	return tag.RowsAffected(), nil
}

// ListEntities returns up to limit entities, newest first.
func (s *Store) ListEntities(ctx context.Context, collection models.Collection, limit int) ([]models.StoredEntity, error) {
	if err := database.CheckCollection(collection); err != nil {
		return nil, err
	}
	ctx, cancel := s.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`SELECT
			uniqueness_key, source_id, title, url, image_url, published_at, fields::text, created_at
		FROM %s
		ORDER BY published_at DESC NULLS LAST, uniqueness_key DESC
		LIMIT $1`, collection), database.ClampLimit(limit))
	if err != nil {
		metrics.RecordDBQuery("list", string(collection), time.Since(start), err)
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}

	entities, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.StoredEntity, error) {
		var (
			e         models.StoredEntity
			published *time.Time
			fields    string
		)
		if err := row.Scan(&e.UniquenessKey, &e.SourceID, &e.Title, &e.URL, &e.ImageURL,
			&published, &fields, &e.CreatedAt); err != nil {
			return e, err
		}
		e.Collection = collection
		if published != nil {
			e.PublishedAt = published.UTC()
		}
		e.CreatedAt = e.CreatedAt.UTC()
		var decodeErr error
		e.Fields, decodeErr = database.DecodeFields(fields)
		return e, decodeErr
	})
	metrics.RecordDBQuery("list", string(collection), time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	return entities, nil
}

// CountEntities returns the row count of collection.
func (s *Store) CountEntities(ctx context.Context, collection models.Collection) (int64, error) {
	if err := database.CheckCollection(collection); err != nil {
		return 0, err
	}
	ctx, cancel := s.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	var n int64
	err := s.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", collection)).Scan(&n)
	metrics.RecordDBQuery("count", string(collection), time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", collection, err)
	}
	return n, nil
}
