// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomtom215/twangwire/internal/metrics"
	"github.com/tomtom215/twangwire/internal/models"
)

// ExistsByKey reports whether collection already holds key.
func (db *DB) ExistsByKey(ctx context.Context, collection models.Collection, key string) (bool, error) {
	if err := CheckCollection(collection); err != nil {
		return false, err
	}
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	query := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE uniqueness_key = ?)", collection)

	var exists bool
	err := db.conn.QueryRowContext(ctx, query, key).Scan(&exists)
	metrics.RecordDBQuery("exists", string(collection), time.Since(start), err)
	if err != nil {
		return false, fmt.Errorf("check %s key: %w", collection, err)
	}
	return exists, nil
}

// Insert stores rec in collection. A key that is already present yields an
// error wrapping models.ErrDuplicateKey.
func (db *DB) Insert(ctx context.Context, collection models.Collection, sourceID string, rec models.NormalizedRecord) error {
	if err := CheckCollection(collection); err != nil {
		return err
	}
	fields, err := EncodeFields(rec.Fields)
	if err != nil {
		return err
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	query := fmt.Sprintf(`INSERT INTO %s (
		uniqueness_key, source_id, title, url, image_url, published_at, fields, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, collection)

	_, err = db.conn.ExecContext(ctx, query,
		rec.UniquenessKey, sourceID, rec.Title, rec.URL, rec.ImageURL,
		nullableTime(rec.PublishedAt), fields, db.now(),
	)
	metrics.RecordDBQuery("insert", string(collection), time.Since(start), err)
	if err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("%w: %s", models.ErrDuplicateKey, rec.UniquenessKey)
		}
		return fmt.Errorf("insert into %s: %w", collection, err)
	}
	return nil
}

// DeleteOutsideNewest keeps the newest keep entities of collection by
// orderBy and deletes the rest. Rows without a value for orderBy sort last;
// ties break on the uniqueness key so the surviving set is deterministic.
func (db *DB) DeleteOutsideNewest(ctx context.Context, collection models.Collection, keep int, orderBy string) (int64, error) {
	if err := CheckRetention(collection, orderBy); err != nil {
		return 0, err
	}
	if keep <= 0 {
		return 0, nil
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	query := fmt.Sprintf(`DELETE FROM %[1]s WHERE uniqueness_key NOT IN (
		SELECT uniqueness_key FROM %[1]s
		ORDER BY %[2]s DESC NULLS LAST, uniqueness_key DESC
		LIMIT ?
	)`, collection, orderBy)

	res, err := db.conn.ExecContext(ctx, query, keep)
	metrics.RecordDBQuery("retention", string(collection), time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("trim %s: %w", collection, err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("trim %s: rows affected: %w", collection, err)
	}
	return deleted, nil
}

// ListEntities returns up to limit entities of collection, newest first.
func (db *DB) ListEntities(ctx context.Context, collection models.Collection, limit int) ([]models.StoredEntity, error) {
	if err := CheckCollection(collection); err != nil {
		return nil, err
	}
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	query := fmt.Sprintf(`SELECT uniqueness_key, source_id, title, url, image_url, published_at, fields, created_at
		FROM %s
		ORDER BY published_at DESC NULLS LAST, uniqueness_key DESC
		LIMIT ?`, collection)

	rows, err := db.conn.QueryContext(ctx, query, ClampLimit(limit))
	if err != nil {
		metrics.RecordDBQuery("list", string(collection), time.Since(start), err)
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	defer closeWithLog(rows, "rows")

	entities := make([]models.StoredEntity, 0)
	for rows.Next() {
		var (
			e         models.StoredEntity
			published sql.NullTime
			fields    string
		)
		if err := rows.Scan(&e.UniquenessKey, &e.SourceID, &e.Title, &e.URL, &e.ImageURL,
			&published, &fields, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan %s: %w", collection, err)
		}
		e.Collection = collection
		if published.Valid {
			e.PublishedAt = published.Time.UTC()
		}
		e.CreatedAt = e.CreatedAt.UTC()
		if e.Fields, err = DecodeFields(fields); err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	err = rows.Err()
	metrics.RecordDBQuery("list", string(collection), time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	return entities, nil
}

// CountEntities returns the number of entities in collection.
func (db *DB) CountEntities(ctx context.Context, collection models.Collection) (int64, error) {
	if err := CheckCollection(collection); err != nil {
		return 0, err
	}
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	var n int64
	err := db.conn.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", collection)).Scan(&n)
	metrics.RecordDBQuery("count", string(collection), time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", collection, err)
	}
	return n, nil
}

// nullableTime maps the zero time onto SQL NULL.
func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}
