// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

package database

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tomtom215/twangwire/internal/models"
)

// Backend is the full storage surface shared by the DuckDB, PostgreSQL and
// MongoDB stores.
type Backend interface {
	ExistsByKey(ctx context.Context, collection models.Collection, key string) (bool, error)
	Insert(ctx context.Context, collection models.Collection, sourceID string, rec models.NormalizedRecord) error
	DeleteOutsideNewest(ctx context.Context, collection models.Collection, keep int, orderBy string) (int64, error)
	UpsertHistory(ctx context.Context, attempt *models.SyncAttempt) error

	LatestHistory(ctx context.Context) ([]models.SyncAttempt, error)
	AttemptLog(ctx context.Context, sourceID string, limit int) ([]models.SyncAttempt, error)
	ListEntities(ctx context.Context, collection models.Collection, limit int) ([]models.StoredEntity, error)
	CountEntities(ctx context.Context, collection models.Collection) (int64, error)

	Ping(ctx context.Context) error
	Close() error
}

// Listing limits applied when a caller passes zero or an oversized value.
const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// ClampLimit normalizes a caller-supplied listing limit.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

// CheckCollection rejects collection names outside the closed set. Table
// names are interpolated into SQL, so every store calls this first.
func CheckCollection(collection models.Collection) error {
	if !collection.Valid() {
		return fmt.Errorf("unknown collection %q", collection)
	}
	return nil
}

// CheckRetention validates the target of a retention sweep.
func CheckRetention(collection models.Collection, orderBy string) error {
	if err := CheckCollection(collection); err != nil {
		return err
	}
	if !models.ValidOrderField(orderBy) {
		return fmt.Errorf("invalid order field %q", orderBy)
	}
	return nil
}

// EncodeFields serializes the source-specific payload of a record.
func EncodeFields(fields map[string]any) (string, error) {
	if len(fields) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("encode fields: %w", err)
	}
	return string(b), nil
}

// DecodeFields is the inverse of EncodeFields. Empty input yields nil.
func DecodeFields(raw string) (map[string]any, error) {
	if raw == "" || raw == "{}" {
		return nil, nil
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	return fields, nil
}
