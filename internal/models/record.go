// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

package models

import "time"

// Collection names a durable content collection.
type Collection string

const (
	CollectionVideos Collection = "videos"
	CollectionChart  Collection = "chart_entries"
	CollectionNews   Collection = "news_articles"
)

// Collections lists every content collection in display order.
var Collections = []Collection{CollectionVideos, CollectionChart, CollectionNews}

// Valid reports whether c names a known collection.
func (c Collection) Valid() bool {
	switch c {
	case CollectionVideos, CollectionChart, CollectionNews:
		return true
	default:
		return false
	}
}

// Order fields accepted by retention and listing.
const (
	OrderPublishedAt = "published_at"
	OrderCreatedAt   = "created_at"
)

// ValidOrderField reports whether field can be used to order a collection.
func ValidOrderField(field string) bool {
	return field == OrderPublishedAt || field == OrderCreatedAt
}

// NormalizedRecord is the provider-agnostic shape a source adapter emits.
// It only lives for the duration of one sync attempt.
type NormalizedRecord struct {
	UniquenessKey string
	Title         string
	URL           string
	ImageURL      string
	PublishedAt   time.Time
	// Fields holds the source-specific payload (description, artist, rank, ...).
	Fields map[string]any
}

// StoredEntity is a durable row in a content collection.
type StoredEntity struct {
	Collection    Collection     `json:"collection"`
	UniquenessKey string         `json:"uniqueness_key"`
	SourceID      string         `json:"source_id"`
	Title         string         `json:"title"`
	URL           string         `json:"url"`
	ImageURL      string         `json:"image_url,omitempty"`
	PublishedAt   time.Time      `json:"published_at"`
	CreatedAt     time.Time      `json:"created_at"`
	Fields        map[string]any `json:"fields,omitempty"`
}

// ProviderMeta describes one adapter fetch beyond the records themselves.
type ProviderMeta struct {
	Provider string `json:"provider"`
	// TotalAvailable is the upstream's own result count when it reports one.
	TotalAvailable int `json:"total_available"`
	// KeysTried counts credential attempts across all calls of the fetch.
	KeysTried int `json:"keys_tried"`
	// Dropped counts records discarded for lacking a uniqueness key.
	Dropped int `json:"dropped"`
}
