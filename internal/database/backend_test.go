// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

package database

import (
	"testing"

	"github.com/tomtom215/twangwire/internal/models"
)

func TestClampLimit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want int
	}{
		{-1, DefaultListLimit},
		{0, DefaultListLimit},
		{10, 10},
		{MaxListLimit, MaxListLimit},
		{MaxListLimit + 1, MaxListLimit},
	}
	for _, tt := range tests {
		if got := ClampLimit(tt.in); got != tt.want {
			t.Errorf("ClampLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestCheckRetention(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		collection models.Collection
		orderBy    string
		wantErr    bool
	}{
		{"videos by published", models.CollectionVideos, models.OrderPublishedAt, false},
		{"news by created", models.CollectionNews, models.OrderCreatedAt, false},
		{"unknown collection", "users", models.OrderPublishedAt, true},
		{"unknown order field", models.CollectionChart, "rank; --", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := CheckRetention(tt.collection, tt.orderBy)
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckRetention() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFieldsRoundTrip(t *testing.T) {
	t.Parallel()

	raw, err := EncodeFields(nil)
	if err != nil || raw != "{}" {
		t.Fatalf("EncodeFields(nil) = %q, %v", raw, err)
	}
	if fields, err := DecodeFields(raw); err != nil || fields != nil {
		t.Errorf("DecodeFields(%q) = %v, %v", raw, fields, err)
	}

	raw, err = EncodeFields(map[string]any{"artist": "Zach Bryan", "rank": 1})
	if err != nil {
		t.Fatalf("EncodeFields() error = %v", err)
	}
	fields, err := DecodeFields(raw)
	if err != nil {
		t.Fatalf("DecodeFields() error = %v", err)
	}
	if fields["artist"] != "Zach Bryan" || fields["rank"] != float64(1) {
		t.Errorf("DecodeFields() = %v", fields)
	}

	if _, err := DecodeFields("{not json"); err == nil {
		t.Error("DecodeFields() accepted invalid JSON")
	}
}
