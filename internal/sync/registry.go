// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

package sync

import (
	"fmt"

	"github.com/tomtom215/twangwire/internal/config"
	"github.com/tomtom215/twangwire/internal/models"
	"github.com/tomtom215/twangwire/internal/sources"
)

// Source binds one source ID to everything an attempt needs.
type Source struct {
	Policy     models.SyncPolicy
	Adapter    sources.Adapter
	Collection models.Collection
	// OrderField is the timestamp column retention orders by.
	OrderField string
}

// Registry maps source IDs to sources. It is built once at startup and
// read-only afterwards.
type Registry struct {
	sources map[string]*Source
	order   []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: make(map[string]*Source)}
}

// Register adds src under src.Policy.SourceID.
func (r *Registry) Register(src Source) error {
	id := src.Policy.SourceID
	if id == "" {
		return fmt.Errorf("register source: empty source id")
	}
	if _, exists := r.sources[id]; exists {
		return fmt.Errorf("register source %s: already registered", id)
	}
	if src.Adapter == nil {
		return fmt.Errorf("register source %s: nil adapter", id)
	}
	if !src.Collection.Valid() {
		return fmt.Errorf("register source %s: unknown collection %q", id, src.Collection)
	}
	if src.OrderField == "" {
		src.OrderField = models.OrderPublishedAt
	}
	if !models.ValidOrderField(src.OrderField) {
		return fmt.Errorf("register source %s: unknown order field %q", id, src.OrderField)
	}

	r.sources[id] = &src
	r.order = append(r.order, id)
	return nil
}

// Get returns the source registered under id.
func (r *Registry) Get(id string) (*Source, error) {
	src, ok := r.sources[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownSource, id)
	}
	return src, nil
}

// IDs returns the registered source IDs in registration order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// CollectionFor returns the collection a source writes to.
func CollectionFor(sourceID string) (models.Collection, bool) {
	switch sourceID {
	case models.SourceVideos:
		return models.CollectionVideos, true
	case models.SourceChart:
		return models.CollectionChart, true
	case models.SourceNews:
		return models.CollectionNews, true
	default:
		return "", false
	}
}

// NewRegistryFromConfig registers every enabled source of cfg.
func NewRegistryFromConfig(cfg *config.Config) (*Registry, error) {
	r := NewRegistry()
	for _, id := range config.SourceIDs() {
		srcCfg, _ := cfg.Source(id)
		if !srcCfg.Enabled {
			continue
		}

		policy, err := cfg.SyncPolicy(id)
		if err != nil {
			return nil, err
		}
		adapter, err := sources.New(cfg, id)
		if err != nil {
			return nil, err
		}
		collection, _ := CollectionFor(id)

		if err := r.Register(Source{
			Policy:     policy,
			Adapter:    adapter,
			Collection: collection,
			OrderField: models.OrderPublishedAt,
		}); err != nil {
			return nil, err
		}
	}
	return r, nil
}
