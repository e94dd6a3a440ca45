// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

package sources

import (
	"context"
	"strconv"
	"strings"

	"github.com/tomtom215/twangwire/internal/models"
)

// Params carries per-request overrides from the trigger body (e.g. "query",
// "max"). Adapters ignore keys they do not understand.
type Params map[string]string

// Int returns the positive integer stored under key, or def.
func (p Params) Int(key string, def int) int {
	v, ok := p[key]
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// String returns the trimmed value stored under key, or def when blank.
func (p Params) String(key, def string) string {
	if v := strings.TrimSpace(p[key]); v != "" {
		return v
	}
	return def
}

// FetchResult is the outcome of one successful adapter fetch.
type FetchResult struct {
	Records []models.NormalizedRecord
	Meta    models.ProviderMeta
}

// Adapter fetches and normalizes records from one external provider.
type Adapter interface {
	// Name returns the provider name used in logs, metrics and errors.
	Name() string
	// Fetch returns normalized records. It fails with *models.ProviderError,
	// *models.FormatError or *models.ExhaustedCredentialsError.
	Fetch(ctx context.Context, params Params) (*FetchResult, error)
}

// keepValid trims uniqueness keys, drops records whose key is empty and
// returns the kept records and the number dropped.
func keepValid(records []models.NormalizedRecord) ([]models.NormalizedRecord, int) {
	kept := records[:0]
	dropped := 0
	for _, r := range records {
		r.UniquenessKey = strings.TrimSpace(r.UniquenessKey)
		if r.UniquenessKey == "" {
			dropped++
			continue
		}
		kept = append(kept, r)
	}
	return kept, dropped
}
