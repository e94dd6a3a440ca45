// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

package sources

import (
	"context"
	"net/url"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/tomtom215/twangwire/internal/config"
	"github.com/tomtom215/twangwire/internal/logging"
	"github.com/tomtom215/twangwire/internal/models"
)

const defaultNewsResults = 10

// NewsAdapter searches GNews for country music articles.
type NewsAdapter struct {
	client     *keyedClient
	query      string
	lang       string
	country    string
	maxResults int
}

// NewNewsAdapter creates the GNews adapter.
func NewNewsAdapter(provider config.ProviderConfig, source config.SourceConfig) *NewsAdapter {
	maxResults := source.MaxResults
	if maxResults <= 0 {
		maxResults = defaultNewsResults
	}
	return &NewsAdapter{
		client:     newKeyedClient(config.ProviderGNews, provider),
		query:      source.Query,
		lang:       source.Lang,
		country:    source.Country,
		maxResults: maxResults,
	}
}

// Name returns the provider name.
func (a *NewsAdapter) Name() string {
	return config.ProviderGNews
}

// Fetch runs one search. Params may override "query", "lang", "country" and
// "max". Articles are keyed by their canonical URL.
func (a *NewsAdapter) Fetch(ctx context.Context, params Params) (*FetchResult, error) {
	query := params.String("query", a.query)
	lang := params.String("lang", a.lang)
	country := params.String("country", a.country)
	maxResults := min(params.Int("max", a.maxResults), 100)

	body, tried, err := a.client.get(ctx, func(key string) string {
		q := url.Values{}
		q.Set("q", query)
		if lang != "" {
			q.Set("lang", lang)
		}
		if country != "" {
			q.Set("country", country)
		}
		q.Set("max", strconv.Itoa(maxResults))
		q.Set("apikey", key)
		return a.client.http.buildURL("/search", q)
	})
	if err != nil {
		return nil, err
	}

	articles, err := requireArray(a.Name(), body, "articles")
	if err != nil {
		return nil, err
	}

	records := make([]models.NormalizedRecord, 0, len(articles))
	for _, article := range articles {
		records = append(records, normalizeArticle(article))
	}

	meta := models.ProviderMeta{
		Provider:       a.Name(),
		TotalAvailable: int(gjson.GetBytes(body, "totalArticles").Int()),
		KeysTried:      tried,
	}
	records, meta.Dropped = keepValid(records)
	if meta.Dropped > 0 {
		logging.Ctx(ctx).Warn().Str("provider", a.Name()).Int("dropped", meta.Dropped).Msg("Dropped articles without a usable URL")
	}
	return &FetchResult{Records: records, Meta: meta}, nil
}

func normalizeArticle(article gjson.Result) models.NormalizedRecord {
	rawURL := article.Get("url").String()
	return models.NormalizedRecord{
		UniquenessKey: canonicalURL(rawURL),
		Title:         article.Get("title").String(),
		URL:           rawURL,
		ImageURL:      article.Get("image").String(),
		PublishedAt:   parseTime(article.Get("publishedAt").String()),
		Fields: map[string]any{
			"description": article.Get("description").String(),
			"content":     article.Get("content").String(),
			"source_name": article.Get("source.name").String(),
			"source_url":  article.Get("source.url").String(),
		},
	}
}
