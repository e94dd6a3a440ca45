// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

package sources

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/tomtom215/twangwire/internal/config"
	"github.com/tomtom215/twangwire/internal/logging"
	"github.com/tomtom215/twangwire/internal/models"
)

// ChartAdapter runs the Apify chart scraper actor synchronously and reads the
// resulting dataset items.
type ChartAdapter struct {
	client     *keyedClient
	actorID    string
	maxResults int
}

// NewChartAdapter creates the Apify chart adapter.
func NewChartAdapter(provider config.ProviderConfig, source config.SourceConfig) *ChartAdapter {
	return &ChartAdapter{
		client:     newKeyedClient(config.ProviderApify, provider),
		actorID:    source.ActorID,
		maxResults: source.MaxResults,
	}
}

// Name returns the provider name.
func (a *ChartAdapter) Name() string {
	return config.ProviderApify
}

// Fetch returns the chart entries of the latest actor run. The dataset must be
// a JSON array; an empty array is a valid, empty chart. Params may override
// "max".
func (a *ChartAdapter) Fetch(ctx context.Context, params Params) (*FetchResult, error) {
	maxResults := params.Int("max", a.maxResults)
	path := "/acts/" + url.PathEscape(a.actorID) + "/run-sync-get-dataset-items"

	body, tried, err := a.client.get(ctx, func(key string) string {
		q := url.Values{}
		q.Set("token", key)
		q.Set("format", "json")
		if maxResults > 0 {
			q.Set("limit", strconv.Itoa(maxResults))
		}
		return a.client.http.buildURL(path, q)
	})
	if err != nil {
		return nil, err
	}

	items, err := requireArray(a.Name(), body, "")
	if err != nil {
		return nil, err
	}
	if maxResults > 0 && len(items) > maxResults {
		items = items[:maxResults]
	}

	records := make([]models.NormalizedRecord, 0, len(items))
	for _, item := range items {
		records = append(records, normalizeChartEntry(item))
	}

	meta := models.ProviderMeta{Provider: a.Name(), TotalAvailable: len(items), KeysTried: tried}
	records, meta.Dropped = keepValid(records)
	if meta.Dropped > 0 {
		logging.Ctx(ctx).Warn().Str("provider", a.Name()).Int("dropped", meta.Dropped).Msg("Dropped chart entries without rank, title or artist")
	}
	return &FetchResult{Records: records, Meta: meta}, nil
}

func normalizeChartEntry(item gjson.Result) models.NormalizedRecord {
	rank := firstInt(item, "rank", "position")
	title := firstString(item, "title", "song", "name")
	artist := firstString(item, "artist", "artists")
	chartDate := firstString(item, "chartDate", "chart_date", "week")

	rec := models.NormalizedRecord{
		UniquenessKey: chartKey(chartDate, rank, title, artist),
		Title:         title,
		URL:           firstString(item, "url", "link"),
		ImageURL:      firstString(item, "image", "thumbnail", "imageUrl"),
		PublishedAt:   parseTime(chartDate),
		Fields: map[string]any{
			"rank":           rank,
			"artist":         artist,
			"last_week":      firstInt(item, "lastWeek", "last_week"),
			"peak_position":  firstInt(item, "peakPosition", "peak_position"),
			"weeks_on_chart": firstInt(item, "weeksOnChart", "weeks_on_chart"),
		},
	}
	if chartDate != "" {
		rec.Fields["chart_date"] = chartDate
	}
	return rec
}

// chartKey identifies one chart position: "chartDate#rank" when the dataset
// carries both, otherwise the lower-cased "title|artist" pair.
func chartKey(chartDate string, rank int64, title, artist string) string {
	if chartDate != "" && rank > 0 {
		return chartDate + "#" + strconv.FormatInt(rank, 10)
	}
	title = strings.ToLower(strings.TrimSpace(title))
	artist = strings.ToLower(strings.TrimSpace(artist))
	if title == "" || artist == "" {
		return ""
	}
	return title + "|" + artist
}
