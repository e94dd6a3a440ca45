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

const (
	defaultVideoResults = 25
	youtubeWatchURL     = "https://www.youtube.com/watch?v="
)

// VideosAdapter pulls the latest uploads of the configured YouTube channels.
//
// For every channel it looks up the channel metadata (title and avatar) and
// then searches the channel's newest videos. Both calls rotate through the
// credential pool, since YouTube quotas are per key.
type VideosAdapter struct {
	client     *keyedClient
	channelIDs []string
	maxResults int
}

// NewVideosAdapter creates the YouTube adapter.
func NewVideosAdapter(provider config.ProviderConfig, source config.SourceConfig) *VideosAdapter {
	maxResults := source.MaxResults
	if maxResults <= 0 {
		maxResults = defaultVideoResults
	}
	ids := make([]string, len(source.ChannelIDs))
	copy(ids, source.ChannelIDs)
	return &VideosAdapter{
		client:     newKeyedClient(config.ProviderYouTube, provider),
		channelIDs: ids,
		maxResults: maxResults,
	}
}

// Name returns the provider name.
func (a *VideosAdapter) Name() string {
	return config.ProviderYouTube
}

// channelInfo is the subset of channel metadata copied onto every video.
type channelInfo struct {
	title     string
	thumbnail string
}

// Fetch returns the newest videos of every channel. Params may override
// "channel_id" (one channel only) and "max" (results per channel, max 50).
func (a *VideosAdapter) Fetch(ctx context.Context, params Params) (*FetchResult, error) {
	channels := a.channelIDs
	if id := params.String("channel_id", ""); id != "" {
		channels = []string{id}
	}
	maxResults := min(params.Int("max", a.maxResults), 50)

	meta := models.ProviderMeta{Provider: a.Name()}
	var records []models.NormalizedRecord

	for _, channelID := range channels {
		info, tried, err := a.channel(ctx, channelID)
		meta.KeysTried += tried
		if err != nil {
			return nil, err
		}

		recs, total, tried, err := a.search(ctx, channelID, maxResults, info)
		meta.KeysTried += tried
		if err != nil {
			return nil, err
		}
		meta.TotalAvailable += total
		records = append(records, recs...)
	}

	records, meta.Dropped = keepValid(records)
	if meta.Dropped > 0 {
		logging.Ctx(ctx).Warn().Str("provider", a.Name()).Int("dropped", meta.Dropped).Msg("Dropped videos without an id")
	}
	return &FetchResult{Records: records, Meta: meta}, nil
}

func (a *VideosAdapter) channel(ctx context.Context, channelID string) (channelInfo, int, error) {
	body, tried, err := a.client.get(ctx, func(key string) string {
		q := url.Values{}
		q.Set("part", "snippet")
		q.Set("id", channelID)
		q.Set("key", key)
		return a.client.http.buildURL("/channels", q)
	})
	if err != nil {
		return channelInfo{}, tried, err
	}

	items, err := requireArray(a.Name(), body, "items")
	if err != nil {
		return channelInfo{}, tried, err
	}
	if len(items) == 0 {
		logging.Ctx(ctx).Warn().Str("channel_id", channelID).Msg("YouTube channel not found")
		return channelInfo{}, tried, nil
	}

	snippet := items[0].Get("snippet")
	return channelInfo{
		title:     snippet.Get("title").String(),
		thumbnail: firstString(snippet, "thumbnails.high.url", "thumbnails.medium.url", "thumbnails.default.url"),
	}, tried, nil
}

func (a *VideosAdapter) search(ctx context.Context, channelID string, maxResults int, info channelInfo) ([]models.NormalizedRecord, int, int, error) {
	body, tried, err := a.client.get(ctx, func(key string) string {
		q := url.Values{}
		q.Set("part", "snippet")
		q.Set("channelId", channelID)
		q.Set("order", "date")
		q.Set("type", "video")
		q.Set("maxResults", strconv.Itoa(maxResults))
		q.Set("key", key)
		return a.client.http.buildURL("/search", q)
	})
	if err != nil {
		return nil, 0, tried, err
	}

	items, err := requireArray(a.Name(), body, "items")
	if err != nil {
		return nil, 0, tried, err
	}

	records := make([]models.NormalizedRecord, 0, len(items))
	for _, item := range items {
		records = append(records, normalizeVideo(item, channelID, info))
	}
	total := int(gjson.GetBytes(body, "pageInfo.totalResults").Int())
	return records, total, tried, nil
}

func normalizeVideo(item gjson.Result, channelID string, info channelInfo) models.NormalizedRecord {
	videoID := item.Get("id.videoId").String()
	snippet := item.Get("snippet")

	rec := models.NormalizedRecord{
		UniquenessKey: videoID,
		Title:         snippet.Get("title").String(),
		ImageURL:      firstString(snippet, "thumbnails.high.url", "thumbnails.medium.url", "thumbnails.default.url"),
		PublishedAt:   parseTime(snippet.Get("publishedAt").String()),
		Fields: map[string]any{
			"description":   snippet.Get("description").String(),
			"channel_id":    channelID,
			"channel_title": firstNonEmpty(snippet.Get("channelTitle").String(), info.title),
		},
	}
	if videoID != "" {
		rec.URL = youtubeWatchURL + videoID
	}
	if info.thumbnail != "" {
		rec.Fields["channel_thumbnail"] = info.thumbnail
	}
	return rec
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
