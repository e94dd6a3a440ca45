// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/twangwire/internal/models"
)

var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	if err := c.validateSchedule(); err != nil {
		return err
	}
	return c.validateSources()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	if c.Server.CacheTTL < 0 {
		return fmt.Errorf("API_CACHE_TTL must not be negative")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	switch c.Database.Driver {
	case DriverDuckDB:
		if c.Database.Path == "" {
			return fmt.Errorf("DUCKDB_PATH is required when DB_DRIVER=duckdb")
		}
	case DriverPostgres:
		if c.Database.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required when DB_DRIVER=postgres")
		}
		if c.Database.PostgresMaxConns < 1 {
			return fmt.Errorf("POSTGRES_MAX_CONNS must be at least 1")
		}
	case DriverMongoDB:
		if c.Database.MongoURI == "" {
			return fmt.Errorf("MONGODB_URI is required when DB_DRIVER=mongodb")
		}
		if c.Database.MongoDatabase == "" {
			return fmt.Errorf("MONGODB_DATABASE is required when DB_DRIVER=mongodb")
		}
	default:
		return fmt.Errorf("DB_DRIVER must be one of: duckdb, postgres, mongodb (got %q)", c.Database.Driver)
	}
	if c.Database.QueryTimeout <= 0 {
		return fmt.Errorf("DB_QUERY_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < 1 || c.Security.RateLimitReqs > 100000 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between 1 and 100000")
	}
	if c.Security.RateLimitWindow < time.Second {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be at least 1s")
	}
	return nil
}

func (c *Config) validateSchedule() error {
	if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil || c.Schedule.Timezone == "" {
		return fmt.Errorf("SYNC_TIMEZONE %q is not a valid IANA timezone", c.Schedule.Timezone)
	}
	if c.Schedule.FetchTimeout <= 0 {
		return fmt.Errorf("SYNC_FETCH_TIMEOUT must be positive")
	}
	if c.Schedule.StoreTimeout <= 0 {
		return fmt.Errorf("SYNC_STORE_TIMEOUT must be positive")
	}
	if c.Schedule.MaxConcurrentSyncs < 1 {
		return fmt.Errorf("SYNC_MAX_CONCURRENT must be at least 1")
	}
	return nil
}

func (c *Config) validateSources() error {
	for _, id := range SourceIDs() {
		src, _ := c.Source(id)
		if !src.Enabled {
			continue
		}
		if err := validatePolicy(id, src); err != nil {
			return err
		}
		if err := c.validateProviderFor(id, src); err != nil {
			return err
		}
	}
	return nil
}

func validatePolicy(id string, src SourceConfig) error {
	prefix := "SOURCES_" + strings.ToUpper(id)

	if src.MaxRecords < 0 {
		return fmt.Errorf("%s_MAX_RECORDS must not be negative", prefix)
	}
	if src.MaxResults < 0 || src.MaxResults > 100 {
		return fmt.Errorf("%s_MAX_RESULTS must be between 0 and 100", prefix)
	}

	switch models.Cadence(src.Cadence) {
	case models.CadenceDaily, models.CadenceTwiceWeekly:
		if !validHour(src.TargetHour) {
			return fmt.Errorf("%s_TARGET_HOUR must be between 0 and 23", prefix)
		}
		if src.GraceHours < 0 || src.TargetHour+src.GraceHours > 23 {
			return fmt.Errorf("%s_GRACE_HOURS must keep the due window within the day (target %d + grace %d > 23)",
				prefix, src.TargetHour, src.GraceHours)
		}
		if models.Cadence(src.Cadence) == models.CadenceTwiceWeekly {
			return validateDays(prefix, src.Days)
		}
		return nil
	case models.CadenceHourlyWindow:
		if !validHour(src.WindowStart) || !validHour(src.WindowEnd) {
			return fmt.Errorf("%s_WINDOW_START and %s_WINDOW_END must be between 0 and 23", prefix, prefix)
		}
		return nil
	default:
		return fmt.Errorf("%s_CADENCE must be one of: daily, twice-weekly, hourly-window (got %q)", prefix, src.Cadence)
	}
}

func validateDays(prefix string, days []string) error {
	if len(days) != 2 {
		return fmt.Errorf("%s_DAYS must name exactly two weekdays for twice-weekly cadence", prefix)
	}
	first, err := models.ParseWeekday(days[0])
	if err != nil {
		return fmt.Errorf("%s_DAYS: %w", prefix, err)
	}
	second, err := models.ParseWeekday(days[1])
	if err != nil {
		return fmt.Errorf("%s_DAYS: %w", prefix, err)
	}
	if first == second {
		return fmt.Errorf("%s_DAYS must name two distinct weekdays", prefix)
	}
	return nil
}

func (c *Config) validateProviderFor(id string, src SourceConfig) error {
	p, name, _ := c.Provider(id)
	envPrefix := strings.ToUpper(name)

	if err := validateBaseURL(p.BaseURL, envPrefix+"_BASE_URL"); err != nil {
		return err
	}
	if len(p.APIKeys) == 0 {
		return fmt.Errorf("at least one %s credential is required when SOURCES_%s_ENABLED=true (set %s_API_KEYS or %s_API_KEY)",
			name, strings.ToUpper(id), envPrefix, envPrefix)
	}
	if p.RequestTimeout <= 0 {
		return fmt.Errorf("%s_REQUEST_TIMEOUT must be positive", envPrefix)
	}
	if p.RateLimit < 0 {
		return fmt.Errorf("%s_RATE_LIMIT must not be negative", envPrefix)
	}
	if p.RetryAttempts < 1 {
		return fmt.Errorf("%s_RETRY_ATTEMPTS must be at least 1", envPrefix)
	}

	switch id {
	case models.SourceVideos:
		if len(src.ChannelIDs) == 0 {
			return fmt.Errorf("YOUTUBE_CHANNEL_IDS is required when SOURCES_VIDEOS_ENABLED=true")
		}
	case models.SourceChart:
		if src.ActorID == "" {
			return fmt.Errorf("APIFY_ACTOR_ID is required when SOURCES_CHART_ENABLED=true")
		}
	case models.SourceNews:
		if strings.TrimSpace(src.Query) == "" {
			return fmt.Errorf("GNEWS_QUERY is required when SOURCES_NEWS_ENABLED=true")
		}
	}
	return nil
}

func validHour(h int) bool {
	return h >= 0 && h <= 23
}
