// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/twangwire/config.yaml",
	"/etc/twangwire/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with every default applied. Defaults are
// loaded first and then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8787,
			Host:            "0.0.0.0",
			Timeout:         2 * time.Minute, // manual syncs of all sources can take a while
			ShutdownTimeout: 30 * time.Second,
			Environment:     "development",
			CacheTTL:        30 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:           DriverDuckDB,
			Path:             "/data/twangwire.duckdb",
			MaxMemory:        "512MB",
			Threads:          0,
			PostgresMaxConns: 8,
			MongoDatabase:    "twangwire",
			QueryTimeout:     10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Security: SecurityConfig{
			RateLimitReqs:   60,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Schedule: ScheduleConfig{
			Timezone:           "America/Chicago",
			FetchTimeout:       60 * time.Second,
			StoreTimeout:       5 * time.Second,
			MaxConcurrentSyncs: 3,
		},
		Providers: ProvidersConfig{
			YouTube: ProviderConfig{
				BaseURL:         "https://www.googleapis.com/youtube/v3",
				RequestTimeout:  15 * time.Second,
				RateLimit:       5,
				RateBurst:       5,
				RetryAttempts:   1, // rotation replaces retries for YouTube
				BreakerFailures: 5,
				BreakerTimeout:  10 * time.Minute,
			},
			GNews: ProviderConfig{
				BaseURL:              "https://gnews.io/api/v4",
				RequestTimeout:       15 * time.Second,
				RateLimit:            1,
				RateBurst:            1,
				RetryAttempts:        3,
				RetryInitialInterval: 2 * time.Second,
				BreakerFailures:      5,
				BreakerTimeout:       10 * time.Minute,
			},
			Apify: ProviderConfig{
				BaseURL:              "https://api.apify.com/v2",
				RequestTimeout:       45 * time.Second, // actor runs are synchronous
				RateLimit:            1,
				RateBurst:            1,
				RetryAttempts:        2,
				RetryInitialInterval: 5 * time.Second,
				BreakerFailures:      3,
				BreakerTimeout:       30 * time.Minute,
			},
		},
		Sources: SourcesConfig{
			Videos: SourceConfig{
				Enabled:    true,
				Cadence:    "daily",
				TargetHour: 7,
				MaxRecords: 200,
				MaxResults: 25,
			},
			Chart: SourceConfig{
				Enabled:    true,
				Cadence:    "twice-weekly",
				Days:       []string{"tuesday", "friday"},
				TargetHour: 6,
				MaxRecords: 100,
			},
			News: SourceConfig{
				Enabled:     true,
				Cadence:     "hourly-window",
				WindowStart: 6,
				WindowEnd:   22,
				MaxRecords:  50,
				MaxResults:  10,
				Query:       "country music",
				Lang:        "en",
				Country:     "us",
			},
		},
	}
}

// LoadWithKoanf loads configuration with layered sources:
//  1. Defaults: defaultConfig()
//  2. Config File: optional YAML file (CONFIG_PATH or DefaultConfigPaths)
//  3. Environment Variables: explicit mapping in envTransformFunc
//
// Numbered credential variables are merged into each provider's key pool
// after unmarshaling, then the result is validated.
func LoadWithKoanf() (*Config, error) {
	return load(findConfigFile(), os.LookupEnv)
}

// load is LoadWithKoanf with the config path and env lookup injected.
func load(configPath string, lookup func(string) (string, bool)) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	cfg.Providers.YouTube.APIKeys = DiscoverNumberedKeys("YOUTUBE_API_KEY", cfg.Providers.YouTube.APIKeys, lookup)
	cfg.Providers.GNews.APIKeys = DiscoverNumberedKeys("GNEWS_API_KEY", cfg.Providers.GNews.APIKeys, lookup)
	cfg.Providers.Apify.APIKeys = DiscoverNumberedKeys("APIFY_TOKEN", cfg.Providers.Apify.APIKeys, lookup)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file, or "" if none exists.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths are parsed as comma-separated slices
var sliceConfigPaths = []string{
	"security.cors_origins",
	"providers.youtube.api_keys",
	"providers.gnews.api_keys",
	"providers.apify.api_keys",
	"sources.videos.days",
	"sources.videos.channel_ids",
	"sources.chart.days",
	"sources.news.days",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps lower-cased environment variable names to koanf paths.
var envMappings = buildEnvMappings()

func buildEnvMappings() map[string]string {
	m := map[string]string{
		// Server
		"http_port":        "server.port",
		"http_host":        "server.host",
		"http_timeout":     "server.timeout",
		"shutdown_timeout": "server.shutdown_timeout",
		"environment":      "server.environment",
		"api_cache_ttl":    "server.cache_ttl",

		// Database
		"db_driver":          "database.driver",
		"duckdb_path":        "database.path",
		"duckdb_max_memory":  "database.max_memory",
		"duckdb_threads":     "database.threads",
		"postgres_dsn":       "database.postgres_dsn",
		"database_url":       "database.postgres_dsn",
		"postgres_max_conns": "database.postgres_max_conns",
		"mongodb_uri":        "database.mongo_uri",
		"mongodb_database":   "database.mongo_database",
		"db_query_timeout":   "database.query_timeout",

		// Logging
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",

		// Security
		"sync_trigger_token":  "security.trigger_token",
		"rate_limit_requests": "security.rate_limit_reqs",
		"rate_limit_window":   "security.rate_limit_window",
		"disable_rate_limit":  "security.rate_limit_disabled",
		"cors_origins":        "security.cors_origins",

		// Schedule
		"sync_timezone":       "schedule.timezone",
		"sync_fetch_timeout":  "schedule.fetch_timeout",
		"sync_store_timeout":  "schedule.store_timeout",
		"sync_max_concurrent": "schedule.max_concurrent_syncs",
		"sync_on_start":       "schedule.sync_on_start",

		// Provider query settings that live on the source
		"youtube_channel_ids": "sources.videos.channel_ids",
		"apify_actor_id":      "sources.chart.actor_id",
		"gnews_query":         "sources.news.query",
		"gnews_lang":          "sources.news.lang",
		"gnews_country":       "sources.news.country",
	}

	// Provider transport settings: YOUTUBE_BASE_URL -> providers.youtube.base_url
	providerFields := []string{
		"base_url", "api_keys", "request_timeout", "rate_limit", "rate_burst",
		"retry_attempts", "retry_initial_interval", "breaker_failures", "breaker_timeout",
	}
	for _, provider := range []string{ProviderYouTube, ProviderGNews, ProviderApify} {
		for _, field := range providerFields {
			m[provider+"_"+field] = "providers." + provider + "." + field
		}
	}
	m["apify_tokens"] = "providers.apify.api_keys"

	// Source policies: SOURCES_NEWS_WINDOW_START -> sources.news.window_start
	sourceFields := []string{
		"enabled", "cadence", "days", "target_hour", "grace_hours",
		"window_start", "window_end", "max_records", "max_results",
	}
	for _, source := range SourceIDs() {
		for _, field := range sourceFields {
			m["sources_"+source+"_"+field] = "sources." + source + "." + field
		}
	}

	return m
}

// envTransformFunc transforms environment variable names to koanf config paths.
// Unmapped variables return "" so arbitrary environment does not leak into config.
//
// Examples:
//   - HTTP_PORT -> server.port
//   - GNEWS_API_KEYS -> providers.gnews.api_keys
//   - SOURCES_CHART_DAYS -> sources.chart.days
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
