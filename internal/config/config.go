// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

package config

import (
	"net"
	"strconv"
	"time"

	"github.com/tomtom215/twangwire/internal/models"
)

// Config holds all application configuration loaded from defaults, an optional
// YAML file and environment variables (in that order of precedence, lowest first).
//
// Configuration Categories:
//
//  1. Infrastructure: Server, Database, Logging
//  2. Access: Security (trigger token, rate limits, CORS)
//  3. Orchestration: Schedule (timezone, timeouts), Sources (per-source cadence
//     and retention), Providers (upstream endpoints and credential pools)
//
// Config is immutable after LoadWithKoanf and safe for concurrent reads.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Logging   LoggingConfig   `koanf:"logging"`
	Security  SecurityConfig  `koanf:"security"`
	Schedule  ScheduleConfig  `koanf:"schedule"`
	Providers ProvidersConfig `koanf:"providers"`
	Sources   SourcesConfig   `koanf:"sources"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"`
	// CacheTTL is how long content and history responses are served from
	// memory. Any sync trigger clears the cache. Zero disables it.
	CacheTTL time.Duration `koanf:"cache_ttl"`
}

// DatabaseConfig selects and configures the content store.
//
// Environment Variables:
//   - DB_DRIVER: duckdb (default), postgres or mongodb
//   - DUCKDB_PATH, DUCKDB_MAX_MEMORY, DUCKDB_THREADS
//   - POSTGRES_DSN (or DATABASE_URL), POSTGRES_MAX_CONNS
//   - MONGODB_URI, MONGODB_DATABASE
//   - DB_QUERY_TIMEOUT: per-call timeout for store operations (default: 10s)
type DatabaseConfig struct {
	Driver           string        `koanf:"driver"`
	Path             string        `koanf:"path"`
	MaxMemory        string        `koanf:"max_memory"`
	Threads          int           `koanf:"threads"`
	PostgresDSN      string        `koanf:"postgres_dsn"`
	PostgresMaxConns int32         `koanf:"postgres_max_conns"`
	MongoURI         string        `koanf:"mongo_uri"`
	MongoDatabase    string        `koanf:"mongo_database"`
	QueryTimeout     time.Duration `koanf:"query_timeout"`
}

// Database drivers.
const (
	DriverDuckDB   = "duckdb"
	DriverPostgres = "postgres"
	DriverMongoDB  = "mongodb"
)

// LoggingConfig holds logging configuration.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: true/false (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// SecurityConfig guards the sync trigger endpoints. End-user authentication
// is not part of this service; TriggerToken only authenticates the external
// scheduler that fires sync webhooks.
type SecurityConfig struct {
	TriggerToken      string        `koanf:"trigger_token"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// ScheduleConfig holds settings shared by every source.
type ScheduleConfig struct {
	// Timezone is the IANA zone the target hours are expressed in.
	Timezone string `koanf:"timezone"`
	// FetchTimeout bounds one adapter fetch, including credential rotation.
	FetchTimeout time.Duration `koanf:"fetch_timeout"`
	// StoreTimeout bounds each individual store call.
	StoreTimeout time.Duration `koanf:"store_timeout"`
	// MaxConcurrentSyncs limits the sync-all fan-out.
	MaxConcurrentSyncs int `koanf:"max_concurrent_syncs"`
	// SyncOnStart runs one automated pass over every source at startup.
	// Sources that are not due are skipped as usual.
	SyncOnStart bool `koanf:"sync_on_start"`
}

// Provider names, used for metric labels and error messages.
const (
	ProviderYouTube = "youtube"
	ProviderGNews   = "gnews"
	ProviderApify   = "apify"
)

// ProvidersConfig holds one ProviderConfig per upstream API.
type ProvidersConfig struct {
	YouTube ProviderConfig `koanf:"youtube"`
	GNews   ProviderConfig `koanf:"gnews"`
	Apify   ProviderConfig `koanf:"apify"`
}

// ProviderConfig describes how to reach one upstream API.
//
// APIKeys is the ordered credential pool. Besides the comma-separated list
// (e.g. YOUTUBE_API_KEYS), numbered variables YOUTUBE_API_KEY, YOUTUBE_API_KEY_2,
// YOUTUBE_API_KEY_3 ... are discovered at load time and appended in order.
type ProviderConfig struct {
	BaseURL              string        `koanf:"base_url"`
	APIKeys              []string      `koanf:"api_keys"`
	RequestTimeout       time.Duration `koanf:"request_timeout"`
	RateLimit            float64       `koanf:"rate_limit"`
	RateBurst            int           `koanf:"rate_burst"`
	RetryAttempts        int           `koanf:"retry_attempts"`
	RetryInitialInterval time.Duration `koanf:"retry_initial_interval"`
	BreakerFailures      uint32        `koanf:"breaker_failures"`
	BreakerTimeout       time.Duration `koanf:"breaker_timeout"`
}

// SourcesConfig holds the per-source policies.
type SourcesConfig struct {
	Videos SourceConfig `koanf:"videos"`
	Chart  SourceConfig `koanf:"chart"`
	News   SourceConfig `koanf:"news"`
}

// SourceConfig is the raw configuration of one source. SyncPolicy converts it
// into an immutable models.SyncPolicy.
//
// Cadence-specific fields:
//   - daily: TargetHour, GraceHours
//   - twice-weekly: Days (exactly two), TargetHour, GraceHours
//   - hourly-window: WindowStart, WindowEnd
//
// Provider query fields:
//   - videos: ChannelIDs
//   - chart: ActorID
//   - news: Query, Lang, Country
type SourceConfig struct {
	Enabled     bool     `koanf:"enabled"`
	Cadence     string   `koanf:"cadence"`
	Days        []string `koanf:"days"`
	TargetHour  int      `koanf:"target_hour"`
	GraceHours  int      `koanf:"grace_hours"`
	WindowStart int      `koanf:"window_start"`
	WindowEnd   int      `koanf:"window_end"`
	MaxRecords  int      `koanf:"max_records"`
	MaxResults  int      `koanf:"max_results"`
	ChannelIDs  []string `koanf:"channel_ids"`
	ActorID     string   `koanf:"actor_id"`
	Query       string   `koanf:"query"`
	Lang        string   `koanf:"lang"`
	Country     string   `koanf:"country"`
}

// Source returns the configuration for sourceID and whether it is known.
func (c *Config) Source(sourceID string) (SourceConfig, bool) {
	switch sourceID {
	case models.SourceVideos:
		return c.Sources.Videos, true
	case models.SourceChart:
		return c.Sources.Chart, true
	case models.SourceNews:
		return c.Sources.News, true
	default:
		return SourceConfig{}, false
	}
}

// Provider returns the upstream configuration used by sourceID.
func (c *Config) Provider(sourceID string) (ProviderConfig, string, bool) {
	switch sourceID {
	case models.SourceVideos:
		return c.Providers.YouTube, ProviderYouTube, true
	case models.SourceChart:
		return c.Providers.Apify, ProviderApify, true
	case models.SourceNews:
		return c.Providers.GNews, ProviderGNews, true
	default:
		return ProviderConfig{}, "", false
	}
}

// SourceIDs lists every source in a stable order.
func SourceIDs() []string {
	return []string{models.SourceVideos, models.SourceChart, models.SourceNews}
}

// Addr returns the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}
