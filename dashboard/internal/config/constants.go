// Constants in this file are the defaults that the YAML config file and the
// environment can override; see config.go.

package config

import "time"

// Cache staleness.
const (
	// DefaultMaxAge is how long a fetched collection is trusted before a
	// consumer must refetch it.
	DefaultMaxAge = 5 * time.Minute

	// RefreshCheckInterval is how often the background refresher looks for
	// stale collections.
	RefreshCheckInterval = 30 * time.Second

	// FetchTimeout bounds one collection fetch, whatever the source.
	FetchTimeout = 30 * time.Second
)

// NMS API client.
const (
	// DefaultHTTPTimeout is the default timeout for NMS API requests.
	DefaultHTTPTimeout = 5 * time.Second

	// DefaultRateLimit is the default number of NMS API requests per minute.
	DefaultRateLimit = 120
)

// Snapshot cache.
const (
	// SnapshotCacheTTL is how long a collection snapshot survives in Redis.
	// It is longer than DefaultMaxAge on purpose: a warm start serves a stale
	// snapshot immediately and refetches in the background.
	SnapshotCacheTTL = 30 * time.Minute

	// RedisConnectionTimeout is the timeout for Redis connectivity checks.
	RedisConnectionTimeout = 5 * time.Second
)

// Database connection configuration.
const (
	// DatabasePingTimeout is the timeout for database connectivity checks.
	DatabasePingTimeout = 5 * time.Second
)

// Health reporting.
const (
	// HealthCacheDuration is how long a collected health report is reused.
	HealthCacheDuration = 30 * time.Second
)

// Export defaults.
const (
	DevicesExportFilename = "devices.csv"
	WorkersExportFilename = "workers.csv"
)
