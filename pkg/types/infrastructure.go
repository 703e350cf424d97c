package types

import "time"

// InfrastructureHealth contains the dashboard's own health metrics.
type InfrastructureHealth struct {
	Timestamp   time.Time                   `json:"timestamp"`
	Server      ServerHealth                `json:"server"`
	Source      SourceHealth                `json:"source"`
	Cache       CacheHealth                 `json:"cache"`
	Collections map[string]CollectionHealth `json:"collections"`
}

// ServerHealth contains dashboard process runtime metrics.
type ServerHealth struct {
	Status        string  `json:"status"` // healthy, degraded
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryMB      float64 `json:"memory_mb"`
	MemoryPercent float64 `json:"memory_percent"`
	Goroutines    int     `json:"goroutines"`
	UptimeSeconds int64   `json:"uptime_seconds"`
}

// SourceHealth describes the fetch collaborator.
type SourceHealth struct {
	Kind string `json:"kind"` // http, postgres

	// Pool and Connected are set for the postgres source.
	Pool      *PoolStats `json:"pool,omitempty"`
	Connected *bool      `json:"connected,omitempty"`
}

// PoolStats contains pgxpool connection pool statistics.
type PoolStats struct {
	TotalConnections    int32 `json:"total_connections"`
	IdleConnections     int32 `json:"idle_connections"`
	AcquiredConnections int32 `json:"acquired_connections"`
	MaxConnections      int32 `json:"max_connections"`
}

// CacheHealth contains Redis snapshot cache status.
type CacheHealth struct {
	Enabled   bool `json:"enabled"`
	Connected bool `json:"connected"`
}

// Collection health states.
const (
	CollectionEmpty = "empty" // never fetched
	CollectionFresh = "fresh"
	CollectionStale = "stale"
	CollectionError = "error" // last fetch failed
)

// CollectionHealth describes one entity collection.
type CollectionHealth struct {
	Status      string     `json:"status"`
	Count       int        `json:"count"`
	Version     uint64     `json:"version"`
	LastFetched *time.Time `json:"last_fetched,omitempty"`
	AgeSeconds  float64    `json:"age_seconds,omitempty"`
	Error       string     `json:"error,omitempty"`
}
