// Package metrics provides health metrics collection for the dashboard.
package metrics

import (
	"context"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/pilot-net/nms-dashboard/dashboard/internal/config"
	"github.com/pilot-net/nms-dashboard/dashboard/internal/entity"
	"github.com/pilot-net/nms-dashboard/pkg/types"
)

// PoolStatsProvider reports database pool statistics.
type PoolStatsProvider interface {
	PoolStats() types.PoolStats
}

// SourcePinger checks database connectivity.
type SourcePinger interface {
	Ping(ctx context.Context) error
}

// CachePinger checks snapshot cache connectivity.
type CachePinger interface {
	Ping(ctx context.Context) error
}

// Options configures a Collector. Pool and Cache may be nil. A Pool that
// also implements SourcePinger is pinged on every report.
type Options struct {
	Source string
	Pool   PoolStatsProvider
	Cache  CachePinger
	MaxAge time.Duration
}

// Collector gathers health metrics with caching.
type Collector struct {
	store *entity.Store
	opts  Options

	startTime time.Time

	// Cached values with TTL
	mu            sync.RWMutex
	cachedHealth  *types.InfrastructureHealth
	cacheExpiry   time.Time
	cacheDuration time.Duration
}

// NewCollector creates a new metrics collector.
func NewCollector(store *entity.Store, opts Options) *Collector {
	if opts.MaxAge <= 0 {
		opts.MaxAge = config.DefaultMaxAge
	}
	return &Collector{
		store:         store,
		opts:          opts,
		startTime:     time.Now(),
		cacheDuration: config.HealthCacheDuration,
	}
}

// GetInfrastructureHealth returns the current health metrics.
// Results are cached for HealthCacheDuration since process sampling is slow.
func (c *Collector) GetInfrastructureHealth(ctx context.Context) *types.InfrastructureHealth {
	c.mu.RLock()
	if c.cachedHealth != nil && time.Now().Before(c.cacheExpiry) {
		health := *c.cachedHealth
		c.mu.RUnlock()
		return &health
	}
	c.mu.RUnlock()

	health := c.collectHealth(ctx, time.Now())

	c.mu.Lock()
	c.cachedHealth = health
	c.cacheExpiry = time.Now().Add(c.cacheDuration)
	c.mu.Unlock()

	return health
}

func (c *Collector) collectHealth(ctx context.Context, now time.Time) *types.InfrastructureHealth {
	health := &types.InfrastructureHealth{
		Timestamp:   now,
		Server:      c.collectServerHealth(),
		Source:      types.SourceHealth{Kind: c.opts.Source},
		Collections: collectCollections(c.store.Snapshot(), now, c.opts.MaxAge),
	}

	if c.opts.Pool != nil {
		stats := c.opts.Pool.PoolStats()
		health.Source.Pool = &stats
	}

	if pinger, ok := c.opts.Pool.(SourcePinger); ok {
		pingCtx, cancel := context.WithTimeout(ctx, config.DatabasePingTimeout)
		connected := pinger.Ping(pingCtx) == nil
		cancel()
		health.Source.Connected = &connected
		if !connected {
			health.Server.Status = "degraded"
		}
	}

	if c.opts.Cache != nil {
		health.Cache.Enabled = true
		health.Cache.Connected = c.opts.Cache.Ping(ctx) == nil
	}

	for _, coll := range health.Collections {
		if coll.Status == types.CollectionError {
			health.Server.Status = "degraded"
		}
	}
	return health
}

func (c *Collector) collectServerHealth() types.ServerHealth {
	health := types.ServerHealth{
		Status:        "healthy",
		Goroutines:    runtime.NumGoroutine(),
		UptimeSeconds: int64(time.Since(c.startTime).Seconds()),
	}

	// Get process metrics using gopsutil
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err == nil {
		if cpu, err := proc.CPUPercent(); err == nil {
			health.CPUPercent = cpu
		}
		if mem, err := proc.MemoryInfo(); err == nil {
			health.MemoryMB = float64(mem.RSS) / (1024 * 1024)
		}
		if memPct, err := proc.MemoryPercent(); err == nil {
			health.MemoryPercent = float64(memPct)
		}
	}

	if health.MemoryPercent > 90 || health.CPUPercent > 90 {
		health.Status = "degraded"
	}

	return health
}

func collectCollections(snap entity.Snapshot, now time.Time, maxAge time.Duration) map[string]types.CollectionHealth {
	counts := map[entity.Kind]int{
		entity.KindDevices:     len(snap.Devices),
		entity.KindDeviceTypes: len(snap.DeviceTypes),
		entity.KindLocations:   len(snap.Locations),
		entity.KindWorkers:     len(snap.Workers),
	}

	out := make(map[string]types.CollectionHealth, len(entity.Kinds))
	for _, kind := range entity.Kinds {
		meta := snap.Meta[kind]
		h := types.CollectionHealth{
			Count:       counts[kind],
			Version:     meta.Version,
			LastFetched: meta.LastFetched,
			Error:       meta.Err,
		}
		switch {
		case meta.Err != "":
			h.Status = types.CollectionError
		case meta.LastFetched == nil:
			h.Status = types.CollectionEmpty
		case entity.IsStaleAt(now, meta.LastFetched, maxAge):
			h.Status = types.CollectionStale
		default:
			h.Status = types.CollectionFresh
		}
		if meta.LastFetched != nil {
			h.AgeSeconds = now.Sub(*meta.LastFetched).Seconds()
		}
		out[string(kind)] = h
	}
	return out
}
