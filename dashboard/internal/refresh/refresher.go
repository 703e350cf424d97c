// Package refresh keeps the entity store populated.
//
// A Refresher fetches each collection kind independently: a failure of one
// kind is recorded on that kind only and never blocks or rolls back the
// others. Concurrent refetches of the same kind share one in-flight fetch.
package refresh

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pilot-net/nms-dashboard/dashboard/internal/config"
	"github.com/pilot-net/nms-dashboard/dashboard/internal/entity"
	"github.com/pilot-net/nms-dashboard/pkg/types"
	"golang.org/x/sync/singleflight"
)

// Source fetches whole collections from the NMS.
type Source interface {
	FetchDevices(ctx context.Context) ([]types.Device, error)
	FetchDeviceTypes(ctx context.Context) ([]types.DeviceType, error)
	FetchLocations(ctx context.Context) ([]types.Location, error)
	FetchWorkers(ctx context.Context) ([]types.Worker, error)
}

// Persister saves a store snapshot after a successful refresh.
type Persister interface {
	SaveSnapshot(ctx context.Context, snap entity.Snapshot) error
}

// Config holds configuration for the refresher.
type Config struct {
	// MaxAge is how long a collection stays fresh.
	MaxAge time.Duration

	// Interval between background staleness checks.
	Interval time.Duration

	// FetchTimeout bounds one collection fetch.
	FetchTimeout time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxAge:       config.DefaultMaxAge,
		Interval:     config.RefreshCheckInterval,
		FetchTimeout: config.FetchTimeout,
	}
}

// Result is the outcome of refreshing one collection kind.
type Result struct {
	Kind  entity.Kind
	Count int

	// Skipped is set when the collection was fresh and no fetch ran.
	Skipped bool

	// Superseded is set when the fetch succeeded but a newer fetch of the
	// same kind had already been applied.
	Superseded bool

	Err error
}

// OK reports whether the collection is usable after the refresh.
func (r Result) OK() bool {
	return r.Err == nil
}

func (r Result) applied() bool {
	return r.Err == nil && !r.Skipped && !r.Superseded
}

// Failed returns the error messages of the failed results keyed by kind,
// nil when every result succeeded.
func Failed(results []Result) map[entity.Kind]string {
	var failed map[entity.Kind]string
	for _, r := range results {
		if r.Err == nil {
			continue
		}
		if failed == nil {
			failed = make(map[entity.Kind]string)
		}
		failed[r.Kind] = r.Err.Error()
	}
	return failed
}

// Refresher populates an entity.Store from a Source.
type Refresher struct {
	source  Source
	store   *entity.Store
	persist Persister
	config  Config
	logger  *slog.Logger
	group   singleflight.Group
	stopCh  chan struct{}
	stopped sync.Once
}

// New creates a new refresher. Zero config fields take their defaults.
func New(source Source, store *entity.Store, cfg Config, logger *slog.Logger) *Refresher {
	defaults := DefaultConfig()
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = defaults.MaxAge
	}
	if cfg.Interval <= 0 {
		cfg.Interval = defaults.Interval
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = defaults.FetchTimeout
	}
	return &Refresher{
		source: source,
		store:  store,
		config: cfg,
		logger: logger.With("component", "refresher"),
		stopCh: make(chan struct{}),
	}
}

// SetPersister installs p to receive a snapshot after every refresh that
// applied new data. Call before Start.
func (r *Refresher) SetPersister(p Persister) {
	r.persist = p
}

// Refresh refetches one collection kind. Unless force is set, a fresh
// collection is left alone. Applied data is handed to the persister.
func (r *Refresher) Refresh(ctx context.Context, kind entity.Kind, force bool) Result {
	res := r.refresh(ctx, kind, force)
	if res.applied() {
		r.save(ctx, "kind", kind)
	}
	return res
}

func (r *Refresher) refresh(ctx context.Context, kind entity.Kind, force bool) Result {
	if !force && !r.store.Stale(kind, r.config.MaxAge) {
		return Result{Kind: kind, Skipped: true}
	}

	v, _, _ := r.group.Do(string(kind), func() (any, error) {
		return r.fetch(ctx, kind), nil
	})
	return v.(Result)
}

// RefreshAll refreshes every kind concurrently and returns the results in
// entity.Kinds order.
func (r *Refresher) RefreshAll(ctx context.Context, force bool) []Result {
	runID := uuid.New().String()
	start := time.Now()

	results := make([]Result, len(entity.Kinds))
	var wg sync.WaitGroup
	for i, kind := range entity.Kinds {
		wg.Add(1)
		go func(i int, kind entity.Kind) {
			defer wg.Done()
			results[i] = r.refresh(ctx, kind, force)
		}(i, kind)
	}
	wg.Wait()

	applied := 0
	for _, res := range results {
		if res.Err != nil {
			r.logger.Warn("collection refresh failed",
				"run_id", runID,
				"kind", res.Kind,
				"error", res.Err,
			)
			continue
		}
		if res.applied() {
			applied++
		}
	}

	if applied > 0 {
		r.save(ctx, "run_id", runID)
	}

	r.logger.Debug("refresh run completed",
		"run_id", runID,
		"force", force,
		"applied", applied,
		"failed", len(Failed(results)),
		"duration", time.Since(start),
	)
	return results
}

// save persists the current store snapshot. Failures are logged only.
func (r *Refresher) save(ctx context.Context, logArgs ...any) {
	if r.persist == nil {
		return
	}
	if err := r.persist.SaveSnapshot(ctx, r.store.Snapshot()); err != nil {
		r.logger.Warn("failed to persist snapshot", append(logArgs, "error", err)...)
	}
}

// fetch runs one fetch of kind. The fetch is detached from the caller's
// cancellation because other callers may be sharing it.
func (r *Refresher) fetch(ctx context.Context, kind entity.Kind) Result {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.config.FetchTimeout)
	defer cancel()

	switch kind {
	case entity.KindDevices:
		return fetchInto(ctx, r.store, kind, r.source.FetchDevices, r.store.ReplaceDevices)
	case entity.KindDeviceTypes:
		return fetchInto(ctx, r.store, kind, r.source.FetchDeviceTypes, r.store.ReplaceDeviceTypes)
	case entity.KindLocations:
		return fetchInto(ctx, r.store, kind, r.source.FetchLocations, r.store.ReplaceLocations)
	case entity.KindWorkers:
		return fetchInto(ctx, r.store, kind, r.source.FetchWorkers, r.store.ReplaceWorkers)
	}
	return Result{Kind: kind, Err: errUnknownKind(kind)}
}

func fetchInto[T any](
	ctx context.Context,
	st *entity.Store,
	kind entity.Kind,
	fetch func(context.Context) ([]T, error),
	replace func(uint64, []T, time.Time) bool,
) Result {
	seq := st.Begin()
	items, err := fetch(ctx)
	if err != nil {
		st.Fail(kind, seq, err)
		return Result{Kind: kind, Err: err}
	}
	applied := replace(seq, items, time.Now())
	return Result{Kind: kind, Count: len(items), Superseded: !applied}
}

// Start begins the background refresh loop in a goroutine.
func (r *Refresher) Start(ctx context.Context) {
	go r.run(ctx)
}

// Stop signals the loop to stop. It is safe to call more than once.
func (r *Refresher) Stop() {
	r.stopped.Do(func() { close(r.stopCh) })
}

func (r *Refresher) run(ctx context.Context) {
	r.logger.Info("refresher started",
		"interval", r.config.Interval,
		"max_age", r.config.MaxAge,
	)

	// Run immediately on start
	r.RefreshAll(ctx, false)

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("refresher stopped (context cancelled)")
			return
		case <-r.stopCh:
			r.logger.Info("refresher stopped")
			return
		case <-ticker.C:
			r.RefreshAll(ctx, false)
		}
	}
}
