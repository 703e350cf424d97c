// Package cache persists the last successful snapshot of every collection in
// Redis so a restarted dashboard can serve data before its first fetch.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pilot-net/nms-dashboard/dashboard/internal/config"
	"github.com/pilot-net/nms-dashboard/dashboard/internal/entity"
	"github.com/redis/go-redis/v9"
)

const (
	// Cache key prefixes
	keyPrefix = "nmsdash:snapshot:"
)

// Snapshot is the stored form of one collection.
type Snapshot[T any] struct {
	Items     []T       `json:"items"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Cache provides Redis-backed snapshot storage.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// New creates a new Redis-backed cache.
func New(redisURL string, logger *slog.Logger) (*Cache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), config.RedisConnectionTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &Cache{
		client: client,
		ttl:    config.SnapshotCacheTTL,
		logger: logger.With("component", "snapshot_cache"),
	}, nil
}

// Close closes the Redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Ping checks Redis connectivity.
func (c *Cache) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, config.RedisConnectionTimeout)
	defer cancel()
	return c.client.Ping(ctx).Err()
}

// Key returns the Redis key of a collection.
func Key(kind entity.Kind) string {
	return keyPrefix + string(kind)
}

// Save stores items as the snapshot of kind.
func Save[T any](ctx context.Context, c *Cache, kind entity.Kind, items []T, fetchedAt time.Time) error {
	data, err := encode(items, fetchedAt)
	if err != nil {
		return fmt.Errorf("encoding %s snapshot: %w", kind, err)
	}
	if err := c.client.Set(ctx, Key(kind), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("saving %s snapshot: %w", kind, err)
	}
	return nil
}

// SaveSnapshot persists every collection of snap that has been fetched.
func (c *Cache) SaveSnapshot(ctx context.Context, snap entity.Snapshot) error {
	for _, kind := range entity.Kinds {
		meta := snap.Meta[kind]
		if meta.LastFetched == nil {
			continue
		}
		var err error
		switch kind {
		case entity.KindDevices:
			err = Save(ctx, c, kind, snap.Devices, *meta.LastFetched)
		case entity.KindDeviceTypes:
			err = Save(ctx, c, kind, snap.DeviceTypes, *meta.LastFetched)
		case entity.KindLocations:
			err = Save(ctx, c, kind, snap.Locations, *meta.LastFetched)
		case entity.KindWorkers:
			err = Save(ctx, c, kind, snap.Workers, *meta.LastFetched)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Warm loads every cached collection into st. Collections keep their
// original fetch time, so an old snapshot is still stale and gets refetched.
// A kind that cannot be loaded is skipped without affecting the others. It
// returns the number of collections loaded and the joined per-kind errors.
func (c *Cache) Warm(ctx context.Context, st *entity.Store) (int, error) {
	loaded, err := warmStore(st, func(kind entity.Kind) ([]byte, bool, error) {
		data, err := c.client.Get(ctx, Key(kind)).Bytes()
		if err == redis.Nil {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, fmt.Errorf("loading %s snapshot: %w", kind, err)
		}
		return data, true, nil
	}, c.logger)
	c.logger.Info("store warmed from cache", "collections", loaded)
	return loaded, err
}

// loadFunc returns the raw snapshot of kind. ok is false on a cache miss.
type loadFunc func(kind entity.Kind) (data []byte, ok bool, err error)

func warmStore(st *entity.Store, load loadFunc, logger *slog.Logger) (int, error) {
	loaded := 0
	var errs []error
	for _, kind := range entity.Kinds {
		data, ok, err := load(kind)
		if err == nil && ok {
			ok, err = warmKind(st, kind, data)
		}
		if err != nil {
			logger.Warn("skipping cached collection", "kind", kind, "error", err)
			errs = append(errs, err)
			continue
		}
		if ok {
			loaded++
		}
	}
	return loaded, errors.Join(errs...)
}

func warmKind(st *entity.Store, kind entity.Kind, data []byte) (bool, error) {
	switch kind {
	case entity.KindDevices:
		return warm(kind, data, st.ReplaceDevices, st.Begin)
	case entity.KindDeviceTypes:
		return warm(kind, data, st.ReplaceDeviceTypes, st.Begin)
	case entity.KindLocations:
		return warm(kind, data, st.ReplaceLocations, st.Begin)
	case entity.KindWorkers:
		return warm(kind, data, st.ReplaceWorkers, st.Begin)
	}
	return false, fmt.Errorf("unknown kind %q", kind)
}

// warm decodes one cached collection and applies it when every record
// passes validation.
func warm[T any, PT interface {
	*T
	Validate() error
}](kind entity.Kind, data []byte, replace func(uint64, []T, time.Time) bool, begin func() uint64) (bool, error) {
	snap, err := decode[T](data)
	if err != nil {
		return false, fmt.Errorf("decoding %s snapshot: %w", kind, err)
	}
	for i := range snap.Items {
		if err := PT(&snap.Items[i]).Validate(); err != nil {
			return false, fmt.Errorf("cached %s record %d: %w", kind, i, err)
		}
	}
	return replace(begin(), snap.Items, snap.FetchedAt), nil
}

func encode[T any](items []T, fetchedAt time.Time) ([]byte, error) {
	if items == nil {
		items = []T{}
	}
	return json.Marshal(Snapshot[T]{Items: items, FetchedAt: fetchedAt.UTC()})
}

func decode[T any](data []byte) (Snapshot[T], error) {
	var snap Snapshot[T]
	if err := json.Unmarshal(data, &snap); err != nil {
		return snap, err
	}
	if snap.FetchedAt.IsZero() {
		return snap, fmt.Errorf("snapshot has no fetch time")
	}
	if snap.Items == nil {
		snap.Items = []T{}
	}
	return snap, nil
}

