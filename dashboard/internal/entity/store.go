// Package entity holds the normalized collections the dashboard works on.
//
// # Design
//
// The Store is the only shared mutable state in the dashboard. Each
// collection (devices, device types, locations, workers) is an immutable
// snapshot that is swapped wholesale on a successful fetch and never patched
// in place, so two readers can never observe a half-applied update.
//
// Every swap bumps the collection's Version. Derived data (enriched rows,
// filter options) is memoized on the versions rather than on mutation events.
//
// Fetches for the same kind may overlap. A fetch takes a sequence number with
// Begin before it starts; when its result arrives after the result of a fetch
// that began later, it is discarded.
package entity

import (
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pilot-net/nms-dashboard/pkg/types"
)

// Kind names an entity collection.
type Kind string

const (
	KindDevices     Kind = "devices"
	KindDeviceTypes Kind = "device_types"
	KindLocations   Kind = "locations"
	KindWorkers     Kind = "workers"
)

// Kinds lists every collection kind in a fixed order.
var Kinds = []Kind{KindDevices, KindDeviceTypes, KindLocations, KindWorkers}

// Meta describes the current state of one collection.
type Meta struct {
	// Version increases by one on every successful replace. Zero means the
	// collection was never populated.
	Version uint64 `json:"version"`

	// LastFetched is when the current snapshot was fetched, nil if never.
	LastFetched *time.Time `json:"last_fetched,omitempty"`

	// Err is the message of the most recent failed fetch, cleared by the
	// next successful one.
	Err string `json:"error,omitempty"`

	// Duplicates is the number of records in the current snapshot whose id
	// repeats an earlier record.
	Duplicates int `json:"duplicates,omitempty"`
}

type collection[T any] struct {
	items   []T
	meta    Meta
	applied uint64
}

// Store holds one snapshot per entity kind.
type Store struct {
	mu          sync.RWMutex
	devices     collection[types.Device]
	deviceTypes collection[types.DeviceType]
	locations   collection[types.Location]
	workers     collection[types.Worker]

	seq    atomic.Uint64
	logger *slog.Logger
}

// NewStore creates an empty store.
func NewStore(logger *slog.Logger) *Store {
	return &Store{
		logger: logger.With("component", "entity_store"),
	}
}

// Begin reserves a sequence number for a fetch that is about to start.
func (s *Store) Begin() uint64 {
	return s.seq.Add(1)
}

// ReplaceDevices swaps the device collection. It reports false when the
// result was discarded because a later fetch already landed.
func (s *Store) ReplaceDevices(seq uint64, items []types.Device, fetchedAt time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return replace(s, KindDevices, &s.devices, seq, items, fetchedAt, func(d types.Device) string {
		return strconv.Itoa(d.ID)
	})
}

// ReplaceDeviceTypes swaps the device type collection.
func (s *Store) ReplaceDeviceTypes(seq uint64, items []types.DeviceType, fetchedAt time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return replace(s, KindDeviceTypes, &s.deviceTypes, seq, items, fetchedAt, func(t types.DeviceType) string {
		return strconv.Itoa(t.ID)
	})
}

// ReplaceLocations swaps the location collection.
func (s *Store) ReplaceLocations(seq uint64, items []types.Location, fetchedAt time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return replace(s, KindLocations, &s.locations, seq, items, fetchedAt, func(l types.Location) string {
		return strconv.Itoa(l.ID)
	})
}

// ReplaceWorkers swaps the worker collection.
func (s *Store) ReplaceWorkers(seq uint64, items []types.Worker, fetchedAt time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return replace(s, KindWorkers, &s.workers, seq, items, fetchedAt, func(w types.Worker) string {
		return w.ID
	})
}

// Fail records a failed fetch for kind. The collection keeps its last-known
// value. Failures of superseded fetches are ignored.
func (s *Store) Fail(kind Kind, seq uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta, applied := s.metaLocked(kind)
	if meta == nil || seq < applied {
		return
	}
	meta.Err = err.Error()
}

// Meta returns the state of one collection.
func (s *Store) Meta(kind Kind) Meta {
	s.mu.RLock()
	defer s.mu.RUnlock()

	meta, _ := s.metaLocked(kind)
	if meta == nil {
		return Meta{}
	}
	return *meta
}

// Stale reports whether the collection must be refetched before use.
func (s *Store) Stale(kind Kind, maxAge time.Duration) bool {
	return IsStale(s.Meta(kind).LastFetched, maxAge)
}

// Snapshot is a consistent view of all collections at one instant.
// Callers must treat the slices as read-only.
type Snapshot struct {
	Devices     []types.Device
	DeviceTypes []types.DeviceType
	Locations   []types.Location
	Workers     []types.Worker
	Meta        map[Kind]Meta
}

// Versions returns the collection versions the enrichment depends on.
func (s Snapshot) Versions() [4]uint64 {
	return [4]uint64{
		s.Meta[KindDevices].Version,
		s.Meta[KindDeviceTypes].Version,
		s.Meta[KindLocations].Version,
		s.Meta[KindWorkers].Version,
	}
}

// Errors returns the per-kind fetch errors, nil when there are none.
func (s Snapshot) Errors() map[Kind]string {
	var errs map[Kind]string
	for kind, meta := range s.Meta {
		if meta.Err == "" {
			continue
		}
		if errs == nil {
			errs = make(map[Kind]string)
		}
		errs[kind] = meta.Err
	}
	return errs
}

// Snapshot returns the current collections.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Snapshot{
		Devices:     s.devices.items,
		DeviceTypes: s.deviceTypes.items,
		Locations:   s.locations.items,
		Workers:     s.workers.items,
		Meta: map[Kind]Meta{
			KindDevices:     s.devices.meta,
			KindDeviceTypes: s.deviceTypes.meta,
			KindLocations:   s.locations.meta,
			KindWorkers:     s.workers.meta,
		},
	}
}

func (s *Store) metaLocked(kind Kind) (*Meta, uint64) {
	switch kind {
	case KindDevices:
		return &s.devices.meta, s.devices.applied
	case KindDeviceTypes:
		return &s.deviceTypes.meta, s.deviceTypes.applied
	case KindLocations:
		return &s.locations.meta, s.locations.applied
	case KindWorkers:
		return &s.workers.meta, s.workers.applied
	}
	return nil, 0
}

// replace must be called with s.mu held.
func replace[T any](s *Store, kind Kind, c *collection[T], seq uint64, items []T, fetchedAt time.Time, id func(T) string) bool {
	if seq <= c.applied {
		s.logger.Debug("discarding superseded fetch result",
			"kind", kind,
			"seq", seq,
			"applied", c.applied,
		)
		return false
	}

	dups := countDuplicates(items, id)
	if dups > 0 {
		s.logger.Warn("duplicate ids in fetched collection, last record wins",
			"kind", kind,
			"duplicates", dups,
		)
	}

	snapshot := slices.Clone(items)
	if snapshot == nil {
		snapshot = []T{}
	}

	at := fetchedAt
	c.items = snapshot
	c.applied = seq
	c.meta = Meta{
		Version:     c.meta.Version + 1,
		LastFetched: &at,
		Duplicates:  dups,
	}

	s.logger.Debug("collection replaced",
		"kind", kind,
		"count", len(snapshot),
		"version", c.meta.Version,
	)
	return true
}

func countDuplicates[T any](items []T, id func(T) string) int {
	seen := make(map[string]struct{}, len(items))
	dups := 0
	for _, item := range items {
		k := id(item)
		if _, ok := seen[k]; ok {
			dups++
			continue
		}
		seen[k] = struct{}{}
	}
	return dups
}
