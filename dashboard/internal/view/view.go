// Package view is the read side of the dashboard: it turns the current store
// snapshot into enriched, filtered rows and the aggregates built on them.
//
// Every consumer (device table, export, summary, reports) reads through the
// same View so they all see the same enrichment of the same snapshot.
package view

import (
	"sync"

	"github.com/pilot-net/nms-dashboard/dashboard/internal/enrich"
	"github.com/pilot-net/nms-dashboard/dashboard/internal/entity"
	"github.com/pilot-net/nms-dashboard/dashboard/internal/filter"
	"github.com/pilot-net/nms-dashboard/pkg/types"
)

// View derives rows from an entity.Store.
type View struct {
	store *entity.Store
	memo  enrich.Memo

	mu       sync.Mutex
	optKey   [4]uint64
	optValid bool
	options  filter.Options
}

// New creates a view over store.
func New(store *entity.Store) *View {
	return &View{store: store}
}

// Devices is the filtered device table.
type Devices struct {
	Rows    []types.EnrichedDevice      `json:"rows"`
	Total   int                         `json:"total"`
	Options filter.Options              `json:"options"`
	Filters filter.State                `json:"filters"`
	Errors  map[entity.Kind]string      `json:"errors,omitempty"`
	Meta    map[entity.Kind]entity.Meta `json:"meta"`
}

// Rows returns all enriched rows of the current snapshot along with it.
func (v *View) Rows() ([]types.EnrichedDevice, entity.Snapshot) {
	snap := v.store.Snapshot()
	return v.memo.Enrich(snap), snap
}

// Devices returns the rows matching st. Options are derived from the
// unfiltered rows so narrowing one filter never hides the other values.
func (v *View) Devices(st filter.State) Devices {
	rows, snap := v.Rows()
	if st == nil {
		st = filter.State{}
	}
	return Devices{
		Rows:    filter.Apply(rows, st),
		Total:   len(rows),
		Options: v.optionsFor(snap.Versions(), rows),
		Filters: st,
		Errors:  snap.Errors(),
		Meta:    snap.Meta,
	}
}

// Device returns the enriched row with the given id. With duplicate ids the
// last record wins, as in the enrichment indexes.
func (v *View) Device(id int) (types.EnrichedDevice, bool) {
	rows, _ := v.Rows()
	for i := len(rows) - 1; i >= 0; i-- {
		if rows[i].ID == id {
			return rows[i], true
		}
	}
	return types.EnrichedDevice{}, false
}

// Workers returns the current worker collection.
func (v *View) Workers() []types.Worker {
	return v.store.Snapshot().Workers
}

func (v *View) optionsFor(key [4]uint64, rows []types.EnrichedDevice) filter.Options {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.optValid && v.optKey == key {
		return v.options
	}
	v.options = filter.DeriveOptions(rows)
	v.optKey = key
	v.optValid = true
	return v.options
}
