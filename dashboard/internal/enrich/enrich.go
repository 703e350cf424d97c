// Package enrich joins the normalized collections of the entity store into
// denormalized device rows.
//
// Foreign keys are resolved through id indexes built once per pass, so a pass
// is O(devices + types + locations + workers). A reference with no match never
// fails; it resolves to a sentinel (types.UnknownDeviceType, or nil for
// location and worker).
package enrich

import (
	"sync"

	"github.com/pilot-net/nms-dashboard/dashboard/internal/entity"
	"github.com/pilot-net/nms-dashboard/pkg/types"
)

// Devices returns one enriched row per device, in input order.
//
// It is a pure function of its inputs. When a collection repeats an id, the
// last record with that id wins.
func Devices(devices []types.Device, deviceTypes []types.DeviceType, locations []types.Location, workers []types.Worker) []types.EnrichedDevice {
	typeNames := make(map[int]string, len(deviceTypes))
	for _, dt := range deviceTypes {
		typeNames[dt.ID] = dt.Name
	}

	locationNames := make(map[int]*string, len(locations))
	for _, l := range locations {
		name := l.Name
		locationNames[l.ID] = &name
	}

	workerHostnames := make(map[string]*string, len(workers))
	for _, w := range workers {
		hostname := w.Hostname
		workerHostnames[w.ID] = &hostname
	}

	rows := make([]types.EnrichedDevice, len(devices))
	for i, d := range devices {
		typeName, ok := typeNames[d.DeviceTypeID]
		if !ok || typeName == "" {
			typeName = types.UnknownDeviceType
		}

		rows[i] = types.EnrichedDevice{
			Device:         d,
			DeviceTypeName: typeName,
			LocationName:   locationNames[d.LocationID],
			WorkerHostname: workerHostnames[d.WorkerID],
		}
	}
	return rows
}

// Memo caches the last enrichment keyed on the store versions of the four
// source collections. It is safe for concurrent use.
type Memo struct {
	mu    sync.Mutex
	key   [4]uint64
	valid bool
	rows  []types.EnrichedDevice
	runs  int
}

// Enrich returns the enriched rows for snap, recomputing only when one of
// the source collection versions changed since the last call.
func (m *Memo) Enrich(snap entity.Snapshot) []types.EnrichedDevice {
	key := snap.Versions()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.valid && m.key == key {
		return m.rows
	}

	m.rows = Devices(snap.Devices, snap.DeviceTypes, snap.Locations, snap.Workers)
	m.key = key
	m.valid = true
	m.runs++
	return m.rows
}

// Runs returns how many times the memo recomputed.
func (m *Memo) Runs() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runs
}
