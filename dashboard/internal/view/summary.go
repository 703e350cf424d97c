package view

import (
	"sort"
	"strconv"

	"github.com/pilot-net/nms-dashboard/pkg/types"
)

// NoWorkerAssigned labels the single report bucket used when no device
// resolves to a worker.
const NoWorkerAssigned = "No Worker Assigned"

// DeviceCounts breaks devices down by status.
//
// Online and Offline partition the devices. Supervised counts the online
// devices that have consecutive failures, and Disabled counts devices
// switched off for probing regardless of their status.
type DeviceCounts struct {
	Total      int `json:"total"`
	Online     int `json:"online"`
	Supervised int `json:"supervised"`
	Offline    int `json:"offline"`
	Disabled   int `json:"disabled"`
}

// Totals are the collection sizes.
type Totals struct {
	Devices     int `json:"devices"`
	DeviceTypes int `json:"device_types"`
	Locations   int `json:"locations"`
	Workers     int `json:"workers"`
}

// Summary feeds the dashboard metric cards.
type Summary struct {
	Devices         DeviceCounts   `json:"devices"`
	LocationsByType map[string]int `json:"locations_by_type"`
	WorkersByStatus map[string]int `json:"workers_by_status"`
	Totals          Totals         `json:"totals"`
}

// Summary computes the dashboard aggregates of the current snapshot.
func (v *View) Summary() Summary {
	rows, snap := v.Rows()

	s := Summary{
		Devices:         CountDevices(rows),
		LocationsByType: make(map[string]int),
		WorkersByStatus: make(map[string]int),
		Totals: Totals{
			Devices:     len(snap.Devices),
			DeviceTypes: len(snap.DeviceTypes),
			Locations:   len(snap.Locations),
			Workers:     len(snap.Workers),
		},
	}
	for _, l := range snap.Locations {
		s.LocationsByType[strconv.Itoa(l.LocationTypeID)]++
	}
	for _, w := range snap.Workers {
		status := string(w.Status)
		if status == "" {
			status = "unknown"
		}
		s.WorkersByStatus[status]++
	}
	return s
}

// CountDevices tallies rows by status label.
func CountDevices(rows []types.EnrichedDevice) DeviceCounts {
	c := DeviceCounts{Total: len(rows)}
	for i := range rows {
		switch rows[i].StatusLabel() {
		case types.StatusOnline:
			c.Online++
			if rows[i].ConsecutiveFailures > 0 {
				c.Supervised++
			}
		case types.StatusOffline:
			c.Offline++
		}
		if rows[i].Disabled {
			c.Disabled++
		}
	}
	return c
}

// WorkerBucket is one bar of the devices-per-worker report.
type WorkerBucket struct {
	Worker  string `json:"worker"`
	Devices int    `json:"devices"`
	Online  int    `json:"online"`
	Offline int    `json:"offline"`
}

// WorkerReport returns the devices-per-worker report of the current snapshot.
func (v *View) WorkerReport() []WorkerBucket {
	rows, _ := v.Rows()
	return WorkerReport(rows)
}

// WorkerReport groups rows by resolved worker hostname, sorted by hostname.
// Rows without a resolved worker are left out. When no row resolves, every
// row goes into one NoWorkerAssigned bucket. No rows yields an empty report.
func WorkerReport(rows []types.EnrichedDevice) []WorkerBucket {
	if len(rows) == 0 {
		return []WorkerBucket{}
	}

	byWorker := make(map[string]*WorkerBucket)
	for i := range rows {
		if rows[i].WorkerHostname == nil {
			continue
		}
		name := *rows[i].WorkerHostname
		b, ok := byWorker[name]
		if !ok {
			b = &WorkerBucket{Worker: name}
			byWorker[name] = b
		}
		b.add(&rows[i])
	}

	if len(byWorker) == 0 {
		b := WorkerBucket{Worker: NoWorkerAssigned}
		for i := range rows {
			b.add(&rows[i])
		}
		return []WorkerBucket{b}
	}

	report := make([]WorkerBucket, 0, len(byWorker))
	for _, b := range byWorker {
		report = append(report, *b)
	}
	sort.Slice(report, func(i, j int) bool { return report[i].Worker < report[j].Worker })
	return report
}

func (b *WorkerBucket) add(d *types.EnrichedDevice) {
	b.Devices++
	if d.Status {
		b.Online++
	} else {
		b.Offline++
	}
}
