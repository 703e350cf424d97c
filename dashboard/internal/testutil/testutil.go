// Package testutil provides testing utilities and fixtures for the dashboard.
//
// This package contains:
//   - Test helper functions (loggers, time helpers)
//   - Fixture factories for the read-model (devices, device types, locations, workers)
//   - The small gate/camera dataset used across the pipeline tests
//
// # Usage
//
// Fixtures use functional options for customization:
//
//	device := testutil.FixtureDevice()
//	device := testutil.FixtureDevice(func(d *types.Device) {
//		d.Protocol = types.ProtocolSNMP
//		d.Status = false
//	})
package testutil

import (
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pilot-net/nms-dashboard/pkg/types"
)

var nextID atomic.Int64

// NextID returns a process-unique positive integer id for fixtures.
func NextID() int {
	return int(nextID.Add(1))
}

// NewTestLogger returns a logger that discards all output.
// Use for tests where logging output is not needed.
func NewTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// =============================================================================
// DEVICE FIXTURES
// =============================================================================

// FixtureDevice creates an online ICMP device with sensible defaults.
// Use overrides to customize specific fields.
func FixtureDevice(overrides ...func(*types.Device)) types.Device {
	now := time.Now()
	device := types.Device{
		ID:            NextID(),
		IP:            "10.10.0.10",
		Port:          80,
		Hostname:      "cam-" + uuid.New().String()[:8],
		Display:       "Test Camera",
		Protocol:      types.ProtocolICMP,
		Status:        true,
		CheckInterval: 60,
		Timeout:       5,
		LastPing:      &now,
		DeviceTypeID:  1,
		LocationID:    1,
		WorkerID:      "w1",
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	for _, override := range overrides {
		override(&device)
	}

	return device
}

// FixtureDeviceOffline creates an offline device with failed checks.
func FixtureDeviceOffline(overrides ...func(*types.Device)) types.Device {
	return FixtureDevice(append([]func(*types.Device){
		func(d *types.Device) {
			d.Status = false
			d.StatusReason = "request timeout"
			d.ConsecutiveFailures = 3
		},
	}, overrides...)...)
}

// FixtureDeviceType creates a device type.
func FixtureDeviceType(id int, name string) types.DeviceType {
	now := time.Now()
	return types.DeviceType{ID: id, Name: name, CreatedAt: now, UpdatedAt: now}
}

// =============================================================================
// LOCATION FIXTURES
// =============================================================================

// FixtureLocation creates a location with sensible defaults.
func FixtureLocation(overrides ...func(*types.Location)) types.Location {
	location := types.Location{
		ID:             NextID(),
		Name:           "Site " + uuid.New().String()[:4],
		Lat:            31.95,
		Lng:            35.91,
		Status:         "active",
		LocationTypeID: 1,
		Project:        "default",
		Area:           "north",
	}

	for _, override := range overrides {
		override(&location)
	}

	return location
}

// =============================================================================
// WORKER FIXTURES
// =============================================================================

// FixtureWorker creates an approved, active worker.
func FixtureWorker(overrides ...func(*types.Worker)) types.Worker {
	now := time.Now()
	worker := types.Worker{
		ID:             uuid.New().String(),
		Hostname:       "edge-" + uuid.New().String()[:4],
		IPAddress:      "10.0.0.1",
		Version:        "1.0.0",
		Capabilities:   []string{"icmp", "snmp"},
		Status:         types.WorkerStatusActive,
		ApprovalStatus: types.ApprovalApproved,
		MaxDevices:     500,
		LastSeen:       &now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	for _, override := range overrides {
		override(&worker)
	}

	return worker
}

// =============================================================================
// DATASETS
// =============================================================================

// Dataset is a complete set of collections.
type Dataset struct {
	Devices     []types.Device
	DeviceTypes []types.DeviceType
	Locations   []types.Location
	Workers     []types.Worker
}

// GateDataset returns a small consistent dataset:
//
//	id 1: Camera at Gate A via edge-1, ICMP, online
//	id 2: Router at Gate B via edge-2, SNMP, offline
//	id 3: Camera at Gate A via edge-2, gprs (lowercase), offline
//	id 4: dangling type, location and worker, ICMP, online
func GateDataset() Dataset {
	return Dataset{
		Devices: []types.Device{
			FixtureDevice(func(d *types.Device) {
				d.ID, d.DeviceTypeID, d.LocationID, d.WorkerID = 1, 9, 5, "w1"
				d.Hostname, d.Display = "cam-1", "Gate A Cam"
			}),
			FixtureDeviceOffline(func(d *types.Device) {
				d.ID, d.DeviceTypeID, d.LocationID, d.WorkerID = 2, 10, 6, "w2"
				d.Hostname, d.Display = "rtr-1", "Gate B Router"
				d.Protocol = types.ProtocolSNMP
			}),
			FixtureDeviceOffline(func(d *types.Device) {
				d.ID, d.DeviceTypeID, d.LocationID, d.WorkerID = 3, 9, 5, "w2"
				d.Hostname, d.Display = "cam-2", "Gate A Cam 2"
				d.Protocol = "gprs"
			}),
			FixtureDevice(func(d *types.Device) {
				d.ID, d.DeviceTypeID, d.LocationID, d.WorkerID = 4, 99, 99, "ghost"
				d.Hostname, d.Display = "orphan", "Orphan"
			}),
		},
		DeviceTypes: []types.DeviceType{
			FixtureDeviceType(9, "Camera"),
			FixtureDeviceType(10, "Router"),
		},
		Locations: []types.Location{
			FixtureLocation(func(l *types.Location) { l.ID, l.Name, l.LocationTypeID = 5, "Gate A", 1 }),
			FixtureLocation(func(l *types.Location) { l.ID, l.Name, l.LocationTypeID = 6, "Gate B", 2 }),
		},
		Workers: []types.Worker{
			FixtureWorker(func(w *types.Worker) { w.ID, w.Hostname = "w1", "edge-1" }),
			FixtureWorker(func(w *types.Worker) {
				w.ID, w.Hostname = "w2", "edge-2"
				w.Status = types.WorkerStatusOffline
			}),
		},
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// Ptr returns a pointer to the given value.
// Useful for setting optional fields in fixtures.
func Ptr[T any](v T) *T {
	return &v
}

// TimeAgoPtr returns a pointer to a time in the past.
func TimeAgoPtr(d time.Duration) *time.Time {
	t := time.Now().Add(-d)
	return &t
}
