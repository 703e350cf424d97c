package view

import (
	"testing"
	"time"

	"github.com/pilot-net/nms-dashboard/dashboard/internal/entity"
	"github.com/pilot-net/nms-dashboard/dashboard/internal/filter"
	"github.com/pilot-net/nms-dashboard/dashboard/internal/testutil"
	"github.com/pilot-net/nms-dashboard/pkg/types"
)

func loadedStore(t *testing.T, ds testutil.Dataset) *entity.Store {
	t.Helper()
	st := entity.NewStore(testutil.NewTestLogger())
	now := time.Now()
	st.ReplaceDevices(st.Begin(), ds.Devices, now)
	st.ReplaceDeviceTypes(st.Begin(), ds.DeviceTypes, now)
	st.ReplaceLocations(st.Begin(), ds.Locations, now)
	st.ReplaceWorkers(st.Begin(), ds.Workers, now)
	return st
}

func TestDevicesFiltering(t *testing.T) {
	v := New(loadedStore(t, testutil.GateDataset()))

	tests := []struct {
		name    string
		state   filter.State
		wantIDs []int
	}{
		{"no filters", nil, []int{1, 2, 3, 4}},
		{"offline cameras", filter.State{filter.KeyStatus: "Offline", filter.KeyType: "Camera"}, []int{3}},
		{"worker edge-2", filter.State{filter.KeyWorker: "edge-2"}, []int{2, 3}},
		{"protocol gprs", filter.State{filter.KeyProtocol: "GPRS"}, []int{3}},
		{"unknown type", filter.State{filter.KeyType: "Unknown"}, []int{4}},
		{"no match", filter.State{filter.KeyLocation: "Gate Z"}, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := v.Devices(tt.state)
			if got.Total != 4 {
				t.Errorf("total = %d, want 4", got.Total)
			}
			if len(got.Rows) != len(tt.wantIDs) {
				t.Fatalf("rows = %d, want %d", len(got.Rows), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if got.Rows[i].ID != id {
					t.Errorf("row %d id = %d, want %d", i, got.Rows[i].ID, id)
				}
			}
			if got.Filters == nil {
				t.Error("filters must not be nil")
			}
		})
	}
}

func TestDevicesOptionsIgnoreActiveFilters(t *testing.T) {
	v := New(loadedStore(t, testutil.GateDataset()))

	got := v.Devices(filter.State{filter.KeyType: "Router"})
	typeOpts := got.Options[filter.KeyType]
	if len(typeOpts) != 3 || typeOpts[0] != "Camera" || typeOpts[1] != "Router" || typeOpts[2] != "Unknown" {
		t.Errorf("type options = %v", typeOpts)
	}
}

func TestDevicesOptionsFollowVersions(t *testing.T) {
	ds := testutil.GateDataset()
	st := loadedStore(t, ds)
	v := New(st)

	before := v.Devices(nil).Options[filter.KeyType]

	renamed := []types.DeviceType{
		testutil.FixtureDeviceType(9, "Dome Camera"),
		testutil.FixtureDeviceType(10, "Router"),
	}
	st.ReplaceDeviceTypes(st.Begin(), renamed, time.Now())

	after := v.Devices(nil).Options[filter.KeyType]
	if len(before) != 3 || before[0] != "Camera" {
		t.Fatalf("before = %v", before)
	}
	if len(after) != 3 || after[0] != "Dome Camera" {
		t.Errorf("after = %v, want renamed type", after)
	}
}

func TestDevicesSurfacesErrors(t *testing.T) {
	st := loadedStore(t, testutil.GateDataset())
	st.Fail(entity.KindLocations, st.Begin(), errTest("locations unavailable"))
	v := New(st)

	got := v.Devices(nil)
	if got.Errors[entity.KindLocations] != "locations unavailable" {
		t.Errorf("errors = %v", got.Errors)
	}
	if len(got.Rows) != 4 || got.Rows[0].LocationOrNA() != "Gate A" {
		t.Error("last-known locations should still enrich rows")
	}
}

func TestDevice(t *testing.T) {
	v := New(loadedStore(t, testutil.GateDataset()))

	d, ok := v.Device(2)
	if !ok || d.DeviceTypeName != "Router" || d.WorkerOrNA() != "edge-2" {
		t.Errorf("Device(2) = %+v, %v", d, ok)
	}
	if _, ok := v.Device(42); ok {
		t.Error("Device(42) should not exist")
	}
}

func TestDeviceDuplicateLastWins(t *testing.T) {
	ds := testutil.GateDataset()
	ds.Devices = append(ds.Devices, testutil.FixtureDevice(func(d *types.Device) {
		d.ID, d.Hostname = 1, "cam-1-replaced"
	}))
	v := New(loadedStore(t, ds))

	d, ok := v.Device(1)
	if !ok || d.Hostname != "cam-1-replaced" {
		t.Errorf("Device(1) hostname = %q, want last record", d.Hostname)
	}
}

func TestEmptyStore(t *testing.T) {
	v := New(entity.NewStore(testutil.NewTestLogger()))

	got := v.Devices(nil)
	if got.Rows == nil || len(got.Rows) != 0 || got.Total != 0 {
		t.Errorf("rows = %#v", got.Rows)
	}
	if len(v.WorkerReport()) != 0 {
		t.Error("empty store should give an empty report")
	}
	if s := v.Summary(); s.Devices.Total != 0 || s.Totals.Workers != 0 {
		t.Errorf("summary = %+v", s)
	}
}

type errTest string

func (e errTest) Error() string { return string(e) }
