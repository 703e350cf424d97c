package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pilot-net/nms-dashboard/dashboard/internal/entity"
	"github.com/pilot-net/nms-dashboard/dashboard/internal/export"
	"github.com/pilot-net/nms-dashboard/dashboard/internal/metrics"
	"github.com/pilot-net/nms-dashboard/dashboard/internal/refresh"
	"github.com/pilot-net/nms-dashboard/dashboard/internal/testutil"
	"github.com/pilot-net/nms-dashboard/dashboard/internal/view"
	"github.com/pilot-net/nms-dashboard/pkg/types"
)

// fakeSource serves a dataset; a non-nil err fails every worker fetch.
type fakeSource struct {
	ds        testutil.Dataset
	workerErr error
}

func (f *fakeSource) FetchDevices(context.Context) ([]types.Device, error) {
	return f.ds.Devices, nil
}

func (f *fakeSource) FetchDeviceTypes(context.Context) ([]types.DeviceType, error) {
	return f.ds.DeviceTypes, nil
}

func (f *fakeSource) FetchLocations(context.Context) ([]types.Location, error) {
	return f.ds.Locations, nil
}

func (f *fakeSource) FetchWorkers(context.Context) ([]types.Worker, error) {
	if f.workerErr != nil {
		return nil, f.workerErr
	}
	return f.ds.Workers, nil
}

func newTestServer(t *testing.T, src *fakeSource) *Server {
	t.Helper()
	logger := testutil.NewTestLogger()
	st := entity.NewStore(logger)
	r := refresh.New(src, st, refresh.Config{MaxAge: time.Hour}, logger)
	return NewServer(view.New(st), r, metrics.NewCollector(st, metrics.Options{Source: "http", MaxAge: time.Hour}), logger)
}

func do(t *testing.T, s *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, &fakeSource{ds: testutil.GateDataset()})
	rec := do(t, s, http.MethodGet, "/api/v1/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode[map[string]any](t, rec)
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestInfrastructureHealth(t *testing.T) {
	s := newTestServer(t, &fakeSource{ds: testutil.GateDataset()})
	do(t, s, http.MethodGet, "/api/v1/devices")

	rec := do(t, s, http.MethodGet, "/api/v1/infrastructure/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	health := decode[types.InfrastructureHealth](t, rec)
	if health.Source.Kind != "http" || health.Cache.Enabled {
		t.Errorf("source/cache = %+v %+v", health.Source, health.Cache)
	}
	if got := health.Collections["devices"]; got.Status != types.CollectionFresh || got.Count != 4 {
		t.Errorf("devices collection = %+v", got)
	}

	bare := NewServer(s.view, nil, nil, testutil.NewTestLogger())
	if rec := do(t, bare, http.MethodGet, "/api/v1/infrastructure/health"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status without collector = %d, want 503", rec.Code)
	}
}

func TestListDevices(t *testing.T) {
	s := newTestServer(t, &fakeSource{ds: testutil.GateDataset()})

	tests := []struct {
		name    string
		target  string
		wantIDs []int
		filters int
	}{
		{"all", "/api/v1/devices", []int{1, 2, 3, 4}, 0},
		{"status and type", "/api/v1/devices?status=OFFLINE&type=Camera", []int{3}, 2},
		{"invalid status ignored", "/api/v1/devices?status=broken", []int{1, 2, 3, 4}, 0},
		{"unknown param ignored", "/api/v1/devices?colour=red&worker=edge-1", []int{1}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodGet, tt.target)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			got := decode[view.Devices](t, rec)
			if len(got.Rows) != len(tt.wantIDs) {
				t.Fatalf("rows = %d, want %d", len(got.Rows), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if got.Rows[i].ID != id {
					t.Errorf("row %d id = %d, want %d", i, got.Rows[i].ID, id)
				}
			}
			if len(got.Filters) != tt.filters {
				t.Errorf("filters = %v", got.Filters)
			}
			if got.Total != 4 {
				t.Errorf("total = %d", got.Total)
			}
		})
	}
}

func TestListDevicesReportsFetchErrors(t *testing.T) {
	s := newTestServer(t, &fakeSource{ds: testutil.GateDataset(), workerErr: errors.New("workers: status 500")})

	rec := do(t, s, http.MethodGet, "/api/v1/devices")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	got := decode[view.Devices](t, rec)
	if got.Errors[entity.KindWorkers] != "workers: status 500" {
		t.Errorf("errors = %v", got.Errors)
	}
	if len(got.Rows) != 4 || got.Rows[0].WorkerHostname != nil {
		t.Error("rows should render with unresolved workers")
	}
}

func TestGetDevice(t *testing.T) {
	s := newTestServer(t, &fakeSource{ds: testutil.GateDataset()})

	tests := []struct {
		name   string
		target string
		status int
	}{
		{"path", "/api/v1/devices/2", http.StatusOK},
		{"query", "/api/v1/devices?id=2", http.StatusOK},
		{"missing", "/api/v1/devices/77", http.StatusNotFound},
		{"bad id", "/api/v1/devices/abc", http.StatusBadRequest},
		{"bad query id", "/api/v1/devices?id=-1", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodGet, tt.target)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if tt.status == http.StatusOK {
				d := decode[types.EnrichedDevice](t, rec)
				if d.ID != 2 || d.DeviceTypeName != "Router" {
					t.Errorf("device = %+v", d)
				}
			}
		})
	}
}

func TestExportDevices(t *testing.T) {
	s := newTestServer(t, &fakeSource{ds: testutil.GateDataset()})

	rec := do(t, s, http.MethodGet, "/api/v1/devices/export?worker=edge-2")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != export.ContentType {
		t.Errorf("content type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "devices.csv") {
		t.Errorf("content disposition = %q", cd)
	}
	lines := strings.Split(rec.Body.String(), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want header + 2 rows:\n%s", len(lines), rec.Body.String())
	}
	if !strings.HasPrefix(lines[1], "1,Gate B Router,rtr-1,") || !strings.HasPrefix(lines[2], "2,Gate A Cam 2,cam-2,") {
		t.Errorf("rows = %q", lines[1:])
	}
}

func TestExportDevicesEmpty(t *testing.T) {
	s := newTestServer(t, &fakeSource{ds: testutil.GateDataset()})

	rec := do(t, s, http.MethodGet, "/api/v1/devices/export?location=Nowhere")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestExportWorkers(t *testing.T) {
	s := newTestServer(t, &fakeSource{ds: testutil.GateDataset()})

	rec := do(t, s, http.MethodGet, "/api/v1/workers/export")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.HasPrefix(rec.Body.String(), "S.No,Hostname,IP,Version,Status,Approval,Max Devices,Last Seen\n") {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestSummaryAndReport(t *testing.T) {
	s := newTestServer(t, &fakeSource{ds: testutil.GateDataset()})

	rec := do(t, s, http.MethodGet, "/api/v1/summary")
	if rec.Code != http.StatusOK {
		t.Fatalf("summary status = %d", rec.Code)
	}
	summary := decode[view.Summary](t, rec)
	if summary.Devices.Online != 2 || summary.Devices.Offline != 2 || summary.Totals.Workers != 2 {
		t.Errorf("summary = %+v", summary)
	}

	rec = do(t, s, http.MethodGet, "/api/v1/reports/workers")
	if rec.Code != http.StatusOK {
		t.Fatalf("report status = %d", rec.Code)
	}
	report := decode[map[string][]view.WorkerBucket](t, rec)
	if len(report["workers"]) != 2 || report["workers"][0].Worker != "edge-1" {
		t.Errorf("report = %+v", report)
	}
}

func TestRefresh(t *testing.T) {
	src := &fakeSource{ds: testutil.GateDataset()}
	s := newTestServer(t, src)

	rec := do(t, s, http.MethodPost, "/api/v1/refresh")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	body := decode[map[string][]RefreshResult](t, rec)
	if len(body["results"]) != len(entity.Kinds) {
		t.Errorf("results = %+v", body["results"])
	}

	rec = do(t, s, http.MethodPost, "/api/v1/refresh?kind=devices")
	if rec.Code != http.StatusOK {
		t.Fatalf("single kind status = %d", rec.Code)
	}
	body = decode[map[string][]RefreshResult](t, rec)
	if len(body["results"]) != 1 || body["results"][0].Count != 4 {
		t.Errorf("results = %+v", body["results"])
	}

	rec = do(t, s, http.MethodPost, "/api/v1/refresh?kind=subnets")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown kind status = %d, want 400", rec.Code)
	}

	src.workerErr = errors.New("timeout")
	rec = do(t, s, http.MethodPost, "/api/v1/refresh")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("failing refresh status = %d, want 502", rec.Code)
	}
	body = decode[map[string][]RefreshResult](t, rec)
	for _, res := range body["results"] {
		if res.Kind == entity.KindWorkers && res.Error != "timeout" {
			t.Errorf("worker result = %+v", res)
		}
		if res.Kind != entity.KindWorkers && res.Error != "" {
			t.Errorf("%s should not fail: %+v", res.Kind, res)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, &fakeSource{ds: testutil.GateDataset()})

	rec := do(t, s, http.MethodOptions, "/api/v1/devices")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t, &fakeSource{ds: testutil.GateDataset()})

	rec := do(t, s, http.MethodGet, "/api/v1/refresh")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}
