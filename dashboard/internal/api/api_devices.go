package api

import (
	"net/http"
	"strconv"

	"github.com/pilot-net/nms-dashboard/dashboard/internal/config"
	"github.com/pilot-net/nms-dashboard/dashboard/internal/export"
	"github.com/pilot-net/nms-dashboard/dashboard/internal/filter"
)

func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	if id := r.URL.Query().Get("id"); id != "" {
		s.writeDevice(w, r, id)
		return
	}

	s.ensureFresh(r.Context())
	state := filter.FromQuery(r.URL.Query())
	s.writeJSON(w, http.StatusOK, s.view.Devices(state))
}

func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	s.writeDevice(w, r, r.PathValue("id"))
}

func (s *Server) writeDevice(w http.ResponseWriter, r *http.Request, rawID string) {
	id, err := strconv.Atoi(rawID)
	if err != nil || id <= 0 {
		s.writeError(w, http.StatusBadRequest, "invalid device id")
		return
	}

	s.ensureFresh(r.Context())
	device, ok := s.view.Device(id)
	if !ok {
		s.writeError(w, http.StatusNotFound, "device not found")
		return
	}
	s.writeJSON(w, http.StatusOK, device)
}

func (s *Server) handleExportDevices(w http.ResponseWriter, r *http.Request) {
	s.ensureFresh(r.Context())
	state := filter.FromQuery(r.URL.Query())
	rows := s.view.Devices(state).Rows

	done, err := export.Export(export.HTTPDownloader{W: w}, config.DevicesExportFilename, rows, export.DeviceColumns())
	if err != nil {
		// Headers are already out; the client sees a truncated download.
		s.logger.Error("device export failed", "error", err)
		return
	}
	if !done {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.logger.Info("devices exported", "rows", len(rows), "filters", state.Active())
}

func (s *Server) handleExportWorkers(w http.ResponseWriter, r *http.Request) {
	s.ensureFresh(r.Context())
	workers := s.view.Workers()

	done, err := export.Export(export.HTTPDownloader{W: w}, config.WorkersExportFilename, workers, export.WorkerColumns())
	if err != nil {
		s.logger.Error("worker export failed", "error", err)
		return
	}
	if !done {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.logger.Info("workers exported", "rows", len(workers))
}
