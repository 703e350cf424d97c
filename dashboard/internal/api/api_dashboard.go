package api

import (
	"net/http"

	"github.com/pilot-net/nms-dashboard/dashboard/internal/entity"
	"github.com/pilot-net/nms-dashboard/dashboard/internal/refresh"
)

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	s.ensureFresh(r.Context())
	s.writeJSON(w, http.StatusOK, s.view.Summary())
}

func (s *Server) handleWorkerReport(w http.ResponseWriter, r *http.Request) {
	s.ensureFresh(r.Context())
	s.writeJSON(w, http.StatusOK, map[string]any{
		"workers": s.view.WorkerReport(),
	})
}

// RefreshResult is the outcome of one collection in a refresh response.
type RefreshResult struct {
	Kind       entity.Kind `json:"kind"`
	Count      int         `json:"count"`
	Superseded bool        `json:"superseded,omitempty"`
	Error      string      `json:"error,omitempty"`
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.refresher == nil {
		s.writeError(w, http.StatusServiceUnavailable, "refresher not initialized")
		return
	}

	var results []refresh.Result
	if raw := r.URL.Query().Get("kind"); raw != "" {
		kind, err := refresh.ParseKind(raw)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		results = []refresh.Result{s.refresher.Refresh(r.Context(), kind, true)}
	} else {
		results = s.refresher.RefreshAll(r.Context(), true)
	}

	out := make([]RefreshResult, 0, len(results))
	for _, res := range results {
		rr := RefreshResult{Kind: res.Kind, Count: res.Count, Superseded: res.Superseded}
		if res.Err != nil {
			rr.Error = res.Err.Error()
		}
		out = append(out, rr)
	}

	status := http.StatusOK
	if failed := refresh.Failed(results); failed != nil {
		s.logger.Warn("forced refresh had failures", "failed", failed)
		status = http.StatusBadGateway
	}
	s.writeJSON(w, status, map[string]any{
		"results": out,
	})
}
