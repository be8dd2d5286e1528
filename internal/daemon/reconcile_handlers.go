package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"cadence/internal/reconcile"
)

type reconcileRequest struct {
	Snapshots []json.RawMessage `json:"snapshots"`
}

func (s *apiServer) handleReconcile(w http.ResponseWriter, r *http.Request, live *liveSession) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req reconcileRequest
	if !s.readJSON(w, r, &req) {
		return
	}
	if len(req.Snapshots) == 0 {
		s.writeError(w, http.StatusBadRequest, "no snapshots supplied")
		return
	}
	payloads := make([][]byte, len(req.Snapshots))
	for i, raw := range req.Snapshots {
		payloads[i] = []byte(raw)
	}
	sets, err := s.daemon.reconcile.ParseSets(payloads)
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	truth, err := reconcile.FromSnapshot(live.svc.Snapshot())
	if err != nil {
		s.writeError(w, http.StatusConflict, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, s.daemon.reconcile.Report(truth, sets))
}

type finalizeResponse struct {
	Labels      int    `json:"labels"`
	Summaries   int    `json:"summaries"`
	LabelsPath  string `json:"labelsPath"`
	SummaryPath string `json:"summaryPath"`
}

// handleFinalize expands the live ground-truth session into derived labels
// and writes both tables into the export directory.
func (s *apiServer) handleFinalize(w http.ResponseWriter, r *http.Request, live *liveSession) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	truth, err := reconcile.FromSnapshot(live.svc.Snapshot())
	if err != nil {
		s.writeError(w, http.StatusConflict, err.Error())
		return
	}
	result, err := s.daemon.reconcile.Finalize(truth)
	if err != nil {
		var incomplete *reconcile.IncompleteError
		if errors.As(err, &incomplete) {
			s.writeError(w, http.StatusConflict, incomplete.Error())
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	exportDir := s.daemon.cfg.Paths.ExportDir
	stamp := time.Now().Format("20060102-150405")
	labelsPath := filepath.Join(exportDir, fmt.Sprintf("derived_labels_%s.csv", stamp))
	summaryPath := filepath.Join(exportDir, fmt.Sprintf("battle_summary_%s.csv", stamp))
	if err := os.WriteFile(labelsPath, result.LabelsCSV, 0o644); err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("write labels: %v", err))
		return
	}
	if err := os.WriteFile(summaryPath, result.Summary, 0o644); err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("write summary: %v", err))
		return
	}
	s.writeJSON(w, http.StatusOK, finalizeResponse{
		Labels:      result.Labels,
		Summaries:   result.Summaries,
		LabelsPath:  labelsPath,
		SummaryPath: summaryPath,
	})
}
