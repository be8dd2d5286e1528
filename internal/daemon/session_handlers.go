package daemon

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cadence/internal/api"
	"cadence/internal/dataset"
)

func (s *apiServer) handleSession(w http.ResponseWriter, r *http.Request, live *liveSession) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, sessionResponse{Session: live.svc.View(), Done: live.noWork})
}

func (s *apiServer) handleSubmit(w http.ResponseWriter, r *http.Request, live *liveSession) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req api.SubmitRequest
	if !s.readJSON(w, r, &req) {
		return
	}
	view, err := live.svc.Submit(r.Context(), req)
	if err != nil {
		s.writeSessionError(w, live, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sessionResponse{Session: view})
}

func (s *apiServer) handleClear(w http.ResponseWriter, r *http.Request, live *liveSession) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	view, err := live.svc.Clear(r.Context())
	if err != nil {
		s.writeSessionError(w, live, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sessionResponse{Session: view})
}

func (s *apiServer) handleAdvance(w http.ResponseWriter, r *http.Request, live *liveSession) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	view, err := live.svc.Advance(r.Context())
	if err != nil {
		s.writeSessionError(w, live, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sessionResponse{Session: view})
}

type seekRequest struct {
	Delta int `json:"delta"`
}

func (s *apiServer) handleSeek(w http.ResponseWriter, r *http.Request, live *liveSession) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req seekRequest
	if !s.readJSON(w, r, &req) {
		return
	}
	view := live.svc.Seek(r.Context(), req.Delta)
	s.writeJSON(w, http.StatusOK, sessionResponse{Session: view})
}

func (s *apiServer) handleExport(w http.ResponseWriter, r *http.Request, live *liveSession) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	data, err := live.svc.Export(r.Context())
	if err != nil {
		s.writeSessionError(w, live, err)
		return
	}
	name := fmt.Sprintf("cadence_%s_%s_%s.json",
		s.daemon.cfg.Dataset.ID, live.annotator.ID, time.Now().Format("20060102-150405"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *apiServer) handleImport(w http.ResponseWriter, r *http.Request, live *liveSession) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("read snapshot: %v", err))
		return
	}
	// Imports into a live session always check identity; loading someone
	// else's file over your own progress is a 409, not a merge.
	view, err := live.svc.Import(r.Context(), data, true)
	if err != nil {
		s.writeError(w, http.StatusConflict, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, sessionResponse{Session: view})
}

func (s *apiServer) handleMedia(w http.ResponseWriter, r *http.Request, live *liveSession) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/media/")
	if id == "" || strings.Contains(id, "/") {
		s.writeError(w, http.StatusNotFound, "unknown clip")
		return
	}
	unit, ok := s.daemon.col.Resolve(id)
	if !ok {
		s.writeError(w, http.StatusNotFound, "unknown clip")
		return
	}
	base := s.daemon.cfg.Dataset.MediaBaseDir
	if r.URL.Query().Get("probe") == "1" {
		s.writeJSON(w, http.StatusOK, dataset.ProbeMedia(r.Context(), base, unit))
		return
	}
	resolved := dataset.ResolveMedia(base, unit.MediaRef)
	if strings.HasPrefix(resolved, "http://") || strings.HasPrefix(resolved, "https://") {
		http.Redirect(w, r, resolved, http.StatusTemporaryRedirect)
		return
	}
	http.ServeFile(w, r, resolved)
}
