package daemon

import (
	"net/http"
	"strings"

	"cadence/internal/api"
	"cadence/internal/config"
)

type signInRequest struct {
	Name     string `json:"name"`
	Passcode string `json:"passcode"`
}

type signInResponse struct {
	Token   string          `json:"token"`
	Session api.SessionView `json:"session"`
	Done    bool            `json:"done,omitempty"`
}

// sessionResponse wraps session views so terminal no-work states render as a
// flag instead of an error.
type sessionResponse struct {
	Session api.SessionView `json:"session"`
	Done    bool            `json:"done,omitempty"`
}

func (s *apiServer) handleSignIn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req signInRequest
	if !s.readJSON(w, r, &req) {
		return
	}
	token, live, err := s.daemon.sessions.SignIn(r.Context(), req.Name, req.Passcode)
	if err != nil {
		s.writeSessionError(w, nil, err)
		return
	}
	s.writeJSON(w, http.StatusOK, signInResponse{
		Token:   token,
		Session: live.svc.View(),
		Done:    live.noWork,
	})
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, live *liveSession)

// withSession resolves the bearer token into a live session before invoking
// the handler.
func (s *apiServer) withSession(next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			s.writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		live, err := s.daemon.sessions.Resolve(strings.TrimPrefix(auth, "Bearer "))
		if err != nil {
			s.writeError(w, http.StatusUnauthorized, "unknown session token")
			return
		}
		next(w, r, live)
	}
}

// withGroundTruth additionally requires the distinguished ground-truth role.
func (s *apiServer) withGroundTruth(next sessionHandler) http.HandlerFunc {
	return s.withSession(func(w http.ResponseWriter, r *http.Request, live *liveSession) {
		if live.annotator.Role != config.RoleGroundTruth {
			s.writeError(w, http.StatusForbidden, "reconciliation requires the ground-truth role")
			return
		}
		next(w, r, live)
	})
}
