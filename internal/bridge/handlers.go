package bridge

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/claude/amp/internal/api"
	"github.com/claude/amp/internal/models"
	"github.com/claude/amp/internal/session"
	"github.com/claude/amp/internal/view"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// viewResponse is the body of every successful command and of GET /api/view.
type viewResponse struct {
	State models.SessionState     `json:"state"`
	View  view.RenderInstructions `json:"view"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	creds := models.Credentials{Username: req.Username, Email: req.Email, Password: req.Password}
	if err := s.ctl.RequestRegister(r.Context(), creds); err != nil {
		s.writeCommandError(w, "register", err)
		return
	}
	s.writeView(w)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	if err := s.ctl.RequestLogin(r.Context(), req.Username, req.Password); err != nil {
		s.writeCommandError(w, "login", err)
		return
	}
	s.writeView(w)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.ctl.RequestLogout(r.Context()); err != nil {
		s.writeCommandError(w, "logout", err)
		return
	}
	s.writeView(w)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.ctl.RefreshWorkouts(r.Context())
	s.writeView(w)
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	s.writeView(w)
}

func (s *Server) handleAPIHealth(w http.ResponseWriter, r *http.Request) {
	healthy := s.ctl.CheckHealth(r.Context())
	writeJSON(w, http.StatusOK, map[string]bool{"healthy": healthy})
}

func (s *Server) writeView(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, viewResponse{State: s.ctl.State(), View: s.ctl.View()})
}

// writeCommandError maps controller errors to HTTP statuses. Rejections
// carry the server's message unchanged.
func (s *Server) writeCommandError(w http.ResponseWriter, op string, err error) {
	if ae, ok := session.IsAuthError(err); ok {
		status := http.StatusBadGateway
		if ae.Kind == api.Rejected {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, map[string]string{"error": ae.Message})
		return
	}

	switch {
	case errors.Is(err, session.ErrMissingCredentials):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, session.ErrBusy), errors.Is(err, session.ErrAlreadyLoggedIn):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		s.log.Error(op+" failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
