package http

import (
	"net/http"
	"strconv"
	"sync/atomic"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

type userRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// registration is the reply to POST /api/users. Warning is set when the user
// was created but its profile or default categories were not.
type registration struct {
	User    core.User `json:"user"`
	Warning string    `json:"warning,omitempty"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	u, err := s.deps.Registration.Register(r.Context(), sanitizeInput(req.Username), sanitizeInput(req.Email))
	if u.ID == 0 {
		writeError(w, r, err)
		return
	}
	s.knownUsers.Set(strconv.FormatInt(u.ID, 10), true)

	resp := registration{User: u}
	if err != nil {
		log.LogError(r.Context(), "User registered with incomplete setup", err,
			log.ComponentAdmin, log.OpCreate, log.NewFields().WithUser(u.ID))
		resp.Warning = err.Error()
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request, userID int64) error {
	stats, err := s.deps.Stats.Dashboard(r.Context(), userID)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, stats)
	return nil
}

func (s *Server) handleAdminUsers(w http.ResponseWriter, r *http.Request, userID int64) error {
	users, err := s.deps.Admin.ListUsers(r.Context(), userID)
	if err != nil {
		return err
	}
	if users == nil {
		users = []services.UserWithRole{}
	}
	writeJSON(w, http.StatusOK, users)
	return nil
}

func (s *Server) handleAdminRunRecurring(w http.ResponseWriter, r *http.Request, userID int64) error {
	processed, err := s.deps.Admin.RunRecurring(r.Context(), userID)
	if err != nil {
		return err
	}
	atomic.AddInt64(&s.appMetrics.recurringProcessed, int64(processed))
	log.FromContext(r.Context()).InfoContext(r.Context(), "Recurring run triggered by administrator",
		log.FieldComponent, log.ComponentAdmin, "processed", processed)
	writeJSON(w, http.StatusOK, map[string]int{"processed": processed})
	return nil
}
