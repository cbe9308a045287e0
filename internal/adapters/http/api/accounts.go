package api

import (
	"encoding/json"
	"net/http"

	"github.com/ecolens/ecolens/internal/domain/history"
	"github.com/ecolens/ecolens/internal/domain/model"
	"github.com/ecolens/ecolens/internal/domain/progress"
)

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	User        model.User `json:"userData"`
	AccessToken string     `json:"accessToken"`
}

type userResponse struct {
	User    model.User           `json:"userData"`
	History []model.HistoryEntry `json:"history"`

	// ExcludedEntries counts malformed history records dropped from the
	// snapshot, so corruption is observable rather than silent.
	ExcludedEntries int `json:"excludedEntries,omitempty"`
}

// handleSignup handles POST /signup requests.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	const op = "api.signup"
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	user, token, err := s.deps.Signup(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{User: user, AccessToken: token})
}

// handleSignin handles POST /signin requests.
func (s *Server) handleSignin(w http.ResponseWriter, r *http.Request) {
	const op = "api.signin"
	var req signinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	user, token, err := s.deps.Signin(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{User: user, AccessToken: token})
}

// handleGetUser handles GET /user/{id} requests.
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request, caller string) {
	userID, ok := requireOwner(w, r, caller)
	if !ok {
		return
	}
	user, log, err := s.deps.GetUser(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{
		User:            user,
		History:         historyEntries(log),
		ExcludedEntries: log.Malformed,
	})
}

// handleUpdateUser handles PUT /user/{id} requests.
func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request, caller string) {
	const op = "api.user_update"
	userID, ok := requireOwner(w, r, caller)
	if !ok {
		return
	}
	var upd progress.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	user, err := s.deps.UpdateProfile(r.Context(), userID, upd)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		User model.User `json:"userData"`
	}{User: user})
}

func historyEntries(log history.Log) []model.HistoryEntry {
	if log.Entries == nil {
		return []model.HistoryEntry{}
	}
	return log.Entries
}
