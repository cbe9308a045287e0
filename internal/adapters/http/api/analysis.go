package api

import (
	"encoding/json"
	"net/http"

	"github.com/ecolens/ecolens/internal/domain/model"
)

type analysisRequest struct {
	Item string `json:"item"`
}

type analysisResponse struct {
	User         model.User           `json:"userData"`
	History      []model.HistoryEntry `json:"history"`
	Notification model.Notification   `json:"notification"`
}

// handleSubmitAnalysis handles POST /user/{id}/analysis requests.
func (s *Server) handleSubmitAnalysis(w http.ResponseWriter, r *http.Request, caller string) {
	const op = "api.analysis"
	userID, ok := requireOwner(w, r, caller)
	if !ok {
		return
	}
	var req analysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	result, err := s.deps.SubmitAnalysis(r.Context(), userID, req.Item)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analysisResponse{
		User:         result.User,
		History:      historyEntries(result.History),
		Notification: result.Notification,
	})
}

// handleClearHistory handles DELETE /user/{id}/history requests.
func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request, caller string) {
	userID, ok := requireOwner(w, r, caller)
	if !ok {
		return
	}
	if err := s.deps.ClearHistory(r.Context(), userID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Status string `json:"status"`
	}{Status: "cleared"})
}
