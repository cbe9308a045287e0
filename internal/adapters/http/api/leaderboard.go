package api

import (
	"net/http"
	"strconv"

	"github.com/ecolens/ecolens/internal/domain/model"
)

type leaderboardResponse struct {
	Leaderboard []model.LeaderboardEntry `json:"leaderboard"`
}

// handleLeaderboard handles GET /leaderboard?window_days=N requests. The
// caller's own row is flagged in the response.
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request, caller string) {
	const op = "api.leaderboard"
	windowDays := 0
	if raw := r.URL.Query().Get("window_days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		if n > s.maxWindowDays {
			writeError(w, http.StatusBadRequest, "window_exceeded", NewKind(op, ErrBadRequest))
			return
		}
		windowDays = n
	}
	entries, err := s.deps.Leaderboard(r.Context(), windowDays, caller)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if entries == nil {
		entries = []model.LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, leaderboardResponse{Leaderboard: entries})
}
