package api

import (
	"encoding/json"
	"net/http"

	"github.com/ecolens/ecolens/internal/domain/model"
	"github.com/ecolens/ecolens/internal/domain/stats"
)

type weeklyStatsResponse struct {
	WeeklyHistory      []model.HistoryEntry `json:"weeklyHistory"`
	WeeklyXP           int                  `json:"weeklyXP"`
	AverageScore       float64              `json:"averageScore"`
	SustainabilityRate float64              `json:"sustainabilityRate"`
	ExcludedEntries    int                  `json:"excludedEntries,omitempty"`
}

// handleWeeklyStats handles GET /user/{id}/stats requests.
func (s *Server) handleWeeklyStats(w http.ResponseWriter, r *http.Request, caller string) {
	userID, ok := requireOwner(w, r, caller)
	if !ok {
		return
	}
	summary, excluded, err := s.deps.WeeklyStats(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toWeeklyStatsResponse(summary, excluded))
}

func toWeeklyStatsResponse(summary stats.Summary, excluded int) weeklyStatsResponse {
	entries := summary.Entries
	if entries == nil {
		entries = []model.HistoryEntry{}
	}
	return weeklyStatsResponse{
		WeeklyHistory:      entries,
		WeeklyXP:           summary.WeeklyXP,
		AverageScore:       summary.AverageScore,
		SustainabilityRate: summary.SustainabilityRate,
		ExcludedEntries:    excluded,
	}
}

// handleStats handles GET /stats requests with service statistics.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(s.statsProvider.GetStats())
}
