// Package stats reduces a user's history over a rolling window into the
// weekly summary figures shown in the UI and fed into the leaderboard.
package stats

import (
	"time"

	"github.com/ecolens/ecolens/internal/domain/model"
)

// SustainableThreshold is the boundary between "sustainable" and "not" on
// the 0-10 impact scale where lower is better.
const SustainableThreshold = 5.0

// WindowDays is the default trailing window.
const WindowDays = 7

// Summary holds the reduced figures for one user's window.
type Summary struct {
	Entries            []model.HistoryEntry `json:"weeklyHistory"`
	WeeklyXP           int                  `json:"weeklyXP"`
	AverageScore       float64              `json:"averageScore"`
	SustainabilityRate float64              `json:"sustainabilityRate"`
}

// Summarize reduces the entries with analyzedAt >= windowStart. XP sums are
// signed, so penalty analyses subtract from the weekly figure. Averages and
// rates are 0 for an empty window.
func Summarize(entries []model.HistoryEntry, windowStart time.Time) Summary {
	s := Summary{Entries: []model.HistoryEntry{}}

	var scoreSum float64
	var sustainable int
	for _, e := range entries {
		if e.AnalyzedAt.Before(windowStart) {
			continue
		}
		s.Entries = append(s.Entries, e)
		s.WeeklyXP += e.XPGained
		scoreSum += e.Score
		if e.Score <= SustainableThreshold {
			sustainable++
		}
	}

	if n := len(s.Entries); n > 0 {
		s.AverageScore = scoreSum / float64(n)
		s.SustainabilityRate = float64(sustainable) / float64(n) * 100
	}
	return s
}

// WindowStart returns the start of a trailing window of the given number of
// days ending at now.
func WindowStart(now time.Time, days int) time.Time {
	if days <= 0 {
		days = WindowDays
	}
	return now.Add(-time.Duration(days) * 24 * time.Hour)
}
