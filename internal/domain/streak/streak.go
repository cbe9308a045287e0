// Package streak derives consecutive-day activity streaks from a history
// snapshot.
package streak

import (
	"sort"
	"time"

	"github.com/ecolens/ecolens/internal/domain/model"
)

const day = 24 * time.Hour

// Current returns the user's consecutive-day streak evaluated at now.
//
// Rules:
//   - an empty history has no streak;
//   - if the most recent entry is more than one day old relative to now, the
//     streak is 0 regardless of historical continuity;
//   - otherwise the sorted entries are walked newest to oldest: a one-day gap
//     extends the streak, a same-day entry neither extends nor advances it,
//     and any larger gap ends the walk.
func Current(entries []model.HistoryEntry, now time.Time) int {
	if len(entries) == 0 {
		return 0
	}

	sorted := make([]model.HistoryEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].AnalyzedAt.After(sorted[j].AnalyzedAt)
	})

	if daysBetween(sorted[0].AnalyzedAt, now) > 1 {
		return 0
	}

	streak := 1
	prev := sorted[0].AnalyzedAt
	for _, e := range sorted[1:] {
		switch d := daysBetween(e.AnalyzedAt, prev); {
		case d == 1:
			streak++
			prev = e.AnalyzedAt
		case d == 0:
			// Same day, multiple analyses: does not inflate the streak.
		default:
			return streak
		}
	}
	return streak
}

// daysBetween is floor((later-earlier)/24h) on raw timestamps, matching the
// millisecond arithmetic of the original tracker rather than calendar dates.
func daysBetween(earlier, later time.Time) int {
	d := later.Sub(earlier)
	if d < 0 {
		return 0
	}
	return int(d / day)
}
