// Package leaderboard ranks all users by lifetime XP with per-user weekly
// XP deltas.
//
// Ranking is a full recompute over every ledger and history log on each
// call. The data source is small enough to scan in full; this is a
// deliberate simplicity/scale tradeoff, not incremental maintenance that
// went missing.
package leaderboard

import (
	"sort"
	"time"

	"github.com/ecolens/ecolens/internal/domain/model"
	"github.com/ecolens/ecolens/internal/domain/stats"
)

// Member pairs one user's ledger with their history snapshot.
type Member struct {
	User    model.User
	Entries []model.HistoryEntry
}

// Rank orders members by lifetime XP descending and assigns dense 1-based
// ranks. Users with identical XP are ordered by ascending user ID so the
// result is deterministic regardless of scan order. weeklyXP is the signed
// sum of xpGained for entries at or after windowStart.
func Rank(members []Member, windowStart time.Time, currentUserID string) []model.LeaderboardEntry {
	sorted := make([]Member, len(members))
	copy(sorted, members)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].User.XP != sorted[j].User.XP {
			return sorted[i].User.XP > sorted[j].User.XP
		}
		return sorted[i].User.ID < sorted[j].User.ID
	})

	entries := make([]model.LeaderboardEntry, len(sorted))
	for i, m := range sorted {
		name := m.User.Name
		if name == "" {
			name = "Unknown"
		}
		weekly := stats.Summarize(m.Entries, windowStart)
		entries[i] = model.LeaderboardEntry{
			UserID:        m.User.ID,
			Name:          name,
			Level:         m.User.Level,
			XP:            m.User.XP,
			WeeklyXP:      weekly.WeeklyXP,
			Rank:          i + 1,
			IsCurrentUser: m.User.ID == currentUserID,
		}
	}
	return entries
}

// MarkCurrentUser returns a copy of entries with IsCurrentUser set for the
// given user, so one computed snapshot can serve many callers.
func MarkCurrentUser(entries []model.LeaderboardEntry, currentUserID string) []model.LeaderboardEntry {
	out := make([]model.LeaderboardEntry, len(entries))
	copy(out, entries)
	for i := range out {
		out[i].IsCurrentUser = out[i].UserID == currentUserID
	}
	return out
}
