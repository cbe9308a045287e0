// Package progress owns the per-user progression ledger: cumulative XP,
// derived level, analysis count and streak bookkeeping.
package progress

import (
	"time"

	"github.com/ecolens/ecolens/internal/domain/model"
	"github.com/ecolens/ecolens/internal/domain/streak"
)

// XPPerLevel is the XP span of one level: level = floor(xp/1000) + 1.
const XPPerLevel = 1000

// Apply folds a completed analysis into the ledger and returns the updated
// copy. entries must be the history snapshot after the new entry was
// appended, so the streak reflects the submission being applied.
//
// Invariants: xp never drops below 0 (deficits are clamped, not carried
// over), level is at least 1, and bestStreak is monotonically non-decreasing.
func Apply(u model.User, entries []model.HistoryEntry, xpGained int, now time.Time) model.User {
	u.XP = max(0, u.XP+xpGained)
	u.Level = max(1, u.XP/XPPerLevel+1)
	u.TotalAnalyses++
	u.CurrentStreak = streak.Current(entries, now)
	u.BestStreak = max(u.BestStreak, u.CurrentStreak)
	return u
}

// XPToNextLevel returns how much XP is left before the next level boundary.
func XPToNextLevel(level, xp int) int {
	return level*XPPerLevel - xp%XPPerLevel
}

// ProfileUpdate carries the optional profile fields a user may change.
type ProfileUpdate struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
}

// MergeProfile applies a profile update to the ledger. It is a pure field
// merge with no XP, streak or counter side effects.
func MergeProfile(u model.User, upd ProfileUpdate) model.User {
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	return u
}

// NewUser creates the ledger for a fresh account: no XP, level 1, empty
// counters.
func NewUser(id, name, email string, now time.Time) model.User {
	return model.User{
		ID:       id,
		Name:     name,
		Email:    email,
		Level:    1,
		JoinDate: now,
	}
}
