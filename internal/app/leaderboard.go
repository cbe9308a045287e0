package app

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/ecolens/ecolens/internal/domain/history"
	"github.com/ecolens/ecolens/internal/domain/leaderboard"
	"github.com/ecolens/ecolens/internal/domain/model"
	"github.com/ecolens/ecolens/internal/domain/stats"
	"github.com/ecolens/ecolens/pkg/logger"
	"github.com/ecolens/ecolens/pkg/metrics"
)

const userPrefix = "user:"

// Leaderboard returns the current ranking. For the default window a cached
// snapshot is served while fresh; any other window, or a stale snapshot,
// triggers a full rebuild. Either way the result is a best-effort
// point-in-time view, not linearizable with in-flight updates.
func (s *Service) Leaderboard(ctx context.Context, windowDays int, currentUserID string) ([]model.LeaderboardEntry, error) {
	if windowDays <= 0 {
		windowDays = s.windowDays
	}

	if windowDays == s.windowDays {
		s.snapMu.RLock()
		entries, builtAt := s.snapshot, s.snapBuilt
		s.snapMu.RUnlock()
		if entries != nil && s.now().Sub(builtAt) < s.snapshotTTL {
			return leaderboard.MarkCurrentUser(entries, currentUserID), nil
		}
	}

	entries, err := s.buildLeaderboard(ctx, windowDays)
	if err != nil {
		return nil, err
	}
	if windowDays == s.windowDays {
		s.storeSnapshot(entries)
	}
	return leaderboard.MarkCurrentUser(entries, currentUserID), nil
}

// refreshSnapshot is the cron entry point for background rebuilds.
func (s *Service) refreshSnapshot(ctx context.Context) {
	entries, err := s.buildLeaderboard(ctx, s.windowDays)
	if err != nil {
		s.logger.Error(ctx, "leaderboard refresh failed", logger.Error(err))
		return
	}
	s.storeSnapshot(entries)
}

func (s *Service) storeSnapshot(entries []model.LeaderboardEntry) {
	s.snapMu.Lock()
	s.snapshot = entries
	s.snapBuilt = s.now()
	s.snapMu.Unlock()
}

// buildLeaderboard scans every ledger and history log under the user prefix
// and ranks them. A single prefix scan returns both ledgers and history
// snapshots; history keys are told apart by their ":history" suffix.
func (s *Service) buildLeaderboard(ctx context.Context, windowDays int) ([]model.LeaderboardEntry, error) {
	start := time.Now()

	pairs, err := s.store.GetByPrefix(ctx, userPrefix)
	if err != nil {
		return nil, err
	}

	values := make(map[string][]byte, len(pairs))
	for _, p := range pairs {
		values[p.Key] = p.Value
	}

	var members []leaderboard.Member
	for _, p := range pairs {
		id := strings.TrimPrefix(p.Key, userPrefix)
		if strings.Contains(id, ":") {
			continue // history key, consumed via its owner below
		}
		var user model.User
		if err := json.Unmarshal(p.Value, &user); err != nil {
			s.logger.Warn(ctx, "skipping undecodable ledger", logger.String("key", p.Key), logger.Error(err))
			continue
		}
		log, err := history.Decode(values[historyKey(user.ID)])
		if err != nil {
			s.logger.Warn(ctx, "skipping undecodable history", logger.String("userID", user.ID), logger.Error(err))
			log = history.Log{}
		}
		members = append(members, leaderboard.Member{User: user, Entries: log.Entries})
	}

	entries := leaderboard.Rank(members, stats.WindowStart(s.now(), windowDays), "")

	metrics.RecordLeaderboardRebuild(time.Since(start))
	metrics.UpdateLeaderboardSize(len(entries))
	return entries, nil
}
