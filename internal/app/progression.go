package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ecolens/ecolens/internal/domain/history"
	"github.com/ecolens/ecolens/internal/domain/model"
	"github.com/ecolens/ecolens/internal/domain/progress"
	"github.com/ecolens/ecolens/internal/domain/stats"
	"github.com/ecolens/ecolens/pkg/logger"
	"github.com/ecolens/ecolens/pkg/metrics"
)

// SubmitResult is the outcome of one analysis submission: the updated
// ledger, the updated history snapshot and the tagged XP notification.
type SubmitResult struct {
	User         model.User
	History      history.Log
	Notification model.Notification
}

// SubmitAnalysis runs the full progression update for one item: analyze via
// the external provider, append to the history log, recompute the streak and
// fold the XP delta into the ledger.
//
// The provider call happens before the per-user lock is taken; only the
// read-modify-write on ledger+history is serialized. The update either fully
// succeeds or returns an error with no partial result.
func (s *Service) SubmitAnalysis(ctx context.Context, userID, item string) (SubmitResult, error) {
	if strings.TrimSpace(item) == "" {
		return SubmitResult{}, fmt.Errorf("%w: item is required", ErrValidation)
	}

	analysis, err := s.provider.Analyze(ctx, item)
	if err != nil {
		metrics.RecordAnalysisFailed()
		return SubmitResult{}, err
	}

	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		metrics.RecordAnalysisFailed()
		return SubmitResult{}, err
	}
	log, err := s.loadHistory(ctx, userID)
	if err != nil {
		metrics.RecordAnalysisFailed()
		return SubmitResult{}, err
	}

	now := s.now()
	entry := model.HistoryEntry{
		ID:         uuid.NewString(),
		Item:       analysis.Item,
		Score:      analysis.SustainabilityScore,
		XPGained:   analysis.XPGained,
		AnalyzedAt: now,
	}
	newLog := history.Append(log, entry)
	updated := progress.Apply(user, newLog.Entries, analysis.XPGained, now)

	// Ledger and history are persisted together as one logical transaction.
	// The store offers single-key writes only, so the history goes first:
	// if the ledger write then fails the caller sees an error and retries,
	// and the duplicate history entry is bounded by the log capacity.
	if err := s.saveHistory(ctx, userID, newLog); err != nil {
		metrics.RecordAnalysisFailed()
		return SubmitResult{}, err
	}
	if err := s.saveUser(ctx, updated); err != nil {
		metrics.RecordAnalysisFailed()
		return SubmitResult{}, err
	}

	metrics.RecordAnalysisProcessed()
	leveledUp := updated.Level > user.Level
	if leveledUp {
		metrics.RecordLevelUp()
		s.logger.Info(ctx, "user leveled up",
			logger.String("userID", userID),
			logger.Int("level", updated.Level),
		)
	}

	return SubmitResult{
		User:    sanitize(updated),
		History: newLog,
		Notification: model.Notification{
			XPGained:  analysis.XPGained,
			LeveledUp: leveledUp,
			NewLevel:  updated.Level,
		},
	}, nil
}

// ClearHistory empties the user's history log. The ledger's cumulative
// counters are untouched.
func (s *Service) ClearHistory(ctx context.Context, userID string) error {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	if _, err := s.loadUser(ctx, userID); err != nil {
		return err
	}
	if err := s.saveHistory(ctx, userID, history.Clear()); err != nil {
		return err
	}
	metrics.RecordHistoryCleared()
	return nil
}

// WeeklyStats reduces the user's trailing window into summary figures. The
// second return value counts malformed history entries excluded from the
// computation.
func (s *Service) WeeklyStats(ctx context.Context, userID string) (stats.Summary, int, error) {
	if _, err := s.loadUser(ctx, userID); err != nil {
		return stats.Summary{}, 0, err
	}
	log, err := s.loadHistory(ctx, userID)
	if err != nil {
		return stats.Summary{}, 0, err
	}
	summary := stats.Summarize(log.Entries, stats.WindowStart(s.now(), s.windowDays))
	return summary, log.Malformed, nil
}
