// Package app provides the progression service that implements the
// dependencies required by the HTTP API.
package app

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ecolens/ecolens/internal/adapters/kv"
	"github.com/ecolens/ecolens/internal/adapters/provider"
	"github.com/ecolens/ecolens/internal/domain/model"
	"github.com/ecolens/ecolens/pkg/logger"
)

// Default service configuration constants.
const (
	defaultWindowDays  = 7
	defaultSnapshotTTL = time.Minute
	defaultSessionTTL  = 72 * time.Hour
	defaultRefreshSpec = "@every 1m"
)

// Service implements the progression API: per-user XP/level/streak updates,
// weekly stats, leaderboard ranking and account plumbing.
//
// Concurrency model: applyAnalysis-style updates are a read-modify-write per
// user and run under a per-user mutex; different users proceed in parallel.
// Leaderboard reads are non-transactional point-in-time snapshots.
type Service struct {
	mu sync.RWMutex

	store    kv.Store
	provider provider.Provider
	logger   logger.Logger

	windowDays  int
	refreshSpec string
	snapshotTTL time.Duration
	sessionTTL  time.Duration

	// Cached leaderboard snapshot, rebuilt by cron and on-demand when stale.
	snapMu    sync.RWMutex
	snapshot  []model.LeaderboardEntry
	snapBuilt time.Time

	// Per-user mutual exclusion for read-modify-write cycles.
	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	cron    *cron.Cron
	now     func() time.Time
	started bool
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the KV store backend.
func WithStore(store kv.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithProvider sets the analysis provider.
func WithProvider(p provider.Provider) Option {
	return func(s *Service) {
		if p != nil {
			s.provider = p
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithWindowDays sets the default trailing window for weekly figures.
func WithWindowDays(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.windowDays = days
		}
	}
}

// WithLeaderboardRefreshSpec sets the cron spec for background snapshot
// rebuilds. An empty spec disables the background refresher.
func WithLeaderboardRefreshSpec(spec string) Option {
	return func(s *Service) {
		s.refreshSpec = spec
	}
}

// WithSnapshotTTL sets how long a cached snapshot is served before an
// on-demand rebuild.
func WithSnapshotTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.snapshotTTL = ttl
		}
	}
}

// WithSessionTTL bounds the lifetime of session tokens.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

// WithClock overrides the service clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		windowDays:  defaultWindowDays,
		refreshSpec: defaultRefreshSpec,
		snapshotTTL: defaultSnapshotTTL,
		sessionTTL:  defaultSessionTTL,
		locks:       make(map[string]*sync.Mutex),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes the service and the background snapshot refresher.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.store == nil {
		s.store = kv.NewMemoryStore()
		s.logger.Info(ctx, "using in-memory store")
	}

	if s.refreshSpec != "" {
		c := cron.New()
		if _, err := c.AddFunc(s.refreshSpec, func() { s.refreshSnapshot(context.Background()) }); err != nil {
			return err
		}
		c.Start()
		s.cron = c
	}

	s.started = true
	s.logger.Info(ctx, "progression service started",
		logger.Int("windowDays", s.windowDays),
		logger.String("refreshSpec", s.refreshSpec),
	)
	return nil
}

// Stop shuts down the refresher and releases the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	if err := s.store.Close(); err != nil {
		s.logger.Error(context.Background(), "store close failed", logger.Error(err))
	}

	s.started = false
	s.logger.Info(context.Background(), "progression service stopped")
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	started := s.started
	windowDays := s.windowDays
	s.mu.RUnlock()

	s.snapMu.RLock()
	snapshotSize := len(s.snapshot)
	snapBuilt := s.snapBuilt
	s.snapMu.RUnlock()

	stats := map[string]interface{}{
		"started":      started,
		"windowDays":   windowDays,
		"snapshotSize": snapshotSize,
	}
	if !snapBuilt.IsZero() {
		stats["snapshotBuiltAt"] = snapBuilt
	}
	return stats
}

// userLock returns the mutex scoping updates for one user.
func (s *Service) userLock(userID string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	return l
}

// Key scheme, carried over from the original tracker's KV layout.

func userKey(userID string) string    { return "user:" + userID }
func historyKey(userID string) string { return "user:" + userID + ":history" }
func sessionKey(token string) string  { return "session:" + token }
func emailKey(email string) string    { return "email:" + email }
