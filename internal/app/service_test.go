package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/ecolens/ecolens/internal/adapters/kv"
	"github.com/ecolens/ecolens/internal/app"
	"github.com/ecolens/ecolens/internal/domain/model"
	"github.com/ecolens/ecolens/internal/domain/progress"
	"github.com/ecolens/ecolens/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// stubProvider returns a canned analysis without touching the network.
type stubProvider struct {
	analysis model.Analysis
	err      error
}

func (p *stubProvider) Analyze(_ context.Context, item string) (model.Analysis, error) {
	if p.err != nil {
		return model.Analysis{}, p.err
	}
	a := p.analysis
	if a.Item == "" {
		a.Item = item
	}
	return a, nil
}

// fakeClock is a settable service clock.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestService(ctx context.Context, p *stubProvider, clock *fakeClock) *app.Service {
	svc := app.New(
		app.WithStore(kv.NewMemoryStore()),
		app.WithProvider(p),
		app.WithClock(clock.Now),
		app.WithLeaderboardRefreshSpec(""),
		app.WithSnapshotTTL(time.Minute),
	)
	if err := svc.Start(ctx); err != nil {
		panic(err)
	}
	return svc
}

func TestAccounts(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}

	Convey("Given a running service", t, func() {
		svc := newTestService(ctx, &stubProvider{}, clock)
		Reset(svc.Stop)

		Convey("When a user signs up", func() {
			user, token, err := svc.Signup(ctx, "Dana", "Dana@Example.com", "hunter2")

			Convey("Then the ledger starts at level 1 with no XP", func() {
				So(err, ShouldBeNil)
				So(user.ID, ShouldNotBeEmpty)
				So(user.Level, ShouldEqual, 1)
				So(user.XP, ShouldEqual, 0)
				So(user.Email, ShouldEqual, "dana@example.com")
			})

			Convey("Then the password hash never leaves the service", func() {
				So(user.PasswordHash, ShouldBeEmpty)
				fetched, _, err := svc.GetUser(ctx, user.ID)
				So(err, ShouldBeNil)
				So(fetched.PasswordHash, ShouldBeEmpty)
			})

			Convey("Then the issued token resolves to the user", func() {
				caller, err := svc.ResolveSession(ctx, token)
				So(err, ShouldBeNil)
				So(caller, ShouldEqual, user.ID)
			})

			Convey("And a second signup with the same email is rejected", func() {
				_, _, err := svc.Signup(ctx, "Other", "dana@example.com", "secret")
				So(errors.Is(err, app.ErrValidation), ShouldBeTrue)
			})
		})

		Convey("When signup fields are missing", func() {
			_, _, err := svc.Signup(ctx, "", "a@b.c", "pw")
			So(errors.Is(err, app.ErrValidation), ShouldBeTrue)

			_, _, err = svc.Signup(ctx, "Dana", "", "pw")
			So(errors.Is(err, app.ErrValidation), ShouldBeTrue)

			_, _, err = svc.Signup(ctx, "Dana", "a@b.c", "")
			So(errors.Is(err, app.ErrValidation), ShouldBeTrue)
		})

		Convey("Given a signed-up user", func() {
			user, _, err := svc.Signup(ctx, "Dana", "dana@example.com", "hunter2")
			So(err, ShouldBeNil)

			Convey("When signing in with good credentials", func() {
				got, token, err := svc.Signin(ctx, "dana@example.com", "hunter2")

				Convey("Then the user and a working token return", func() {
					So(err, ShouldBeNil)
					So(got.ID, ShouldEqual, user.ID)
					So(got.PasswordHash, ShouldBeEmpty)
					caller, err := svc.ResolveSession(ctx, token)
					So(err, ShouldBeNil)
					So(caller, ShouldEqual, user.ID)
				})
			})

			Convey("When signing in with a wrong password", func() {
				_, _, err := svc.Signin(ctx, "dana@example.com", "wrong")
				So(errors.Is(err, app.ErrUnauthorized), ShouldBeTrue)
			})

			Convey("When signing in with an unknown email", func() {
				_, _, err := svc.Signin(ctx, "nobody@example.com", "hunter2")
				So(errors.Is(err, app.ErrUnauthorized), ShouldBeTrue)
			})

			Convey("When a session outlives its TTL", func() {
				_, token, err := svc.Signin(ctx, "dana@example.com", "hunter2")
				So(err, ShouldBeNil)

				clock.Advance(73 * time.Hour)
				Reset(func() { clock.Advance(-73 * time.Hour) })

				_, err = svc.ResolveSession(ctx, token)
				So(errors.Is(err, app.ErrUnauthorized), ShouldBeTrue)
			})

			Convey("When the profile name is updated", func() {
				name := "Dana Q."
				updated, err := svc.UpdateProfile(ctx, user.ID, progress.ProfileUpdate{Name: &name})

				Convey("Then the change persists without progression side effects", func() {
					So(err, ShouldBeNil)
					So(updated.Name, ShouldEqual, "Dana Q.")
					So(updated.XP, ShouldEqual, user.XP)
					So(updated.TotalAnalyses, ShouldEqual, user.TotalAnalyses)
				})
			})

			Convey("When the profile email changes", func() {
				email := "New@Example.com"
				updated, err := svc.UpdateProfile(ctx, user.ID, progress.ProfileUpdate{Email: &email})
				So(err, ShouldBeNil)
				So(updated.Email, ShouldEqual, "new@example.com")

				Convey("Then signin works with the new email only", func() {
					_, _, err := svc.Signin(ctx, "new@example.com", "hunter2")
					So(err, ShouldBeNil)

					_, _, err = svc.Signin(ctx, "dana@example.com", "hunter2")
					So(errors.Is(err, app.ErrUnauthorized), ShouldBeTrue)
				})
			})
		})

		Convey("When an unknown user is fetched", func() {
			_, _, err := svc.GetUser(ctx, "missing")
			So(errors.Is(err, app.ErrNotFound), ShouldBeTrue)
		})

		Convey("When an unknown or empty token is resolved", func() {
			_, err := svc.ResolveSession(ctx, "")
			So(errors.Is(err, app.ErrUnauthorized), ShouldBeTrue)

			_, err = svc.ResolveSession(ctx, "bogus")
			So(errors.Is(err, app.ErrUnauthorized), ShouldBeTrue)
		})
	})
}

func TestSubmitAnalysis(t *testing.T) {
	ctx := context.Background()

	Convey("Given a user and a provider awarding 120 XP", t, func() {
		clock := &fakeClock{t: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
		prov := &stubProvider{analysis: model.Analysis{SustainabilityScore: 7.5, XPGained: 120}}
		svc := newTestService(ctx, prov, clock)
		Reset(svc.Stop)

		user, _, err := svc.Signup(ctx, "Dana", "dana@example.com", "hunter2")
		So(err, ShouldBeNil)

		Convey("When an analysis is submitted", func() {
			res, err := svc.SubmitAnalysis(ctx, user.ID, "plastic bottle")

			Convey("Then the ledger folds in the XP and counters", func() {
				So(err, ShouldBeNil)
				So(res.User.XP, ShouldEqual, 120)
				So(res.User.Level, ShouldEqual, 1)
				So(res.User.TotalAnalyses, ShouldEqual, 1)
				So(res.User.CurrentStreak, ShouldEqual, 1)
				So(res.User.BestStreak, ShouldEqual, 1)
			})

			Convey("Then the history carries the new entry first", func() {
				So(res.History.Entries, ShouldHaveLength, 1)
				So(res.History.Entries[0].Item, ShouldEqual, "plastic bottle")
				So(res.History.Entries[0].Score, ShouldEqual, 7.5)
				So(res.History.Entries[0].XPGained, ShouldEqual, 120)
			})

			Convey("Then the notification reports the delta without a level up", func() {
				So(res.Notification.XPGained, ShouldEqual, 120)
				So(res.Notification.LeveledUp, ShouldBeFalse)
				So(res.Notification.NewLevel, ShouldEqual, 1)
			})

			Convey("Then a later read returns exactly what was persisted", func() {
				fetched, log, err := svc.GetUser(ctx, user.ID)
				So(err, ShouldBeNil)
				So(fetched, ShouldResemble, res.User)
				So(log.Entries, ShouldHaveLength, 1)
				So(log.Entries[0].ID, ShouldEqual, res.History.Entries[0].ID)
			})
		})

		Convey("When the XP crosses a level boundary", func() {
			prov.analysis = model.Analysis{SustainabilityScore: 1, XPGained: 1200}
			res, err := svc.SubmitAnalysis(ctx, user.ID, "bamboo toothbrush")

			Convey("Then the level advances and the notification says so", func() {
				So(err, ShouldBeNil)
				So(res.User.Level, ShouldEqual, 2)
				So(res.Notification.LeveledUp, ShouldBeTrue)
				So(res.Notification.NewLevel, ShouldEqual, 2)
			})
		})

		Convey("When a penalty would push XP below zero", func() {
			prov.analysis = model.Analysis{SustainabilityScore: 10, XPGained: -250}
			res, err := svc.SubmitAnalysis(ctx, user.ID, "styrofoam cooler")

			Convey("Then XP clamps at zero", func() {
				So(err, ShouldBeNil)
				So(res.User.XP, ShouldEqual, 0)
				So(res.User.Level, ShouldEqual, 1)
				So(res.Notification.XPGained, ShouldEqual, -250)
			})
		})

		Convey("When the item is blank", func() {
			_, err := svc.SubmitAnalysis(ctx, user.ID, "  ")
			So(errors.Is(err, app.ErrValidation), ShouldBeTrue)
		})

		Convey("When the provider fails", func() {
			prov.err = errors.New("upstream exploded")
			_, err := svc.SubmitAnalysis(ctx, user.ID, "bottle")

			Convey("Then no partial state is written", func() {
				So(err, ShouldNotBeNil)
				fetched, log, gerr := svc.GetUser(ctx, user.ID)
				So(gerr, ShouldBeNil)
				So(fetched.XP, ShouldEqual, 0)
				So(fetched.TotalAnalyses, ShouldEqual, 0)
				So(log.Entries, ShouldBeEmpty)
			})
		})

		Convey("When the user does not exist", func() {
			_, err := svc.SubmitAnalysis(ctx, "missing", "bottle")
			So(errors.Is(err, app.ErrNotFound), ShouldBeTrue)
		})

		Convey("When analyses land on consecutive days", func() {
			_, err := svc.SubmitAnalysis(ctx, user.ID, "bottle")
			So(err, ShouldBeNil)

			clock.Advance(24 * time.Hour)
			Reset(func() { clock.Advance(-24 * time.Hour) })

			res, err := svc.SubmitAnalysis(ctx, user.ID, "can")

			Convey("Then the streak extends", func() {
				So(err, ShouldBeNil)
				So(res.User.CurrentStreak, ShouldEqual, 2)
				So(res.User.BestStreak, ShouldEqual, 2)
			})
		})
	})
}

func TestClearHistoryAndWeeklyStats(t *testing.T) {
	ctx := context.Background()

	Convey("Given a user with recorded analyses", t, func() {
		clock := &fakeClock{t: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
		prov := &stubProvider{analysis: model.Analysis{SustainabilityScore: 3, XPGained: 300}}
		svc := newTestService(ctx, prov, clock)
		Reset(svc.Stop)

		user, _, err := svc.Signup(ctx, "Dana", "dana@example.com", "hunter2")
		So(err, ShouldBeNil)
		_, err = svc.SubmitAnalysis(ctx, user.ID, "bottle")
		So(err, ShouldBeNil)
		prov.analysis = model.Analysis{SustainabilityScore: 7, XPGained: 100}
		_, err = svc.SubmitAnalysis(ctx, user.ID, "can")
		So(err, ShouldBeNil)

		Convey("When weekly stats are computed", func() {
			summary, excluded, err := svc.WeeklyStats(ctx, user.ID)

			Convey("Then the window reduces both entries", func() {
				So(err, ShouldBeNil)
				So(excluded, ShouldEqual, 0)
				So(summary.Entries, ShouldHaveLength, 2)
				So(summary.WeeklyXP, ShouldEqual, 400)
				So(summary.AverageScore, ShouldEqual, 5.0)
				So(summary.SustainabilityRate, ShouldEqual, 50.0)
			})
		})

		Convey("When the history is cleared", func() {
			So(svc.ClearHistory(ctx, user.ID), ShouldBeNil)

			Convey("Then weekly stats drop to all zeros", func() {
				summary, excluded, err := svc.WeeklyStats(ctx, user.ID)
				So(err, ShouldBeNil)
				So(excluded, ShouldEqual, 0)
				So(summary.Entries, ShouldBeEmpty)
				So(summary.WeeklyXP, ShouldEqual, 0)
				So(summary.AverageScore, ShouldEqual, 0)
				So(summary.SustainabilityRate, ShouldEqual, 0)
			})

			Convey("Then the ledger's cumulative counters survive", func() {
				fetched, _, err := svc.GetUser(ctx, user.ID)
				So(err, ShouldBeNil)
				So(fetched.XP, ShouldEqual, 400)
				So(fetched.TotalAnalyses, ShouldEqual, 2)
			})

			Convey("And clearing again is a no-op", func() {
				So(svc.ClearHistory(ctx, user.ID), ShouldBeNil)
				_, log, err := svc.GetUser(ctx, user.ID)
				So(err, ShouldBeNil)
				So(log.Entries, ShouldBeEmpty)
			})
		})

		Convey("When history is cleared for an unknown user", func() {
			So(errors.Is(svc.ClearHistory(ctx, "missing"), app.ErrNotFound), ShouldBeTrue)
		})
	})

	Convey("Given a stored history snapshot with a malformed record", t, func() {
		clock := &fakeClock{t: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
		store := kv.NewMemoryStore()
		svc := app.New(
			app.WithStore(store),
			app.WithProvider(&stubProvider{}),
			app.WithClock(clock.Now),
			app.WithLeaderboardRefreshSpec(""),
		)
		So(svc.Start(ctx), ShouldBeNil)
		Reset(svc.Stop)

		user, _, err := svc.Signup(ctx, "Dana", "dana@example.com", "hunter2")
		So(err, ShouldBeNil)

		snapshot := `[
			{"id":"good","item":"bottle","score":4,"xpGained":200,"analyzedAt":"2025-03-09T09:00:00Z"},
			{"id":"bad","item":"can","score":6,"xpGained":100,"analyzedAt":"garbage"}
		]`
		So(store.Set(ctx, "user:"+user.ID+":history", []byte(snapshot)), ShouldBeNil)

		Convey("When weekly stats are computed", func() {
			summary, excluded, err := svc.WeeklyStats(ctx, user.ID)

			Convey("Then the malformed record is excluded and counted", func() {
				So(err, ShouldBeNil)
				So(excluded, ShouldEqual, 1)
				So(summary.Entries, ShouldHaveLength, 1)
				So(summary.WeeklyXP, ShouldEqual, 200)
			})
		})
	})
}

func TestLeaderboard(t *testing.T) {
	ctx := context.Background()

	Convey("Given three users with different lifetime XP", t, func() {
		clock := &fakeClock{t: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
		prov := &stubProvider{}
		svc := newTestService(ctx, prov, clock)
		Reset(svc.Stop)

		signupAndEarn := func(name, email string, xp int) model.User {
			user, _, err := svc.Signup(ctx, name, email, "pw")
			So(err, ShouldBeNil)
			prov.analysis = model.Analysis{SustainabilityScore: 3, XPGained: xp}
			_, err = svc.SubmitAnalysis(ctx, user.ID, "item")
			So(err, ShouldBeNil)
			return user
		}

		avery := signupAndEarn("Avery", "avery@example.com", 310)
		blair := signupAndEarn("Blair", "blair@example.com", 420)
		casey := signupAndEarn("Casey", "casey@example.com", 250)

		Convey("When the leaderboard is requested", func() {
			entries, err := svc.Leaderboard(ctx, 0, avery.ID)

			Convey("Then users rank by lifetime XP descending", func() {
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 3)
				So(entries[0].UserID, ShouldEqual, blair.ID)
				So(entries[0].Rank, ShouldEqual, 1)
				So(entries[1].UserID, ShouldEqual, avery.ID)
				So(entries[1].Rank, ShouldEqual, 2)
				So(entries[2].UserID, ShouldEqual, casey.ID)
				So(entries[2].Rank, ShouldEqual, 3)
			})

			Convey("Then only the caller's row is flagged", func() {
				So(err, ShouldBeNil)
				So(entries[1].IsCurrentUser, ShouldBeTrue)
				So(entries[0].IsCurrentUser, ShouldBeFalse)
				So(entries[2].IsCurrentUser, ShouldBeFalse)
			})

			Convey("Then weekly XP reflects the in-window gains", func() {
				So(err, ShouldBeNil)
				So(entries[0].WeeklyXP, ShouldEqual, 420)
				So(entries[1].WeeklyXP, ShouldEqual, 310)
				So(entries[2].WeeklyXP, ShouldEqual, 250)
			})
		})

		Convey("When a second caller asks within the snapshot TTL", func() {
			_, err := svc.Leaderboard(ctx, 0, avery.ID)
			So(err, ShouldBeNil)

			entries, err := svc.Leaderboard(ctx, 0, casey.ID)

			Convey("Then the cached snapshot is re-marked for them", func() {
				So(err, ShouldBeNil)
				So(entries[2].UserID, ShouldEqual, casey.ID)
				So(entries[2].IsCurrentUser, ShouldBeTrue)
				So(entries[1].IsCurrentUser, ShouldBeFalse)
			})
		})

		Convey("When a non-default window is requested", func() {
			entries, err := svc.Leaderboard(ctx, 3, "")

			Convey("Then the ranking is rebuilt for that window", func() {
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 3)
				So(entries[0].UserID, ShouldEqual, blair.ID)
			})
		})
	})

	Convey("Given no users at all", t, func() {
		clock := &fakeClock{t: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
		svc := newTestService(ctx, &stubProvider{}, clock)
		Reset(svc.Stop)

		Convey("Then the leaderboard is empty without error", func() {
			entries, err := svc.Leaderboard(ctx, 0, "")
			So(err, ShouldBeNil)
			So(entries, ShouldBeEmpty)
		})
	})
}
