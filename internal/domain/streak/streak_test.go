package streak_test

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/ecolens/ecolens/internal/domain/model"
	"github.com/ecolens/ecolens/internal/domain/streak"
)

func entryAt(ts time.Time) model.HistoryEntry {
	return model.HistoryEntry{ID: ts.String(), Item: "bottle", Score: 3, XPGained: 100, AnalyzedAt: ts}
}

func TestCurrent(t *testing.T) {
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	day := func(n int) time.Time { return base.Add(time.Duration(n) * 24 * time.Hour) }

	Convey("Given an empty history", t, func() {
		Convey("Then the streak is zero", func() {
			So(streak.Current(nil, base), ShouldEqual, 0)
		})
	})

	Convey("Given one entry per day for three days", t, func() {
		entries := []model.HistoryEntry{entryAt(day(0)), entryAt(day(1)), entryAt(day(2))}

		Convey("When evaluated on the last active day", func() {
			So(streak.Current(entries, day(2).Add(time.Hour)), ShouldEqual, 3)
		})

		Convey("When evaluated one day after the last entry", func() {
			So(streak.Current(entries, day(3).Add(time.Hour)), ShouldEqual, 3)
		})

		Convey("When evaluated two days after the last entry", func() {
			Convey("Then the streak is broken regardless of continuity", func() {
				So(streak.Current(entries, day(4).Add(time.Hour)), ShouldEqual, 0)
			})
		})
	})

	Convey("Given multiple analyses on the same day", t, func() {
		entries := []model.HistoryEntry{
			entryAt(day(0)),
			entryAt(day(0).Add(6 * time.Hour)),
			entryAt(day(1)),
		}

		Convey("Then same-day duplicates do not inflate the streak", func() {
			So(streak.Current(entries, day(1).Add(time.Hour)), ShouldEqual, 2)
		})
	})

	Convey("Given a gap larger than one day inside the history", t, func() {
		entries := []model.HistoryEntry{entryAt(day(0)), entryAt(day(3)), entryAt(day(4))}

		Convey("Then the walk stops at the gap", func() {
			So(streak.Current(entries, day(4).Add(time.Hour)), ShouldEqual, 2)
		})
	})

	Convey("Given entries submitted out of order", t, func() {
		entries := []model.HistoryEntry{entryAt(day(2)), entryAt(day(0)), entryAt(day(1))}

		Convey("Then the computation re-sorts by analyzedAt", func() {
			So(streak.Current(entries, day(2).Add(time.Hour)), ShouldEqual, 3)
		})
	})
}
