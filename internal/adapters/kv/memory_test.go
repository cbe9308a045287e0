package kv_test

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/ecolens/ecolens/internal/adapters/kv"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	Convey("Given an empty memory store", t, func() {
		store := kv.NewMemoryStore()

		Convey("When a missing key is read", func() {
			v, ok, err := store.Get(ctx, "user:none")

			Convey("Then the store reports absence without error", func() {
				So(err, ShouldBeNil)
				So(ok, ShouldBeFalse)
				So(v, ShouldBeNil)
			})
		})

		Convey("When a value is written and read back", func() {
			payload := []byte(`{"id":"u1","xp":400}`)
			So(store.Set(ctx, "user:u1", payload), ShouldBeNil)

			v, ok, err := store.Get(ctx, "user:u1")

			Convey("Then the bytes are identical", func() {
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(v, ShouldResemble, payload)
			})

			Convey("Then mutating the returned slice does not affect the store", func() {
				v[0] = 'X'
				again, _, err := store.Get(ctx, "user:u1")
				So(err, ShouldBeNil)
				So(again, ShouldResemble, payload)
			})
		})

		Convey("When a key is overwritten", func() {
			So(store.Set(ctx, "user:u1", []byte("first")), ShouldBeNil)
			So(store.Set(ctx, "user:u1", []byte("second")), ShouldBeNil)

			v, ok, err := store.Get(ctx, "user:u1")

			Convey("Then the last write wins", func() {
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(string(v), ShouldEqual, "second")
			})
		})
	})

	Convey("Given a store with mixed keys", t, func() {
		store := kv.NewMemoryStore()
		So(store.Set(ctx, "user:b", []byte("b")), ShouldBeNil)
		So(store.Set(ctx, "user:a", []byte("a")), ShouldBeNil)
		So(store.Set(ctx, "user:a:history", []byte("h")), ShouldBeNil)
		So(store.Set(ctx, "session:s1", []byte("s")), ShouldBeNil)

		Convey("When scanned by prefix", func() {
			pairs, err := store.GetByPrefix(ctx, "user:")

			Convey("Then only matching keys return, ordered by key", func() {
				So(err, ShouldBeNil)
				So(pairs, ShouldHaveLength, 3)
				So(pairs[0].Key, ShouldEqual, "user:a")
				So(pairs[1].Key, ShouldEqual, "user:a:history")
				So(pairs[2].Key, ShouldEqual, "user:b")
			})
		})

		Convey("When scanned with a prefix that matches nothing", func() {
			pairs, err := store.GetByPrefix(ctx, "leaderboard:")

			Convey("Then the result is empty", func() {
				So(err, ShouldBeNil)
				So(pairs, ShouldBeEmpty)
			})
		})
	})

	Convey("Given a closed store", t, func() {
		store := kv.NewMemoryStore()
		So(store.Set(ctx, "user:u1", []byte("v")), ShouldBeNil)
		So(store.Close(), ShouldBeNil)

		Convey("Then every operation fails with ErrClosed", func() {
			_, _, err := store.Get(ctx, "user:u1")
			So(errors.Is(err, kv.ErrClosed), ShouldBeTrue)

			err = store.Set(ctx, "user:u1", []byte("v"))
			So(errors.Is(err, kv.ErrClosed), ShouldBeTrue)

			_, err = store.GetByPrefix(ctx, "user:")
			So(errors.Is(err, kv.ErrClosed), ShouldBeTrue)
		})
	})
}
