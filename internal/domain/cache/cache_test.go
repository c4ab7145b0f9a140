package cache_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/okian/entretien/internal/domain/cache"
	"github.com/okian/entretien/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCache(t *testing.T) {
	Convey("Given an empty cache", t, func() {
		ctx := context.Background()
		c := cache.New(cache.WithMaxSize(3))

		Convey("When looking up a missing key", func() {
			_, ok := c.Get(ctx, "absent")

			Convey("Then it should miss", func() {
				So(ok, ShouldBeFalse)
				So(c.Size(), ShouldEqual, 0)
			})
		})

		Convey("When storing and reading back a prediction", func() {
			want := model.Prediction{Label: 1, Probability: 0.87}
			c.Put(ctx, "k1", want)

			got, ok := c.Get(ctx, "k1")

			Convey("Then the stored value should round-trip", func() {
				So(ok, ShouldBeTrue)
				So(got, ShouldResemble, want)
				So(c.Size(), ShouldEqual, 1)
			})
		})

		Convey("When overwriting an existing key", func() {
			c.Put(ctx, "k1", model.Prediction{Label: 0, Probability: 0.1})
			c.Put(ctx, "k1", model.Prediction{Label: 1, Probability: 0.9})

			got, ok := c.Get(ctx, "k1")

			Convey("Then the latest value should win without growing", func() {
				So(ok, ShouldBeTrue)
				So(got.Probability, ShouldEqual, 0.9)
				So(c.Size(), ShouldEqual, 1)
			})
		})

		Convey("When exceeding the maximum size", func() {
			for i := 0; i < 4; i++ {
				c.Put(ctx, fmt.Sprintf("k%d", i), model.Prediction{Label: 1, Probability: 0.5})
			}

			Convey("Then the oldest entry should have been evicted", func() {
				So(c.Size(), ShouldEqual, 3)
				_, ok := c.Get(ctx, "k0")
				So(ok, ShouldBeFalse)
				_, ok = c.Get(ctx, "k3")
				So(ok, ShouldBeTrue)
			})
		})

		Convey("When an entry is read it becomes most recently used", func() {
			c.Put(ctx, "a", model.Prediction{Probability: 0.1})
			c.Put(ctx, "b", model.Prediction{Probability: 0.2})
			c.Put(ctx, "c", model.Prediction{Probability: 0.3})

			// Touch "a" so "b" is now the eviction candidate.
			_, _ = c.Get(ctx, "a")
			c.Put(ctx, "d", model.Prediction{Probability: 0.4})

			Convey("Then eviction should follow recency, not insertion", func() {
				_, ok := c.Get(ctx, "b")
				So(ok, ShouldBeFalse)
				_, ok = c.Get(ctx, "a")
				So(ok, ShouldBeTrue)
			})
		})
	})
}
