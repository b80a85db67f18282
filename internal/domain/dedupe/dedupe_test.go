package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/okian/touchdown/internal/domain/dedupe"
	"github.com/okian/touchdown/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func key(clock string) model.DedupKey {
	return model.DedupKey{
		GameID: "401", Quarter: 2, Clock: clock, PlayerName: "Deebo Samuel",
		Season: 2023, OwnerID: 7, Kind: model.KindTouchdown,
	}
}

func TestMemoryGate(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new memory gate", t, func() {
		g := dedupe.NewMemoryGate()
		So(g.Size(), ShouldEqual, 0)

		Convey("When a key is recorded for the first time", func() {
			ok, err := g.TryRecord(ctx, key("5:30"))

			Convey("Then it is inserted", func() {
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(g.Size(), ShouldEqual, 1)
			})

			Convey("And a second attempt is rejected", func() {
				ok, err := g.TryRecord(ctx, key("5:30"))
				So(err, ShouldBeNil)
				So(ok, ShouldBeFalse)
				So(g.Size(), ShouldEqual, 1)
			})
		})

		Convey("When keys differ only by kind", func() {
			td := key("5:30")
			big := td
			big.Kind = model.KindBigPlay

			a, _ := g.TryRecord(ctx, td)
			b, _ := g.TryRecord(ctx, big)

			Convey("Then both are inserted", func() {
				So(a, ShouldBeTrue)
				So(b, ShouldBeTrue)
			})
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := g.TryRecord(cctx, key("1:00"))

			Convey("Then the failure is a store failure", func() {
				So(errors.Is(err, dedupe.ErrStoreUnavailable), ShouldBeTrue)
				So(g.Size(), ShouldEqual, 0)
			})
		})

		Convey("When using nil context", func() {
			So(func() { _, _ = g.TryRecord(nil, key("1:00")) }, ShouldNotPanic)
		})
	})

	Convey("Given a bounded gate at capacity", t, func() {
		g := dedupe.NewMemoryGate(dedupe.WithMaxSize(3))
		for _, c := range []string{"1", "2", "3"} {
			ok, _ := g.TryRecord(ctx, key(c))
			So(ok, ShouldBeTrue)
		}

		Convey("When a fourth key arrives", func() {
			ok, _ := g.TryRecord(ctx, key("4"))

			Convey("Then the oldest key is evicted", func() {
				So(ok, ShouldBeTrue)
				So(g.Size(), ShouldEqual, 3)

				again, _ := g.TryRecord(ctx, key("4"))
				So(again, ShouldBeFalse)
				again, _ = g.TryRecord(ctx, key("3"))
				So(again, ShouldBeFalse)
				again, _ = g.TryRecord(ctx, key("1"))
				So(again, ShouldBeTrue)
			})
		})
	})

	Convey("Given an unbounded gate", t, func() {
		g := dedupe.NewMemoryGate(dedupe.WithMaxSize(0))
		for i := 0; i < 1000; i++ {
			ok, _ := g.TryRecord(ctx, key(fmt.Sprint(i)))
			So(ok, ShouldBeTrue)
		}
		So(g.Size(), ShouldEqual, 1000)
	})
}

func TestMemoryGateConcurrency(t *testing.T) {
	Convey("Given many workers racing on the same keys", t, func() {
		g := dedupe.NewMemoryGate()
		var inserted atomic.Int64
		var wg sync.WaitGroup

		for w := 0; w < 10; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 100; i++ {
					if ok, _ := g.TryRecord(context.Background(), key(fmt.Sprint(i))); ok {
						inserted.Add(1)
					}
				}
			}()
		}
		wg.Wait()

		Convey("Then each key is inserted exactly once", func() {
			So(inserted.Load(), ShouldEqual, 100)
			So(g.Size(), ShouldEqual, 100)
		})
	})
}

type slowGate struct{}

func (slowGate) TryRecord(ctx context.Context, _ model.DedupKey) (bool, error) {
	<-ctx.Done()
	return false, ctx.Err()
}

type failingGate struct{}

func (failingGate) TryRecord(context.Context, model.DedupKey) (bool, error) {
	return false, errors.New("connection refused")
}

func TestWithTimeout(t *testing.T) {
	Convey("Given a gate that never answers", t, func() {
		g := dedupe.WithTimeout(slowGate{}, 10*time.Millisecond)

		_, err := g.TryRecord(context.Background(), key("1"))

		Convey("Then the timeout surfaces as a store failure", func() {
			So(errors.Is(err, dedupe.ErrStoreUnavailable), ShouldBeTrue)
			So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
		})
	})

	Convey("Given a gate that fails", t, func() {
		_, err := dedupe.WithTimeout(failingGate{}, time.Second).TryRecord(context.Background(), key("1"))
		So(errors.Is(err, dedupe.ErrStoreUnavailable), ShouldBeTrue)
	})

	Convey("Given a zero timeout", t, func() {
		inner := dedupe.NewMemoryGate()
		So(dedupe.WithTimeout(inner, 0) == dedupe.Gate(inner), ShouldBeTrue)
	})
}
