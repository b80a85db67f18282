package publisher_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/okian/touchdown/internal/adapters/publisher"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRedisStream(t *testing.T) {
	Convey("Given a redis stream publisher", t, func() {
		srv := miniredis.RunT(t)
		client := goredis.NewClient(&goredis.Options{Addr: srv.Addr()})
		p := publisher.NewRedisStream(client, "touchdown:notifications", 0)
		ctx := context.Background()

		Convey("When an event is published", func() {
			So(p.Publish(ctx, event()), ShouldBeNil)

			Convey("Then it is appended with its dedup key", func() {
				msgs, err := client.XRange(ctx, "touchdown:notifications", "-", "+").Result()
				So(err, ShouldBeNil)
				So(msgs, ShouldHaveLength, 1)
				So(msgs[0].Values["game_id"], ShouldEqual, "401547417")
				So(msgs[0].Values["dedup"], ShouldEqual, "401547417|2|5:30|Deebo Samuel|2023|7|TD")
			})
		})

		Convey("When the server is gone", func() {
			srv.Close()

			So(p.Publish(ctx, event()), ShouldNotBeNil)
		})
	})
}
