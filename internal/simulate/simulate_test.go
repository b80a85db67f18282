package simulate_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/touchdown/internal/adapters/http/api"
	"github.com/okian/touchdown/internal/adapters/publisher"
	service "github.com/okian/touchdown/internal/app"
	"github.com/okian/touchdown/internal/simulate"
)

func newServer() *httptest.Server {
	svc := service.New(service.WithPipeline(service.NewPipeline(
		service.WithPublisher(publisher.NewFanout()),
	)))
	return httptest.NewServer(api.NewServer(svc).Router(context.Background()))
}

func TestRun(t *testing.T) {
	convey.Convey("Given a running service", t, func() {
		srv := newServer()
		defer srv.Close()

		cfg := &simulate.Config{
			BaseURL:    srv.URL,
			Games:      5,
			Workers:    3,
			Timeout:    5 * time.Second,
			Season:     2024,
			OutputFile: filepath.Join(t.TempDir(), "out", "games.json"),
		}

		convey.Convey("When the simulation runs", func() {
			stats, err := simulate.Run(context.Background(), cfg)

			convey.Convey("Then the first pass emits every expected notification and the replay none", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(stats.GamesGenerated, convey.ShouldEqual, 5)
				convey.So(stats.First.Notifications, convey.ShouldEqual, stats.Expected)
				convey.So(stats.Expected, convey.ShouldEqual, 15)
				convey.So(stats.Replay.Notifications, convey.ShouldEqual, 0)
				convey.So(stats.Replay.Duplicates, convey.ShouldEqual, 15)
				_, statErr := os.Stat(cfg.OutputFile)
				convey.So(statErr, convey.ShouldBeNil)
			})
		})
	})

	convey.Convey("Given a service that rejects every feed", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/healthz" {
				return
			}
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer srv.Close()

		stats, err := simulate.Run(context.Background(), &simulate.Config{
			BaseURL: srv.URL, Games: 2, Workers: 1, Timeout: time.Second, Season: 2024,
		})

		convey.Convey("Then verification fails", func() {
			convey.So(errors.Is(err, simulate.ErrVerification), convey.ShouldBeTrue)
			convey.So(stats.First.Failed, convey.ShouldEqual, 2)
		})
	})

	convey.Convey("Given no service", t, func() {
		_, err := simulate.Run(context.Background(), &simulate.Config{
			BaseURL: "http://127.0.0.1:1", Games: 1, Workers: 1, Timeout: time.Second,
		})
		convey.So(err, convey.ShouldNotBeNil)
	})
}
