package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/smartystreets/goconvey/convey"

	service "github.com/okian/touchdown/internal/app"
	"github.com/okian/touchdown/internal/config"
	"github.com/okian/touchdown/internal/domain/model"
)

const summaryFeed = `{"page":{"content":{"gamepackage":{"scrSumm":{"scrPlayGrps":[
  [
    {"typeAbbreviation":"TD","text":"Austin Ekeler 1 Yd Run (Cameron Dicker Kick)","periodNum":1,"clock":"9:12"}
  ]
]}}}}}`

const rosterYAML = `entries:
  - player_name: Austin Ekeler
    team_abbreviation: LAC
    position: RB
    owner_id: 1
    season: 2023
    game_id: "401"
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReplayCommand(t *testing.T) {
	convey.Convey("Given a saved feed and a roster file", t, func() {
		feed := writeFile(t, "feed.json", summaryFeed)
		rosterFile := writeFile(t, "roster.yaml", rosterYAML)
		missingEnv := filepath.Join(t.TempDir(), "missing.env")

		convey.Convey("When the feed is replayed twice", func() {
			var out bytes.Buffer
			root := newRootCmd()
			root.SetOut(&out)
			root.SetArgs([]string{"replay", "--env-file", missingEnv, "--feed", feed, "--roster", rosterFile, "--passes", "2"})
			err := root.ExecuteContext(context.Background())

			convey.Convey("Then only the first pass emits a notification", func() {
				convey.So(err, convey.ShouldBeNil)
				dec := json.NewDecoder(&out)
				var first, second service.GameResult
				convey.So(dec.Decode(&first), convey.ShouldBeNil)
				convey.So(dec.Decode(&second), convey.ShouldBeNil)
				convey.So(first.GameID, convey.ShouldEqual, "401")
				convey.So(first.Notifications, convey.ShouldHaveLength, 1)
				convey.So(first.Notifications[0].Kind, convey.ShouldEqual, model.KindTouchdown)
				convey.So(second.Notifications, convey.ShouldBeEmpty)
				convey.So(second.Duplicates, convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When the feed flag is missing", func() {
			root := newRootCmd()
			root.SetOut(&bytes.Buffer{})
			root.SetErr(&bytes.Buffer{})
			root.SetArgs([]string{"replay", "--env-file", missingEnv, "--roster", rosterFile})
			convey.So(root.ExecuteContext(context.Background()), convey.ShouldNotBeNil)
		})
	})
}

func TestReadFeed(t *testing.T) {
	convey.Convey("Given a scraped play-by-play page", t, func() {
		page := `<html><head><script>window['__espnfitt__']=` + summaryFeed + `;</script></head><body></body></html>`
		path := writeFile(t, "page.html", page)

		doc, err := readFeed(path)

		convey.Convey("Then the embedded document is extracted", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(bytes.HasPrefix(doc, []byte(`{"page"`)), convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given a missing file", t, func() {
		_, err := readFeed(filepath.Join(t.TempDir(), "nope.json"))
		convey.So(err, convey.ShouldNotBeNil)
	})
}

func TestPickGame(t *testing.T) {
	convey.Convey("Given roster entries for two games", t, func() {
		entries := []model.RosterEntry{{PlayerName: "A", GameID: "1"}, {PlayerName: "B", GameID: "2"}}

		_, err := pickGame("", entries)
		convey.So(err, convey.ShouldNotBeNil)

		id, err := pickGame("2", entries)
		convey.So(err, convey.ShouldBeNil)
		convey.So(id, convey.ShouldEqual, "2")

		_, err = pickGame("3", entries)
		convey.So(errors.Is(err, service.ErrNoRoster), convey.ShouldBeTrue)

		id, err = pickGame("", entries[:1])
		convey.So(err, convey.ShouldBeNil)
		convey.So(id, convey.ShouldEqual, "1")
	})
}

func TestBuildStack(t *testing.T) {
	convey.Convey("Given the default configuration", t, func() {
		ctx := context.Background()
		cfg := config.New()

		convey.Convey("When the stack is built with a hub", func() {
			st, err := buildStack(ctx, cfg, stackOptions{withHub: true})
			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = st.Close() }()

			convey.Convey("Then it uses in-memory backends and fans out to the log and the hub", func() {
				convey.So(st.svc, convey.ShouldNotBeNil)
				convey.So(st.hub, convey.ShouldNotBeNil)
				convey.So(st.fanout.Targets(), convey.ShouldResemble, []string{"log", "ws"})
				convey.So(st.svc.GetStats()["dedupeKeys"], convey.ShouldEqual, int64(0))
			})
		})

		convey.Convey("When a backend name is unknown", func() {
			cfg.DedupeBackend = "etcd"
			_, err := buildStack(ctx, cfg, stackOptions{})
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When a publisher name is unknown", func() {
			cfg.Publishers = []string{"sms"}
			_, err := buildStack(ctx, cfg, stackOptions{})
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}

func TestRootCommand(t *testing.T) {
	convey.Convey("Given the root command", t, func() {
		root := newRootCmd()
		names := make([]string, 0)
		for _, c := range root.Commands() {
			names = append(names, c.Name())
		}
		convey.So(names, convey.ShouldContain, "serve")
		convey.So(names, convey.ShouldContain, "poll")
		convey.So(names, convey.ShouldContain, "replay")
		convey.So(names, convey.ShouldContain, "migrate")
		convey.So(names, convey.ShouldContain, "simulate")
	})
}
