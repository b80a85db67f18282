package roster_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/okian/touchdown/internal/adapters/roster"
	"github.com/okian/touchdown/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

const doc = `entries:
  - player_name: Deebo Samuel
    team_abbreviation: SF
    opponent_abbreviation: PIT
    position: WR
    owner_id: 7
    owner_name: Sam
    season: 2023
    game_id: "401547417"
    game_date: "2023-09-10T13:00:00-04:00"
  - player_name: 49ers D/ST
    team_abbreviation: SF
    position: DEF
    owner_id: 7
    season: 2023
    game_id: "401547417"
    game_date: "2023-09-10T13:00:00-04:00"
  - player_name: Austin Ekeler
    team_abbreviation: LAC
    position: RB
    owner_id: 3
    season: 2023
    game_id: "401547500"
    game_date: "2023-09-10T16:25:00-04:00"
  - player_name: Nobody
    position: QB
    season: 2023
    game_id: "401547500"
`

func writeRoster(t *testing.T, body string) string {
	path := filepath.Join(t.TempDir(), "roster.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFile(t *testing.T) {
	ctx := context.Background()
	est := time.FixedZone("EDT", -4*3600)

	Convey("Given a roster file", t, func() {
		path := writeRoster(t, doc)

		Convey("When read without filtering", func() {
			entries, err := roster.ReadFile(path)

			Convey("Then every row is decoded", func() {
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 4)
				So(entries[0].OwnerName, ShouldEqual, "Sam")
				So(entries[0].GameDate.Equal(time.Date(2023, 9, 10, 13, 0, 0, 0, est)), ShouldBeTrue)
			})
		})

		Convey("When loaded during the early game", func() {
			src := roster.NewFile(path)
			entries, err := src.Load(ctx, time.Date(2023, 9, 10, 14, 0, 0, 0, est))

			Convey("Then only valid entries in progress remain", func() {
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 2)
				games := model.GroupByGame(entries)
				So(games.IDs(), ShouldResemble, []string{"401547417"})
			})
		})

		Convey("When the window filter is disabled", func() {
			src := roster.NewFile(path, roster.WithGameWindow(0))
			entries, err := src.Load(ctx, time.Date(2023, 9, 1, 0, 0, 0, 0, est))

			So(err, ShouldBeNil)
			So(entries, ShouldHaveLength, 3)
		})
	})

	Convey("Given a missing file", t, func() {
		_, err := roster.NewFile(filepath.Join(t.TempDir(), "absent.yaml")).Load(ctx, time.Now())

		So(errors.Is(err, roster.ErrLoadRoster), ShouldBeTrue)
	})
}

func TestValidate(t *testing.T) {
	Convey("Given an entry without an owner", t, func() {
		e := model.RosterEntry{PlayerName: "X", TeamAbbreviation: "SF", Position: "WR", Season: 2023, GameID: "1"}

		So(errors.Is(roster.Validate(&e), roster.ErrInvalidEntry), ShouldBeTrue)

		e.OwnerID = 1
		So(roster.Validate(&e), ShouldBeNil)
	})

	Convey("Given a static roster", t, func() {
		src := roster.NewStatic([]model.RosterEntry{
			{PlayerName: "Austin Ekeler", TeamAbbreviation: "LAC", Position: "RB", OwnerID: 3, Season: 2023, GameID: "1"},
		}, 0)

		entries, err := src.Load(context.Background(), time.Now())
		So(err, ShouldBeNil)
		So(entries, ShouldHaveLength, 1)
	})
}
