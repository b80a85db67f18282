package notify_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/okian/touchdown/internal/domain/model"
	"github.com/okian/touchdown/internal/domain/notify"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMessage(t *testing.T) {
	td := func(role model.Role, yards int, other string) model.Outcome {
		return model.Outcome{Kind: model.KindTouchdown, Role: role, Yards: yards, Counterparty: other}
	}
	big := func(role model.Role, yards int, other string) model.Outcome {
		return model.Outcome{Kind: model.KindBigPlay, Role: role, Yards: yards, Counterparty: other}
	}

	Convey("Given each kind and role", t, func() {
		cases := []struct {
			player string
			out    model.Outcome
			want   string
		}{
			{"George Kittle", td(model.RoleReceiver, 28, "Brock Purdy"), "🎉 Touchdown! George Kittle caught a 28 yard TD from Brock Purdy!"},
			{"Mike Evans", td(model.RoleReceiver, 13, ""), "🎉 Touchdown! Mike Evans caught a 13 yard TD!"},
			{"Tyreek Hill", td(model.RoleFumbleRecoverer, 57, ""), "🎉 Touchdown! Tyreek Hill recovered a fumble for a 57 yard TD!"},
			{"Austin Ekeler", td(model.RoleRusher, 1, ""), "🎉 Touchdown! Austin Ekeler ran for a 1 yard TD!"},
			{"Tom Brady", td(model.RolePasser, 13, "Mike Evans"), "🎉 Touchdown! Tom Brady threw a 13 yard TD to Mike Evans!"},
			{"49ers D/ST", td(model.RoleDefender, 40, ""), "🎉 Defensive Touchdown! 49ers D/ST got a pick 6!"},
			{"Brock Purdy", big(model.RolePasser, 41, "George Kittle"), "🚀 Big play! Brock Purdy threw a pass of 41 yards to George Kittle!"},
			{"George Kittle", big(model.RoleReceiver, 41, ""), "🚀 Big play! George Kittle caught a pass of 41 yards."},
			{"Deebo Samuel", big(model.RoleRusher, 30, ""), "🚀 Big play! Deebo Samuel rushed for 30 yards."},
		}

		Convey("Then the rendered message is exact", func() {
			for _, c := range cases {
				So(notify.Message(c.player, c.out), ShouldEqual, c.want)
			}
		})

		Convey("Then outcomes without a template render empty", func() {
			So(notify.Message("X", big(model.RoleDefender, 50, "")), ShouldBeEmpty)
			So(notify.Message("X", model.Outcome{}), ShouldBeEmpty)
		})
	})
}

func TestAssemble(t *testing.T) {
	Convey("Given an assembler on a fake clock", t, func() {
		now := time.Date(2023, 9, 10, 17, 30, 0, 0, time.UTC)
		a := notify.New(notify.WithClock(clockwork.NewFakeClockAt(now)))
		kickoff := time.Date(2023, 9, 10, 17, 0, 0, 0, time.UTC)
		play := &model.Play{GameID: "401", Quarter: 2, Clock: "5:30"}
		credit := &model.Credit{
			Entry: model.RosterEntry{
				PlayerName: "Deebo Samuel", OwnerID: 7, OwnerName: "Pat", PhoneNumber: "+15550100",
				OpponentAbbreviation: "PIT", Season: 2023, GameDate: kickoff,
			},
			Outcome: model.Outcome{Kind: model.KindTouchdown, Role: model.RoleRusher, Yards: 8},
		}

		Convey("When assembling a touchdown", func() {
			ev, ok := a.Assemble(play, credit)

			Convey("Then the event carries the play, the entry and the message", func() {
				So(ok, ShouldBeTrue)
				_, err := uuid.Parse(ev.ID)
				So(err, ShouldBeNil)
				So(ev.CreatedAt, ShouldEqual, now)
				So(ev.GameID, ShouldEqual, "401")
				So(ev.OwnerName, ShouldEqual, "Pat")
				So(ev.PhoneNumber, ShouldEqual, "+15550100")
				So(ev.OpponentAbbreviation, ShouldEqual, "PIT")
				So(ev.GameDate, ShouldEqual, kickoff)
				So(ev.Message, ShouldEqual, "🎉 Touchdown! Deebo Samuel ran for a 8 yard TD!")
				So(ev.Key(), ShouldResemble, model.NewDedupKey(play, credit))
			})
		})

		Convey("When two events are assembled", func() {
			first, _ := a.Assemble(play, credit)
			second, _ := a.Assemble(play, credit)

			Convey("Then their ids differ and the text is identical", func() {
				So(first.ID, ShouldNotEqual, second.ID)
				So(first.Message, ShouldEqual, second.Message)
			})
		})

		Convey("When the outcome has no template", func() {
			c := *credit
			c.Outcome.Role = model.RoleDefender
			c.Outcome.Kind = model.KindBigPlay
			_, ok := a.Assemble(play, &c)
			So(ok, ShouldBeFalse)
		})
	})
}
