package feed_test

import (
	"testing"

	"github.com/cockroachdb/errors"

	"github.com/okian/touchdown/internal/domain/feed"
	"github.com/okian/touchdown/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

const summaryDoc = `{
  "page": {"content": {"gamepackage": {"scrSumm": {"scrPlayGrps": [
    [
      {"typeAbbreviation": "TD", "text": "Austin Ekeler 1 Yd Run (Cameron Dicker Kick)", "periodNum": 1, "clock": "9:12"},
      {"typeAbbreviation": "FG", "text": "Cameron Dicker 44 Yd Field Goal", "periodNum": "1", "clock": "2:01"}
    ],
    [
      {"typeAbbreviation": "TD", "text": "George Kittle Pass From Brock Purdy for 28 Yds", "periodNum": 2},
      {"typeAbbreviation": "XP", "text": "Two point try", "periodNum": 2.0, "clock": {"displayValue": "0:45"}}
    ]
  ]}}}}
}`

const drivesDoc = `{
  "drives": {
    "previous": [
      {
        "displayResult": "Touchdown",
        "plays": [
          {"text": "(6:10) D.Samuel left end to SF 40 for 30 yards", "statYardage": 30, "period": {"number": 2}, "clock": {"displayValue": "6:10"}, "type": {"abbreviation": "RUSH"}},
          {"text": "(5:30) (Shotgun) D.Samuel left end for 8 yards, TOUCHDOWN. R.Gould extra point is GOOD", "scoringPlay": true, "scoringType": {"displayName": "Touchdown"}, "statYardage": 8, "period": {"number": 2}, "clock": {"displayValue": "5:30"},
           "participants": [{"athlete": {"displayName": "Deebo Samuel", "shortName": "D. Samuel", "lastName": "Samuel", "team": {"abbreviation": "SF"}}}]},
          {"text": "R.Gould extra point is GOOD", "scoringPlay": true, "period": {"number": 2}, "clock": {"displayValue": "5:26"}},
          {"text": "END QUARTER 2", "period": {"number": 2}, "clock": {"displayValue": "0:00"}}
        ]
      },
      {
        "displayResult": "Touchdown",
        "plays": [
          {"text": "(1:00) something scored", "scoringPlay": true, "period": {"number": 3}, "clock": {"displayValue": "1:00"}}
        ]
      },
      {
        "displayResult": "Punt",
        "plays": [
          {"text": "(0:30) B.Purdy pass deep right to G.Kittle for 41 yards", "statYardage": 41, "period": {"number": 3}},
          {"text": "(0:10) M.Wishnowsky punts 50 yards", "period": {"number": 3}, "clock": {"displayValue": "0:10"}}
        ]
      }
    ],
    "current": {
      "displayResult": "",
      "plays": [
        {"text": "(14:00) C.McCaffrey up the middle for 2 yards", "statYardage": "2", "period": {"number": 4}, "clock": {"displayValue": "14:00"}}
      ]
    }
  }
}`

func TestNormalizeSummary(t *testing.T) {
	Convey("Given a scoring-summary document", t, func() {
		res, err := feed.Normalize("401", []byte(summaryDoc))

		Convey("Then the plays are tagged with the schema and in feed order", func() {
			So(err, ShouldBeNil)
			So(res.Schema, ShouldEqual, model.SchemaScoringSummary)
			So(len(res.Plays), ShouldEqual, 3)
			So(res.Plays[0].Text, ShouldStartWith, "Austin Ekeler")
			So(res.Plays[0].Quarter, ShouldEqual, 1)
			So(res.Plays[0].Sequence, ShouldEqual, 0)
			So(res.Plays[2].Sequence, ShouldEqual, 2)
		})

		Convey("Then labels are mapped from the type abbreviation", func() {
			So(res.Plays[0].ScoringLabel, ShouldEqual, model.LabelTouchdown)
			So(res.Plays[1].ScoringLabel, ShouldEqual, "field goal")
			So(res.Plays[2].ScoringLabel, ShouldEqual, "xp")
			So(res.Plays[2].Clock, ShouldEqual, "0:45")
			So(res.Plays[2].Quarter, ShouldEqual, 2)
		})

		Convey("Then the play without a clock is dropped with a fault", func() {
			So(len(res.Faults), ShouldEqual, 1)
			So(errors.Is(res.Faults[0], feed.ErrMalformedPlay), ShouldBeTrue)
			So(res.Faults[0].Drive, ShouldEqual, 1)
			So(res.Faults[0].Play, ShouldEqual, 0)
		})
	})
}

func TestNormalizeDrives(t *testing.T) {
	Convey("Given a drive document", t, func() {
		res, err := feed.Normalize("401", []byte(drivesDoc))
		So(err, ShouldBeNil)
		So(res.Schema, ShouldEqual, model.SchemaDrives)

		Convey("Then the scoring play is found by walking back past trailing entries", func() {
			var scoring []model.Play
			for _, p := range res.Plays {
				if p.Scoring {
					scoring = append(scoring, p)
				}
			}
			So(len(scoring), ShouldEqual, 1)
			So(scoring[0].Clock, ShouldEqual, "5:30")
			So(scoring[0].ScoringLabel, ShouldEqual, model.LabelTouchdown)
			So(*scoring[0].Yards, ShouldEqual, 8)
			So(scoring[0].Participants[0].TeamAbbreviation, ShouldEqual, "SF")
		})

		Convey("Then the extra point flagged without type data is skipped", func() {
			for _, p := range res.Plays {
				So(p.Clock, ShouldNotEqual, "5:26")
			}
		})

		Convey("Then non-scoring plays keep their structured fields", func() {
			So(res.Plays[0].Text, ShouldStartWith, "(6:10)")
			So(res.Plays[0].PlayType, ShouldEqual, "rush")
			So(*res.Plays[0].Yards, ShouldEqual, 30)
			last := res.Plays[len(res.Plays)-1]
			So(last.Quarter, ShouldEqual, 4)
			So(*last.Yards, ShouldEqual, 2)
		})

		Convey("Then a scoring drive with no typed play fails on its own", func() {
			var incomplete, malformed int
			for _, f := range res.Faults {
				switch {
				case errors.Is(f, feed.ErrIncompletePlayData):
					incomplete++
					So(f.Drive, ShouldEqual, 1)
					So(f.Play, ShouldEqual, -1)
				case errors.Is(f, feed.ErrMalformedPlay):
					malformed++
					So(f.Drive, ShouldEqual, 2)
				}
			}
			So(incomplete, ShouldEqual, 1)
			So(malformed, ShouldEqual, 1)
		})

		Convey("Then sequence numbers are dense", func() {
			for i, p := range res.Plays {
				So(p.Sequence, ShouldEqual, i)
			}
			So(len(res.Plays), ShouldEqual, 5)
		})
	})
}

func TestNormalizeEdges(t *testing.T) {
	Convey("Given documents without play sections", t, func() {
		for _, doc := range []string{`{}`, `{"page": {}}`, `{"page": {"content": {"gamepackage": {"scrSumm": {}}}}}`} {
			res, err := feed.Normalize("1", []byte(doc))
			So(err, ShouldBeNil)
			So(res.Plays, ShouldBeEmpty)
			So(res.Faults, ShouldBeEmpty)
		}
	})

	Convey("Given an empty drives section", t, func() {
		res, err := feed.Normalize("1", []byte(`{"drives": {"previous": []}}`))
		So(err, ShouldBeNil)
		So(res.Schema, ShouldEqual, model.SchemaDrives)
		So(res.Plays, ShouldBeEmpty)
	})

	Convey("Given payloads that are not JSON objects", t, func() {
		for _, doc := range []string{``, `[]`, `<html>`, `{"drives": `} {
			_, err := feed.Normalize("1", []byte(doc))
			So(errors.Is(err, feed.ErrMalformedDocument), ShouldBeTrue)
		}
	})
}
