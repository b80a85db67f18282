package simulate

import (
	"context"
	"crypto/rand"
	"math/big"
	"strconv"

	"github.com/cockroachdb/errors"

	"github.com/okian/touchdown/pkg/logger"
)

// Yardage ranges for generated plays. Big plays always clear the default
// thresholds and touchdown runs never do.
const (
	bigPlayMinYards = 25
	bigPlayRange    = 35
	tdMinYards      = 1
	tdRange         = 19
)

// expectedPerGame is the rusher's big play, the rusher's touchdown and the
// receiver's big play.
const expectedPerGame = 3

var (
	firstNames = []string{"Alex", "Blake", "Casey", "Devin", "Elliot", "Frankie", "Gray", "Harper"}
	lastNames  = []string{"Carter", "Dalton", "Ellison", "Fletcher", "Garrison", "Holloway", "Ingram", "Jennings"}
	teams      = []string{"SF", "KC", "BUF", "PHI", "DAL", "MIA", "DET", "BAL"}
)

// drive schema subset written by the generator.
type (
	feedDoc struct {
		Drives feedDrives `json:"drives"`
	}
	feedDrives struct {
		Previous []feedDrive `json:"previous"`
	}
	feedDrive struct {
		DisplayResult string     `json:"displayResult"`
		Plays         []feedPlay `json:"plays"`
	}
	feedPlay struct {
		Text         string            `json:"text"`
		ScoringPlay  bool              `json:"scoringPlay,omitempty"`
		ScoringType  *feedName         `json:"scoringType,omitempty"`
		StatYardage  int               `json:"statYardage"`
		Period       feedPeriod        `json:"period"`
		Clock        feedClock         `json:"clock"`
		Type         feedType          `json:"type"`
		Participants []feedParticipant `json:"participants,omitempty"`
	}
	feedName struct {
		DisplayName string `json:"displayName"`
	}
	feedPeriod struct {
		Number int `json:"number"`
	}
	feedClock struct {
		DisplayValue string `json:"displayValue"`
	}
	feedType struct {
		Abbreviation string `json:"abbreviation"`
	}
	feedParticipant struct {
		Athlete feedAthlete `json:"athlete"`
	}
	feedAthlete struct {
		DisplayName string   `json:"displayName"`
		ShortName   string   `json:"shortName"`
		LastName    string   `json:"lastName"`
		Team        feedType `json:"team"`
	}
)

// randomInt returns a value in [lo, lo+span) using crypto/rand.
func randomInt(lo, span int) int {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(span)))
	if err != nil {
		return lo
	}
	return lo + int(n.Int64())
}

type player struct {
	first, last string
}

func (p player) full() string  { return p.first + " " + p.last }
func (p player) short() string { return p.first[:1] + ". " + p.last }
func (p player) abbr() string  { return p.first[:1] + "." + p.last }

// generateGames builds cfg.Games synthetic games.
func generateGames(ctx context.Context, cfg *Config, stats *Stats) ([]Game, error) {
	logger.Get().Info(ctx, "generating synthetic games", logger.Int("games", cfg.Games))

	games := make([]Game, 0, cfg.Games)
	for i := 0; i < cfg.Games; i++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "generation cancelled")
		}
		g, err := generateGame(i, cfg.Season)
		if err != nil {
			return nil, errors.Wrapf(err, "generate game %d", i)
		}
		games = append(games, g)
	}

	stats.GamesGenerated = len(games)
	stats.Expected = len(games) * expectedPerGame
	logger.Get().Info(ctx, "generated games", logger.Int("count", len(games)), logger.Int("expected", stats.Expected))
	return games, nil
}

// generateGame builds one game with a tracked rusher and a tracked receiver
// whose quarterback is not tracked.
func generateGame(index, season int) (Game, error) {
	n := len(lastNames)
	rusher := player{firstNames[index%n], lastNames[index%n]}
	receiver := player{firstNames[(index+3)%n], lastNames[(index+3)%n]}
	passer := player{firstNames[(index+5)%n], lastNames[(index+5)%n]}
	team := teams[index%len(teams)]
	gameID := "sim-" + strconv.Itoa(index+1)

	rush := randomInt(bigPlayMinYards, bigPlayRange)
	td := randomInt(tdMinYards, tdRange)
	rec := randomInt(bigPlayMinYards, bigPlayRange)

	doc := feedDoc{Drives: feedDrives{Previous: []feedDrive{
		{
			DisplayResult: "Touchdown",
			Plays: []feedPlay{
				{
					Text:        "(6:10) " + rusher.abbr() + " left end to " + team + " 40 for " + strconv.Itoa(rush) + " yards",
					StatYardage: rush,
					Period:      feedPeriod{Number: 2},
					Clock:       feedClock{DisplayValue: "6:10"},
					Type:        feedType{Abbreviation: "RUSH"},
				},
				{
					Text:        "(5:30) (Shotgun) " + rusher.abbr() + " left end for " + strconv.Itoa(td) + " yards, TOUCHDOWN. K.Kicker extra point is GOOD",
					ScoringPlay: true,
					ScoringType: &feedName{DisplayName: "Touchdown"},
					StatYardage: td,
					Period:      feedPeriod{Number: 2},
					Clock:       feedClock{DisplayValue: "5:30"},
					Type:        feedType{Abbreviation: "RUSH"},
					Participants: []feedParticipant{{Athlete: feedAthlete{
						DisplayName: rusher.full(), ShortName: rusher.short(), LastName: rusher.last,
						Team: feedType{Abbreviation: team},
					}}},
				},
			},
		},
		{
			DisplayResult: "Punt",
			Plays: []feedPlay{
				{
					Text:        "(0:30) " + passer.abbr() + " pass deep right to " + receiver.abbr() + " for " + strconv.Itoa(rec) + " yards",
					StatYardage: rec,
					Period:      feedPeriod{Number: 3},
					Clock:       feedClock{DisplayValue: "0:30"},
					Type:        feedType{Abbreviation: "REC"},
				},
			},
		},
	}}}

	raw, err := json.Marshal(doc)
	if err != nil {
		return Game{}, errors.Wrap(err, "encode feed")
	}
	return Game{
		GameID:   gameID,
		Document: raw,
		Roster: []RosterEntry{
			{PlayerName: rusher.full(), TeamAbbreviation: team, Position: "RB", OwnerID: 1, Season: season, GameID: gameID},
			{PlayerName: receiver.full(), TeamAbbreviation: team, Position: "WR", OwnerID: 2, Season: season, GameID: gameID},
		},
		Expected: expectedPerGame,
	}, nil
}
