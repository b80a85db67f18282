package service_test

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/okian/touchdown/internal/domain/model"
)

const summaryFeed = `{"page":{"content":{"gamepackage":{"scrSumm":{"scrPlayGrps":[
  [
    {"typeAbbreviation":"TD","text":"Austin Ekeler 1 Yd Run (Cameron Dicker Kick)","periodNum":1,"clock":"9:12"},
    {"typeAbbreviation":"FG","text":"Cameron Dicker 44 Yd Field Goal","periodNum":1,"clock":"2:01"}
  ]
]}}}}}`

const drivesFeed = `{"drives":{"previous":[
  {"displayResult":"Touchdown","plays":[
    {"text":"(6:10) D.Samuel left end to SF 40 for 30 yards","statYardage":30,"period":{"number":2},"clock":{"displayValue":"6:10"},"type":{"abbreviation":"RUSH"}},
    {"text":"(5:30) (Shotgun) D.Samuel left end for 8 yards, TOUCHDOWN. R.Gould extra point is GOOD","scoringPlay":true,"scoringType":{"displayName":"Touchdown"},"statYardage":8,"period":{"number":2},"clock":{"displayValue":"5:30"},"type":{"abbreviation":"RUSH"},
     "participants":[{"athlete":{"displayName":"Deebo Samuel","shortName":"D. Samuel","lastName":"Samuel","team":{"abbreviation":"SF"}}}]}
  ]},
  {"displayResult":"Punt","plays":[
    {"text":"(0:30) B.Purdy pass deep right to G.Kittle for 41 yards","statYardage":41,"period":{"number":3},"clock":{"displayValue":"0:30"},"type":{"abbreviation":"REC"}}
  ]}
]}}`

func tracked(name, team, position, gameID string, owner int) model.RosterEntry {
	return model.RosterEntry{
		PlayerName: name, TeamAbbreviation: team, Position: position,
		OwnerID: owner, Season: 2023, GameID: gameID,
	}
}

func chargersRoster() []model.RosterEntry {
	return []model.RosterEntry{
		tracked("Austin Ekeler", "LAC", "RB", "401", 1),
		tracked("Cameron Dicker", "LAC", "K", "401", 2),
	}
}

func ninersRoster() []model.RosterEntry {
	return []model.RosterEntry{
		tracked("Deebo Samuel", "SF", "WR", "402", 1),
		tracked("George Kittle", "SF", "TE", "402", 3),
		tracked("Robbie Gould", "SF", "K", "402", 3),
	}
}

type collector struct {
	mu     sync.Mutex
	events []model.NotificationEvent
}

func (c *collector) Name() string { return "collector" }

func (c *collector) Publish(_ context.Context, ev model.NotificationEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
	return nil
}

func (c *collector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

type brokenGate struct{}

func (brokenGate) TryRecord(context.Context, model.DedupKey) (bool, error) {
	return false, errors.New("connection reset")
}

type staticFetcher map[string]string

func (f staticFetcher) Fetch(_ context.Context, gameID string) ([]byte, error) {
	doc, ok := f[gameID]
	if !ok {
		return nil, errors.Newf("no feed for %s", gameID)
	}
	return []byte(doc), nil
}
