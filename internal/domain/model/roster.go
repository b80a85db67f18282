package model

import (
	"sort"
	"strings"
	"time"
)

// PositionDefense is the pseudo-position used for team defense/special teams.
const PositionDefense = "DEF"

// RosterEntry is one tracked player on one owner's roster for the current
// week. Entries are immutable for the duration of a poll cycle.
type RosterEntry struct {
	PlayerName           string    `json:"player_name" validate:"required"`
	TeamAbbreviation     string    `json:"team_abbreviation" validate:"required"`
	OpponentAbbreviation string    `json:"opponent_abbreviation"`
	Position             string    `json:"position" validate:"required"`
	OwnerID              int       `json:"owner_id" validate:"gt=0"`
	OwnerName            string    `json:"owner_name"`
	PhoneNumber          string    `json:"phone_number"`
	Season               int       `json:"season" validate:"gt=0"`
	GameDate             time.Time `json:"game_date"`
	GameID               string    `json:"game_id" validate:"required"`
}

// IsDefense reports whether the entry is a team defense.
func (r *RosterEntry) IsDefense() bool {
	return strings.EqualFold(r.Position, PositionDefense)
}

// InProgress reports whether the entry's game has started and, given the
// expected game length, has not ended at now.
func (r *RosterEntry) InProgress(now time.Time, window time.Duration) bool {
	if r.GameDate.IsZero() {
		return true
	}
	return !now.Before(r.GameDate) && now.Before(r.GameDate.Add(window))
}

// Games is the cycle-scoped game -> tracked entries mapping. It is built once
// per poll cycle and passed down; it is never shared across cycles.
type Games map[string][]RosterEntry

// GroupByGame builds the cycle mapping, preserving roster order per game.
func GroupByGame(entries []RosterEntry) Games {
	games := make(Games)
	for _, e := range entries {
		games[e.GameID] = append(games[e.GameID], e)
	}
	return games
}

// IDs returns the game ids in ascending order.
func (g Games) IDs() []string {
	ids := make([]string, 0, len(g))
	for id := range g {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// PlayerCount returns the number of roster entries across all games.
func (g Games) PlayerCount() int {
	n := 0
	for _, entries := range g {
		n += len(entries)
	}
	return n
}

// GameJob is the unit of work for one game in one poll cycle.
type GameJob struct {
	CycleID string
	GameID  string
	Roster  []RosterEntry
}
