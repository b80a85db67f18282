package simulate

import (
	"time"

	jsoniter "github.com/json-iterator/go"
)

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL    string        // Base URL of the service
	Games      int           // Number of synthetic games to submit
	Workers    int           // Number of concurrent submitters
	Timeout    time.Duration // HTTP request timeout
	Season     int           // Season stamped on generated roster entries
	OutputFile string        // Where generated games are saved; empty skips saving
	Verbose    bool          // Log every submission
}

// Game is one synthetic game: its feed document, the roster tracking it and
// the number of notifications a fresh dedup store should emit for it.
type Game struct {
	GameID   string              `json:"game_id"`
	Document jsoniter.RawMessage `json:"document"`
	Roster   []RosterEntry       `json:"roster"`
	Expected int                 `json:"expected"`
}

// RosterEntry mirrors the roster schema accepted by the feed endpoint.
type RosterEntry struct {
	PlayerName       string `json:"player_name"`
	TeamAbbreviation string `json:"team_abbreviation"`
	Position         string `json:"position"`
	OwnerID          int    `json:"owner_id"`
	Season           int    `json:"season"`
	GameID           string `json:"game_id"`
}

// PassResult counts the outcome of submitting every game once.
type PassResult struct {
	Submitted     int
	Failed        int
	Notifications int
	Duplicates    int
}

// Stats holds simulation statistics.
type Stats struct {
	GamesGenerated int
	Expected       int
	First          PassResult
	Replay         PassResult
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
}
