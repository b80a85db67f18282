package model

import (
	"strconv"
	"strings"
	"time"
)

// Kind is the outcome category of a play for one roster entry.
type Kind string

// Outcome kinds. KindNone means the play produced nothing for the entry.
const (
	KindNone      Kind = ""
	KindTouchdown Kind = "TD"
	KindBigPlay   Kind = "BigPlay"
)

// Role is the part a tracked player had in a play.
type Role string

// Roles a tracked player can be credited with.
const (
	RoleRusher          Role = "rusher"
	RoleReceiver        Role = "receiver"
	RolePasser          Role = "passer"
	RoleFumbleRecoverer Role = "fumble_recoverer"
	RoleDefender        Role = "defender"
)

// Outcome is the classifier's verdict for one (play, roster entry) pair.
// Counterparty is the other player in a pass (passer for a receiver, receiver
// for a passer) when it could be resolved.
type Outcome struct {
	Kind         Kind
	Role         Role
	Yards        int
	Counterparty string
}

// IsNone reports whether the outcome produces no notification.
func (o Outcome) IsNone() bool {
	return o.Kind == KindNone
}

// Credit binds an outcome to the roster entry it was credited to.
type Credit struct {
	Entry   RosterEntry
	Outcome Outcome
}

// NotificationEvent is the terminal artifact handed to publishers.
type NotificationEvent struct {
	ID                   string    `json:"id"`
	GameID               string    `json:"game_id"`
	Quarter              int       `json:"quarter"`
	Clock                string    `json:"clock"`
	PlayerName           string    `json:"player_name"`
	OwnerID              int       `json:"owner_id"`
	OwnerName            string    `json:"owner_name,omitempty"`
	PhoneNumber          string    `json:"phone_number,omitempty"`
	Kind                 Kind      `json:"kind"`
	Role                 Role      `json:"role"`
	Yards                int       `json:"yards"`
	Message              string    `json:"message"`
	OpponentAbbreviation string    `json:"opponent_abbreviation,omitempty"`
	GameDate             time.Time `json:"game_date"`
	Season               int       `json:"season"`
	CreatedAt            time.Time `json:"created_at"`
}

// Key returns the dedup key identifying this event.
func (e *NotificationEvent) Key() DedupKey {
	return DedupKey{
		GameID:     e.GameID,
		Quarter:    e.Quarter,
		Clock:      e.Clock,
		PlayerName: e.PlayerName,
		Season:     e.Season,
		OwnerID:    e.OwnerID,
		Kind:       e.Kind,
	}
}

// DedupKey identifies one notifiable event across poll cycles.
type DedupKey struct {
	GameID     string
	Quarter    int
	Clock      string
	PlayerName string
	Season     int
	OwnerID    int
	Kind       Kind
}

// NewDedupKey builds the key for a credit observed on play.
func NewDedupKey(play *Play, c *Credit) DedupKey {
	return DedupKey{
		GameID:     play.GameID,
		Quarter:    play.Quarter,
		Clock:      play.Clock,
		PlayerName: c.Entry.PlayerName,
		Season:     c.Entry.Season,
		OwnerID:    c.Entry.OwnerID,
		Kind:       c.Outcome.Kind,
	}
}

// String renders the canonical form shared by every dedup store.
func (k DedupKey) String() string {
	var b strings.Builder
	b.WriteString(k.GameID)
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(k.Quarter))
	b.WriteByte('|')
	b.WriteString(k.Clock)
	b.WriteByte('|')
	b.WriteString(k.PlayerName)
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(k.Season))
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(k.OwnerID))
	b.WriteByte('|')
	b.WriteString(string(k.Kind))
	return b.String()
}
