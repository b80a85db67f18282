package postgres

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/okian/touchdown/internal/adapters/repository"
	"github.com/okian/touchdown/internal/domain/model"
)

// Roster reads tracked entries whose game is in progress.
type Roster struct {
	db     querier
	window time.Duration
}

// NewRoster creates a Roster. window is the expected game length.
func NewRoster(db querier, window time.Duration) *Roster {
	return &Roster{db: db, window: window}
}

// Load returns entries with game_date <= now < game_date + window.
func (r *Roster) Load(ctx context.Context, now time.Time) ([]model.RosterEntry, error) {
	rows, err := r.db.Query(ctx, stmtRosterWindow, now.UTC(), r.window.Seconds())
	if err != nil {
		return nil, errors.Wrap(err, "query roster")
	}
	defer rows.Close()

	var out []model.RosterEntry
	for rows.Next() {
		var e model.RosterEntry
		if err := rows.Scan(
			&e.PlayerName, &e.TeamAbbreviation, &e.OpponentAbbreviation, &e.Position, &e.OwnerID,
			&e.OwnerName, &e.PhoneNumber, &e.Season, &e.GameDate, &e.GameID,
		); err != nil {
			return nil, errors.Wrap(err, "scan roster entry")
		}
		out = append(out, e)
	}
	return out, errors.Wrap(rows.Err(), "iterate roster")
}

var _ repository.RosterSource = (*Roster)(nil)
