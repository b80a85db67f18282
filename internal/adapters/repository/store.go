// Package repository holds the persistence contracts shared by the storage
// backends, plus the in-memory anomaly archive.
package repository

import (
	"context"
	"time"

	"github.com/okian/touchdown/internal/domain/model"
)

// ArchiveEntry is the raw feed document kept for a scoring label no
// classifier rule handles. One entry exists per (game, label); a later write
// replaces the earlier one.
type ArchiveEntry struct {
	GameID     string    `json:"game_id"`
	Label      string    `json:"label"`
	Payload    []byte    `json:"payload"`
	ArchivedAt time.Time `json:"archived_at"`
}

// Archive stores raw feed documents for later inspection.
type Archive interface {
	// Archive upserts raw under (gameID, label).
	Archive(ctx context.Context, gameID, label string, raw []byte) error
	// Get returns the entry for (gameID, label) or ErrNotFound.
	Get(ctx context.Context, gameID, label string) (ArchiveEntry, error)
}

// RosterSource loads the tracked roster entries whose games are in progress
// at now.
type RosterSource interface {
	Load(ctx context.Context, now time.Time) ([]model.RosterEntry, error)
}
