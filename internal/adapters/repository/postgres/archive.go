package postgres

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"

	"github.com/okian/touchdown/internal/adapters/repository"
	"github.com/okian/touchdown/pkg/metrics"
)

// Archive upserts anomalous feed documents into anomaly_archive.
type Archive struct {
	db querier
}

// NewArchive creates an Archive on db.
func NewArchive(db querier) *Archive {
	return &Archive{db: db}
}

// Archive upserts raw under (gameID, label).
func (a *Archive) Archive(ctx context.Context, gameID, label string, raw []byte) error {
	gameID, label = strings.TrimSpace(gameID), repository.NormalizeLabel(label)
	if gameID == "" || label == "" {
		return repository.ErrInvalidArgs
	}
	if _, err := a.db.Exec(ctx, stmtArchive, gameID, label, raw); err != nil {
		metrics.RecordArchiveError(backend)
		return errors.Wrapf(err, "archive game %s label %q", gameID, label)
	}
	metrics.RecordArchiveWrite(backend)
	return nil
}

// Get returns the entry for (gameID, label).
func (a *Archive) Get(ctx context.Context, gameID, label string) (repository.ArchiveEntry, error) {
	var e repository.ArchiveEntry
	err := a.db.QueryRow(ctx, stmtGetArchive, strings.TrimSpace(gameID), repository.NormalizeLabel(label)).
		Scan(&e.GameID, &e.Label, &e.Payload, &e.ArchivedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ArchiveEntry{}, errors.Wrapf(repository.ErrNotFound, "game %s label %q", gameID, label)
	}
	if err != nil {
		return repository.ArchiveEntry{}, errors.Wrap(err, "get archive entry")
	}
	return e, nil
}

var _ repository.Archive = (*Archive)(nil)
