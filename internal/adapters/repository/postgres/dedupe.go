package postgres

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/okian/touchdown/internal/domain/dedupe"
	"github.com/okian/touchdown/internal/domain/model"
	"github.com/okian/touchdown/pkg/metrics"
)

// Gate records dedup keys in the dedup_keys table. The primary key makes
// the insert atomic across processes.
type Gate struct {
	db querier
}

// NewGate creates a Gate on db.
func NewGate(db querier) *Gate {
	return &Gate{db: db}
}

// TryRecord inserts key and reports whether this call inserted it.
func (g *Gate) TryRecord(ctx context.Context, key model.DedupKey) (bool, error) {
	tag, err := g.db.Exec(ctx, stmtRecordKey, RecordArgs(key)...)
	if err != nil {
		metrics.RecordDedupStoreError(backend)
		return false, errors.Mark(errors.Wrap(err, "insert dedup key"), dedupe.ErrStoreUnavailable)
	}
	return tag.RowsAffected() == 1, nil
}

// RecordArgs returns the positional arguments of the insert statement.
func RecordArgs(key model.DedupKey) []any {
	return []any{
		key.String(), key.GameID, key.Quarter, key.Clock,
		key.PlayerName, key.Season, key.OwnerID, string(key.Kind),
	}
}

var _ dedupe.Gate = (*Gate)(nil)
