// Package postgres implements the dedup gate, the anomaly archive and the
// roster query on PostgreSQL through pgx.
package postgres

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const backend = "postgres"

// Prepared statement names.
const (
	stmtRecordKey    = "record_dedup_key"
	stmtArchive      = "upsert_anomaly"
	stmtGetArchive   = "get_anomaly"
	stmtRosterWindow = "roster_in_window"
	stmtHealth       = "health_check"
)

// Statements are prepared on every new pool connection.
var Statements = map[string]string{
	stmtHealth: "SELECT 1",

	stmtRecordKey: `INSERT INTO dedup_keys (dedup_key, game_id, quarter, game_clock, player_name, season, owner_id, kind)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (dedup_key) DO NOTHING`,

	stmtArchive: `INSERT INTO anomaly_archive (game_id, label, payload, archived_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (game_id, label) DO UPDATE SET payload = EXCLUDED.payload, archived_at = EXCLUDED.archived_at`,

	stmtGetArchive: `SELECT game_id, label, payload, archived_at FROM anomaly_archive WHERE game_id = $1 AND label = $2`,

	stmtRosterWindow: `SELECT player_name, team_abbreviation, opponent_abbreviation, position, owner_id,
       owner_name, phone_number, season, game_date, game_id
FROM roster_entries
WHERE game_date <= $1 AND game_date > $1 - make_interval(secs => $2)
ORDER BY game_id, owner_id, id`,
}

// querier is the subset of pgxpool.Pool the stores use.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PoolConfig tunes the connection pool.
type PoolConfig struct {
	MinConns        int32
	MaxConns        int32
	MaxConnLifetime time.Duration
}

// Pool wraps pgxpool.Pool.
type Pool struct {
	*pgxpool.Pool
}

// Connect creates and validates a pool.
func Connect(ctx context.Context, dsn string, pc PoolConfig) (*Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, errors.Wrap(err, "parse database URL")
	}
	if pc.MinConns > 0 {
		cfg.MinConns = pc.MinConns
	}
	if pc.MaxConns > 0 {
		cfg.MaxConns = pc.MaxConns
	}
	if pc.MaxConnLifetime > 0 {
		cfg.MaxConnLifetime = pc.MaxConnLifetime
	}
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range Statements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return errors.Wrapf(err, "prepare %q", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "ping database")
	}
	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, stmtHealth).Scan(&n)
}
