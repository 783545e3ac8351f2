package history

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/proximity-cli/internal/model"
)

// Pool abstracts the pgx pool methods the store needs, so tests can
// substitute pgxmock.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store using pgxpool. It is meant for
// deployments where one history database is shared by the runtime API
// and offline analysis, not for the on-device default.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 4
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS alerts (
	id            TEXT PRIMARY KEY,
	poi_id        TEXT NOT NULL,
	poi_name      TEXT NOT NULL,
	distance_m    DOUBLE PRECISION NOT NULL,
	tier          TEXT NOT NULL,
	dispatched_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_alerts_poi_id ON alerts(poi_id, dispatched_at);
CREATE INDEX IF NOT EXISTS idx_alerts_dispatched_at ON alerts(dispatched_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, alert model.ProximityAlert) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO alerts (id, poi_id, poi_name, distance_m, tier, dispatched_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		alert.ID, alert.POIID, alert.POIName, alert.DistanceM, string(alert.Tier), alert.Timestamp.UTC(),
	)
	return eris.Wrapf(err, "postgres: append alert for %s", alert.POIID)
}

func (s *PostgresStore) LastAlert(ctx context.Context, poiID string) (*model.ProximityAlert, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, poi_id, poi_name, distance_m, tier, dispatched_at FROM alerts
		 WHERE poi_id = $1 ORDER BY dispatched_at DESC LIMIT 1`,
		poiID,
	)
	return scanPGAlert(row)
}

func (s *PostgresStore) LastAlertAny(ctx context.Context) (*model.ProximityAlert, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, poi_id, poi_name, distance_m, tier, dispatched_at FROM alerts
		 ORDER BY dispatched_at DESC LIMIT 1`,
	)
	return scanPGAlert(row)
}

func (s *PostgresStore) AlertsOnDay(ctx context.Context, poiID string, tier model.Tier, day time.Time) ([]model.ProximityAlert, error) {
	start, end := dayBounds(day)
	rows, err := s.pool.Query(ctx,
		`SELECT id, poi_id, poi_name, distance_m, tier, dispatched_at FROM alerts
		 WHERE poi_id = $1 AND tier = $2 AND dispatched_at >= $3 AND dispatched_at < $4
		 ORDER BY dispatched_at`,
		poiID, string(tier), start.UTC(), end.UTC(),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: alerts on day")
	}
	defer rows.Close()
	return collectPGAlerts(rows)
}

func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]model.ProximityAlert, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, poi_id, poi_name, distance_m, tier, dispatched_at FROM alerts
		 ORDER BY dispatched_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: recent alerts")
	}
	defer rows.Close()
	return collectPGAlerts(rows)
}

func (s *PostgresStore) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM alerts WHERE dispatched_at < $1`,
		cutoff.UTC(),
	)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: prune alerts")
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) Clear(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM alerts`)
	return eris.Wrap(err, "postgres: clear alerts")
}

// helpers

func scanPGAlert(row pgx.Row) (*model.ProximityAlert, error) {
	var a model.ProximityAlert
	var tier string
	err := row.Scan(&a.ID, &a.POIID, &a.POIName, &a.DistanceM, &tier, &a.Timestamp)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan alert")
	}
	a.Tier = model.Tier(tier)
	return &a, nil
}

func collectPGAlerts(rows pgx.Rows) ([]model.ProximityAlert, error) {
	var out []model.ProximityAlert
	for rows.Next() {
		a, err := scanPGAlert(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate alerts")
}
