package history

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/proximity-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It gives the
// ledger durability across process restarts on a single device.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS alerts (
	id            TEXT PRIMARY KEY,
	poi_id        TEXT NOT NULL,
	poi_name      TEXT NOT NULL,
	distance_m    REAL NOT NULL,
	tier          TEXT NOT NULL,
	dispatched_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_alerts_poi_id ON alerts(poi_id, dispatched_at);
CREATE INDEX IF NOT EXISTS idx_alerts_dispatched_at ON alerts(dispatched_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Append(ctx context.Context, alert model.ProximityAlert) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO alerts (id, poi_id, poi_name, distance_m, tier, dispatched_at) VALUES (?, ?, ?, ?, ?, ?)`,
		alert.ID, alert.POIID, alert.POIName, alert.DistanceM, string(alert.Tier), alert.Timestamp.UTC(),
	)
	return eris.Wrapf(err, "sqlite: append alert for %s", alert.POIID)
}

func (s *SQLiteStore) LastAlert(ctx context.Context, poiID string) (*model.ProximityAlert, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, poi_id, poi_name, distance_m, tier, dispatched_at FROM alerts
		 WHERE poi_id = ? ORDER BY dispatched_at DESC LIMIT 1`,
		poiID,
	)
	return scanAlert(row)
}

func (s *SQLiteStore) LastAlertAny(ctx context.Context) (*model.ProximityAlert, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, poi_id, poi_name, distance_m, tier, dispatched_at FROM alerts
		 ORDER BY dispatched_at DESC LIMIT 1`,
	)
	return scanAlert(row)
}

func (s *SQLiteStore) AlertsOnDay(ctx context.Context, poiID string, tier model.Tier, day time.Time) ([]model.ProximityAlert, error) {
	start, end := dayBounds(day)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, poi_id, poi_name, distance_m, tier, dispatched_at FROM alerts
		 WHERE poi_id = ? AND tier = ? AND dispatched_at >= ? AND dispatched_at < ?
		 ORDER BY dispatched_at`,
		poiID, string(tier), start.UTC(), end.UTC(),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: alerts on day")
	}
	defer rows.Close()
	return collectAlerts(rows)
}

func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]model.ProximityAlert, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, poi_id, poi_name, distance_m, tier, dispatched_at FROM alerts
		 ORDER BY dispatched_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: recent alerts")
	}
	defer rows.Close()
	return collectAlerts(rows)
}

func (s *SQLiteStore) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM alerts WHERE dispatched_at < ?`,
		cutoff.UTC(),
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prune alerts")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM alerts`)
	return eris.Wrap(err, "sqlite: clear alerts")
}

// helpers

type scannable interface {
	Scan(dest ...any) error
}

func scanAlert(row scannable) (*model.ProximityAlert, error) {
	var a model.ProximityAlert
	var tier string
	err := row.Scan(&a.ID, &a.POIID, &a.POIName, &a.DistanceM, &tier, &a.Timestamp)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan alert")
	}
	a.Tier = model.Tier(tier)
	return &a, nil
}

func collectAlerts(rows *sql.Rows) ([]model.ProximityAlert, error) {
	var out []model.ProximityAlert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate alerts")
}
