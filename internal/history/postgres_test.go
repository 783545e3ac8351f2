package history

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/proximity-cli/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return &PostgresStore{pool: mock}, mock
}

func alertColumns() []string {
	return []string{"id", "poi_id", "poi_name", "distance_m", "tier", "dispatched_at"}
}

func TestPostgres_Append(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	ts := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(`INSERT INTO alerts`).
		WithArgs("a1", "poi-1", "POI poi-1", 42.0, "alarm", ts).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.Append(context.Background(), mkAlert("a1", "poi-1", model.TierAlarm, ts))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_LastAlert_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, poi_id, poi_name, distance_m, tier, dispatched_at FROM alerts`).
		WithArgs("poi-1").
		WillReturnError(pgx.ErrNoRows)

	last, err := s.LastAlert(context.Background(), "poi-1")
	require.NoError(t, err)
	assert.Nil(t, last)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_LastAlert_Found(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	ts := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT id, poi_id, poi_name, distance_m, tier, dispatched_at FROM alerts`).
		WithArgs("poi-1").
		WillReturnRows(pgxmock.NewRows(alertColumns()).
			AddRow("a2", "poi-1", "Trattoria", 61.5, "reminder", ts))

	last, err := s.LastAlert(context.Background(), "poi-1")
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, "a2", last.ID)
	assert.Equal(t, model.TierReminder, last.Tier)
	assert.Equal(t, 61.5, last.DistanceM)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_AlertsOnDay(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	day := time.Date(2026, 6, 1, 9, 30, 0, 0, time.UTC)
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT id, poi_id, poi_name, distance_m, tier, dispatched_at FROM alerts`).
		WithArgs("poi-1", "alarm", start, start.AddDate(0, 0, 1)).
		WillReturnRows(pgxmock.NewRows(alertColumns()).
			AddRow("a1", "poi-1", "Trattoria", 38.0, "alarm", day))

	got, err := s.AlertsOnDay(context.Background(), "poi-1", model.TierAlarm, day)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a1", got[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Prune(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	cutoff := time.Date(2026, 5, 30, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(`DELETE FROM alerts WHERE dispatched_at`).
		WithArgs(cutoff).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	removed, err := s.Prune(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, 3, removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS alerts`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
