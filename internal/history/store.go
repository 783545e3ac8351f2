// Package history keeps the per-POI ledger of dispatched proximity
// alerts. The alert gate consults it for cooldown and dedup decisions
// and appends every approved dispatch.
package history

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/proximity-cli/internal/model"
)

// Store defines the persistence interface for dispatched alerts.
// Entries are appended only when the alert gate approves a dispatch.
type Store interface {
	// Append records a dispatched alert.
	Append(ctx context.Context, alert model.ProximityAlert) error

	// LastAlert returns the most recent dispatched alert for a POI,
	// or nil if none exists.
	LastAlert(ctx context.Context, poiID string) (*model.ProximityAlert, error)

	// LastAlertAny returns the most recent dispatched alert across
	// all POIs, or nil if none exists. Used by the global cooldown
	// scope.
	LastAlertAny(ctx context.Context) (*model.ProximityAlert, error)

	// AlertsOnDay returns alerts of the given tier for a POI
	// dispatched on the same calendar day as day, chronological.
	AlertsOnDay(ctx context.Context, poiID string, tier model.Tier, day time.Time) ([]model.ProximityAlert, error)

	// Recent returns the most recently dispatched alerts across all
	// POIs, newest first, capped at limit.
	Recent(ctx context.Context, limit int) ([]model.ProximityAlert, error)

	// Prune deletes alerts older than cutoff and returns how many
	// were removed.
	Prune(ctx context.Context, cutoff time.Time) (int, error)

	// Clear discards the entire ledger.
	Clear(ctx context.Context) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open constructs a Store for the given driver: "memory", "sqlite",
// or "postgres". The returned store is migrated and ready for use.
func Open(ctx context.Context, driver, path, databaseURL string) (Store, error) {
	var (
		st  Store
		err error
	)
	switch driver {
	case "", "memory":
		st = NewMemory()
	case "sqlite":
		st, err = NewSQLite(path)
	case "postgres":
		st, err = NewPostgres(ctx, databaseURL)
	default:
		return nil, eris.Errorf("history: unknown store driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

// dayBounds returns the [start, end) window of the calendar day
// containing t, in t's location.
func dayBounds(t time.Time) (time.Time, time.Time) {
	y, m, d := t.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}
