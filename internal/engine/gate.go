package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/proximity-cli/internal/config"
	"github.com/sells-group/proximity-cli/internal/history"
	"github.com/sells-group/proximity-cli/internal/model"
	"github.com/sells-group/proximity-cli/internal/notify"
)

// SuppressReason says why the gate vetoed a candidate.
type SuppressReason string

const (
	SuppressNone       SuppressReason = ""
	SuppressQuietHours SuppressReason = "quiet_hours"
	SuppressCooldown   SuppressReason = "cooldown"
	SuppressDailyDedup SuppressReason = "daily_dedup"
)

// Outcome is the gate's decision for one candidate alert.
type Outcome struct {
	Dispatched bool
	Suppressed SuppressReason
	// DispatchErr is set when the notification surface rejected the
	// delivery. The alert is still recorded in history so cooldown
	// and dedup state stay consistent.
	DispatchErr error
}

// Gate applies quiet-hours, cooldown, and daily-dedup policy to
// decide whether a classified candidate becomes a dispatched alert.
// The clock is injected so tests can pin the hour of day.
type Gate struct {
	store      history.Store
	dispatcher notify.Dispatcher
	now        func() time.Time
	log        *zap.Logger
}

// NewGate creates a Gate over the given history store and dispatcher.
// If now is nil, time.Now is used.
func NewGate(store history.Store, dispatcher notify.Dispatcher, now func() time.Time) *Gate {
	if now == nil {
		now = time.Now
	}
	return &Gate{
		store:      store,
		dispatcher: dispatcher,
		now:        now,
		log:        zap.L().With(zap.String("component", "engine.gate")),
	}
}

// Process runs the decision pipeline for one candidate. All checks
// must pass, in order: quiet hours, cooldown, same-day same-tier
// dedup. On pass the alert is appended to history first, then
// forwarded; a delivery failure is logged and swallowed, and the
// history record stands so repeated failures cannot cause a
// notification storm.
func (g *Gate) Process(ctx context.Context, candidate model.ProximityAlert, cfg config.GeofenceConfig) (Outcome, error) {
	now := g.now()

	if inQuietHours(now.Hour(), cfg.QuietHoursStart, cfg.QuietHoursEnd) {
		return Outcome{Suppressed: SuppressQuietHours}, nil
	}

	suppressed, err := g.inCooldown(ctx, candidate.POIID, cfg, now)
	if err != nil {
		return Outcome{}, err
	}
	if suppressed {
		return Outcome{Suppressed: SuppressCooldown}, nil
	}

	sameDay, err := g.store.AlertsOnDay(ctx, candidate.POIID, candidate.Tier, now)
	if err != nil {
		return Outcome{}, err
	}
	if len(sameDay) > 0 {
		return Outcome{Suppressed: SuppressDailyDedup}, nil
	}

	// Record before dispatching: the dispatch timestamp is what
	// cooldown bookkeeping runs on, even when delivery fails.
	candidate.Timestamp = now
	if err := g.store.Append(ctx, candidate); err != nil {
		return Outcome{}, err
	}

	out := Outcome{Dispatched: true}
	if err := g.dispatcher.Dispatch(ctx, notify.FromAlert(candidate)); err != nil {
		g.log.Warn("dispatch failed, alert kept in history",
			zap.String("poi_id", candidate.POIID),
			zap.String("tier", string(candidate.Tier)),
			zap.Error(err),
		)
		out.DispatchErr = err
	}
	return out, nil
}

// inCooldown checks whether a prior dispatch within the cooldown
// window suppresses this candidate. The scope policy decides whether
// the window is tracked per POI or with a single global timer.
func (g *Gate) inCooldown(ctx context.Context, poiID string, cfg config.GeofenceConfig, now time.Time) (bool, error) {
	if cfg.CooldownMinutes <= 0 {
		return false, nil
	}

	var (
		last *model.ProximityAlert
		err  error
	)
	if cfg.CooldownScope == config.CooldownGlobal {
		last, err = g.store.LastAlertAny(ctx)
	} else {
		last, err = g.store.LastAlert(ctx, poiID)
	}
	if err != nil {
		return false, err
	}
	if last == nil {
		return false, nil
	}
	return now.Sub(last.Timestamp) < cfg.Cooldown(), nil
}

// inQuietHours reports whether hour falls inside the configured
// window. The window may wrap midnight: with start 22 and end 8,
// suppression applies when hour >= 22 or hour < 8. Equal start and
// end means the window is disabled.
func inQuietHours(hour, start, end int) bool {
	switch {
	case start == end:
		return false
	case start < end:
		return hour >= start && hour < end
	default:
		return hour >= start || hour < end
	}
}
