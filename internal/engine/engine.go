package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/proximity-cli/internal/config"
	"github.com/sells-group/proximity-cli/internal/directory"
	"github.com/sells-group/proximity-cli/internal/geo"
	"github.com/sells-group/proximity-cli/internal/history"
	"github.com/sells-group/proximity-cli/internal/model"
	"github.com/sells-group/proximity-cli/internal/notify"
	"github.com/sells-group/proximity-cli/internal/source"
)

// Engine orchestrates the proximity alerting core. It subscribes to
// the location stream, re-runs geofence selection on trigger
// conditions, and feeds every position update through evaluation and
// the alert gate.
//
// Position updates are processed strictly in arrival order by a single
// loop, so evaluation never overlaps. Re-selection runs asynchronously
// and swaps the active set atomically; the prior set stays
// authoritative until the swap completes.
type Engine struct {
	cfgMu sync.RWMutex
	cfg   config.GeofenceConfig

	src     source.Source
	srcOpts source.Options
	dir     directory.Directory
	store   history.Store
	gate    *Gate
	stats   *Stats
	now     func() time.Time
	log     *zap.Logger

	active atomic.Pointer[[]model.Registration]

	selMu     sync.Mutex
	lastSel   *model.Position
	lastSelAt time.Time

	reselecting   atomic.Bool
	forceReselect atomic.Bool

	runMu       sync.Mutex
	running     bool
	cancel      context.CancelFunc
	unsubscribe func()
	group       *errgroup.Group
}

// New wires an Engine from its collaborators. The clock may be nil,
// in which case time.Now is used; tests inject one to pin quiet-hour
// and cooldown decisions.
func New(cfg config.GeofenceConfig, src source.Source, dir directory.Directory, store history.Store, dispatcher notify.Dispatcher, srcOpts source.Options, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	e := &Engine{
		cfg:     cfg,
		src:     src,
		srcOpts: srcOpts,
		dir:     dir,
		store:   store,
		gate:    NewGate(store, dispatcher, now),
		stats:   newStats(),
		now:     now,
		log:     zap.L().With(zap.String("component", "engine")),
	}
	empty := []model.Registration{}
	e.active.Store(&empty)
	return e
}

// Start validates configuration, subscribes to the location stream,
// and launches the evaluation loop. On failure the engine stays inert
// and a fresh Start may be attempted later.
func (e *Engine) Start(ctx context.Context) error {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	if e.running {
		return eris.New("engine: already started")
	}

	if err := e.Config().Validate(); err != nil {
		return err
	}

	updates, unsubscribe, err := e.src.Subscribe(ctx, e.srcOpts)
	if err != nil {
		return eris.Wrap(err, "engine: subscribe to location stream")
	}

	runCtx, cancel := context.WithCancel(ctx)
	g, gCtx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		e.run(gCtx, updates)
		return nil
	})

	e.cancel = cancel
	e.unsubscribe = unsubscribe
	e.group = g
	e.running = true
	e.log.Info("engine started",
		zap.Int("max_geofences", e.Config().MaxGeofences),
		zap.Float64s("alert_distances_m", e.Config().AlertDistancesM),
	)
	return nil
}

// Stop unsubscribes from the location stream, waits for in-flight
// work, clears the active registrations, and discards in-memory
// history so no stale state survives a restart. Durable history
// backends keep their ledger.
func (e *Engine) Stop() {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	if !e.running {
		return
	}

	e.unsubscribe()
	e.cancel()
	_ = e.group.Wait()

	empty := []model.Registration{}
	e.active.Store(&empty)
	e.selMu.Lock()
	e.lastSel = nil
	e.lastSelAt = time.Time{}
	e.selMu.Unlock()

	if mem, ok := e.store.(*history.MemoryStore); ok {
		_ = mem.Clear(context.Background())
	}

	e.running = false
	e.log.Info("engine stopped")
}

// Config returns a copy of the current alerting policy.
func (e *Engine) Config() config.GeofenceConfig {
	e.cfgMu.RLock()
	defer e.cfgMu.RUnlock()
	return e.cfg
}

// UpdateConfig merges a partial update onto the current policy. The
// merged result must validate; it takes effect on the next evaluation
// or selection cycle, never retroactively.
func (e *Engine) UpdateConfig(patch ConfigPatch) (config.GeofenceConfig, error) {
	e.cfgMu.Lock()
	defer e.cfgMu.Unlock()

	merged := patch.applyTo(e.cfg)
	if err := merged.Validate(); err != nil {
		return e.cfg, err
	}
	e.cfg = merged
	e.log.Info("config updated",
		zap.Int("max_geofences", merged.MaxGeofences),
		zap.Int("cooldown_minutes", merged.CooldownMinutes),
	)
	return merged, nil
}

// Active returns the current registration set, ascending by distance
// at selection time.
func (e *Engine) Active() []model.Registration {
	regs := *e.active.Load()
	out := make([]model.Registration, len(regs))
	copy(out, regs)
	return out
}

// Refresh forces a geofence re-selection on the next position update,
// regardless of the movement and interval triggers. The runtime API
// calls this after a directory change.
func (e *Engine) Refresh() {
	e.forceReselect.Store(true)
}

// Stats returns a snapshot of the engine's counters.
func (e *Engine) Stats() StatsSnapshot {
	return e.stats.Snapshot()
}

// History exposes the alert ledger for the runtime API and CLI.
func (e *Engine) History() history.Store {
	return e.store
}

// run is the serialized evaluation loop. One position update at a
// time, in arrival order.
func (e *Engine) run(ctx context.Context, updates <-chan model.Position) {
	for {
		select {
		case <-ctx.Done():
			return
		case pos, ok := <-updates:
			if !ok {
				e.log.Info("location stream ended")
				return
			}
			e.handleUpdate(ctx, pos)
		}
	}
}

func (e *Engine) handleUpdate(ctx context.Context, pos model.Position) {
	if !pos.Valid() {
		e.stats.recordDropped()
		return
	}

	cfg := e.Config()
	e.maybeReselect(ctx, pos, cfg)

	candidates := Evaluate(pos, e.Active(), cfg.AlertDistancesM)
	e.stats.recordEvaluation(len(candidates))

	dispatched := false
	for _, c := range candidates {
		out, err := e.gate.Process(ctx, c, cfg)
		if err != nil {
			e.log.Error("gate check failed",
				zap.String("poi_id", c.POIID),
				zap.Error(err),
			)
			continue
		}
		e.stats.recordOutcome(out)
		if out.Dispatched {
			dispatched = true
		}
	}

	// Opportunistic history pruning keeps the ledger bounded to the
	// lookback window the gate actually needs.
	if dispatched {
		cutoff := e.now().Add(-cfg.Lookback())
		if _, err := e.store.Prune(ctx, cutoff); err != nil {
			e.log.Warn("history prune failed", zap.Error(err))
		}
	}
}

// maybeReselect re-runs geofence selection when a trigger condition
// holds: no selection yet, an explicit refresh, movement beyond the
// re-selection distance, or the re-selection interval elapsing.
//
// The very first selection runs inline so the first position update is
// evaluated against a populated set. Later re-selections run off the
// evaluation loop; at most one is in flight, and the active set is only
// replaced wholesale.
func (e *Engine) maybeReselect(ctx context.Context, pos model.Position, cfg config.GeofenceConfig) {
	force := e.forceReselect.Load()

	e.selMu.Lock()
	initial := e.lastSel == nil
	trigger := force || initial
	if !trigger && cfg.ReselectDistanceM > 0 {
		moved := geo.Distance(e.lastSel.Lat, e.lastSel.Lon, pos.Lat, pos.Lon)
		trigger = moved >= cfg.ReselectDistanceM
	}
	if !trigger && cfg.ReselectInterval > 0 {
		trigger = e.now().Sub(e.lastSelAt) >= cfg.ReselectInterval
	}
	e.selMu.Unlock()

	if !trigger {
		return
	}
	if !e.reselecting.CompareAndSwap(false, true) {
		return
	}
	e.forceReselect.Store(false)

	if initial {
		e.reselect(ctx, pos, cfg)
		return
	}
	e.group.Go(func() error {
		e.reselect(ctx, pos, cfg)
		return nil
	})
}

func (e *Engine) reselect(ctx context.Context, pos model.Position, cfg config.GeofenceConfig) {
	defer e.reselecting.Store(false)

	pois, err := e.dir.ActivePOIs(ctx)
	if err != nil {
		// Prior active set stays in force; the next trigger retries.
		e.log.Warn("directory fetch failed, keeping active set", zap.Error(err))
		e.stats.recordReselect(false)
		return
	}

	regs := SelectNearest(pos, pois, cfg)
	e.active.Store(&regs)

	e.selMu.Lock()
	p := pos
	e.lastSel = &p
	e.lastSelAt = e.now()
	e.selMu.Unlock()

	e.stats.recordReselect(true)
	e.log.Debug("reselected geofences",
		zap.Int("directory_pois", len(pois)),
		zap.Int("active", len(regs)),
	)
}
