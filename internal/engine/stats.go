package engine

import (
	"sync"
	"time"
)

// Stats holds point-in-time counters for the engine's activity.
type Stats struct {
	mu sync.Mutex

	evaluations          int
	candidates           int
	dispatched           int
	dispatchFailures     int
	suppressedQuietHours int
	suppressedCooldown   int
	suppressedDedup      int
	reselects            int
	reselectFailures     int
	droppedUpdates       int
	startedAt            time.Time
}

// StatsSnapshot is a read-only copy of the counters for the runtime API.
type StatsSnapshot struct {
	Evaluations          int       `json:"evaluations"`
	Candidates           int       `json:"candidates"`
	Dispatched           int       `json:"dispatched"`
	DispatchFailures     int       `json:"dispatch_failures"`
	SuppressedQuietHours int       `json:"suppressed_quiet_hours"`
	SuppressedCooldown   int       `json:"suppressed_cooldown"`
	SuppressedDedup      int       `json:"suppressed_daily_dedup"`
	Reselects            int       `json:"reselects"`
	ReselectFailures     int       `json:"reselect_failures"`
	DroppedUpdates       int       `json:"dropped_updates"`
	StartedAt            time.Time `json:"started_at"`
}

func newStats() *Stats {
	return &Stats{startedAt: time.Now().UTC()}
}

func (s *Stats) recordEvaluation(candidates int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evaluations++
	s.candidates += candidates
}

func (s *Stats) recordOutcome(out Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if out.Dispatched {
		s.dispatched++
		if out.DispatchErr != nil {
			s.dispatchFailures++
		}
		return
	}
	switch out.Suppressed {
	case SuppressQuietHours:
		s.suppressedQuietHours++
	case SuppressCooldown:
		s.suppressedCooldown++
	case SuppressDailyDedup:
		s.suppressedDedup++
	}
}

func (s *Stats) recordReselect(ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ok {
		s.reselects++
	} else {
		s.reselectFailures++
	}
}

func (s *Stats) recordDropped() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.droppedUpdates++
}

// Snapshot returns a copy of the counters.
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StatsSnapshot{
		Evaluations:          s.evaluations,
		Candidates:           s.candidates,
		Dispatched:           s.dispatched,
		DispatchFailures:     s.dispatchFailures,
		SuppressedQuietHours: s.suppressedQuietHours,
		SuppressedCooldown:   s.suppressedCooldown,
		SuppressedDedup:      s.suppressedDedup,
		Reselects:            s.reselects,
		ReselectFailures:     s.reselectFailures,
		DroppedUpdates:       s.droppedUpdates,
		StartedAt:            s.startedAt,
	}
}
