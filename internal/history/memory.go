package history

import (
	"context"
	"sync"
	"time"

	"github.com/sells-group/proximity-cli/internal/model"
)

// MemoryStore implements Store in process memory. It is the default
// backend for a single device and the one used by unit tests; its
// contents are discarded on engine shutdown.
type MemoryStore struct {
	mu sync.RWMutex
	// byPOI holds dispatched alerts per POI in append (chronological) order.
	byPOI map[string][]model.ProximityAlert
	// all holds the same alerts in global append order.
	all []model.ProximityAlert
}

// NewMemory creates an empty MemoryStore.
func NewMemory() *MemoryStore {
	return &MemoryStore{byPOI: make(map[string][]model.ProximityAlert)}
}

func (s *MemoryStore) Append(_ context.Context, alert model.ProximityAlert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byPOI[alert.POIID] = append(s.byPOI[alert.POIID], alert)
	s.all = append(s.all, alert)
	return nil
}

func (s *MemoryStore) LastAlert(_ context.Context, poiID string) (*model.ProximityAlert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	alerts := s.byPOI[poiID]
	if len(alerts) == 0 {
		return nil, nil
	}
	last := alerts[len(alerts)-1]
	return &last, nil
}

func (s *MemoryStore) LastAlertAny(_ context.Context) (*model.ProximityAlert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.all) == 0 {
		return nil, nil
	}
	last := s.all[len(s.all)-1]
	return &last, nil
}

func (s *MemoryStore) AlertsOnDay(_ context.Context, poiID string, tier model.Tier, day time.Time) ([]model.ProximityAlert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.ProximityAlert
	for _, a := range s.byPOI[poiID] {
		if a.Tier == tier && a.SameDay(day) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *MemoryStore) Recent(_ context.Context, limit int) ([]model.ProximityAlert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > len(s.all) {
		limit = len(s.all)
	}
	out := make([]model.ProximityAlert, 0, limit)
	for i := len(s.all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.all[i])
	}
	return out, nil
}

func (s *MemoryStore) Prune(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for poiID, alerts := range s.byPOI {
		kept := alerts[:0]
		for _, a := range alerts {
			if a.Timestamp.Before(cutoff) {
				removed++
				continue
			}
			kept = append(kept, a)
		}
		if len(kept) == 0 {
			delete(s.byPOI, poiID)
			continue
		}
		s.byPOI[poiID] = kept
	}

	keptAll := s.all[:0]
	for _, a := range s.all {
		if !a.Timestamp.Before(cutoff) {
			keptAll = append(keptAll, a)
		}
	}
	s.all = keptAll

	return removed, nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byPOI = make(map[string][]model.ProximityAlert)
	s.all = nil
	return nil
}

func (s *MemoryStore) Migrate(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
