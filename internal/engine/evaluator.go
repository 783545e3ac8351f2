package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/sells-group/proximity-cli/internal/geo"
	"github.com/sells-group/proximity-cli/internal/model"
)

// Evaluate classifies one position update against the active
// registration set. For each registered POI it computes the current
// distance and walks the thresholds from smallest to largest, picking
// the smallest one the distance falls within: the nearest threshold
// maps to alarm, the next to reminder, the rest to gentle. A POI whose
// distance exceeds every threshold produces nothing, so the result
// carries at most one candidate per POI per tick.
//
// thresholds must be sorted descending, as enforced by config
// validation.
func Evaluate(pos model.Position, active []model.Registration, thresholds []float64) []model.ProximityAlert {
	if len(thresholds) == 0 {
		return nil
	}

	ts := pos.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	var candidates []model.ProximityAlert
	for _, reg := range active {
		d := geo.Distance(pos.Lat, pos.Lon, reg.POI.Lat, reg.POI.Lon)
		for i := len(thresholds) - 1; i >= 0; i-- {
			if d > thresholds[i] {
				continue
			}
			candidates = append(candidates, model.ProximityAlert{
				ID:        uuid.New().String(),
				POIID:     reg.POI.ID,
				POIName:   reg.POI.Name,
				DistanceM: d,
				Tier:      model.TierForIndex(len(thresholds) - 1 - i),
				Timestamp: ts,
			})
			break
		}
	}
	return candidates
}
