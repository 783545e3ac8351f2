// Package engine implements the proximity alerting core: nearest-N
// geofence selection, distance-to-tier evaluation, the alert gate, and
// the orchestrating engine that ties them to a location stream.
package engine

import (
	"sort"

	"github.com/sells-group/proximity-cli/internal/config"
	"github.com/sells-group/proximity-cli/internal/geo"
	"github.com/sells-group/proximity-cli/internal/model"
)

// SelectNearest picks up to MaxGeofences registrations from the POI
// directory snapshot, ordered ascending by distance from pos. POIs
// without valid coordinates or marked inactive are excluded silently.
// The sort is stable, so ties keep directory order. This bounds the
// registration count on platforms with hard geofence limits.
func SelectNearest(pos model.Position, pois []model.PointOfInterest, cfg config.GeofenceConfig) []model.Registration {
	regs := make([]model.Registration, 0, len(pois))
	for _, poi := range pois {
		if !poi.Active || !poi.Valid() {
			continue
		}
		regs = append(regs, model.Registration{
			POI:       poi,
			RadiusM:   cfg.DefaultRadiusM,
			DistanceM: geo.Distance(pos.Lat, pos.Lon, poi.Lat, poi.Lon),
		})
	}

	sort.SliceStable(regs, func(i, j int) bool {
		return regs[i].DistanceM < regs[j].DistanceM
	})

	if len(regs) > cfg.MaxGeofences {
		regs = regs[:cfg.MaxGeofences]
	}
	return regs
}
