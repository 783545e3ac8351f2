package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/proximity-cli/internal/config"
	"github.com/sells-group/proximity-cli/internal/model"
)

// One degree of latitude is very close to 111195 m, so POI fixtures
// place themselves north of the base position by distance/degree.
const metersPerDegreeLat = 111194.9266

var basePos = model.Position{Lat: 40.0, Lon: -74.0}

func poiAt(id string, northM float64) model.PointOfInterest {
	return model.PointOfInterest{
		ID:     id,
		Name:   "POI " + id,
		Lat:    basePos.Lat + northM/metersPerDegreeLat,
		Lon:    basePos.Lon,
		Active: true,
	}
}

func selectorConfig(maxGeofences int) config.GeofenceConfig {
	return config.GeofenceConfig{
		MaxGeofences:    maxGeofences,
		DefaultRadiusM:  200,
		AlertDistancesM: []float64{200, 100, 50},
		CooldownScope:   config.CooldownPerPOI,
		LookbackHours:   48,
	}
}

func TestSelectNearest_OrdersByDistance(t *testing.T) {
	pois := []model.PointOfInterest{
		poiAt("far", 900),
		poiAt("near", 100),
		poiAt("mid", 400),
	}

	regs := SelectNearest(basePos, pois, selectorConfig(10))
	require.Len(t, regs, 3)
	assert.Equal(t, "near", regs[0].POI.ID)
	assert.Equal(t, "mid", regs[1].POI.ID)
	assert.Equal(t, "far", regs[2].POI.ID)
	assert.InDelta(t, 100, regs[0].DistanceM, 1)
	assert.Equal(t, 200.0, regs[0].RadiusM)
}

func TestSelectNearest_CapsAtMaxGeofences(t *testing.T) {
	pois := []model.PointOfInterest{
		poiAt("a", 500),
		poiAt("b", 100),
		poiAt("c", 300),
		poiAt("d", 700),
	}

	regs := SelectNearest(basePos, pois, selectorConfig(2))
	require.Len(t, regs, 2)
	assert.Equal(t, "b", regs[0].POI.ID)
	assert.Equal(t, "c", regs[1].POI.ID)
}

func TestSelectNearest_SkipsInactiveAndInvalid(t *testing.T) {
	inactive := poiAt("inactive", 50)
	inactive.Active = false
	invalid := poiAt("invalid", 60)
	invalid.Lat = math.NaN()

	pois := []model.PointOfInterest{inactive, invalid, poiAt("ok", 400)}

	regs := SelectNearest(basePos, pois, selectorConfig(10))
	require.Len(t, regs, 1)
	assert.Equal(t, "ok", regs[0].POI.ID)
}

func TestSelectNearest_StableOnTies(t *testing.T) {
	// Identical coordinates, so the tie keeps directory order.
	pois := []model.PointOfInterest{
		poiAt("first", 250),
		poiAt("second", 250),
	}

	regs := SelectNearest(basePos, pois, selectorConfig(10))
	require.Len(t, regs, 2)
	assert.Equal(t, "first", regs[0].POI.ID)
	assert.Equal(t, "second", regs[1].POI.ID)
}

func TestSelectNearest_EmptyDirectory(t *testing.T) {
	regs := SelectNearest(basePos, nil, selectorConfig(10))
	assert.Empty(t, regs)
}
