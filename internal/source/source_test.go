package source

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/proximity-cli/internal/model"
)

func fix(lat, lon float64, ts time.Time) model.Position {
	return model.Position{Lat: lat, Lon: lon, Timestamp: ts}
}

func TestFilter_DropsInvalid(t *testing.T) {
	f := newFilter(Options{})
	assert.False(t, f.keep(fix(math.NaN(), 0, time.Now())))
	assert.False(t, f.keep(fix(95, 0, time.Now())))
	assert.True(t, f.keep(fix(40, -74, time.Now())))
}

func TestFilter_Accuracy(t *testing.T) {
	f := newFilter(Options{AccuracyM: 50})

	coarse := fix(40, -74, time.Now())
	coarse.AccuracyM = 120
	assert.False(t, f.keep(coarse))

	fine := fix(40, -74, time.Now())
	fine.AccuracyM = 30
	assert.True(t, f.keep(fine))
}

func TestFilter_MinInterval(t *testing.T) {
	base := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	f := newFilter(Options{MinInterval: 5 * time.Second})

	assert.True(t, f.keep(fix(40, -74, base)))
	assert.False(t, f.keep(fix(40.001, -74, base.Add(2*time.Second))))
	assert.True(t, f.keep(fix(40.001, -74, base.Add(5*time.Second))))
}

func TestFilter_MinDistance(t *testing.T) {
	base := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	f := newFilter(Options{MinDistanceM: 100})

	assert.True(t, f.keep(fix(40, -74, base)))
	// Roughly 11 m north: below the distance floor.
	assert.False(t, f.keep(fix(40.0001, -74, base.Add(time.Minute))))
	// Roughly 1.1 km north: passes.
	assert.True(t, f.keep(fix(40.01, -74, base.Add(2*time.Minute))))
}

func TestFilter_DistanceMeasuredFromLastDelivered(t *testing.T) {
	base := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	f := newFilter(Options{MinDistanceM: 100})

	assert.True(t, f.keep(fix(40, -74, base)))
	// Creeping in sub-threshold steps never advances the reference
	// point, so the third step (170 m from the delivered fix) passes.
	assert.False(t, f.keep(fix(40.0008, -74, base.Add(time.Minute))))
	assert.True(t, f.keep(fix(40.0015, -74, base.Add(2*time.Minute))))
}

func TestQueueDepth(t *testing.T) {
	assert.Equal(t, defaultQueueDepth, queueDepth(Options{}))
	assert.Equal(t, 128, queueDepth(Options{QueueDepth: 128}))
}
