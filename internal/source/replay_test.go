package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTrack(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "track.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewReplay_ParsesTrackFile(t *testing.T) {
	path := writeTrack(t, `
interval_ms: 10
points:
  - {lat: 40.0, lon: -74.0}
  - {lat: 40.001, lon: -74.0}
  - {lat: 40.002, lon: -74.0}
`)
	src, err := NewReplay(path)
	require.NoError(t, err)
	assert.Len(t, src.points, 3)
	assert.Equal(t, 10*time.Millisecond, src.interval)
}

func TestNewReplay_Errors(t *testing.T) {
	_, err := NewReplay(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = NewReplay(writeTrack(t, "points: []"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no points")

	_, err = NewReplay(writeTrack(t, "interval_ms: [not scalar]"))
	require.Error(t, err)
}

func TestReplay_DeliversAllPoints(t *testing.T) {
	src := NewReplayFromPoints([]TrackPoint{
		{Lat: 40.0, Lon: -74.0},
		{Lat: 40.01, Lon: -74.0},
		{Lat: 40.02, Lon: -74.0},
	}, time.Millisecond)

	ch, unsubscribe, err := src.Subscribe(context.Background(), Options{})
	require.NoError(t, err)
	defer unsubscribe()

	var got int
	for range ch {
		got++
	}
	assert.Equal(t, 3, got)
	src.Wait() // returns immediately once the channel is closed
}

func TestReplay_AppliesFilters(t *testing.T) {
	// Consecutive points 11 m apart are collapsed by the distance floor.
	src := NewReplayFromPoints([]TrackPoint{
		{Lat: 40.0, Lon: -74.0},
		{Lat: 40.0001, Lon: -74.0},
		{Lat: 40.01, Lon: -74.0},
	}, time.Millisecond)

	ch, unsubscribe, err := src.Subscribe(context.Background(), Options{MinDistanceM: 100})
	require.NoError(t, err)
	defer unsubscribe()

	var got int
	for range ch {
		got++
	}
	assert.Equal(t, 2, got)
}

func TestReplay_CancelStopsDelivery(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := NewReplayFromPoints([]TrackPoint{
		{Lat: 40.0, Lon: -74.0},
		{Lat: 40.01, Lon: -74.0},
	}, time.Hour)

	ch, unsubscribe, err := src.Subscribe(ctx, Options{})
	require.NoError(t, err)
	defer unsubscribe()

	// First point arrives immediately; cancel before the second.
	<-ch
	cancel()

	_, open := <-ch
	assert.False(t, open)
}
