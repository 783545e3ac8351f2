package directory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/proximity-cli/internal/resilience"
)

func fastRetry() resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2,
	}
}

func TestHTTPDirectory_ActivePOIs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id": "poi-1", "name": "Trattoria", "lat": 40.0, "lon": -74.0, "active": true},
			{"id": "poi-2", "name": "Noodle Bar", "lat": 40.01, "lon": -74.0, "active": false}
		]`)) //nolint:errcheck
	}))
	t.Cleanup(srv.Close)

	dir := NewHTTP(srv.URL, time.Second, WithRetry(fastRetry()))
	pois, err := dir.ActivePOIs(context.Background())
	require.NoError(t, err)
	require.Len(t, pois, 2)
	assert.Equal(t, "poi-1", pois[0].ID)
	assert.True(t, pois[0].Active)
	assert.False(t, pois[1].Active)
}

func TestHTTPDirectory_RetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`[{"id": "poi-1", "name": "Trattoria", "lat": 40.0, "lon": -74.0, "active": true}]`)) //nolint:errcheck
	}))
	t.Cleanup(srv.Close)

	dir := NewHTTP(srv.URL, time.Second, WithRetry(fastRetry()))
	pois, err := dir.ActivePOIs(context.Background())
	require.NoError(t, err)
	assert.Len(t, pois, 1)
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPDirectory_PermanentStatusFailsFast(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	dir := NewHTTP(srv.URL, time.Second, WithRetry(fastRetry()))
	_, err := dir.ActivePOIs(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Equal(t, int32(1), calls.Load(), "permanent failures are not retried")
}

func TestHTTPDirectory_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`)) //nolint:errcheck
	}))
	t.Cleanup(srv.Close)

	dir := NewHTTP(srv.URL, time.Second, WithRetry(fastRetry()))
	_, err := dir.ActivePOIs(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}
