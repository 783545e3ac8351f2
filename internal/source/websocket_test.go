package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wsFeed serves a fixed sequence of messages to each subscriber, then
// closes the connection.
func wsFeed(t *testing.T, messages []string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close() //nolint:errcheck
		for _, msg := range messages {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return
			}
		}
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWebsocket_DeliversFixes(t *testing.T) {
	srv := wsFeed(t, []string{
		`{"lat": 40.0, "lon": -74.0, "accuracy_m": 10, "ts": "2026-06-01T12:00:00Z"}`,
		`{"lat": 40.01, "lon": -74.0, "accuracy_m": 10, "ts": "2026-06-01T12:00:05Z"}`,
	})

	src := NewWebsocket(wsURL(srv))
	ch, unsubscribe, err := src.Subscribe(context.Background(), Options{})
	require.NoError(t, err)
	defer unsubscribe()

	first := <-ch
	assert.Equal(t, 40.0, first.Lat)
	assert.True(t, first.Timestamp.Equal(time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)))

	second := <-ch
	assert.Equal(t, 40.01, second.Lat)

	_, open := <-ch
	assert.False(t, open, "channel closes when the feed ends")
}

func TestWebsocket_SkipsMalformedAndFiltered(t *testing.T) {
	srv := wsFeed(t, []string{
		`not json`,
		`{"lat": 40.0, "lon": -74.0, "accuracy_m": 500, "ts": "2026-06-01T12:00:00Z"}`,
		`{"lat": 40.01, "lon": -74.0, "accuracy_m": 10, "ts": "2026-06-01T12:00:05Z"}`,
	})

	src := NewWebsocket(wsURL(srv))
	ch, unsubscribe, err := src.Subscribe(context.Background(), Options{AccuracyM: 50})
	require.NoError(t, err)
	defer unsubscribe()

	var got []float64
	for pos := range ch {
		got = append(got, pos.Lat)
	}
	assert.Equal(t, []float64{40.01}, got)
}

func TestWebsocket_DialFailure(t *testing.T) {
	src := NewWebsocket("ws://127.0.0.1:1/feed")
	_, _, err := src.Subscribe(context.Background(), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dial")
}

func TestWebsocket_UnsubscribeClosesStream(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close() //nolint:errcheck
		// Hold the connection open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	src := NewWebsocket(wsURL(srv))
	ch, unsubscribe, err := src.Subscribe(context.Background(), Options{})
	require.NoError(t, err)

	unsubscribe()
	unsubscribe() // idempotent

	select {
	case _, open := <-ch:
		assert.False(t, open)
	case <-time.After(2 * time.Second):
		t.Fatal("channel did not close after unsubscribe")
	}
}
