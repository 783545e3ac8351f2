package source

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/proximity-cli/internal/model"
)

// wsFix is the wire format delivered by the location feed.
type wsFix struct {
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	AccuracyM float64 `json:"accuracy_m"`
	TS        string  `json:"ts"`
}

// WebsocketSource subscribes to a JSON position feed over a WebSocket.
// One read-loop goroutine per subscription; the loop ends when the
// peer closes, the context is cancelled, or unsubscribe is called.
type WebsocketSource struct {
	url    string
	dialer *websocket.Dialer
}

// NewWebsocket creates a WebsocketSource for the given ws:// or
// wss:// URL.
func NewWebsocket(url string) *WebsocketSource {
	return &WebsocketSource{url: url, dialer: websocket.DefaultDialer}
}

func (s *WebsocketSource) Subscribe(ctx context.Context, opts Options) (<-chan model.Position, func(), error) {
	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "source: dial %s", s.url)
	}

	out := make(chan model.Position, queueDepth(opts))
	done := make(chan struct{})
	log := zap.L().With(zap.String("component", "source.websocket"))

	go func() {
		defer close(out)
		defer conn.Close() //nolint:errcheck

		f := newFilter(opts)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				select {
				case <-done:
					// Unsubscribed; the close error is expected.
				default:
					log.Warn("read failed, stream ends", zap.Error(err))
				}
				return
			}

			var fix wsFix
			if err := json.Unmarshal(data, &fix); err != nil {
				log.Debug("dropping malformed fix", zap.Error(err))
				continue
			}

			pos := model.Position{Lat: fix.Lat, Lon: fix.Lon, AccuracyM: fix.AccuracyM}
			if ts, err := time.Parse(time.RFC3339, fix.TS); err == nil {
				pos.Timestamp = ts
			} else {
				pos.Timestamp = time.Now()
			}
			if !f.keep(pos) {
				continue
			}

			select {
			case out <- pos:
			case <-ctx.Done():
				return
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			close(done)
			// Nudge the read loop out of its blocking read.
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			_ = conn.Close()
		})
	}
	return out, unsubscribe, nil
}
