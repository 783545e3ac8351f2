package source

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/proximity-cli/internal/model"
)

// TrackPoint is one entry of a recorded track file.
type TrackPoint struct {
	Lat       float64 `yaml:"lat"`
	Lon       float64 `yaml:"lon"`
	AccuracyM float64 `yaml:"accuracy_m"`
}

// trackFile is the on-disk format consumed by the simulate command.
type trackFile struct {
	// IntervalMS paces the replay; each point is delivered this many
	// milliseconds after the previous one.
	IntervalMS int          `yaml:"interval_ms"`
	Points     []TrackPoint `yaml:"points"`
}

// ReplaySource replays a recorded track file as a position stream,
// paced by a rate limiter. It backs the simulate command and makes
// engine behavior reproducible without a live feed.
type ReplaySource struct {
	points   []TrackPoint
	interval time.Duration

	mu       sync.Mutex
	finished chan struct{}
}

// NewReplay loads a track file.
func NewReplay(path string) (*ReplaySource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "source: read track %s", path)
	}

	var tf trackFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, eris.Wrapf(err, "source: parse track %s", path)
	}
	if len(tf.Points) == 0 {
		return nil, eris.Errorf("source: track %s has no points", path)
	}

	interval := time.Duration(tf.IntervalMS) * time.Millisecond
	if interval <= 0 {
		interval = time.Second
	}
	return &ReplaySource{points: tf.Points, interval: interval}, nil
}

// NewReplayFromPoints builds a ReplaySource directly, for tests.
func NewReplayFromPoints(points []TrackPoint, interval time.Duration) *ReplaySource {
	return &ReplaySource{points: points, interval: interval}
}

// Wait blocks until the most recent subscription has delivered every
// point, or returns immediately if nothing has subscribed yet.
func (s *ReplaySource) Wait() {
	s.mu.Lock()
	finished := s.finished
	s.mu.Unlock()
	if finished != nil {
		<-finished
	}
}

func (s *ReplaySource) Subscribe(ctx context.Context, opts Options) (<-chan model.Position, func(), error) {
	out := make(chan model.Position, queueDepth(opts))
	done := make(chan struct{})
	finished := make(chan struct{})

	s.mu.Lock()
	s.finished = finished
	s.mu.Unlock()

	go func() {
		defer close(out)
		defer close(finished)

		limiter := rate.NewLimiter(rate.Every(s.interval), 1)
		f := newFilter(opts)
		for _, pt := range s.points {
			if err := limiter.Wait(ctx); err != nil {
				return
			}

			pos := model.Position{
				Lat:       pt.Lat,
				Lon:       pt.Lon,
				AccuracyM: pt.AccuracyM,
				Timestamp: time.Now(),
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
	unsubscribe := func() { once.Do(func() { close(done) }) }
	return out, unsubscribe, nil
}
