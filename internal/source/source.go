// Package source abstracts the asynchronous location stream the engine
// subscribes to. The evaluation core never touches platform location
// plumbing directly; background and foreground providers both sit
// behind the same interface.
package source

import (
	"context"
	"time"

	"github.com/sells-group/proximity-cli/internal/geo"
	"github.com/sells-group/proximity-cli/internal/model"
)

// Options filters the subscription. Updates closer together than
// MinInterval, or closer than MinDistanceM to the last delivered fix,
// are dropped at the source.
type Options struct {
	AccuracyM    float64
	MinInterval  time.Duration
	MinDistanceM float64
	// QueueDepth sizes the delivery channel. Zero means a small
	// default buffer.
	QueueDepth int
}

// Source is an asynchronous stream of position fixes. Subscribe
// returns the delivery channel and a cancel function; the channel is
// closed after cancel returns or when the stream ends.
type Source interface {
	Subscribe(ctx context.Context, opts Options) (<-chan model.Position, func(), error)
}

const defaultQueueDepth = 16

// filter applies the Options thresholds to a raw stream. It remembers
// the last delivered fix across calls.
type filter struct {
	opts Options
	last *model.Position
}

func newFilter(opts Options) *filter {
	return &filter{opts: opts}
}

// keep reports whether the fix passes the subscription filters.
func (f *filter) keep(p model.Position) bool {
	if !p.Valid() {
		return false
	}
	if f.opts.AccuracyM > 0 && p.AccuracyM > f.opts.AccuracyM {
		return false
	}
	if f.last != nil {
		if f.opts.MinInterval > 0 && p.Timestamp.Sub(f.last.Timestamp) < f.opts.MinInterval {
			return false
		}
		if f.opts.MinDistanceM > 0 &&
			geo.Distance(f.last.Lat, f.last.Lon, p.Lat, p.Lon) < f.opts.MinDistanceM {
			return false
		}
	}
	f.last = &p
	return true
}

func queueDepth(opts Options) int {
	if opts.QueueDepth > 0 {
		return opts.QueueDepth
	}
	return defaultQueueDepth
}
