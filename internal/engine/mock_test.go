package engine

import (
	"context"
	"sync"
	"time"

	"github.com/sells-group/proximity-cli/internal/model"
	"github.com/sells-group/proximity-cli/internal/notify"
)

// recordDispatcher captures every dispatched notification and can be
// told to fail.
type recordDispatcher struct {
	mu       sync.Mutex
	sent     []notify.Notification
	failWith error
}

func (d *recordDispatcher) Dispatch(_ context.Context, n notify.Notification) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failWith != nil {
		return d.failWith
	}
	d.sent = append(d.sent, n)
	return nil
}

func (d *recordDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sent)
}

func (d *recordDispatcher) tags() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, 0, len(d.sent))
	for _, n := range d.sent {
		out = append(out, n.Tag)
	}
	return out
}

func (d *recordDispatcher) fail(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failWith = err
}

// stubDirectory serves a swappable POI snapshot and can be told to fail.
type stubDirectory struct {
	mu   sync.Mutex
	pois []model.PointOfInterest
	err  error
}

func (d *stubDirectory) ActivePOIs(context.Context) ([]model.PointOfInterest, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	out := make([]model.PointOfInterest, len(d.pois))
	copy(out, d.pois)
	return out, nil
}

func (d *stubDirectory) set(pois []model.PointOfInterest, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pois = pois
	d.err = err
}

// testClock is a manually advanced clock shared by engine and gate.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(t time.Time) *testClock {
	return &testClock{now: t}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
