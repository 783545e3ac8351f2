package source

import (
	"context"
	"sync"

	"github.com/sells-group/proximity-cli/internal/model"
)

// StaticSource is a hand-driven source for tests: callers push fixes
// with Emit and the subscriber receives them in order.
type StaticSource struct {
	mu     sync.Mutex
	out    chan model.Position
	opts   Options
	filter *filter
	closed bool
}

// NewStatic creates an unsubscribed StaticSource.
func NewStatic() *StaticSource { return &StaticSource{} }

func (s *StaticSource) Subscribe(_ context.Context, opts Options) (<-chan model.Position, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.out = make(chan model.Position, queueDepth(opts))
	s.opts = opts
	s.filter = newFilter(opts)
	s.closed = false
	return s.out, s.close, nil
}

// Emit delivers one fix to the subscriber, applying the subscription
// filters. It blocks until the fix is buffered.
func (s *StaticSource) Emit(p model.Position) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.out == nil || s.closed {
		return
	}
	if !s.filter.keep(p) {
		return
	}
	s.out <- p
}

func (s *StaticSource) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.out != nil && !s.closed {
		close(s.out)
		s.closed = true
	}
}
