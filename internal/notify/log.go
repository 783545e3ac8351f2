package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogDispatcher writes notifications to the log. It is the default
// surface and the one the simulate command uses.
type LogDispatcher struct{}

// NewLog creates a LogDispatcher.
func NewLog() *LogDispatcher { return &LogDispatcher{} }

func (d *LogDispatcher) Dispatch(_ context.Context, n Notification) error {
	zap.L().Info("notification",
		zap.String("title", n.Title),
		zap.String("body", n.Body),
		zap.String("tag", n.Tag),
		zap.Bool("urgent", n.Urgent),
	)
	return nil
}
