// Package notify delivers approved proximity alerts to a notification
// surface. Delivery is fire-and-forget: the engine never retries a
// failed dispatch, since a stale resend would be misleading.
package notify

import (
	"context"
	"fmt"

	"github.com/sells-group/proximity-cli/internal/model"
)

// Notification is the payload handed to the notification surface.
type Notification struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	Tag    string `json:"tag"`
	Urgent bool   `json:"urgent"`
}

// Dispatcher forwards a notification to its surface. Permission
// acquisition is a one-time side effect outside this core.
type Dispatcher interface {
	Dispatch(ctx context.Context, n Notification) error
}

// FromAlert renders a dispatched alert as a notification. The tag is
// the POI ID so the surface can collapse repeats for the same place.
func FromAlert(a model.ProximityAlert) Notification {
	var body string
	switch a.Tier {
	case model.TierAlarm:
		body = fmt.Sprintf("You're right by %s, about %.0f m away.", a.POIName, a.DistanceM)
	case model.TierReminder:
		body = fmt.Sprintf("%s is close, about %.0f m away.", a.POIName, a.DistanceM)
	default:
		body = fmt.Sprintf("%s is nearby, about %.0f m away.", a.POIName, a.DistanceM)
	}
	return Notification{
		Title:  a.POIName,
		Body:   body,
		Tag:    a.POIID,
		Urgent: a.Tier.Urgent(),
	}
}
