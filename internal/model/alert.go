package model

import "time"

// Tier classifies how urgent a proximity alert is. Nearer distance
// means higher urgency.
type Tier string

const (
	TierGentle   Tier = "gentle"
	TierReminder Tier = "reminder"
	TierAlarm    Tier = "alarm"
)

// tierRank orders tiers by urgency, lowest first.
var tierRank = map[Tier]int{
	TierGentle:   0,
	TierReminder: 1,
	TierAlarm:    2,
}

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	_, ok := tierRank[t]
	return ok
}

// Urgent reports whether the tier warrants an urgent notification.
func (t Tier) Urgent() bool {
	return t == TierAlarm
}

// MoreUrgentThan reports whether t outranks other.
func (t Tier) MoreUrgentThan(other Tier) bool {
	return tierRank[t] > tierRank[other]
}

// TierForIndex maps a threshold index (0 = nearest configured
// distance) to a tier. The three nearest thresholds map to alarm,
// reminder, gentle; any further thresholds stay gentle.
func TierForIndex(idx int) Tier {
	switch idx {
	case 0:
		return TierAlarm
	case 1:
		return TierReminder
	default:
		return TierGentle
	}
}

// ProximityAlert is a tier-classified proximity event for one POI.
// Instances are candidates until the alert gate approves them; only
// dispatched alerts reach the history store.
type ProximityAlert struct {
	ID        string    `json:"id"`
	POIID     string    `json:"poi_id"`
	POIName   string    `json:"poi_name"`
	DistanceM float64   `json:"distance_m"`
	Tier      Tier      `json:"tier"`
	Timestamp time.Time `json:"timestamp"`
}

// SameDay reports whether the alert was dispatched on the given
// calendar day in the alert's own location.
func (a ProximityAlert) SameDay(day time.Time) bool {
	y1, m1, d1 := a.Timestamp.Date()
	y2, m2, d2 := day.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
