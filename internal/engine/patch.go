package engine

import (
	"time"

	"github.com/sells-group/proximity-cli/internal/config"
)

// ConfigPatch is a partial update to the alerting policy. Nil fields
// keep their current value.
type ConfigPatch struct {
	MaxGeofences      *int                  `json:"max_geofences,omitempty"`
	DefaultRadiusM    *float64              `json:"default_radius_m,omitempty"`
	AlertDistancesM   []float64             `json:"alert_distances_m,omitempty"`
	CooldownMinutes   *int                  `json:"cooldown_minutes,omitempty"`
	CooldownScope     *config.CooldownScope `json:"cooldown_scope,omitempty"`
	QuietHoursStart   *int                  `json:"quiet_hours_start,omitempty"`
	QuietHoursEnd     *int                  `json:"quiet_hours_end,omitempty"`
	LookbackHours     *int                  `json:"lookback_hours,omitempty"`
	ReselectDistanceM *float64              `json:"reselect_distance_m,omitempty"`
	ReselectInterval  *time.Duration        `json:"reselect_interval,omitempty"`
}

func (p ConfigPatch) applyTo(cfg config.GeofenceConfig) config.GeofenceConfig {
	if p.MaxGeofences != nil {
		cfg.MaxGeofences = *p.MaxGeofences
	}
	if p.DefaultRadiusM != nil {
		cfg.DefaultRadiusM = *p.DefaultRadiusM
	}
	if len(p.AlertDistancesM) > 0 {
		cfg.AlertDistancesM = append([]float64(nil), p.AlertDistancesM...)
	}
	if p.CooldownMinutes != nil {
		cfg.CooldownMinutes = *p.CooldownMinutes
	}
	if p.CooldownScope != nil {
		cfg.CooldownScope = *p.CooldownScope
	}
	if p.QuietHoursStart != nil {
		cfg.QuietHoursStart = *p.QuietHoursStart
	}
	if p.QuietHoursEnd != nil {
		cfg.QuietHoursEnd = *p.QuietHoursEnd
	}
	if p.LookbackHours != nil {
		cfg.LookbackHours = *p.LookbackHours
	}
	if p.ReselectDistanceM != nil {
		cfg.ReselectDistanceM = *p.ReselectDistanceM
	}
	if p.ReselectInterval != nil {
		cfg.ReselectInterval = *p.ReselectInterval
	}
	return cfg
}
