package model

import (
	"math"
	"time"
)

// PointOfInterest is a read-only snapshot of a restaurant from the
// directory. The engine never mutates POIs; it only measures distance
// to them.
type PointOfInterest struct {
	ID     string  `json:"id" yaml:"id"`
	Name   string  `json:"name" yaml:"name"`
	Lat    float64 `json:"lat" yaml:"lat"`
	Lon    float64 `json:"lon" yaml:"lon"`
	Active bool    `json:"active" yaml:"active"`
}

// Valid reports whether the POI carries usable coordinates. POIs that
// fail this check are excluded silently during selection.
func (p PointOfInterest) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// Position is a single fix from the location source.
type Position struct {
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	AccuracyM float64   `json:"accuracy_m,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Valid reports whether the position carries usable coordinates.
func (p Position) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// Registration is a POI currently under active proximity monitoring.
// The number of simultaneous registrations never exceeds the
// configured geofence cap.
type Registration struct {
	POI       PointOfInterest `json:"poi"`
	RadiusM   float64         `json:"radius_m"`
	DistanceM float64         `json:"distance_m"`
}
