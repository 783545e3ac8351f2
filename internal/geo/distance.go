// Package geo provides great-circle distance math for the proximity
// engine. Callers are expected to filter out NaN coordinates before
// invoking; the functions here are pure.
package geo

import "math"

// earthRadiusM is the mean Earth radius used by the Haversine formula.
const earthRadiusM = 6371000.0

// Distance returns the great-circle distance in meters between two
// lat/lon points, computed with the Haversine formula.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusM * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
