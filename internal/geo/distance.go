// Package geo provides great-circle distance calculations for device coordinates.
package geo

import "math"

// EarthRadiusKm is Earth's mean radius in kilometres for the Haversine calculation.
const EarthRadiusKm = 6371.0

// HaversineKm calculates the great-circle distance between two points
// on Earth in kilometres using the Haversine formula.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const degToRad = math.Pi / 180
	dLat := (lat2 - lat1) * degToRad
	dLon := (lon2 - lon1) * degToRad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*degToRad)*math.Cos(lat2*degToRad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

// DistanceKm calculates the distance in kilometres between two points with
// possibly-missing coordinates. It returns positive infinity when any of the
// four inputs is absent, so callers can treat "unknown position" as
// unreachably far in radius filters.
func DistanceKm(lat1, lon1, lat2, lon2 *float64) float64 {
	if lat1 == nil || lon1 == nil || lat2 == nil || lon2 == nil {
		return math.Inf(1)
	}
	return HaversineKm(*lat1, *lon1, *lat2, *lon2)
}
