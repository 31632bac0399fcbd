package utils

import (
	"math"

	"fleet-track/models"
)

// EarthRadiusKM is the mean earth radius used for great-circle math.
const EarthRadiusKM = 6371.0088

// HaversineKM returns the great-circle distance between two points in
// kilometers.
func HaversineKM(p1, p2 models.GeoPoint) float64 {
	lat1 := p1.Latitude * math.Pi / 180
	lat2 := p2.Latitude * math.Pi / 180
	dLat := (p2.Latitude - p1.Latitude) * math.Pi / 180
	dLon := (p2.Longitude - p1.Longitude) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKM * c
}

// HaversineMeters returns the great-circle distance between two points in
// meters.
func HaversineMeters(p1, p2 models.GeoPoint) float64 {
	return HaversineKM(p1, p2) * 1000
}
