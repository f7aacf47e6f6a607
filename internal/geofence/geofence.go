// Package geofence decides whether a coordinate lies inside the employer's
// circular check-in area.
package geofence

import (
	"errors"
	"math"
)

// EarthRadiusMeters is the mean Earth radius used for great-circle distances.
const EarthRadiusMeters = 6371000.0

var (
	// ErrLatitudeOutOfRange is returned for latitudes outside [-90, 90].
	ErrLatitudeOutOfRange = errors.New("geofence: latitude out of range")
	// ErrLongitudeOutOfRange is returned for longitudes outside [-180, 180].
	ErrLongitudeOutOfRange = errors.New("geofence: longitude out of range")
)

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Latitude  float64
	Longitude float64
}

// Validate checks coordinate ranges. Zero is a valid coordinate.
func (p Point) Validate() error {
	if math.IsNaN(p.Latitude) || p.Latitude < -90 || p.Latitude > 90 {
		return ErrLatitudeOutOfRange
	}
	if math.IsNaN(p.Longitude) || p.Longitude < -180 || p.Longitude > 180 {
		return ErrLongitudeOutOfRange
	}
	return nil
}

// Fence is a circle around Center.
type Fence struct {
	Center Point
	Radius float64
}

// Result is the outcome of a fence check.
type Result struct {
	IsWithin bool    `json:"isWithin"`
	Distance int     `json:"distance"`
	Radius   float64 `json:"radius"`
}

// Distance returns the haversine great-circle distance between a and b in meters.
func Distance(a, b Point) float64 {
	lat1 := radians(a.Latitude)
	lat2 := radians(b.Latitude)
	dLat := radians(b.Latitude - a.Latitude)
	dLng := radians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusMeters * c
}

// Check measures p against the fence. The boundary counts as inside.
func (f Fence) Check(p Point) Result {
	d := Distance(f.Center, p)
	return Result{
		IsWithin: d <= f.Radius,
		Distance: int(math.Round(d)),
		Radius:   f.Radius,
	}
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
