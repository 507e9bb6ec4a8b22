// Package geo provides coordinate values and great-circle distance math.
// Everything here is pure and safe for concurrent use.
package geo

import (
	"math"

	dErrors "geoattend/pkg/domain-errors"
)

// earthRadiusMeters is the spherical Earth model radius used for all
// distance computations.
const earthRadiusMeters = 6371000.0

// Coordinate is an immutable latitude/longitude pair in decimal degrees.
type Coordinate struct {
	Lat float64
	Lon float64
}

// Validate checks the coordinate against the WGS84 value ranges. Distance
// computation itself does not validate; callers at trust boundaries do.
func (c Coordinate) Validate() error {
	if c.Lat < -90 || c.Lat > 90 {
		return dErrors.New(dErrors.CodeValidation, "latitude must be between -90 and 90")
	}
	if c.Lon < -180 || c.Lon > 180 {
		return dErrors.New(dErrors.CodeValidation, "longitude must be between -180 and 180")
	}
	return nil
}

// DistanceMeters returns the great-circle distance between two coordinates
// using the haversine formula. Symmetric in its arguments and zero for
// identical points.
func DistanceMeters(a, b Coordinate) float64 {
	dLat := radians(b.Lat - a.Lat)
	dLon := radians(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(a.Lat))*math.Cos(radians(b.Lat))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMeters * c
}

func radians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
