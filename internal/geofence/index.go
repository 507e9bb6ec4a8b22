package geofence

import (
	"time"

	"geoattend/pkg/geo"
)

// This file is the spatial/temporal matching core. Everything here is pure
// domain logic - no I/O, no side effects - so the attendance decision
// protocol can be tested without a store.
//
// Spatial matching and temporal matching are deliberately separate
// operations: a caller must be able to tell "outside all coverage" apart
// from "inside coverage but outside the allowed window".

// IsWithin reports whether the point lies inside the zone. A point exactly
// on the boundary counts as inside.
func IsWithin(zone *Zone, point geo.Coordinate) bool {
	return geo.DistanceMeters(zone.Center, point) <= zone.RadiusMeters
}

// IsAllowedDay reports whether the weekday of the given instant is allowed
// by the zone. The instant must already be in the reference zone.
func IsAllowedDay(zone *Zone, at time.Time) bool {
	return zone.AllowsDay(at.Weekday())
}

// IsWithinTimeWindow reports whether the wall-clock time of the given
// instant falls inside the zone's window, inclusive at both ends. The
// instant must already be in the reference zone.
func IsWithinTimeWindow(zone *Zone, at time.Time) bool {
	return zone.InTimeWindow(TimeOfDayFromClock(at))
}

// MatchZone returns the zone containing the point, picking the lowest
// priority value when several match. Ties break by earliest creation, then
// by ID, so repeated calls with the same input always return the same zone.
// Day/time restrictions are not applied here; containment is purely spatial.
// Returns nil when no zone contains the point.
func MatchZone(zones []*Zone, point geo.Coordinate) *Zone {
	var matched *Zone
	for _, zone := range zones {
		if !IsWithin(zone, point) {
			continue
		}
		if matched == nil || precedes(zone, matched) {
			matched = zone
		}
	}
	return matched
}

// precedes reports whether a outranks b under the deterministic ordering:
// priority ascending, CreatedAt ascending, ID ascending.
func precedes(a, b *Zone) bool {
	if a.Priority != b.Priority {
		return a.Priority < b.Priority
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID.String() < b.ID.String()
}

// ClosestZone returns the zone whose center is nearest to the point,
// whether or not the point is inside it. Returns nil for an empty set.
func ClosestZone(zones []*Zone, point geo.Coordinate) *Zone {
	var closest *Zone
	var minDistance float64
	for _, zone := range zones {
		distance := geo.DistanceMeters(zone.Center, point)
		if closest == nil || distance < minDistance {
			closest = zone
			minDistance = distance
		}
	}
	return closest
}
