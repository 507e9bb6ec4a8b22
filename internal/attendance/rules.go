package attendance

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"geoattend/internal/geofence"
)

// Reason strings surfaced to clients alongside the status. Stable wire
// values; changing them breaks downstream consumers.
const (
	ReasonOutside       = "Location is outside all defined geofences"
	ReasonDayNotAllowed = "Check-in not allowed on this day"
	ReasonOutsideWindow = "Check-in outside allowed time window"
	ReasonAccepted      = "Check-in successful"
	ReasonDuplicate     = "Already checked in today"
)

// DeriveStatus resolves the outcome for a check-in evaluated at the server
// reference instant. matched is the zone the point landed in, or nil when it
// is outside all coverage. The checks apply in a fixed order: spatial first,
// then day membership, then time window; the first failure determines the
// status and later checks are not consulted.
func DeriveStatus(matched *geofence.Zone, at time.Time) (Status, string) {
	if matched == nil {
		return StatusOutside, ReasonOutside
	}
	if !geofence.IsAllowedDay(matched, at) {
		return StatusRejected, ReasonDayNotAllowed
	}
	if !geofence.IsWithinTimeWindow(matched, at) {
		return StatusFlagged, ReasonOutsideWindow
	}
	return StatusAccepted, ReasonAccepted
}

// HasCheckedInOn reports whether any prior record falls on the same calendar
// day as at, both interpreted in loc. Server receipt time defines the day;
// device timestamps play no part.
func HasCheckedInOn(records []*Record, at time.Time, loc *time.Location) bool {
	y, m, d := at.In(loc).Date()
	for _, rec := range records {
		ry, rm, rd := rec.ServerReceivedAt.In(loc).Date()
		if ry == y && rm == m && rd == d {
			return true
		}
	}
	return false
}

// PayloadHash returns the SHA-256 hex digest of raw, or the empty string
// when no payload was submitted.
func PayloadHash(raw string) string {
	if raw == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
