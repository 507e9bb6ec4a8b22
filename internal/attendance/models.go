// Package attendance implements the check-in decision protocol: duplicate
// guarding, spatial matching against the active fence zones, temporal
// eligibility, and assembly of the immutable attendance record.
package attendance

import (
	"time"

	id "geoattend/pkg/domain"
	"geoattend/pkg/geo"
)

// Status is the resolved outcome of one check-in evaluation.
type Status string

const (
	// StatusAccepted: inside a zone, allowed day, within the time window.
	StatusAccepted Status = "ACCEPTED"

	// StatusPending is reserved for external review workflows. The decision
	// protocol never produces it; it exists so stored records from such
	// workflows stay representable.
	StatusPending Status = "PENDING"

	// StatusRejected: inside a zone whose allowed days exclude today.
	StatusRejected Status = "REJECTED"

	// StatusFlagged: inside a zone on an allowed day, outside the window.
	StatusFlagged Status = "FLAGGED"

	// StatusOutside: outside every active zone.
	StatusOutside Status = "OUTSIDE"
)

// DefaultMethod is recorded when the client does not declare how the
// check-in was captured.
const DefaultMethod = "CLIENT_CHECK"

// CheckinEvent is one submitted location-and-time attestation. Immutable
// once constructed; validation happens at the transport boundary.
type CheckinEvent struct {
	UserID         id.UserID
	Coordinate     geo.Coordinate
	AccuracyMeters *float64

	// DeviceTime is what the device claims; it is stored for audit but
	// never drives the decision. Device clocks are not authoritative.
	DeviceTime time.Time

	Method     string
	RawPayload string
}

// Record is the immutable result of evaluating one CheckinEvent. Exactly one
// record exists per accepted evaluation; it is never mutated afterward.
type Record struct {
	ID     id.AttendanceID
	UserID id.UserID

	// GeofenceID is nil when the check-in landed outside all coverage.
	GeofenceID *id.GeofenceID

	Coordinate     geo.Coordinate
	AccuracyMeters *float64

	DeviceTimestamp  time.Time
	ServerReceivedAt time.Time

	Method string
	Status Status
	Reason string

	RawPayload string

	// RawPayloadHash is the SHA-256 hex digest of RawPayload for
	// tamper-evidence. Empty when no payload was submitted.
	RawPayloadHash string
}
