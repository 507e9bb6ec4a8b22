// Package domain holds typed identifiers shared across modules. Distinct ID
// types keep a user reference from ever being passed where a geofence
// reference is expected; the compiler enforces the boundary.
package domain

import (
	"github.com/google/uuid"

	dErrors "geoattend/pkg/domain-errors"
)

type (
	// UserID identifies the caller submitting check-ins.
	UserID uuid.UUID

	// GeofenceID identifies a fence zone.
	GeofenceID uuid.UUID

	// AttendanceID identifies one attendance record.
	AttendanceID uuid.UUID
)

// parseUUID enforces the shared invariant: IDs must be valid, non-empty,
// non-nil UUIDs. Applied at trust boundaries before values enter services.
func parseUUID(raw, field string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s is required", field)
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s is not a valid UUID", field)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s must not be the nil UUID", field)
	}
	return parsed, nil
}

// ParseUserID parses and validates a user ID string.
func ParseUserID(raw string) (UserID, error) {
	parsed, err := parseUUID(raw, "user_id")
	if err != nil {
		return UserID{}, err
	}
	return UserID(parsed), nil
}

// ParseGeofenceID parses and validates a geofence ID string.
func ParseGeofenceID(raw string) (GeofenceID, error) {
	parsed, err := parseUUID(raw, "geofence_id")
	if err != nil {
		return GeofenceID{}, err
	}
	return GeofenceID(parsed), nil
}

// ParseAttendanceID parses and validates an attendance record ID string.
func ParseAttendanceID(raw string) (AttendanceID, error) {
	parsed, err := parseUUID(raw, "attendance_id")
	if err != nil {
		return AttendanceID{}, err
	}
	return AttendanceID(parsed), nil
}

// NewUserID returns a fresh random user ID.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewGeofenceID returns a fresh random geofence ID.
func NewGeofenceID() GeofenceID { return GeofenceID(uuid.New()) }

// NewAttendanceID returns a fresh random attendance record ID.
func NewAttendanceID() AttendanceID { return AttendanceID(uuid.New()) }

func (id UserID) String() string       { return uuid.UUID(id).String() }
func (id GeofenceID) String() string   { return uuid.UUID(id).String() }
func (id AttendanceID) String() string { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id GeofenceID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id AttendanceID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
