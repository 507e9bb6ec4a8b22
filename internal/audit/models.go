// Package audit records the who/what/when trail behind zone administration
// and check-in decisions. Events are transport-agnostic so stores and sinks
// can fan out.
package audit

import (
	"time"

	id "geoattend/pkg/domain"
)

// Event is emitted from domain logic to capture key actions.
type Event struct {
	Timestamp time.Time
	UserID    id.UserID
	Action    string

	// ZoneID is set for zone administration and for decisions that matched
	// a zone; empty otherwise.
	ZoneID string

	// Decision and Reason mirror the attendance outcome for decision events.
	Decision string
	Reason   string

	// PayloadHash carries the SHA-256 digest of the submitted payload so the
	// trail stays tamper-evident without duplicating raw client data.
	PayloadHash string

	RequestID string
	ClientIP  string
}

type AuditEvent string

const (
	// Decision events
	EventCheckinDecided   AuditEvent = "checkin_decided"
	EventCheckinDuplicate AuditEvent = "checkin_duplicate"

	// Zone administration events
	EventZoneCreated AuditEvent = "zone_created"
	EventZoneUpdated AuditEvent = "zone_updated"
	EventZoneDeleted AuditEvent = "zone_deleted"
)
