package attendance

import (
	"context"
	"time"

	id "geoattend/pkg/domain"
)

// Store persists attendance records. Implementations return
// sentinel.ErrNotFound for missing records and sentinel.ErrConflict when a
// uniqueness guarantee (one record per user per day) is violated.
type Store interface {
	// Create persists a new record. The record's CheckinDay uniqueness is
	// enforced here so concurrent same-day submissions cannot both land.
	Create(ctx context.Context, record *Record) error

	Get(ctx context.Context, recordID id.AttendanceID) (*Record, error)

	// ListByUser returns the user's records, newest first.
	ListByUser(ctx context.Context, userID id.UserID) ([]*Record, error)

	// ListByUserOn returns the user's records whose server receipt falls on
	// the calendar day containing at, interpreted in loc.
	ListByUserOn(ctx context.Context, userID id.UserID, at time.Time, loc *time.Location) ([]*Record, error)

	// List returns all records, newest first.
	List(ctx context.Context) ([]*Record, error)
}
