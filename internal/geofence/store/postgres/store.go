package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"geoattend/internal/geofence"
	id "geoattend/pkg/domain"
	"geoattend/pkg/platform/sentinel"
)

// PostgresZoneStore persists fence zones in PostgreSQL.
type PostgresZoneStore struct {
	db *sql.DB
}

// New constructs a PostgreSQL-backed zone store.
func New(db *sql.DB) *PostgresZoneStore {
	return &PostgresZoneStore{db: db}
}

const zoneColumns = `id, name, center_lat, center_lon, radius_meters,
	start_minute, end_minute, allowed_days, active, priority, created_at, updated_at`

func (s *PostgresZoneStore) Create(ctx context.Context, zone *geofence.Zone) error {
	query := `
		INSERT INTO geofences (` + zoneColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(zone.ID),
		zone.Name,
		zone.Center.Lat,
		zone.Center.Lon,
		zone.RadiusMeters,
		int(zone.StartTime),
		int(zone.EndTime),
		pq.Array(daysToInts(zone.AllowedDays)),
		zone.Active,
		zone.Priority,
		zone.CreatedAt,
		zone.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert geofence: %w", err)
	}
	return nil
}

func (s *PostgresZoneStore) Get(ctx context.Context, zoneID id.GeofenceID) (*geofence.Zone, error) {
	query := `SELECT ` + zoneColumns + ` FROM geofences WHERE id = $1`
	zone, err := scanZone(s.db.QueryRowContext(ctx, query, uuid.UUID(zoneID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get geofence: %w", err)
	}
	return zone, nil
}

func (s *PostgresZoneStore) Update(ctx context.Context, zone *geofence.Zone) error {
	query := `
		UPDATE geofences
		SET name = $2, center_lat = $3, center_lon = $4, radius_meters = $5,
			start_minute = $6, end_minute = $7, allowed_days = $8,
			active = $9, priority = $10, updated_at = $11
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query,
		uuid.UUID(zone.ID),
		zone.Name,
		zone.Center.Lat,
		zone.Center.Lon,
		zone.RadiusMeters,
		int(zone.StartTime),
		int(zone.EndTime),
		pq.Array(daysToInts(zone.AllowedDays)),
		zone.Active,
		zone.Priority,
		zone.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update geofence: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update geofence: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresZoneStore) Delete(ctx context.Context, zoneID id.GeofenceID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM geofences WHERE id = $1`, uuid.UUID(zoneID))
	if err != nil {
		return fmt.Errorf("delete geofence: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete geofence: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresZoneStore) List(ctx context.Context) ([]*geofence.Zone, error) {
	query := `SELECT ` + zoneColumns + ` FROM geofences ORDER BY priority, created_at, id`
	return s.queryZones(ctx, query)
}

func (s *PostgresZoneStore) ListActive(ctx context.Context) ([]*geofence.Zone, error) {
	query := `SELECT ` + zoneColumns + ` FROM geofences WHERE active ORDER BY priority, created_at, id`
	return s.queryZones(ctx, query)
}

func (s *PostgresZoneStore) queryZones(ctx context.Context, query string, args ...any) ([]*geofence.Zone, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list geofences: %w", err)
	}
	defer rows.Close()

	var zones []*geofence.Zone
	for rows.Next() {
		zone, err := scanZone(rows)
		if err != nil {
			return nil, fmt.Errorf("scan geofence: %w", err)
		}
		zones = append(zones, zone)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list geofences: %w", err)
	}
	return zones, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanZone(row rowScanner) (*geofence.Zone, error) {
	var (
		zoneID      uuid.UUID
		startMinute int
		endMinute   int
		days        pq.Int64Array
		zone        geofence.Zone
	)
	err := row.Scan(
		&zoneID,
		&zone.Name,
		&zone.Center.Lat,
		&zone.Center.Lon,
		&zone.RadiusMeters,
		&startMinute,
		&endMinute,
		&days,
		&zone.Active,
		&zone.Priority,
		&zone.CreatedAt,
		&zone.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	zone.ID = id.GeofenceID(zoneID)
	zone.StartTime = geofence.TimeOfDay(startMinute)
	zone.EndTime = geofence.TimeOfDay(endMinute)
	zone.AllowedDays = intsToDays(days)
	return &zone, nil
}

func daysToInts(days []time.Weekday) []int64 {
	ints := make([]int64, len(days))
	for i, d := range days {
		ints[i] = int64(d)
	}
	return ints
}

func intsToDays(ints []int64) []time.Weekday {
	days := make([]time.Weekday, len(ints))
	for i, v := range ints {
		days[i] = time.Weekday(v)
	}
	return days
}

var _ geofence.Store = (*PostgresZoneStore)(nil)
