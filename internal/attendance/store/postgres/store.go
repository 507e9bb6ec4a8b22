// Package postgres persists attendance records in PostgreSQL. The
// attendance_records table carries a unique index on (user_id, checkin_date)
// so the one-record-per-user-per-day rule holds even under concurrent
// submissions; violations surface as sentinel.ErrConflict.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"geoattend/internal/attendance"
	id "geoattend/pkg/domain"
	"geoattend/pkg/platform/sentinel"
)

type PostgresRecordStore struct {
	db      *sql.DB
	refZone *time.Location
}

// New constructs a PostgreSQL-backed record store. refZone determines the
// calendar day stored in checkin_date.
func New(db *sql.DB, refZone *time.Location) *PostgresRecordStore {
	if refZone == nil {
		refZone = time.UTC
	}
	return &PostgresRecordStore{db: db, refZone: refZone}
}

const recordColumns = `id, user_id, geofence_id, lat, lon, accuracy_meters,
	device_timestamp, server_received_at, checkin_date, method, status, reason,
	raw_payload, raw_payload_hash`

func (s *PostgresRecordStore) Create(ctx context.Context, record *attendance.Record) error {
	query := `
		INSERT INTO attendance_records (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	checkinDate := record.ServerReceivedAt.In(s.refZone).Format("2006-01-02")

	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(record.ID),
		uuid.UUID(record.UserID),
		zoneIDValue(record.GeofenceID),
		record.Coordinate.Lat,
		record.Coordinate.Lon,
		record.AccuracyMeters,
		record.DeviceTimestamp,
		record.ServerReceivedAt,
		checkinDate,
		record.Method,
		string(record.Status),
		record.Reason,
		record.RawPayload,
		record.RawPayloadHash,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert attendance record: %w", err)
	}
	return nil
}

func (s *PostgresRecordStore) Get(ctx context.Context, recordID id.AttendanceID) (*attendance.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM attendance_records WHERE id = $1`
	record, err := scanRecord(s.db.QueryRowContext(ctx, query, uuid.UUID(recordID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get attendance record: %w", err)
	}
	return record, nil
}

func (s *PostgresRecordStore) ListByUser(ctx context.Context, userID id.UserID) ([]*attendance.Record, error) {
	query := `
		SELECT ` + recordColumns + ` FROM attendance_records
		WHERE user_id = $1
		ORDER BY server_received_at DESC, id
	`
	return s.queryRecords(ctx, query, uuid.UUID(userID))
}

func (s *PostgresRecordStore) ListByUserOn(ctx context.Context, userID id.UserID, at time.Time, loc *time.Location) ([]*attendance.Record, error) {
	if loc == nil {
		loc = s.refZone
	}
	query := `
		SELECT ` + recordColumns + ` FROM attendance_records
		WHERE user_id = $1 AND checkin_date = $2
		ORDER BY server_received_at DESC, id
	`
	return s.queryRecords(ctx, query, uuid.UUID(userID), at.In(loc).Format("2006-01-02"))
}

func (s *PostgresRecordStore) List(ctx context.Context) ([]*attendance.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM attendance_records ORDER BY server_received_at DESC, id`
	return s.queryRecords(ctx, query)
}

func (s *PostgresRecordStore) queryRecords(ctx context.Context, query string, args ...any) ([]*attendance.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list attendance records: %w", err)
	}
	defer rows.Close()

	var records []*attendance.Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attendance record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list attendance records: %w", err)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*attendance.Record, error) {
	var (
		recordID    uuid.UUID
		userID      uuid.UUID
		zoneID      uuid.NullUUID
		checkinDate time.Time
		status      string
		record      attendance.Record
	)
	err := row.Scan(
		&recordID,
		&userID,
		&zoneID,
		&record.Coordinate.Lat,
		&record.Coordinate.Lon,
		&record.AccuracyMeters,
		&record.DeviceTimestamp,
		&record.ServerReceivedAt,
		&checkinDate,
		&record.Method,
		&status,
		&record.Reason,
		&record.RawPayload,
		&record.RawPayloadHash,
	)
	if err != nil {
		return nil, err
	}
	record.ID = id.AttendanceID(recordID)
	record.UserID = id.UserID(userID)
	record.Status = attendance.Status(status)
	if zoneID.Valid {
		gid := id.GeofenceID(zoneID.UUID)
		record.GeofenceID = &gid
	}
	return &record, nil
}

func zoneIDValue(zoneID *id.GeofenceID) any {
	if zoneID == nil {
		return nil
	}
	return uuid.UUID(*zoneID)
}

var _ attendance.Store = (*PostgresRecordStore)(nil)
