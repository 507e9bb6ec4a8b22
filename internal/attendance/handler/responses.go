package handler

import (
	"time"

	"geoattend/internal/attendance"
)

// RecordResponse is the wire form of one attendance record.
type RecordResponse struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	GeofenceID       *string   `json:"geofence_id,omitempty"`
	Lat              float64   `json:"lat"`
	Lon              float64   `json:"lon"`
	Accuracy         *float64  `json:"accuracy,omitempty"`
	DeviceTimestamp  *string   `json:"device_timestamp,omitempty"`
	ServerReceivedAt time.Time `json:"server_received_at"`
	Method           string    `json:"method"`
	Status           string    `json:"status"`
	Reason           string    `json:"reason"`
	PayloadHash      string    `json:"payload_hash,omitempty"`
}

// HistoryResponse is the HTTP response for the history and listing endpoints.
type HistoryResponse struct {
	Records []*RecordResponse `json:"records"`
	Count   int               `json:"count"`
}

// FromRecord converts a domain record to its wire form.
func FromRecord(record *attendance.Record) *RecordResponse {
	resp := &RecordResponse{
		ID:               record.ID.String(),
		UserID:           record.UserID.String(),
		Lat:              record.Coordinate.Lat,
		Lon:              record.Coordinate.Lon,
		Accuracy:         record.AccuracyMeters,
		ServerReceivedAt: record.ServerReceivedAt,
		Method:           record.Method,
		Status:           string(record.Status),
		Reason:           record.Reason,
		PayloadHash:      record.RawPayloadHash,
	}
	if record.GeofenceID != nil {
		zoneID := record.GeofenceID.String()
		resp.GeofenceID = &zoneID
	}
	if !record.DeviceTimestamp.IsZero() {
		deviceTime := record.DeviceTimestamp.UTC().Format(time.RFC3339)
		resp.DeviceTimestamp = &deviceTime
	}
	return resp
}

// FromRecords converts a record list to its wire form.
func FromRecords(records []*attendance.Record) *HistoryResponse {
	out := make([]*RecordResponse, 0, len(records))
	for _, record := range records {
		out = append(out, FromRecord(record))
	}
	return &HistoryResponse{Records: out, Count: len(out)}
}
