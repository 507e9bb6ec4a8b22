package handler

import (
	"strings"
	"time"

	dErrors "geoattend/pkg/domain-errors"
	"geoattend/pkg/geo"
)

const maxMethodLength = 32

// CheckinRequest is the HTTP request body for POST /api/attendance/checkin.
type CheckinRequest struct {
	Lat        *float64 `json:"lat"`
	Lon        *float64 `json:"lon"`
	Accuracy   *float64 `json:"accuracy,omitempty"`
	DeviceTime string   `json:"device_time,omitempty"`
	Method     string   `json:"method,omitempty"`

	// Parsed values (populated by Validate)
	parsedCoordinate geo.Coordinate
	parsedDeviceTime time.Time
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *CheckinRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	if r.Lat == nil || r.Lon == nil {
		return dErrors.New(dErrors.CodeValidation, "lat and lon are required")
	}
	r.parsedCoordinate = geo.Coordinate{Lat: *r.Lat, Lon: *r.Lon}
	if err := r.parsedCoordinate.Validate(); err != nil {
		return err
	}

	if r.Accuracy != nil && *r.Accuracy < 0 {
		return dErrors.New(dErrors.CodeValidation, "accuracy must not be negative")
	}

	r.Method = strings.TrimSpace(r.Method)
	if len(r.Method) > maxMethodLength {
		return dErrors.Newf(dErrors.CodeValidation, "method must be at most %d characters", maxMethodLength)
	}

	if r.DeviceTime != "" {
		parsed, err := time.Parse(time.RFC3339, r.DeviceTime)
		if err != nil {
			return dErrors.New(dErrors.CodeValidation, "device_time must be RFC 3339")
		}
		r.parsedDeviceTime = parsed
	}

	return nil
}

// ParsedCoordinate returns the validated coordinate.
func (r *CheckinRequest) ParsedCoordinate() geo.Coordinate {
	return r.parsedCoordinate
}

// ParsedDeviceTime returns the validated device timestamp; zero when the
// client sent none.
func (r *CheckinRequest) ParsedDeviceTime() time.Time {
	return r.parsedDeviceTime
}
