package handler

import (
	"strings"
	"time"

	"geoattend/internal/geofence"
	id "geoattend/pkg/domain"
	dErrors "geoattend/pkg/domain-errors"
	"geoattend/pkg/geo"
)

const maxNameLength = 120

// ZoneRequest is the HTTP request body for zone create and update.
type ZoneRequest struct {
	Name         string   `json:"name"`
	Lat          *float64 `json:"lat"`
	Lon          *float64 `json:"lon"`
	RadiusMeters *float64 `json:"radius_meters"`
	StartTime    string   `json:"start_time"`
	EndTime      string   `json:"end_time"`
	AllowedDays  []string `json:"allowed_days"`
	Active       *bool    `json:"active,omitempty"`
	Priority     int      `json:"priority,omitempty"`

	// Parsed values (populated by Validate)
	parsedZone *geofence.Zone
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *ZoneRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.Name = strings.TrimSpace(r.Name)
	if len(r.Name) > maxNameLength {
		return dErrors.Newf(dErrors.CodeValidation, "name must be at most %d characters", maxNameLength)
	}
	if r.Lat == nil || r.Lon == nil {
		return dErrors.New(dErrors.CodeValidation, "lat and lon are required")
	}
	if r.RadiusMeters == nil {
		return dErrors.New(dErrors.CodeValidation, "radius_meters is required")
	}

	start, err := geofence.ParseTimeOfDay(r.StartTime)
	if err != nil {
		return err
	}
	end, err := geofence.ParseTimeOfDay(r.EndTime)
	if err != nil {
		return err
	}
	days, err := geofence.ParseWeekdays(r.AllowedDays)
	if err != nil {
		return err
	}

	// Zones default to active unless stated otherwise.
	active := true
	if r.Active != nil {
		active = *r.Active
	}

	zone := &geofence.Zone{
		Name:         r.Name,
		Center:       geo.Coordinate{Lat: *r.Lat, Lon: *r.Lon},
		RadiusMeters: *r.RadiusMeters,
		StartTime:    start,
		EndTime:      end,
		AllowedDays:  days,
		Active:       active,
		Priority:     r.Priority,
	}
	if err := zone.Validate(); err != nil {
		return err
	}
	r.parsedZone = zone
	return nil
}

// ParsedZone returns the validated zone, without identity or timestamps.
func (r *ZoneRequest) ParsedZone() *geofence.Zone {
	return r.parsedZone
}

// CheckRequest is the HTTP request body for POST /geofences/check.
type CheckRequest struct {
	GeofenceID string   `json:"geofence_id"`
	Lat        *float64 `json:"lat"`
	Lon        *float64 `json:"lon"`

	// Parsed values (populated by Validate)
	parsedZoneID id.GeofenceID
	parsedPoint  geo.Coordinate
}

// Validate validates and parses the request.
func (r *CheckRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	zoneID, err := id.ParseGeofenceID(r.GeofenceID)
	if err != nil {
		return err
	}
	r.parsedZoneID = zoneID

	if r.Lat == nil || r.Lon == nil {
		return dErrors.New(dErrors.CodeValidation, "lat and lon are required")
	}
	r.parsedPoint = geo.Coordinate{Lat: *r.Lat, Lon: *r.Lon}
	return r.parsedPoint.Validate()
}

// ParsedZoneID returns the validated zone ID.
func (r *CheckRequest) ParsedZoneID() id.GeofenceID {
	return r.parsedZoneID
}

// ParsedPoint returns the validated coordinate.
func (r *CheckRequest) ParsedPoint() geo.Coordinate {
	return r.parsedPoint
}

// parseTimeParam interprets an optional at= query parameter; empty means now.
func parseTimeParam(raw string, fallback time.Time) (time.Time, error) {
	if raw == "" {
		return fallback, nil
	}
	at, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, dErrors.New(dErrors.CodeValidation, "at must be RFC 3339")
	}
	return at, nil
}
