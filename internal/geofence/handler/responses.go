package handler

import (
	"time"

	"geoattend/internal/geofence"
)

// ZoneResponse is the wire form of one zone.
type ZoneResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Lat          float64   `json:"lat"`
	Lon          float64   `json:"lon"`
	RadiusMeters float64   `json:"radius_meters"`
	StartTime    string    `json:"start_time"`
	EndTime      string    `json:"end_time"`
	AllowedDays  []string  `json:"allowed_days"`
	Active       bool      `json:"active"`
	Priority     int       `json:"priority"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ZonesResponse is the HTTP response for the zone listing endpoint.
type ZonesResponse struct {
	Zones []*ZoneResponse `json:"zones"`
	Count int             `json:"count"`
}

// CheckResponse is the HTTP response for POST /geofences/check.
type CheckResponse struct {
	GeofenceID     string  `json:"geofence_id"`
	Within         bool    `json:"within"`
	DistanceMeters float64 `json:"distance_meters"`
	AllowedNow     bool    `json:"allowed_now"`
}

// ClosestResponse is the HTTP response for GET /geofences/closest.
type ClosestResponse struct {
	Zone           *ZoneResponse `json:"zone"`
	DistanceMeters *float64      `json:"distance_meters,omitempty"`
}

// FromZone converts a domain zone to its wire form.
func FromZone(zone *geofence.Zone) *ZoneResponse {
	days := make([]string, 0, len(zone.AllowedDays))
	for _, day := range zone.AllowedDays {
		days = append(days, geofence.WeekdayName(day))
	}
	return &ZoneResponse{
		ID:           zone.ID.String(),
		Name:         zone.Name,
		Lat:          zone.Center.Lat,
		Lon:          zone.Center.Lon,
		RadiusMeters: zone.RadiusMeters,
		StartTime:    zone.StartTime.String(),
		EndTime:      zone.EndTime.String(),
		AllowedDays:  days,
		Active:       zone.Active,
		Priority:     zone.Priority,
		CreatedAt:    zone.CreatedAt,
		UpdatedAt:    zone.UpdatedAt,
	}
}

// FromZones converts a zone list to its wire form.
func FromZones(zones []*geofence.Zone) *ZonesResponse {
	out := make([]*ZoneResponse, 0, len(zones))
	for _, zone := range zones {
		out = append(out, FromZone(zone))
	}
	return &ZonesResponse{Zones: out, Count: len(out)}
}

// FromCheckResult converts a probe result to its wire form.
func FromCheckResult(result *geofence.CheckResult) *CheckResponse {
	return &CheckResponse{
		GeofenceID:     result.Zone.ID.String(),
		Within:         result.Within,
		DistanceMeters: result.DistanceMeters,
		AllowedNow:     result.AllowedNow,
	}
}
