// Package rediscache decorates a zone store with a short-TTL Redis cache for
// the active-zone set. Every check-in reads the active set, so the decision
// path stays off the database under load; writes invalidate the cached set.
// Cache failures degrade to the underlying store, never to an error.
package rediscache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"geoattend/internal/geofence"
	id "geoattend/pkg/domain"
	"geoattend/pkg/geo"
)

const activeZonesKey = "geofence:active-zones"

// ZoneCache wraps a geofence.Store with a Redis cache for ListActive.
type ZoneCache struct {
	next   geofence.Store
	client redis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

func New(next geofence.Store, client redis.Cmdable, ttl time.Duration, logger *slog.Logger) *ZoneCache {
	return &ZoneCache{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *ZoneCache) Create(ctx context.Context, zone *geofence.Zone) error {
	if err := c.next.Create(ctx, zone); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

func (c *ZoneCache) Get(ctx context.Context, zoneID id.GeofenceID) (*geofence.Zone, error) {
	return c.next.Get(ctx, zoneID)
}

func (c *ZoneCache) Update(ctx context.Context, zone *geofence.Zone) error {
	if err := c.next.Update(ctx, zone); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

func (c *ZoneCache) Delete(ctx context.Context, zoneID id.GeofenceID) error {
	if err := c.next.Delete(ctx, zoneID); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

func (c *ZoneCache) List(ctx context.Context) ([]*geofence.Zone, error) {
	return c.next.List(ctx)
}

func (c *ZoneCache) ListActive(ctx context.Context) ([]*geofence.Zone, error) {
	if cached, ok := c.load(ctx); ok {
		return cached, nil
	}

	zones, err := c.next.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	c.save(ctx, zones)
	return zones, nil
}

func (c *ZoneCache) load(ctx context.Context) ([]*geofence.Zone, bool) {
	raw, err := c.client.Get(ctx, activeZonesKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.WarnContext(ctx, "zone cache read failed", "error", err)
		}
		return nil, false
	}

	var cached []cachedZone
	if err := json.Unmarshal(raw, &cached); err != nil {
		c.logger.WarnContext(ctx, "zone cache payload corrupt", "error", err)
		return nil, false
	}

	zones := make([]*geofence.Zone, 0, len(cached))
	for _, cz := range cached {
		zone, err := cz.toZone()
		if err != nil {
			c.logger.WarnContext(ctx, "zone cache payload corrupt", "error", err)
			return nil, false
		}
		zones = append(zones, zone)
	}
	return zones, true
}

func (c *ZoneCache) save(ctx context.Context, zones []*geofence.Zone) {
	cached := make([]cachedZone, 0, len(zones))
	for _, zone := range zones {
		cached = append(cached, fromZone(zone))
	}
	raw, err := json.Marshal(cached)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, activeZonesKey, raw, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "zone cache write failed", "error", err)
	}
}

func (c *ZoneCache) invalidate(ctx context.Context) {
	if err := c.client.Del(ctx, activeZonesKey).Err(); err != nil {
		c.logger.WarnContext(ctx, "zone cache invalidation failed", "error", err)
	}
}

// cachedZone is the JSON shape stored in Redis. Kept separate from the
// domain model so cache payloads stay stable across model refactors.
type cachedZone struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	CenterLat    float64   `json:"center_lat"`
	CenterLon    float64   `json:"center_lon"`
	RadiusMeters float64   `json:"radius_meters"`
	StartMinute  int       `json:"start_minute"`
	EndMinute    int       `json:"end_minute"`
	AllowedDays  []int     `json:"allowed_days"`
	Active       bool      `json:"active"`
	Priority     int       `json:"priority"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func fromZone(zone *geofence.Zone) cachedZone {
	days := make([]int, len(zone.AllowedDays))
	for i, d := range zone.AllowedDays {
		days[i] = int(d)
	}
	return cachedZone{
		ID:           zone.ID.String(),
		Name:         zone.Name,
		CenterLat:    zone.Center.Lat,
		CenterLon:    zone.Center.Lon,
		RadiusMeters: zone.RadiusMeters,
		StartMinute:  int(zone.StartTime),
		EndMinute:    int(zone.EndTime),
		AllowedDays:  days,
		Active:       zone.Active,
		Priority:     zone.Priority,
		CreatedAt:    zone.CreatedAt,
		UpdatedAt:    zone.UpdatedAt,
	}
}

func (cz cachedZone) toZone() (*geofence.Zone, error) {
	zoneID, err := id.ParseGeofenceID(cz.ID)
	if err != nil {
		return nil, err
	}
	days := make([]time.Weekday, len(cz.AllowedDays))
	for i, d := range cz.AllowedDays {
		days[i] = time.Weekday(d)
	}
	return &geofence.Zone{
		ID:           zoneID,
		Name:         cz.Name,
		Center:       geo.Coordinate{Lat: cz.CenterLat, Lon: cz.CenterLon},
		RadiusMeters: cz.RadiusMeters,
		StartTime:    geofence.TimeOfDay(cz.StartMinute),
		EndTime:      geofence.TimeOfDay(cz.EndMinute),
		AllowedDays:  days,
		Active:       cz.Active,
		Priority:     cz.Priority,
		CreatedAt:    cz.CreatedAt,
		UpdatedAt:    cz.UpdatedAt,
	}, nil
}

var _ geofence.Store = (*ZoneCache)(nil)
