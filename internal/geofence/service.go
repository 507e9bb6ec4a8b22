package geofence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"geoattend/internal/audit"
	"geoattend/internal/geofence/metrics"
	id "geoattend/pkg/domain"
	dErrors "geoattend/pkg/domain-errors"
	"geoattend/pkg/geo"
	"geoattend/pkg/platform/sentinel"
	"geoattend/pkg/requestcontext"
)

// Service manages fence zones and answers the spatial queries the attendance
// decider and the coordinate-check endpoints need. It reads the store fresh
// on every call; one evaluation sees one consistent snapshot, and changes
// made between calls are picked up without any cache invariant.
type Service struct {
	store    Store
	refZone  *time.Location
	logger   *slog.Logger
	metrics  *metrics.Metrics
	auditPub *audit.Publisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(pub *audit.Publisher) Option {
	return func(s *Service) {
		s.auditPub = pub
	}
}

// WithReferenceZone sets the location day/time eligibility is evaluated in.
// Defaults to UTC.
func WithReferenceZone(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.refZone = loc
		}
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("geofence store is required")
	}

	svc := &Service{
		store:   store,
		refZone: time.UTC,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(svc)
	}

	return svc, nil
}

// Create validates and persists a new zone. Mirrors the management surface
// defaults: zones start active with priority 0 unless stated otherwise.
func (s *Service) Create(ctx context.Context, zone *Zone) (*Zone, error) {
	if zone == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "zone is required")
	}
	if err := zone.Validate(); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	zone.ID = id.NewGeofenceID()
	zone.CreatedAt = now
	zone.UpdatedAt = now

	if err := s.store.Create(ctx, zone); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create geofence")
	}

	s.logger.InfoContext(ctx, "geofence created",
		"geofence_id", zone.ID,
		"name", zone.Name,
		"radius_meters", zone.RadiusMeters,
	)
	s.metrics.IncrementWrite("create")
	s.refreshActiveGauge(ctx)
	s.emitAudit(ctx, audit.EventZoneCreated, zone.ID)
	return zone, nil
}

// Get returns the zone with the given ID.
func (s *Service) Get(ctx context.Context, zoneID id.GeofenceID) (*Zone, error) {
	zone, err := s.store.Get(ctx, zoneID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "geofence %s not found", zoneID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load geofence")
	}
	return zone, nil
}

// Update replaces the stored zone's attributes. Identity and creation time
// are immutable.
func (s *Service) Update(ctx context.Context, zone *Zone) (*Zone, error) {
	if zone == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "zone is required")
	}
	if err := zone.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.Get(ctx, zone.ID)
	if err != nil {
		return nil, err
	}
	zone.CreatedAt = existing.CreatedAt
	zone.UpdatedAt = requestcontext.Now(ctx)

	if err := s.store.Update(ctx, zone); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "geofence %s not found", zone.ID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update geofence")
	}

	s.logger.InfoContext(ctx, "geofence updated",
		"geofence_id", zone.ID,
		"active", zone.Active,
	)
	s.metrics.IncrementWrite("update")
	s.refreshActiveGauge(ctx)
	s.emitAudit(ctx, audit.EventZoneUpdated, zone.ID)
	return zone, nil
}

// Delete removes the zone with the given ID.
func (s *Service) Delete(ctx context.Context, zoneID id.GeofenceID) error {
	if err := s.store.Delete(ctx, zoneID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Newf(dErrors.CodeNotFound, "geofence %s not found", zoneID)
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete geofence")
	}

	s.logger.InfoContext(ctx, "geofence deleted", "geofence_id", zoneID)
	s.metrics.IncrementWrite("delete")
	s.refreshActiveGauge(ctx)
	s.emitAudit(ctx, audit.EventZoneDeleted, zoneID)
	return nil
}

// refreshActiveGauge republishes the active zone count after a write.
// Best-effort; a failed count never fails the operation that triggered it.
func (s *Service) refreshActiveGauge(ctx context.Context) {
	if s.metrics == nil {
		return
	}
	zones, err := s.store.ListActive(ctx)
	if err != nil {
		return
	}
	s.metrics.SetActiveZones(len(zones))
}

func (s *Service) emitAudit(ctx context.Context, action audit.AuditEvent, zoneID id.GeofenceID) {
	if s.auditPub == nil {
		return
	}
	event := audit.Event{
		Timestamp: requestcontext.Now(ctx),
		UserID:    requestcontext.UserID(ctx),
		Action:    string(action),
		ZoneID:    zoneID.String(),
		RequestID: requestcontext.RequestID(ctx),
		ClientIP:  requestcontext.ClientIP(ctx),
	}
	if err := s.auditPub.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "error", err, "action", event.Action)
	}
}

// List returns all zones, active or not.
func (s *Service) List(ctx context.Context) ([]*Zone, error) {
	zones, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list geofences")
	}
	return zones, nil
}

// ActiveZones returns all zones currently flagged active.
func (s *Service) ActiveZones(ctx context.Context) ([]*Zone, error) {
	zones, err := s.store.ListActive(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list active geofences")
	}
	return zones, nil
}

// MatchZone returns the active zone containing the point, or nil when the
// point is outside all coverage. Temporal restrictions are not applied.
func (s *Service) MatchZone(ctx context.Context, point geo.Coordinate) (*Zone, error) {
	zones, err := s.ActiveZones(ctx)
	if err != nil {
		return nil, err
	}
	return MatchZone(zones, point), nil
}

// ClosestZone returns the active zone nearest to the point, or nil when no
// zones are active.
func (s *Service) ClosestZone(ctx context.Context, point geo.Coordinate) (*Zone, error) {
	zones, err := s.ActiveZones(ctx)
	if err != nil {
		return nil, err
	}
	return ClosestZone(zones, point), nil
}

// CheckResult is the outcome of probing one zone with a coordinate.
type CheckResult struct {
	Zone           *Zone
	DistanceMeters float64
	Within         bool
	AllowedNow     bool
}

// Check probes a single zone: distance from center, containment, and whether
// a check-in at this instant would currently be eligible. Used by the ad-hoc
// coordinate check endpoint, not by the decision path.
func (s *Service) Check(ctx context.Context, zoneID id.GeofenceID, point geo.Coordinate, at time.Time) (*CheckResult, error) {
	zone, err := s.Get(ctx, zoneID)
	if err != nil {
		return nil, err
	}
	// Eligibility is defined by the reference zone's calendar, whatever
	// offset the instant arrives with.
	at = at.In(s.refZone)
	return &CheckResult{
		Zone:           zone,
		DistanceMeters: geo.DistanceMeters(zone.Center, point),
		Within:         IsWithin(zone, point),
		AllowedNow:     IsAllowedDay(zone, at) && IsWithinTimeWindow(zone, at),
	}, nil
}
