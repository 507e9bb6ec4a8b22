package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"geoattend/internal/attendance/metrics"
	"geoattend/internal/audit"
	"geoattend/internal/geofence"
	id "geoattend/pkg/domain"
	dErrors "geoattend/pkg/domain-errors"
	"geoattend/pkg/geo"
	"geoattend/pkg/platform/sentinel"
	"geoattend/pkg/requestcontext"
)

// ZoneIndex is the spatial query surface the decider needs from the
// geofence module.
type ZoneIndex interface {
	MatchZone(ctx context.Context, point geo.Coordinate) (*geofence.Zone, error)
}

// Service evaluates check-in events into attendance records. The decision
// itself is pure (rules.go); Service adds the duplicate guard, persistence,
// metrics, and the audit trail.
type Service struct {
	zones    ZoneIndex
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

// New builds the decider. refZone is the reference timezone in which
// calendar days and time windows are interpreted; all deployments of one
// installation share it so "same day" means the same thing for every client.
func New(zones ZoneIndex, store Store, refZone *time.Location, opts ...Option) (*Service, error) {
	if zones == nil {
		return nil, fmt.Errorf("zone index is required")
	}
	if store == nil {
		return nil, fmt.Errorf("attendance store is required")
	}
	if refZone == nil {
		refZone = time.UTC
	}

	svc := &Service{
		zones:   zones,
		store:   store,
		refZone: refZone,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(svc)
	}

	return svc, nil
}

// ReferenceZone returns the timezone decisions are evaluated in.
func (s *Service) ReferenceZone() *time.Location {
	return s.refZone
}

// Decide evaluates one event against the prior same-day records and the
// matched zone, at the server reference instant now. It is side-effect free:
// nothing is persisted and no counters move. A duplicate same-day check-in
// yields a CodeConflict error rather than a record.
func (s *Service) Decide(event CheckinEvent, prior []*Record, matched *geofence.Zone, now time.Time) (*Record, error) {
	if err := event.Coordinate.Validate(); err != nil {
		return nil, err
	}
	if HasCheckedInOn(prior, now, s.refZone) {
		return nil, dErrors.New(dErrors.CodeConflict, ReasonDuplicate)
	}

	status, reason := DeriveStatus(matched, now.In(s.refZone))

	method := strings.TrimSpace(event.Method)
	if method == "" {
		method = DefaultMethod
	}

	record := &Record{
		ID:               id.NewAttendanceID(),
		UserID:           event.UserID,
		Coordinate:       event.Coordinate,
		AccuracyMeters:   event.AccuracyMeters,
		DeviceTimestamp:  event.DeviceTime,
		ServerReceivedAt: now,
		Method:           method,
		Status:           status,
		Reason:           reason,
		RawPayload:       event.RawPayload,
		RawPayloadHash:   PayloadHash(event.RawPayload),
	}
	if matched != nil {
		zoneID := matched.ID
		record.GeofenceID = &zoneID
	}
	return record, nil
}

// CheckIn runs the full decision protocol for one submission: duplicate
// guard, zone matching, record assembly, persistence. Every non-duplicate
// outcome is persisted, including OUTSIDE. The store's per-day uniqueness
// backstops the guard against concurrent submissions.
func (s *Service) CheckIn(ctx context.Context, event CheckinEvent) (*Record, error) {
	started := time.Now()
	now := requestcontext.Now(ctx)

	// Prior records and the spatial match are independent reads.
	var (
		prior   []*Record
		matched *geofence.Zone
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		records, err := s.store.ListByUserOn(gctx, event.UserID, now, s.refZone)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load attendance history")
		}
		prior = records
		return nil
	})
	g.Go(func() error {
		zone, err := s.zones.MatchZone(gctx, event.Coordinate)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to match geofence")
		}
		matched = zone
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	record, err := s.Decide(event, prior, matched, now)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeConflict) {
			s.recordDuplicate(ctx, event)
		}
		return nil, err
	}

	if err := s.store.Create(ctx, record); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			// Lost a race with a concurrent same-day submission.
			s.recordDuplicate(ctx, event)
			return nil, dErrors.New(dErrors.CodeConflict, ReasonDuplicate)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist attendance record")
	}

	s.metrics.IncrementOutcome(string(record.Status), record.Method)
	s.metrics.ObserveDecideLatency(time.Since(started))

	s.logger.InfoContext(ctx, "check-in decided",
		"attendance_id", record.ID,
		"user_id", record.UserID,
		"status", record.Status,
		"method", record.Method,
	)

	s.emitAudit(ctx, audit.Event{
		UserID:      record.UserID,
		Action:      string(audit.EventCheckinDecided),
		ZoneID:      zoneIDString(record.GeofenceID),
		Decision:    string(record.Status),
		Reason:      record.Reason,
		PayloadHash: record.RawPayloadHash,
	})

	return record, nil
}

// Get returns a single record. Callers enforce ownership; the service only
// translates storage errors.
func (s *Service) Get(ctx context.Context, recordID id.AttendanceID) (*Record, error) {
	record, err := s.store.Get(ctx, recordID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "attendance record %s not found", recordID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load attendance record")
	}
	return record, nil
}

// History returns the user's records, newest first.
func (s *Service) History(ctx context.Context, userID id.UserID) ([]*Record, error) {
	records, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load attendance history")
	}
	return records, nil
}

// ListAll returns every record, newest first. Management surface only.
func (s *Service) ListAll(ctx context.Context) ([]*Record, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list attendance records")
	}
	return records, nil
}

func (s *Service) recordDuplicate(ctx context.Context, event CheckinEvent) {
	s.metrics.IncrementDuplicate()
	s.logger.InfoContext(ctx, "duplicate check-in rejected", "user_id", event.UserID)
	s.emitAudit(ctx, audit.Event{
		UserID:   event.UserID,
		Action:   string(audit.EventCheckinDuplicate),
		Decision: string(dErrors.CodeConflict),
		Reason:   ReasonDuplicate,
	})
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.auditPub == nil {
		return
	}
	event.Timestamp = requestcontext.Now(ctx)
	event.RequestID = requestcontext.RequestID(ctx)
	event.ClientIP = requestcontext.ClientIP(ctx)
	if err := s.auditPub.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "error", err, "action", event.Action)
	}
}

func zoneIDString(zoneID *id.GeofenceID) string {
	if zoneID == nil {
		return ""
	}
	return zoneID.String()
}
