package attendance_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"geoattend/internal/attendance"
	attmemory "geoattend/internal/attendance/store/memory"
	"geoattend/internal/audit"
	auditmemory "geoattend/internal/audit/store/memory"
	"geoattend/internal/geofence"
	zonememory "geoattend/internal/geofence/store/memory"
	id "geoattend/pkg/domain"
	dErrors "geoattend/pkg/domain-errors"
	"geoattend/pkg/geo"
	"geoattend/pkg/requestcontext"
)

// =============================================================================
// Attendance Service Test Suite
// =============================================================================
// Justification for unit tests: the decision ordering (duplicate guard before
// spatial, spatial before temporal), the reference-timezone day boundary, and
// the persistence of every non-duplicate outcome are the heart of the system
// and need to be pinned independently of transport.

type AttendanceServiceSuite struct {
	suite.Suite
	zoneStore  *zonememory.InMemoryZoneStore
	recStore   *attmemory.InMemoryRecordStore
	auditStore *auditmemory.InMemoryStore
	zones      *geofence.Service
	service    *attendance.Service

	userID id.UserID
	zone   *geofence.Zone
}

func TestAttendanceServiceSuite(t *testing.T) {
	suite.Run(t, new(AttendanceServiceSuite))
}

func (s *AttendanceServiceSuite) SetupTest() {
	s.zoneStore = zonememory.New()
	s.recStore = attmemory.New(time.UTC)
	s.auditStore = auditmemory.NewInMemoryStore()

	var err error
	s.zones, err = geofence.New(s.zoneStore)
	s.Require().NoError(err)

	s.service, err = attendance.New(s.zones, s.recStore, time.UTC,
		attendance.WithAuditPublisher(audit.NewPublisher(s.auditStore)))
	s.Require().NoError(err)

	s.userID = id.NewUserID()

	zone, err := s.zones.Create(context.Background(), &geofence.Zone{
		Name:         "office",
		Center:       geo.Coordinate{Lat: 0, Lon: 0},
		RadiusMeters: 1000,
		StartTime:    9 * 60,
		EndTime:      18 * 60,
		AllowedDays:  []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		Active:       true,
	})
	s.Require().NoError(err)
	s.zone = zone
}

func (s *AttendanceServiceSuite) ctxAt(at time.Time) context.Context {
	return requestcontext.WithTime(context.Background(), at)
}

func (s *AttendanceServiceSuite) event(point geo.Coordinate) attendance.CheckinEvent {
	return attendance.CheckinEvent{
		UserID:     s.userID,
		Coordinate: point,
		DeviceTime: time.Date(2025, 1, 7, 9, 55, 0, 0, time.UTC),
		RawPayload: `{"lat":0,"lon":0}`,
	}
}

func (s *AttendanceServiceSuite) TestNew() {
	s.Run("nil zone index rejected", func() {
		_, err := attendance.New(nil, s.recStore, time.UTC)
		s.Error(err)
	})

	s.Run("nil store rejected", func() {
		_, err := attendance.New(s.zones, nil, time.UTC)
		s.Error(err)
	})

	s.Run("nil reference zone defaults to UTC", func() {
		svc, err := attendance.New(s.zones, s.recStore, nil)
		s.Require().NoError(err)
		s.Equal(time.UTC, svc.ReferenceZone())
	})
}

func (s *AttendanceServiceSuite) TestCheckIn_Accepted() {
	tuesdayMorning := time.Date(2025, 1, 7, 10, 0, 0, 0, time.UTC)

	record, err := s.service.CheckIn(s.ctxAt(tuesdayMorning), s.event(geo.Coordinate{Lat: 0, Lon: 0.005}))
	s.Require().NoError(err)

	s.Equal(attendance.StatusAccepted, record.Status)
	s.Equal(attendance.ReasonAccepted, record.Reason)
	s.Require().NotNil(record.GeofenceID)
	s.Equal(s.zone.ID, *record.GeofenceID)
	s.Equal(attendance.DefaultMethod, record.Method)
	s.Equal(tuesdayMorning, record.ServerReceivedAt)
	s.NotEmpty(record.RawPayloadHash)
	s.False(record.ID.IsNil())

	persisted, err := s.service.Get(context.Background(), record.ID)
	s.Require().NoError(err)
	s.Equal(record.Status, persisted.Status)
}

func (s *AttendanceServiceSuite) TestCheckIn_Outside() {
	tuesdayMorning := time.Date(2025, 1, 7, 10, 0, 0, 0, time.UTC)

	record, err := s.service.CheckIn(s.ctxAt(tuesdayMorning), s.event(geo.Coordinate{Lat: 50, Lon: 8}))
	s.Require().NoError(err)

	s.Equal(attendance.StatusOutside, record.Status)
	s.Equal(attendance.ReasonOutside, record.Reason)
	s.Nil(record.GeofenceID)

	// OUTSIDE outcomes persist like any other.
	history, err := s.service.History(context.Background(), s.userID)
	s.Require().NoError(err)
	s.Len(history, 1)
}

func (s *AttendanceServiceSuite) TestCheckIn_RejectedOnDisallowedDay() {
	saturdayMorning := time.Date(2025, 1, 11, 10, 0, 0, 0, time.UTC)

	record, err := s.service.CheckIn(s.ctxAt(saturdayMorning), s.event(geo.Coordinate{Lat: 0, Lon: 0}))
	s.Require().NoError(err)

	s.Equal(attendance.StatusRejected, record.Status)
	s.Equal(attendance.ReasonDayNotAllowed, record.Reason)
	s.Require().NotNil(record.GeofenceID)
}

func (s *AttendanceServiceSuite) TestCheckIn_FlaggedOutsideWindow() {
	tuesdayEvening := time.Date(2025, 1, 7, 20, 0, 0, 0, time.UTC)

	record, err := s.service.CheckIn(s.ctxAt(tuesdayEvening), s.event(geo.Coordinate{Lat: 0, Lon: 0}))
	s.Require().NoError(err)

	s.Equal(attendance.StatusFlagged, record.Status)
	s.Equal(attendance.ReasonOutsideWindow, record.Reason)
}

func (s *AttendanceServiceSuite) TestCheckIn_DuplicateSameDay() {
	morning := time.Date(2025, 1, 7, 10, 0, 0, 0, time.UTC)
	evening := time.Date(2025, 1, 7, 17, 0, 0, 0, time.UTC)

	_, err := s.service.CheckIn(s.ctxAt(morning), s.event(geo.Coordinate{Lat: 0, Lon: 0}))
	s.Require().NoError(err)

	_, err = s.service.CheckIn(s.ctxAt(evening), s.event(geo.Coordinate{Lat: 0, Lon: 0}))
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	s.Contains(err.Error(), "Already checked in today")

	history, err := s.service.History(context.Background(), s.userID)
	s.Require().NoError(err)
	s.Len(history, 1, "duplicate must not persist a second record")
}

func (s *AttendanceServiceSuite) TestCheckIn_NextDayAllowed() {
	tuesday := time.Date(2025, 1, 7, 10, 0, 0, 0, time.UTC)
	wednesday := time.Date(2025, 1, 8, 10, 0, 0, 0, time.UTC)

	_, err := s.service.CheckIn(s.ctxAt(tuesday), s.event(geo.Coordinate{Lat: 0, Lon: 0}))
	s.Require().NoError(err)

	record, err := s.service.CheckIn(s.ctxAt(wednesday), s.event(geo.Coordinate{Lat: 0, Lon: 0}))
	s.Require().NoError(err)
	s.Equal(attendance.StatusAccepted, record.Status)
}

func (s *AttendanceServiceSuite) TestCheckIn_DuplicateGuardPrecedesSpatial() {
	tuesday := time.Date(2025, 1, 7, 10, 0, 0, 0, time.UTC)

	// First check-in lands outside all zones and still counts for the day.
	_, err := s.service.CheckIn(s.ctxAt(tuesday), s.event(geo.Coordinate{Lat: 50, Lon: 8}))
	s.Require().NoError(err)

	// Second attempt from inside the zone is still a duplicate.
	_, err = s.service.CheckIn(s.ctxAt(tuesday.Add(time.Hour)), s.event(geo.Coordinate{Lat: 0, Lon: 0}))
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *AttendanceServiceSuite) TestCheckIn_DeviceTimeDoesNotDrive() {
	tuesdayMorning := time.Date(2025, 1, 7, 10, 0, 0, 0, time.UTC)

	event := s.event(geo.Coordinate{Lat: 0, Lon: 0})
	// Device claims Saturday night; the server reference instant decides.
	event.DeviceTime = time.Date(2025, 1, 11, 23, 0, 0, 0, time.UTC)

	record, err := s.service.CheckIn(s.ctxAt(tuesdayMorning), event)
	s.Require().NoError(err)
	s.Equal(attendance.StatusAccepted, record.Status)
	s.Equal(event.DeviceTime, record.DeviceTimestamp)
}

func (s *AttendanceServiceSuite) TestCheckIn_InvalidCoordinate() {
	event := s.event(geo.Coordinate{Lat: 123, Lon: 0})
	_, err := s.service.CheckIn(s.ctxAt(time.Date(2025, 1, 7, 10, 0, 0, 0, time.UTC)), event)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *AttendanceServiceSuite) TestCheckIn_PreservesDeclaredMethod() {
	record, err := s.service.CheckIn(
		s.ctxAt(time.Date(2025, 1, 7, 10, 0, 0, 0, time.UTC)),
		attendance.CheckinEvent{
			UserID:     s.userID,
			Coordinate: geo.Coordinate{Lat: 0, Lon: 0},
			Method:     "KIOSK",
		})
	s.Require().NoError(err)
	s.Equal("KIOSK", record.Method)
	s.Empty(record.RawPayloadHash, "no payload means no hash")
}

func (s *AttendanceServiceSuite) TestCheckIn_EmitsAuditTrail() {
	ctx := s.ctxAt(time.Date(2025, 1, 7, 10, 0, 0, 0, time.UTC))
	_, err := s.service.CheckIn(ctx, s.event(geo.Coordinate{Lat: 0, Lon: 0}))
	s.Require().NoError(err)

	events, err := s.auditStore.ListByUser(context.Background(), s.userID)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(string(audit.EventCheckinDecided), events[0].Action)
	s.Equal(string(attendance.StatusAccepted), events[0].Decision)

	_, err = s.service.CheckIn(s.ctxAt(time.Date(2025, 1, 7, 12, 0, 0, 0, time.UTC)), s.event(geo.Coordinate{Lat: 0, Lon: 0}))
	s.Require().Error(err)

	events, err = s.auditStore.ListByUser(context.Background(), s.userID)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(string(audit.EventCheckinDuplicate), events[1].Action)
}

func (s *AttendanceServiceSuite) TestGet() {
	s.Run("unknown record returns not found", func() {
		_, err := s.service.Get(context.Background(), id.NewAttendanceID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *AttendanceServiceSuite) TestHistoryOrdering() {
	days := []time.Time{
		time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 7, 10, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 8, 10, 0, 0, 0, time.UTC),
	}
	for _, day := range days {
		_, err := s.service.CheckIn(s.ctxAt(day), s.event(geo.Coordinate{Lat: 0, Lon: 0}))
		s.Require().NoError(err)
	}

	history, err := s.service.History(context.Background(), s.userID)
	s.Require().NoError(err)
	s.Require().Len(history, 3)
	s.True(history[0].ServerReceivedAt.After(history[1].ServerReceivedAt))
	s.True(history[1].ServerReceivedAt.After(history[2].ServerReceivedAt))
}
