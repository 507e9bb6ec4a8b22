package geofence_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"geoattend/internal/geofence"
	"geoattend/internal/geofence/store/memory"
	id "geoattend/pkg/domain"
	dErrors "geoattend/pkg/domain-errors"
	"geoattend/pkg/geo"
)

// =============================================================================
// Geofence Service Test Suite
// =============================================================================
// Justification for unit tests: zone lifecycle defaults, not-found
// translation, and the active-set queries behind the decision path are
// awkward to pin down through HTTP tests alone.

type GeofenceServiceSuite struct {
	suite.Suite
	store   *memory.InMemoryZoneStore
	service *geofence.Service
}

func TestGeofenceServiceSuite(t *testing.T) {
	suite.Run(t, new(GeofenceServiceSuite))
}

func (s *GeofenceServiceSuite) SetupTest() {
	s.store = memory.New()

	var err error
	s.service, err = geofence.New(s.store)
	s.Require().NoError(err)
}

func (s *GeofenceServiceSuite) newZone(name string, center geo.Coordinate, radius float64) *geofence.Zone {
	return &geofence.Zone{
		Name:         name,
		Center:       center,
		RadiusMeters: radius,
		StartTime:    9 * 60,
		EndTime:      18 * 60,
		AllowedDays:  []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		Active:       true,
	}
}

func (s *GeofenceServiceSuite) TestNew() {
	s.Run("nil store returns error", func() {
		_, err := geofence.New(nil)
		s.Error(err)
		s.Contains(err.Error(), "geofence store is required")
	})
}

func (s *GeofenceServiceSuite) TestCreate() {
	ctx := context.Background()

	s.Run("assigns identity and timestamps", func() {
		created, err := s.service.Create(ctx, s.newZone("HQ", geo.Coordinate{Lat: 52.52, Lon: 13.405}, 100))
		s.Require().NoError(err)
		s.False(created.ID.IsNil())
		s.False(created.CreatedAt.IsZero())
		s.Equal(created.CreatedAt, created.UpdatedAt)
	})

	s.Run("rejects invalid zone", func() {
		zone := s.newZone("bad", geo.Coordinate{Lat: 0, Lon: 0}, -5)
		_, err := s.service.Create(ctx, zone)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("nil zone rejected", func() {
		_, err := s.service.Create(ctx, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func (s *GeofenceServiceSuite) TestGet() {
	ctx := context.Background()

	s.Run("unknown zone returns not found", func() {
		_, err := s.service.Get(ctx, id.NewGeofenceID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("returns stored zone", func() {
		created, err := s.service.Create(ctx, s.newZone("HQ", geo.Coordinate{Lat: 1, Lon: 1}, 100))
		s.Require().NoError(err)

		got, err := s.service.Get(ctx, created.ID)
		s.Require().NoError(err)
		s.Equal(created.Name, got.Name)
	})
}

func (s *GeofenceServiceSuite) TestUpdate() {
	ctx := context.Background()

	s.Run("preserves creation time", func() {
		created, err := s.service.Create(ctx, s.newZone("HQ", geo.Coordinate{Lat: 1, Lon: 1}, 100))
		s.Require().NoError(err)

		modified := *created
		modified.Name = "HQ North"
		modified.Active = false

		updated, err := s.service.Update(ctx, &modified)
		s.Require().NoError(err)
		s.Equal(created.CreatedAt, updated.CreatedAt)
		s.Equal("HQ North", updated.Name)
	})

	s.Run("unknown zone returns not found", func() {
		zone := s.newZone("ghost", geo.Coordinate{Lat: 1, Lon: 1}, 100)
		zone.ID = id.NewGeofenceID()
		_, err := s.service.Update(ctx, zone)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *GeofenceServiceSuite) TestDelete() {
	ctx := context.Background()

	s.Run("removes zone", func() {
		created, err := s.service.Create(ctx, s.newZone("temp", geo.Coordinate{Lat: 1, Lon: 1}, 100))
		s.Require().NoError(err)

		s.Require().NoError(s.service.Delete(ctx, created.ID))

		_, err = s.service.Get(ctx, created.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("unknown zone returns not found", func() {
		err := s.service.Delete(ctx, id.NewGeofenceID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *GeofenceServiceSuite) TestActiveZoneQueries() {
	ctx := context.Background()

	s.Run("inactive zones are invisible to matching", func() {
		zone := s.newZone("inactive", geo.Coordinate{Lat: 0, Lon: 0}, 1000)
		zone.Active = false
		_, err := s.service.Create(ctx, zone)
		s.Require().NoError(err)

		matched, err := s.service.MatchZone(ctx, geo.Coordinate{Lat: 0, Lon: 0})
		s.Require().NoError(err)
		s.Nil(matched)

		closest, err := s.service.ClosestZone(ctx, geo.Coordinate{Lat: 0, Lon: 0})
		s.Require().NoError(err)
		s.Nil(closest)
	})

	s.Run("match and closest can disagree", func() {
		containing, err := s.service.Create(ctx, s.newZone("containing", geo.Coordinate{Lat: 0, Lon: 0}, 5000))
		s.Require().NoError(err)
		nearby, err := s.service.Create(ctx, s.newZone("nearby", geo.Coordinate{Lat: 0, Lon: 0.01}, 10))
		s.Require().NoError(err)

		// Point inside "containing" but closer to "nearby"'s center.
		point := geo.Coordinate{Lat: 0, Lon: 0.009}

		matched, err := s.service.MatchZone(ctx, point)
		s.Require().NoError(err)
		s.Require().NotNil(matched)
		s.Equal(containing.ID, matched.ID)

		closest, err := s.service.ClosestZone(ctx, point)
		s.Require().NoError(err)
		s.Require().NotNil(closest)
		s.Equal(nearby.ID, closest.ID)
	})
}

func (s *GeofenceServiceSuite) TestCheck() {
	ctx := context.Background()

	zone, err := s.service.Create(ctx, s.newZone("HQ", geo.Coordinate{Lat: 0, Lon: 0}, 1000))
	s.Require().NoError(err)

	s.Run("unknown zone returns not found", func() {
		_, err := s.service.Check(ctx, id.NewGeofenceID(), geo.Coordinate{Lat: 0, Lon: 0}, time.Now())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("reports containment and eligibility", func() {
		tuesdayMorning := time.Date(2025, 1, 7, 10, 0, 0, 0, time.UTC)
		result, err := s.service.Check(ctx, zone.ID, geo.Coordinate{Lat: 0, Lon: 0.005}, tuesdayMorning)
		s.Require().NoError(err)
		s.True(result.Within)
		s.True(result.AllowedNow)
		s.InDelta(556, result.DistanceMeters, 5)
	})

	s.Run("eligibility false outside the window", func() {
		tuesdayNight := time.Date(2025, 1, 7, 20, 0, 0, 0, time.UTC)
		result, err := s.service.Check(ctx, zone.ID, geo.Coordinate{Lat: 0, Lon: 0}, tuesdayNight)
		s.Require().NoError(err)
		s.True(result.Within)
		s.False(result.AllowedNow)
	})

	s.Run("instant offset does not move the calendar", func() {
		// Tuesday 05:00 at +14:00 is Monday 15:00 UTC. With a UTC reference
		// zone the eligible Monday must win over the client's local Tuesday.
		mondayOnly := s.newZone("mon", geo.Coordinate{Lat: 10, Lon: 10}, 1000)
		mondayOnly.AllowedDays = []time.Weekday{time.Monday}
		created, err := s.service.Create(ctx, mondayOnly)
		s.Require().NoError(err)

		at := time.Date(2025, 1, 7, 5, 0, 0, 0, time.FixedZone("UTC+14", 14*3600))
		result, err := s.service.Check(ctx, created.ID, geo.Coordinate{Lat: 10, Lon: 10}, at)
		s.Require().NoError(err)
		s.True(result.AllowedNow)
	})
}

func (s *GeofenceServiceSuite) TestCheckConfiguredReferenceZone() {
	ctx := context.Background()

	newYork, err := time.LoadLocation("America/New_York")
	s.Require().NoError(err)
	service, err := geofence.New(s.store, geofence.WithReferenceZone(newYork))
	s.Require().NoError(err)

	mondayOnly := s.newZone("mon", geo.Coordinate{Lat: 0, Lon: 0}, 1000)
	mondayOnly.AllowedDays = []time.Weekday{time.Monday}
	created, err := service.Create(ctx, mondayOnly)
	s.Require().NoError(err)

	// Monday 19:00 UTC is past the window on a UTC calendar but only
	// 14:00 in New York, squarely inside it.
	at := time.Date(2025, 1, 6, 19, 0, 0, 0, time.UTC)
	result, err := service.Check(ctx, created.ID, geo.Coordinate{Lat: 0, Lon: 0}, at)
	s.Require().NoError(err)
	s.True(result.AllowedNow)
}
