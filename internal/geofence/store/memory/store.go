package memory

import (
	"context"
	"sync"

	"geoattend/internal/geofence"
	id "geoattend/pkg/domain"
	"geoattend/pkg/platform/sentinel"
)

// InMemoryZoneStore keeps zones in a map guarded by a RWMutex. Used in tests
// and in deployments without a database.
type InMemoryZoneStore struct {
	mu    sync.RWMutex
	zones map[id.GeofenceID]*geofence.Zone
}

func New() *InMemoryZoneStore {
	return &InMemoryZoneStore{
		zones: make(map[id.GeofenceID]*geofence.Zone),
	}
}

func (s *InMemoryZoneStore) Create(_ context.Context, zone *geofence.Zone) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.zones[zone.ID]; exists {
		return sentinel.ErrConflict
	}
	copied := *zone
	s.zones[zone.ID] = &copied
	return nil
}

func (s *InMemoryZoneStore) Get(_ context.Context, zoneID id.GeofenceID) (*geofence.Zone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	zone, exists := s.zones[zoneID]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	copied := *zone
	return &copied, nil
}

func (s *InMemoryZoneStore) Update(_ context.Context, zone *geofence.Zone) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.zones[zone.ID]; !exists {
		return sentinel.ErrNotFound
	}
	copied := *zone
	s.zones[zone.ID] = &copied
	return nil
}

func (s *InMemoryZoneStore) Delete(_ context.Context, zoneID id.GeofenceID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.zones[zoneID]; !exists {
		return sentinel.ErrNotFound
	}
	delete(s.zones, zoneID)
	return nil
}

func (s *InMemoryZoneStore) List(_ context.Context) ([]*geofence.Zone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	zones := make([]*geofence.Zone, 0, len(s.zones))
	for _, zone := range s.zones {
		copied := *zone
		zones = append(zones, &copied)
	}
	return zones, nil
}

func (s *InMemoryZoneStore) ListActive(_ context.Context) ([]*geofence.Zone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	zones := make([]*geofence.Zone, 0, len(s.zones))
	for _, zone := range s.zones {
		if !zone.Active {
			continue
		}
		copied := *zone
		zones = append(zones, &copied)
	}
	return zones, nil
}
