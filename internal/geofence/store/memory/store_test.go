package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geoattend/internal/geofence"
	id "geoattend/pkg/domain"
	"geoattend/pkg/geo"
	"geoattend/pkg/platform/sentinel"
)

func newZone(name string, active bool) *geofence.Zone {
	return &geofence.Zone{
		ID:           id.NewGeofenceID(),
		Name:         name,
		Center:       geo.Coordinate{Lat: 1, Lon: 1},
		RadiusMeters: 100,
		StartTime:    9 * 60,
		EndTime:      18 * 60,
		AllowedDays:  []time.Weekday{time.Monday},
		Active:       active,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
}

func TestInMemoryZoneStore_CRUD(t *testing.T) {
	ctx := context.Background()
	store := New()

	zone := newZone("HQ", true)
	require.NoError(t, store.Create(ctx, zone))

	t.Run("create rejects duplicate ID", func(t *testing.T) {
		assert.ErrorIs(t, store.Create(ctx, zone), sentinel.ErrConflict)
	})

	t.Run("get returns a copy", func(t *testing.T) {
		got, err := store.Get(ctx, zone.ID)
		require.NoError(t, err)
		got.Name = "mutated"

		again, err := store.Get(ctx, zone.ID)
		require.NoError(t, err)
		assert.Equal(t, "HQ", again.Name)
	})

	t.Run("update unknown zone returns not found", func(t *testing.T) {
		ghost := newZone("ghost", true)
		assert.ErrorIs(t, store.Update(ctx, ghost), sentinel.ErrNotFound)
	})

	t.Run("delete removes the zone", func(t *testing.T) {
		victim := newZone("victim", true)
		require.NoError(t, store.Create(ctx, victim))
		require.NoError(t, store.Delete(ctx, victim.ID))
		assert.ErrorIs(t, store.Delete(ctx, victim.ID), sentinel.ErrNotFound)
	})
}

func TestInMemoryZoneStore_ListActive(t *testing.T) {
	ctx := context.Background()
	store := New()

	require.NoError(t, store.Create(ctx, newZone("on", true)))
	require.NoError(t, store.Create(ctx, newZone("off", false)))

	active, err := store.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "on", active[0].Name)

	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestInMemoryZoneStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := New()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.Create(ctx, newZone("z", true))
		}()
		go func() {
			defer wg.Done()
			_, _ = store.ListActive(ctx)
		}()
	}
	wg.Wait()

	zones, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, zones, 20)
}
