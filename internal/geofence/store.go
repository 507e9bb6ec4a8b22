package geofence

import (
	"context"

	id "geoattend/pkg/domain"
)

// Store persists fence zones. Implementations return sentinel errors for
// infrastructure facts; the service translates them into domain errors.
// Zone management happens elsewhere at low volume, so the interface stays
// plain CRUD plus the active-set read the decision path needs.
type Store interface {
	Create(ctx context.Context, zone *Zone) error
	Get(ctx context.Context, zoneID id.GeofenceID) (*Zone, error)
	Update(ctx context.Context, zone *Zone) error
	Delete(ctx context.Context, zoneID id.GeofenceID) error
	List(ctx context.Context) ([]*Zone, error)

	// ListActive returns all zones currently flagged active. Ordering is
	// not guaranteed; matching applies its own deterministic ordering.
	ListActive(ctx context.Context) ([]*Zone, error)
}
