package audit

import (
	"context"

	id "geoattend/pkg/domain"
)

// Store persists audit events. Append-only; events are never updated or
// deleted through this interface.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByUser(ctx context.Context, userID id.UserID) ([]Event, error)
}

// Sink receives a copy of every emitted event for external delivery
// (message brokers, SIEM forwarders). Sinks are best-effort; a failing
// sink must not block the decision path.
type Sink interface {
	Publish(ctx context.Context, event Event) error
	Close()
}
