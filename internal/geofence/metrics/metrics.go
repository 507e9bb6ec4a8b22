package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the geofence module.
type Metrics struct {
	// Zones currently flagged active
	ActiveZones prometheus.Gauge

	// Zone management operations by kind
	ZoneWrites *prometheus.CounterVec
}

// New creates a new Metrics instance with all geofence module metrics registered.
func New() *Metrics {
	return &Metrics{
		ActiveZones: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "geoattend_active_zones",
			Help: "Number of zones currently flagged active",
		}),

		ZoneWrites: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "geoattend_zone_writes_total",
			Help: "Total zone management operations by kind",
		}, []string{"op"}), // op: "create", "update", "delete"
	}
}

// SetActiveZones records the current active zone count.
func (m *Metrics) SetActiveZones(n int) {
	if m != nil {
		m.ActiveZones.Set(float64(n))
	}
}

// IncrementWrite records one zone management operation.
func (m *Metrics) IncrementWrite(op string) {
	if m != nil {
		m.ZoneWrites.WithLabelValues(op).Inc()
	}
}
