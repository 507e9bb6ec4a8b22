// Package httptransport assembles the public HTTP surface: the middleware
// chain, the authenticated /api group, and the operational endpoints.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	attendancehandler "geoattend/internal/attendance/handler"
	geofencehandler "geoattend/internal/geofence/handler"
	"geoattend/internal/platform/middleware"
	"geoattend/pkg/platform/httputil"
)

// Deps carries everything the router mounts. Health is optional; nil checks
// are skipped.
type Deps struct {
	Logger       *slog.Logger
	JWTValidator middleware.JWTValidator
	Attendance   *attendancehandler.Handler
	Geofence     *geofencehandler.Handler
	Health       []HealthChecker
}

// HealthChecker reports the liveness of one dependency.
type HealthChecker interface {
	Name() string
	Healthy() bool
}

// NewRouter wires all endpoints. Domain routes live under /api and require a
// bearer token; /healthz and /metrics stay open for the platform.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.Logger(deps.Logger))

	r.Get("/healthz", handleHealth(deps.Health))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.RequireAuth(deps.JWTValidator, deps.Logger))
		deps.Geofence.Register(api)
		deps.Attendance.Register(api)
	})

	return r
}

func handleHealth(checks []HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		body := map[string]string{"status": "ok"}
		for _, check := range checks {
			if check == nil {
				continue
			}
			if !check.Healthy() {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
				body[check.Name()] = "unhealthy"
			}
		}
		httputil.WriteJSON(w, status, body)
	}
}
