// Package handler wires the zone management and coordinate probe endpoints to
// the geofence service.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"geoattend/internal/geofence"
	id "geoattend/pkg/domain"
	dErrors "geoattend/pkg/domain-errors"
	"geoattend/pkg/geo"
	"geoattend/pkg/platform/httputil"
	"geoattend/pkg/requestcontext"
)

// Service defines the interface for zone operations.
type Service interface {
	Create(ctx context.Context, zone *geofence.Zone) (*geofence.Zone, error)
	Get(ctx context.Context, zoneID id.GeofenceID) (*geofence.Zone, error)
	Update(ctx context.Context, zone *geofence.Zone) (*geofence.Zone, error)
	Delete(ctx context.Context, zoneID id.GeofenceID) error
	List(ctx context.Context) ([]*geofence.Zone, error)
	ClosestZone(ctx context.Context, point geo.Coordinate) (*geofence.Zone, error)
	Check(ctx context.Context, zoneID id.GeofenceID, point geo.Coordinate, at time.Time) (*geofence.CheckResult, error)
}

// Handler wires geofence endpoints to the geofence service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a geofence handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts geofence endpoints on the router. The caller is expected to
// have applied the auth middleware.
func (h *Handler) Register(r chi.Router) {
	r.Post("/geofences", h.HandleCreate)
	r.Get("/geofences", h.HandleList)
	r.Get("/geofences/closest", h.HandleClosest)
	r.Post("/geofences/check", h.HandleCheck)
	r.Get("/geofences/{id}", h.HandleGet)
	r.Put("/geofences/{id}", h.HandleUpdate)
	r.Delete("/geofences/{id}", h.HandleDelete)
}

// HandleCreate handles POST /geofences requests.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ZoneRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	zone, err := h.service.Create(ctx, req.ParsedZone())
	if err != nil {
		h.logger.ErrorContext(ctx, "zone creation failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, FromZone(zone))
}

// HandleList handles GET /geofences requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	zones, err := h.service.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "zone listing failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromZones(zones))
}

// HandleGet handles GET /geofences/{id} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	zoneID, err := id.ParseGeofenceID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	zone, err := h.service.Get(ctx, zoneID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromZone(zone))
}

// HandleUpdate handles PUT /geofences/{id} requests.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	zoneID, err := id.ParseGeofenceID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[ZoneRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	zone := req.ParsedZone()
	zone.ID = zoneID

	updated, err := h.service.Update(ctx, zone)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromZone(updated))
}

// HandleDelete handles DELETE /geofences/{id} requests.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	zoneID, err := id.ParseGeofenceID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Delete(ctx, zoneID); err != nil {
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleClosest handles GET /geofences/closest?lat=&lon= requests. The zone
// field is null when no zones are active.
func (h *Handler) HandleClosest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	point, err := parseCoordinateParams(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	zone, err := h.service.ClosestZone(ctx, point)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	resp := &ClosestResponse{}
	if zone != nil {
		distance := geo.DistanceMeters(zone.Center, point)
		resp.Zone = FromZone(zone)
		resp.DistanceMeters = &distance
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleCheck handles POST /geofences/check requests: an ad-hoc probe of one
// zone with a coordinate, optionally at a caller-supplied instant.
func (h *Handler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CheckRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	at, err := parseTimeParam(r.URL.Query().Get("at"), requestcontext.Now(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.Check(ctx, req.ParsedZoneID(), req.ParsedPoint(), at)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromCheckResult(result))
}

func parseCoordinateParams(r *http.Request) (geo.Coordinate, error) {
	lat, err := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil {
		return geo.Coordinate{}, dErrors.New(dErrors.CodeValidation, "lat query parameter is required")
	}
	lon, err := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if err != nil {
		return geo.Coordinate{}, dErrors.New(dErrors.CodeValidation, "lon query parameter is required")
	}
	point := geo.Coordinate{Lat: lat, Lon: lon}
	return point, point.Validate()
}
