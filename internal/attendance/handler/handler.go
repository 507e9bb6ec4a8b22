// Package handler wires the attendance endpoints to the decider service.
package handler

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"geoattend/internal/attendance"
	id "geoattend/pkg/domain"
	dErrors "geoattend/pkg/domain-errors"
	"geoattend/pkg/platform/httputil"
	"geoattend/pkg/requestcontext"
)

// maxBodyBytes bounds the raw payload a client may submit; the payload is
// stored verbatim alongside its hash.
const maxBodyBytes = 64 * 1024

// Service defines the interface for attendance operations.
type Service interface {
	CheckIn(ctx context.Context, event attendance.CheckinEvent) (*attendance.Record, error)
	Get(ctx context.Context, recordID id.AttendanceID) (*attendance.Record, error)
	History(ctx context.Context, userID id.UserID) ([]*attendance.Record, error)
	ListAll(ctx context.Context) ([]*attendance.Record, error)
}

// Handler wires attendance endpoints to the attendance service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an attendance handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts attendance endpoints on the router. The caller is expected
// to have applied the auth middleware.
func (h *Handler) Register(r chi.Router) {
	r.Post("/attendance/checkin", h.HandleCheckin)
	r.Get("/attendance/my-history", h.HandleMyHistory)
	r.Get("/attendance/all", h.HandleListAll)
	r.Get("/attendance/{id}", h.HandleGet)
}

// HandleCheckin handles POST /attendance/checkin requests.
func (h *Handler) HandleCheckin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	// The raw body is retained for hashing, so buffer it before decoding.
	rawBody, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "failed to read request body"))
		return
	}
	if len(rawBody) > maxBodyBytes {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "request body too large"))
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(rawBody))

	req, ok := httputil.DecodeAndPrepare[CheckinRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	event := attendance.CheckinEvent{
		UserID:         userID,
		Coordinate:     req.ParsedCoordinate(),
		AccuracyMeters: req.Accuracy,
		DeviceTime:     req.ParsedDeviceTime(),
		Method:         req.Method,
		RawPayload:     string(rawBody),
	}

	record, err := h.service.CheckIn(ctx, event)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeConflict) {
			h.logger.InfoContext(ctx, "duplicate check-in",
				"request_id", requestID,
				"user_id", userID,
			)
		} else {
			h.logger.ErrorContext(ctx, "check-in failed",
				"request_id", requestID,
				"user_id", userID,
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "check-in processed",
		"request_id", requestID,
		"user_id", userID,
		"status", record.Status,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusCreated, FromRecord(record))
}

// HandleMyHistory handles GET /attendance/my-history requests.
func (h *Handler) HandleMyHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	records, err := h.service.History(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load history",
			"request_id", requestcontext.RequestID(ctx),
			"user_id", userID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromRecords(records))
}

// HandleGet handles GET /attendance/{id} requests. Users can only read their
// own records; foreign records report not found rather than forbidden so
// record IDs are not probeable.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	recordID, err := id.ParseAttendanceID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	record, err := h.service.Get(ctx, recordID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if record.UserID != userID {
		httputil.WriteError(w, dErrors.Newf(dErrors.CodeNotFound, "attendance record %s not found", recordID))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromRecord(record))
}

// HandleListAll handles GET /attendance/all requests.
func (h *Handler) HandleListAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	records, err := h.service.ListAll(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list records",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromRecords(records))
}
