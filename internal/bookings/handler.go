package bookings

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clinicalopez/dashboard-api/internal/calcom"
	"github.com/clinicalopez/dashboard-api/internal/source"
	"github.com/clinicalopez/dashboard-api/pkg/logging"
)

// Provider is the scheduling backend. *calcom.Client satisfies it.
type Provider interface {
	FetchAllBookings(ctx context.Context) ([]calcom.Booking, error)
	EventTypes(ctx context.Context) ([]calcom.EventType, error)
	FirstActiveEventType(ctx context.Context) (int64, error)
	AvailableSlots(ctx context.Context, eventTypeID int64, startTime, endTime string) (json.RawMessage, error)
	CreateBooking(ctx context.Context, req calcom.CreateBookingRequest) (json.RawMessage, error)
	CancelBooking(ctx context.Context, bookingID, reason string) error
	RescheduleBooking(ctx context.Context, bookingID, startTime, reason string) (json.RawMessage, error)
}

// Handler serves the booking management endpoints. provider may be nil when
// the scheduling backend is not configured; every endpoint then answers 503.
type Handler struct {
	provider Provider
	logger   *logging.Logger
}

// NewHandler creates a bookings handler.
func NewHandler(provider Provider, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{provider: provider, logger: logger.Component("bookings")}
}

// List handles GET /api/bookings. A partial fetch still returns the buckets
// that arrived.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		h.respondError(w, source.ErrNotConfigured, "")
		return
	}

	bookings, err := h.provider.FetchAllBookings(r.Context())
	if err != nil && len(bookings) == 0 {
		h.respondError(w, err, "failed to fetch bookings")
		return
	}
	if err != nil {
		h.logger.Warn("booking list is partial", "error", err, "bookings", len(bookings))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"bookings":    bookings,
		"total":       len(bookings),
		"lastUpdated": time.Now().UTC(),
	})
}

// EventTypes handles GET /api/bookings/event-types, hiding event types that
// are not bookable.
func (h *Handler) EventTypes(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		h.respondError(w, source.ErrNotConfigured, "")
		return
	}

	eventTypes, err := h.provider.EventTypes(r.Context())
	if err != nil {
		h.respondError(w, err, "failed to fetch event types")
		return
	}

	visible := make([]calcom.EventType, 0, len(eventTypes))
	for _, et := range eventTypes {
		if !et.Hidden {
			visible = append(visible, et)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"eventTypes": visible})
}

// Slots handles GET /api/bookings/slots. startTime and endTime are required;
// when no event type is given the first active one is used.
func (h *Handler) Slots(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		h.respondError(w, source.ErrNotConfigured, "")
		return
	}

	startTime := r.URL.Query().Get("startTime")
	endTime := r.URL.Query().Get("endTime")
	if startTime == "" || endTime == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "startTime and endTime are required"})
		return
	}

	eventTypeID, err := h.resolveEventType(r.Context(), r.URL.Query().Get("eventTypeId"))
	if err != nil {
		h.respondError(w, err, "failed to resolve event type")
		return
	}

	slots, err := h.provider.AvailableSlots(r.Context(), eventTypeID, startTime, endTime)
	if err != nil {
		h.respondError(w, err, "failed to fetch slots")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"slots": slots, "eventTypeId": eventTypeID})
}

// Create handles POST /api/bookings.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		h.respondError(w, source.ErrNotConfigured, "")
		return
	}

	var req calcom.CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name == "" || req.Email == "" || req.Phone == "" || req.StartTime == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name, email, phone and startTime are required"})
		return
	}

	if req.EventTypeID == 0 {
		id, err := h.provider.FirstActiveEventType(r.Context())
		if err != nil {
			h.respondError(w, err, "failed to resolve event type")
			return
		}
		req.EventTypeID = id
	}

	booking, err := h.provider.CreateBooking(r.Context(), req)
	if err != nil {
		h.respondError(w, err, "failed to create booking")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "booking": booking})
}

// Cancel handles POST /api/bookings/{bookingID}/cancel.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		h.respondError(w, source.ErrNotConfigured, "")
		return
	}

	bookingID := chi.URLParam(r, "bookingID")
	if bookingID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing booking id"})
		return
	}

	var body struct {
		Reason string `json:"reason"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	if err := h.provider.CancelBooking(r.Context(), bookingID, body.Reason); err != nil {
		h.respondError(w, err, "failed to cancel booking")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Reschedule handles POST /api/bookings/{bookingID}/reschedule.
func (h *Handler) Reschedule(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		h.respondError(w, source.ErrNotConfigured, "")
		return
	}

	bookingID := chi.URLParam(r, "bookingID")
	if bookingID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing booking id"})
		return
	}

	var body struct {
		StartTime string `json:"startTime"`
		Reason    string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.StartTime == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "startTime is required"})
		return
	}

	booking, err := h.provider.RescheduleBooking(r.Context(), bookingID, body.StartTime, body.Reason)
	if err != nil {
		h.respondError(w, err, "failed to reschedule booking")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "booking": booking})
}

func (h *Handler) resolveEventType(ctx context.Context, raw string) (int64, error) {
	if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
		return id, nil
	}
	return h.provider.FirstActiveEventType(ctx)
}

func (h *Handler) respondError(w http.ResponseWriter, err error, msg string) {
	if errors.Is(err, source.ErrNotConfigured) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "scheduling provider not configured"})
		return
	}
	h.logger.Error(msg, "error", err)
	writeJSON(w, http.StatusBadGateway, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
