package syncer

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/clinicalopez/dashboard-api/internal/source"
	"github.com/clinicalopez/dashboard-api/pkg/logging"
)

// Handler serves the sync endpoints.
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

// NewHandler creates a sync handler.
func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// Preview handles GET /api/sync.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	preview, err := h.svc.Preview(r.Context())
	if err != nil {
		h.respondError(w, err, "failed to build sync preview")
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

// Run handles POST /api/sync.
func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.Run(r.Context())
	if err != nil {
		h.respondError(w, err, "sync failed")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) respondError(w http.ResponseWriter, err error, msg string) {
	if errors.Is(err, source.ErrNotConfigured) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
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
