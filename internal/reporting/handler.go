package reporting

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/clinicalopez/dashboard-api/internal/source"
	"github.com/clinicalopez/dashboard-api/pkg/logging"
)

// Handler serves the cross-source report endpoints.
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

// NewHandler creates a reporting handler.
func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// ServiceMetrics handles GET /api/service-metrics.
func (h *Handler) ServiceMetrics(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.ServiceMetrics(r.Context())
	if err != nil {
		h.respondError(w, err, "failed to build service metrics")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Stats handles GET /api/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		h.respondError(w, err, "failed to build dashboard stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Clients handles GET /api/clients.
func (h *Handler) Clients(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.Clients(r.Context())
	if err != nil {
		h.respondError(w, err, "failed to build client report")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// N8NMetrics handles GET /api/n8n-metrics.
func (h *Handler) N8NMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.svc.N8NMetrics(r.Context())
	if err != nil {
		h.respondError(w, err, "failed to build workflow metrics")
		return
	}
	writeJSON(w, http.StatusOK, metrics)
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
