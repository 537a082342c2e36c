package conversation

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/clinicalopez/dashboard-api/internal/source"
	"github.com/clinicalopez/dashboard-api/pkg/logging"
)

// Handler serves the conversation endpoints.
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

// NewHandler creates a conversation handler.
func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// List handles GET /api/conversations.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListConversations(r.Context())
	if err != nil {
		h.respondError(w, err, "failed to list conversations")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Detail handles GET /api/conversations/{sessionID}.
func (h *Handler) Detail(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if decoded, err := url.PathUnescape(sessionID); err == nil {
		sessionID = decoded
	}
	if sessionID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing session id"})
		return
	}

	detail, err := h.svc.SessionDetail(r.Context(), sessionID)
	if err != nil {
		h.respondError(w, err, "failed to fetch conversation")
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *Handler) respondError(w http.ResponseWriter, err error, msg string) {
	if errors.Is(err, source.ErrNotConfigured) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "conversation log not configured"})
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
