package conversation

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(svc *Service) http.Handler {
	h := NewHandler(svc, nil)
	r := chi.NewRouter()
	r.Get("/api/conversations", h.List)
	r.Get("/api/conversations/{sessionID}", h.Detail)
	return r
}

func TestListHandler(t *testing.T) {
	svc := NewService(&fakeStore{messages: sampleMessages()}, nil, nil, nil)
	router := newTestRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/conversations", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Conversations []Conversation `json:"conversations"`
		Total         int            `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Total)
	require.NotEmpty(t, body.Conversations)
	assert.Equal(t, "Ana Lopez", body.Conversations[0].DisplayName)
}

func TestListHandlerNotConfigured(t *testing.T) {
	router := newTestRouter(NewService(nil, nil, nil, nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/conversations", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "not configured")
}

func TestDetailHandler(t *testing.T) {
	sessionID := "14075551234@s.whatsapp.net"
	store := &fakeStore{sessionMsgs: map[string][]Message{
		sessionID: {{ID: 1, SessionID: sessionID, Role: RoleHuman, Text: "hola"}},
	}}
	router := newTestRouter(NewService(store, nil, nil, nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/conversations/14075551234%40s.whatsapp.net", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var detail SessionDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Equal(t, sessionID, detail.SessionID)
	assert.Equal(t, 1, detail.TotalMessages)
}
