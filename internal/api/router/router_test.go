package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/clinicalopez/dashboard-api/internal/conversation"
)

type staticMessageStore struct {
	messages []conversation.Message
}

func (s *staticMessageStore) FetchAllMessages(ctx context.Context) ([]conversation.Message, error) {
	return s.messages, nil
}

func (s *staticMessageStore) FetchSessionMessages(ctx context.Context, sessionID string) ([]conversation.Message, error) {
	return nil, nil
}

func testRouter(secret string) http.Handler {
	store := &staticMessageStore{messages: []conversation.Message{
		{ID: 1, SessionID: "s1", Role: conversation.RoleHuman, Text: "hola"},
	}}
	svc := conversation.NewService(store, nil, nil, nil)
	return New(&Config{
		ConversationHandler: conversation.NewHandler(svc, nil),
		DashboardJWTSecret:  secret,
	})
}

func TestHealthEndpointIsPublic(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter("secret").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
}

func TestAPIRequiresAuth(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter("secret").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/conversations", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestAPIWithValidToken(t *testing.T) {
	claims := jwt.RegisteredClaims{
		Subject:   "dashboard-user",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/conversations", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	testRouter("secret").ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
}

func TestAPIOpenWithoutSecret(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter("").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/conversations", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
}
