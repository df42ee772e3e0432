package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"support-bot/internal/domain"
	"support-bot/internal/llm"
	"support-bot/internal/repository"
	"support-bot/internal/service"
)

func setupChatRouter(client llm.Client) (*gin.Engine, *repository.MemorySessionRepository) {
	gin.SetMode(gin.TestMode)
	sessions := repository.NewMemorySessionRepository()
	faqs := repository.NewMemoryFaqRepository()
	matcher := service.NewKnowledgeMatcher(faqs)
	chat := service.NewChatService(zap.NewNop(), sessions, matcher, client, service.NewPhraseClassifier())

	r := gin.New()
	h := NewChatHandler(zap.NewNop(), chat)
	r.POST("/api/chat/session", h.CreateSession)
	r.GET("/api/chat/session/:token", h.GetSession)
	r.POST("/api/chat/message", h.PostMessage)
	r.POST("/api/chat/feedback", h.PostFeedback)
	return r, sessions
}

func performRequest(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestChatHandlerPostMessage_Success(t *testing.T) {
	client := &llm.MockClient{Responses: []string{"hello there"}}
	r, _ := setupChatRouter(client)

	rec := performRequest(r, http.MethodPost, "/api/chat/message", map[string]string{
		"message": "where is my order?",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result service.ChatResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.SessionToken == "" || result.Reply != "hello there" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Status != domain.SessionStatusActive || result.Escalated {
		t.Fatalf("unexpected state: %+v", result)
	}
	if len(result.SuggestedNextActions) == 0 {
		t.Fatalf("expected suggested next actions")
	}
}

func TestChatHandlerPostMessage_MissingMessage(t *testing.T) {
	r, _ := setupChatRouter(&llm.MockClient{})

	rec := performRequest(r, http.MethodPost, "/api/chat/message", map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestChatHandlerPostMessage_GatewayTimeout(t *testing.T) {
	client := &llm.MockClient{Err: llm.ErrTimeout}
	r, sessions := setupChatRouter(client)

	rec := performRequest(r, http.MethodPost, "/api/chat/message", map[string]string{
		"session_token": "tok-1",
		"message":       "help",
	})
	if rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("expected status 504, got %d", rec.Code)
	}

	// El turno del usuario quedo confirmado a pesar del fallo del modelo.
	session, err := sessions.GetByToken(context.Background(), "tok-1")
	if err != nil {
		t.Fatalf("expected session persisted: %v", err)
	}
	if len(session.Messages) != 1 || session.Messages[0].Role != domain.RoleUser {
		t.Fatalf("expected only the user turn, got %+v", session.Messages)
	}
}

func TestChatHandlerPostMessage_UpstreamFailure(t *testing.T) {
	client := &llm.MockClient{Err: llm.ErrQuotaExceeded}
	r, _ := setupChatRouter(client)

	rec := performRequest(r, http.MethodPost, "/api/chat/message", map[string]string{
		"message": "help",
	})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d", rec.Code)
	}
}

func TestChatHandlerSessionLifecycle(t *testing.T) {
	client := &llm.MockClient{Responses: []string{"a reply"}}
	r, _ := setupChatRouter(client)

	rec := performRequest(r, http.MethodPost, "/api/chat/session", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rec.Code)
	}
	var created struct {
		SessionToken string `json:"session_token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.SessionToken == "" {
		t.Fatalf("expected session token")
	}

	rec = performRequest(r, http.MethodPost, "/api/chat/message", map[string]string{
		"session_token": created.SessionToken,
		"message":       "hello",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	rec = performRequest(r, http.MethodGet, "/api/chat/session/"+created.SessionToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var got struct {
		Session domain.Session `json:"session"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got.Session.Messages) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(got.Session.Messages))
	}
}

func TestChatHandlerGetSession_NotFound(t *testing.T) {
	r, _ := setupChatRouter(&llm.MockClient{})

	rec := performRequest(r, http.MethodGet, "/api/chat/session/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestChatHandlerPostFeedback(t *testing.T) {
	client := &llm.MockClient{Responses: []string{"a reply"}}
	r, _ := setupChatRouter(client)

	rec := performRequest(r, http.MethodPost, "/api/chat/message", map[string]string{
		"session_token": "tok-fb",
		"message":       "hello",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	rec = performRequest(r, http.MethodPost, "/api/chat/feedback", map[string]string{
		"session_token": "tok-fb",
		"feedback":      "up",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = performRequest(r, http.MethodPost, "/api/chat/feedback", map[string]string{
		"session_token": "tok-fb",
		"feedback":      "sideways",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for invalid feedback, got %d", rec.Code)
	}

	rec = performRequest(r, http.MethodPost, "/api/chat/feedback", map[string]string{
		"session_token": "missing",
		"feedback":      "down",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}
