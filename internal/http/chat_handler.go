package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"support-bot/internal/llm"
	"support-bot/internal/service"
)

// ChatHandler mantiene dependencias para endpoints de sesiones y mensajes.
type ChatHandler struct {
	logger *zap.Logger
	chat   *service.ChatService
}

func NewChatHandler(logger *zap.Logger, chat *service.ChatService) *ChatHandler {
	return &ChatHandler{logger: logger, chat: chat}
}

// CreateSession maneja POST /api/chat/session.
func (h *ChatHandler) CreateSession(c *gin.Context) {
	userID := ""
	if claims, ok := GetAuthClaims(c); ok {
		userID = claims.UserID
	}

	session, err := h.chat.CreateSession(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("create session failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create session"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session_token": session.Token})
}

// GetSession maneja GET /api/chat/session/:token.
func (h *ChatHandler) GetSession(c *gin.Context) {
	session, err := h.chat.GetSession(c.Request.Context(), c.Param("token"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

// PostMessage maneja POST /api/chat/message.
func (h *ChatHandler) PostMessage(c *gin.Context) {
	var req struct {
		SessionToken string `json:"session_token"`
		Message      string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid post message request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	result, err := h.chat.HandleMessage(c.Request.Context(), req.SessionToken, req.Message)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// PostFeedback maneja POST /api/chat/feedback.
func (h *ChatHandler) PostFeedback(c *gin.Context) {
	var req struct {
		SessionToken string `json:"session_token" binding:"required"`
		Feedback     string `json:"feedback" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid feedback request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_token and feedback are required"})
		return
	}

	if err := h.chat.AttachFeedback(c.Request.Context(), req.SessionToken, req.Feedback); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// respondError traduce la taxonomia de errores del orquestador a codigos
// HTTP sin filtrar detalles internos.
func (h *ChatHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEmptyMessage),
		errors.Is(err, service.ErrMessageTooLong),
		errors.Is(err, service.ErrInvalidFeedback):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrNoAssistantMessage):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many messages, slow down"})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "session busy, retry"})
	case errors.Is(err, llm.ErrTimeout):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "assistant timed out, please try again"})
	case errors.Is(err, llm.ErrUnauthorized),
		errors.Is(err, llm.ErrQuotaExceeded),
		errors.Is(err, llm.ErrInvalidModel),
		errors.Is(err, llm.ErrUpstream):
		h.logger.Error("llm upstream failure", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "assistant unavailable, please try again"})
	default:
		h.logger.Error("chat request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
