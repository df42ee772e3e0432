package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"support-bot/internal/repository"
	"support-bot/internal/service"
)

// AdminHandler agrupa la superficie administrativa: CRUD de la base de
// conocimiento con auditoria, y gestion de sesiones escaladas.
type AdminHandler struct {
	logger *zap.Logger
	faqs   *service.FaqService
	chat   *service.ChatService
}

func NewAdminHandler(logger *zap.Logger, faqs *service.FaqService, chat *service.ChatService) *AdminHandler {
	return &AdminHandler{logger: logger, faqs: faqs, chat: chat}
}

type faqRequest struct {
	Question  string   `json:"question"`
	Answer    string   `json:"answer"`
	Tags      []string `json:"tags"`
	Category  string   `json:"category"`
	Published *bool    `json:"published"`
}

func (r faqRequest) toInput() service.FaqInput {
	return service.FaqInput{
		Question:  r.Question,
		Answer:    r.Answer,
		Tags:      r.Tags,
		Category:  r.Category,
		Published: r.Published,
	}
}

// ListFaqs maneja GET /api/admin/faqs con filtros y paginado.
func (h *AdminHandler) ListFaqs(c *gin.Context) {
	filter := repository.FaqFilter{
		Query:    c.Query("q"),
		Tag:      c.Query("tag"),
		Category: c.Query("category"),
		Limit:    queryInt(c, "per_page", 20),
	}
	page := queryInt(c, "page", 1)
	if page < 1 {
		page = 1
	}
	filter.Offset = (page - 1) * filter.Limit
	if published := c.Query("published"); published != "" {
		value := published == "true"
		filter.Published = &value
	}

	faqs, total, err := h.faqs.List(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("list faqs failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list faqs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":     faqs,
		"total":    total,
		"page":     page,
		"per_page": filter.Limit,
	})
}

// GetFaq maneja GET /api/admin/faqs/:id.
func (h *AdminHandler) GetFaq(c *gin.Context) {
	faq, err := h.faqs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondFaqError(c, err)
		return
	}
	c.JSON(http.StatusOK, faq)
}

// CreateFaq maneja POST /api/admin/faqs.
func (h *AdminHandler) CreateFaq(c *gin.Context) {
	var req faqRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	faq, err := h.faqs.Create(c.Request.Context(), req.toInput(), h.actorID(c))
	if err != nil {
		h.respondFaqError(c, err)
		return
	}
	c.JSON(http.StatusCreated, faq)
}

// UpdateFaq maneja PUT /api/admin/faqs/:id.
func (h *AdminHandler) UpdateFaq(c *gin.Context) {
	var req faqRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	faq, err := h.faqs.Update(c.Request.Context(), c.Param("id"), req.toInput(), h.actorID(c))
	if err != nil {
		h.respondFaqError(c, err)
		return
	}
	c.JSON(http.StatusOK, faq)
}

// SetFaqPublished maneja PATCH /api/admin/faqs/:id/publish.
func (h *AdminHandler) SetFaqPublished(c *gin.Context) {
	var req struct {
		Published *bool `json:"published" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Published == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "published must be boolean"})
		return
	}
	faq, err := h.faqs.SetPublished(c.Request.Context(), c.Param("id"), *req.Published, h.actorID(c))
	if err != nil {
		h.respondFaqError(c, err)
		return
	}
	c.JSON(http.StatusOK, faq)
}

// DeleteFaq maneja DELETE /api/admin/faqs/:id (borrado logico).
func (h *AdminHandler) DeleteFaq(c *gin.Context) {
	if err := h.faqs.SoftDelete(c.Request.Context(), c.Param("id"), h.actorID(c)); err != nil {
		h.respondFaqError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetFaqHistory maneja GET /api/admin/faqs/:id/history.
func (h *AdminHandler) GetFaqHistory(c *gin.Context) {
	history, err := h.faqs.History(c.Request.Context(), c.Param("id"), queryInt(c, "limit", 20))
	if err != nil {
		h.respondFaqError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}

// ListSessions maneja GET /api/admin/sessions.
func (h *AdminHandler) ListSessions(c *gin.Context) {
	sessions, err := h.chat.ListSessions(c.Request.Context(),
		c.Query("status"), queryInt(c, "per_page", 20), queryInt(c, "offset", 0))
	if err != nil {
		h.logger.Error("list sessions failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list sessions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// CloseSession maneja POST /api/admin/sessions/:token/close.
func (h *AdminHandler) CloseSession(c *gin.Context) {
	err := h.chat.CloseSession(c.Request.Context(), c.Param("token"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true})
	case errors.Is(err, service.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
	case errors.Is(err, service.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": "session already closed"})
	default:
		h.logger.Error("close session failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not close session"})
	}
}

func (h *AdminHandler) respondFaqError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrFaqInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrFaqNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "FAQ not found"})
	default:
		h.logger.Error("faq request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (h *AdminHandler) actorID(c *gin.Context) string {
	if claims, ok := GetAuthClaims(c); ok {
		return claims.UserID
	}
	return ""
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
