package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"support-bot/internal/service"
)

// FaqHandler expone la superficie publica de lectura de la base de
// conocimiento: solo entradas publicadas.
type FaqHandler struct {
	logger *zap.Logger
	faqs   *service.FaqService
}

func NewFaqHandler(logger *zap.Logger, faqs *service.FaqService) *FaqHandler {
	return &FaqHandler{logger: logger, faqs: faqs}
}

// ListPublished maneja GET /api/faqs.
func (h *FaqHandler) ListPublished(c *gin.Context) {
	faqs, err := h.faqs.ListPublished(c.Request.Context())
	if err != nil {
		h.logger.Error("list published faqs failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list faqs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"faqs": faqs})
}
