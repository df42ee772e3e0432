package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"support-bot/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	jwtSvc *service.JWTService,
	chatH *ChatHandler,
	faqH *FaqHandler,
	adminH *AdminHandler,
	userH *UserHandler,
) *gin.Engine {
	r := gin.New()

	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())

	auth := r.Group("/api/auth")
	auth.POST("/signup", userH.Signup)
	auth.POST("/login", userH.Login)
	auth.POST("/refresh", userH.Refresh)

	// El chat funciona sin login; si hay token valido, la sesion queda
	// asociada al usuario.
	chat := r.Group("/api/chat")
	chat.Use(JWTAuthOptional(jwtSvc))
	chat.POST("/session", chatH.CreateSession)
	chat.GET("/session/:token", chatH.GetSession)
	chat.POST("/message", chatH.PostMessage)
	chat.POST("/feedback", chatH.PostFeedback)

	r.GET("/api/faqs", faqH.ListPublished)

	admin := r.Group("/api/admin")
	admin.Use(JWTAuthMiddleware(jwtSvc))
	admin.GET("/faqs", adminH.ListFaqs)
	admin.POST("/faqs", adminH.CreateFaq)
	admin.GET("/faqs/:id", adminH.GetFaq)
	admin.PUT("/faqs/:id", adminH.UpdateFaq)
	admin.PATCH("/faqs/:id/publish", adminH.SetFaqPublished)
	admin.DELETE("/faqs/:id", adminH.DeleteFaq)
	admin.GET("/faqs/:id/history", adminH.GetFaqHistory)
	admin.GET("/sessions", adminH.ListSessions)
	admin.POST("/sessions/:token/close", adminH.CloseSession)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
