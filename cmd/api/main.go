package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"support-bot/internal/config"
	"support-bot/internal/db"
	"support-bot/internal/email"
	apihttp "support-bot/internal/http"
	"support-bot/internal/llm"
	"support-bot/internal/repository"
	"support-bot/internal/service"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	var (
		sessionRepo repository.SessionRepository
		faqRepo     repository.FaqRepository
		userRepo    repository.UserRepository
	)
	if cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, cfg)
		if err != nil {
			logger.Fatal("db connect", zap.Error(err))
		}
		defer pool.Close()
		sessionRepo = repository.NewPgSessionRepository(pool)
		faqRepo = repository.NewPgFaqRepository(pool)
		userRepo = repository.NewPgUserRepository(pool)
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory stores")
		sessionRepo = repository.NewMemorySessionRepository()
		faqRepo = repository.NewMemoryFaqRepository()
		userRepo = repository.NewMemoryUserRepository()
	}

	llmClient := llm.NewHTTPClient(
		cfg.LLMBaseURL,
		cfg.LLMAPIKey,
		cfg.LLMModel,
		time.Duration(cfg.LLMTimeoutMS)*time.Millisecond,
		logger,
	)

	matcher := service.NewKnowledgeMatcher(faqRepo)
	classifier := service.NewPhraseClassifier()
	chatSvc := service.NewChatService(logger, sessionRepo, matcher, llmClient, classifier)

	var (
		tokenStore  service.RefreshTokenStore
		redisClient *redis.Client
	)
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			tokenStore = service.NewRedisRefreshTokenStore(redisClient)
			chatSvc.WithRateLimiter(service.NewRedisRateLimiter(redisClient, time.Minute, 20))
		}
		cancel()
	}

	notifier := email.NewDisabledSender("email sender not configured")
	if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS)
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
		} else {
			notifier = sender
		}
	}
	if cfg.SupportNotifyEmail != "" {
		chatSvc.WithNotifier(notifier, cfg.SupportNotifyEmail)
	}

	jwtSvc := service.NewJWTServiceWithStore(
		cfg.JWTSecret,
		time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute,
		time.Duration(cfg.JWTRefreshTTLMinutes)*time.Minute,
		tokenStore,
	)
	if cfg.JWTSecret == "" {
		logger.Warn("jwt secret not configured")
	}

	faqSvc := service.NewFaqService(logger, faqRepo)
	userSvc := service.NewUserService(logger, userRepo)

	chatHandler := apihttp.NewChatHandler(logger, chatSvc)
	faqHandler := apihttp.NewFaqHandler(logger, faqSvc)
	adminHandler := apihttp.NewAdminHandler(logger, faqSvc, chatSvc)
	userHandler := apihttp.NewUserHandler(logger, userSvc, jwtSvc)
	router := apihttp.NewRouter(logger, jwtSvc, chatHandler, faqHandler, adminHandler, userHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
