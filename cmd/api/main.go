package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"mood-journal/internal/chart"
	"mood-journal/internal/config"
	"mood-journal/internal/db"
	"mood-journal/internal/email"
	"mood-journal/internal/flutterwave"
	"mood-journal/internal/hf"
	apihttp "mood-journal/internal/http"
	"mood-journal/internal/repository"
	"mood-journal/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
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

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	userRepo := repository.NewPgUserRepository(pool)
	entryRepo := repository.NewPgEntryRepository(pool)
	paymentRepo := repository.NewPgPaymentRepository(pool)

	var classifier hf.Classifier
	hfClient := hf.NewHTTPClient(cfg.HFBaseURL, cfg.HFAPIKey, cfg.HFModel, zap.NewStdLog(logger))
	if hfClient.Enabled() {
		classifier = hfClient
	} else {
		logger.Warn("huggingface api key not configured; using keyword heuristic")
	}

	emailSender := email.NewDisabledSender("email sender not configured")
	if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS)
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
		} else {
			emailSender = sender
		}
	}

	refreshTTL := time.Duration(cfg.JWTRefreshTTLMinutes) * time.Minute
	var (
		entryLimiter service.RateLimiter
		otpLimiter   service.RateLimiter
		tokenStore   service.RefreshTokenStore
		redisClient  *redis.Client
	)
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			entryLimiter = service.NewRedisRateLimiter(redisClient, "entries:rl:", time.Minute, cfg.EntryRateLimitPerMinute)
			otpLimiter = service.NewRedisRateLimiter(redisClient, "otp:rl:", 10*time.Minute, 5)
			tokenStore = service.NewRedisRefreshTokenStore(redisClient, refreshTTL)
		}
		cancel()
	}
	if entryLimiter == nil {
		entryLimiter = service.NewMemoryRateLimiter(time.Minute, cfg.EntryRateLimitPerMinute)
	}
	jwtSvc := service.NewJWTServiceWithStore(
		cfg.JWTSecret,
		time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute,
		refreshTTL,
		tokenStore,
	)
	if cfg.JWTSecret == "" {
		logger.Warn("jwt secret not configured")
	}

	verifier := flutterwave.NewClient(cfg.FLWBaseURL, cfg.FLWSecretKey, nil)
	if cfg.FLWSecretKey == "" {
		logger.Warn("flutterwave secret key not configured; payment verification will fail")
	}

	userSvc := service.NewUserService(logger, userRepo, emailSender, otpLimiter)
	entrySvc := service.NewEntryService(logger, entryRepo, classifier, entryLimiter)
	exportSvc := service.NewExportService(userRepo, entryRepo)
	subSvc := service.NewSubscriptionService(logger, userRepo, paymentRepo, verifier, emailSender, service.SubscriptionConfig{
		Amount:        float64(cfg.SubscriptionAmount),
		Currency:      cfg.SubscriptionCurrency,
		DurationDays:  cfg.SubscriptionDurationDays,
		WebhookSecret: cfg.FLWWebhookSecret,
	})

	userHandler := apihttp.NewUserHandler(logger, userSvc, jwtSvc)
	entryHandler := apihttp.NewEntryHandler(logger, entrySvc, exportSvc)
	trendHandler := apihttp.NewTrendHandler(logger, entryRepo, cfg.ChartWidth, cfg.ChartHeight)
	glyphFont, err := chart.LoadGlyphFont(cfg.ChartGlyphFont)
	if err != nil {
		logger.Warn("chart glyph font not loaded; png trend renders without emoji", zap.Error(err))
	} else if glyphFont == nil {
		logger.Info("CHART_GLYPH_FONT not set; png trend renders without emoji")
	}
	trendHandler.WithGlyphFont(glyphFont)
	paymentHandler := apihttp.NewPaymentHandler(logger, subSvc)
	router := apihttp.NewRouter(logger, jwtSvc, userHandler, entryHandler, trendHandler, paymentHandler)

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
