package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	bankingapp "github.com/moneta/backend/internal/application/banking"
	identityapp "github.com/moneta/backend/internal/application/identity"
	ledgerapp "github.com/moneta/backend/internal/application/ledger"
	liabilityapp "github.com/moneta/backend/internal/application/liability"
	scheduleapp "github.com/moneta/backend/internal/application/schedule"
	domainbanking "github.com/moneta/backend/internal/domain/banking"
	domainidentity "github.com/moneta/backend/internal/domain/identity"
	"github.com/moneta/backend/internal/infrastructure/auth"
	infrabanking "github.com/moneta/backend/internal/infrastructure/banking"
	"github.com/moneta/backend/internal/infrastructure/cache"
	"github.com/moneta/backend/internal/infrastructure/config"
	"github.com/moneta/backend/internal/infrastructure/logger"
	"github.com/moneta/backend/internal/infrastructure/mail"
	"github.com/moneta/backend/internal/infrastructure/persistence"
	"github.com/moneta/backend/internal/infrastructure/scheduler"
	"github.com/moneta/backend/internal/infrastructure/storage"
	"github.com/moneta/backend/internal/interfaces/http/handler"
	"github.com/moneta/backend/internal/interfaces/http/middleware"
	"github.com/moneta/backend/internal/interfaces/http/router"
)

const version = "1.0.0"

// replayGuardTTL bounds how long webhook delivery keys are remembered.
// SaltEdge stops retrying failed callbacks within a day.
const replayGuardTTL = 24 * time.Hour

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Moneta Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Redis backs the token store, the token rate limiter and the webhook
	// replay guard. When it is unreachable the in-memory fallbacks keep a
	// single-node deployment working.
	var redisClient *redis.Client
	var tokenStore domainidentity.TokenStore
	var tokenRateLimiter domainidentity.RateLimiter
	var replayGuard domainbanking.ReplayGuard

	redisClient, err = cache.NewRedisClient(cfg.Redis)
	if err != nil {
		log.Warn("Redis unavailable, using in-memory stores", zap.Error(err))
		redisClient = nil
		tokenStore = cache.NewInMemoryTokenStore()
		tokenRateLimiter = cache.NewInMemoryRateLimiter()
		replayGuard = cache.NewInMemoryReplayGuard(replayGuardTTL)
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing redis client", zap.Error(err))
			}
		}()
		tokenStore = cache.NewRedisTokenStore(redisClient)
		tokenRateLimiter = cache.NewRedisRateLimiter(redisClient)
		replayGuard = cache.NewRedisReplayGuard(redisClient, replayGuardTTL)
		log.Info("Redis connected successfully")
	}

	// Initialize repositories
	userRepo := persistence.NewGormUserRepository(db.DB)
	accountRepo := persistence.NewGormAccountRepository(db.DB)
	categoryRepo := persistence.NewGormCategoryRepository(db.DB)
	txnRepo := persistence.NewGormTransactionRepository(db.DB)
	scheduleRepo := persistence.NewGormScheduledTransactionRepository(db.DB)
	liabilityRepo := persistence.NewGormLiabilityRepository(db.DB)
	connectionRepo := persistence.NewGormConnectionRepository(db.DB)
	bankCustomerRepo := persistence.NewGormBankingCustomerRepository(db.DB)

	// Outbound mail for verification and password-reset flows
	mailer := mail.NewMailer(cfg.Mail, log)

	// Identity services
	jwtService := auth.NewJWTService(cfg.JWT)
	verificationService := identityapp.NewVerificationService(
		userRepo, tokenStore, tokenRateLimiter, mailer, cfg.Token, cfg.App.BaseURL, log,
	)
	passwordResetService := identityapp.NewPasswordResetService(
		userRepo, tokenStore, tokenRateLimiter, mailer, cfg.Token, cfg.App.BaseURL, log,
	)
	authService := identityapp.NewAuthService(userRepo, jwtService, verificationService, log)

	// Receipt storage for transaction attachments
	var receiptStorage ledgerapp.ReceiptStorage
	switch cfg.Storage.Provider {
	case "s3":
		s3Storage, err := storage.NewS3ReceiptStorage(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize S3 receipt storage", zap.Error(err))
		}
		ensureCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		if err := s3Storage.EnsureBucket(ensureCtx); err != nil {
			log.Warn("Could not ensure receipt bucket", zap.Error(err))
		}
		cancel()
		receiptStorage = s3Storage
		log.Info("Receipt storage enabled", zap.String("bucket", cfg.Storage.Bucket))
	case "stub":
		receiptStorage = storage.NewStubReceiptStorage()
		log.Info("Receipt storage using stub provider")
	default:
		log.Info("Receipt attachments disabled, no storage provider configured")
	}

	// Ledger, schedule and liability services
	transactionService := ledgerapp.NewTransactionService(
		txnRepo, accountRepo, categoryRepo, receiptStorage, cfg.Storage.KeyPrefix, log,
	)
	scheduleService := scheduleapp.NewService(scheduleRepo, txnRepo, accountRepo, liabilityRepo, log)
	liabilityService := liabilityapp.NewService(liabilityRepo, accountRepo, scheduleRepo, log)

	// Open-banking integration, enabled only when SaltEdge is configured
	var bankingService *bankingapp.Service
	if cfg.SaltEdge.AppID != "" {
		seConfig := &infrabanking.SaltEdgeConfig{
			AppID:          cfg.SaltEdge.AppID,
			Secret:         cfg.SaltEdge.Secret,
			BaseURL:        cfg.SaltEdge.BaseURL,
			CallbackSecret: cfg.SaltEdge.CallbackSecret,
			RequestTimeout: cfg.SaltEdge.RequestTimeout,
			PageSize:       cfg.SaltEdge.PageSize,
		}
		if err := seConfig.LoadPrivateKey(cfg.SaltEdge.PrivateKeyPath); err != nil {
			log.Fatal("Failed to load SaltEdge private key", zap.Error(err))
		}
		adapter, err := infrabanking.NewSaltEdgeAdapter(seConfig, log)
		if err != nil {
			log.Fatal("Failed to initialize SaltEdge adapter", zap.Error(err))
		}
		bankingService = bankingapp.NewService(
			adapter, adapter, bankCustomerRepo, connectionRepo, accountRepo, txnRepo, replayGuard, log,
		)
		log.Info("Open banking enabled", zap.String("base_url", cfg.SaltEdge.BaseURL))
	} else if cfg.App.Env != "production" {
		// No SaltEdge credentials outside production: serve demo data from
		// the in-memory provider so the linking flow works locally.
		mockProvider := infrabanking.NewMockProvider()
		bankingService = bankingapp.NewService(
			mockProvider, mockProvider, bankCustomerRepo, connectionRepo, accountRepo, txnRepo, replayGuard, log,
		)
		log.Info("Open banking using in-memory mock provider")
	} else {
		log.Info("Open banking disabled, SaltEdge is not configured")
	}

	// Background jobs: due-schedule sweep and bank connection sync
	if cfg.Scheduler.Enabled {
		cronScheduler := scheduler.NewCronScheduler(log)
		var syncer scheduler.BankSyncer
		if bankingService != nil {
			syncer = bankingService
		}
		if err := scheduler.RegisterJobs(cronScheduler, cfg.Scheduler, scheduleService, syncer, log); err != nil {
			log.Fatal("Failed to register scheduled jobs", zap.Error(err))
		}
		cronScheduler.Start(context.Background())
		defer func() {
			if err := cronScheduler.Stop(context.Background()); err != nil {
				log.Error("Error stopping scheduler", zap.Error(err))
			}
		}()
		log.Info("Scheduler started",
			zap.String("due_sweep", cfg.Scheduler.DueSweepSchedule),
			zap.String("bank_sync", cfg.Scheduler.BankSyncSchedule),
		)
	}

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Security - Add security headers
	// 5. CORS - Handle cross-origin requests
	// 6. BodyLimit - Limit request body size
	// 7. RateLimit - Apply rate limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Stricter per-client limit on the credential endpoints
	var authMiddlewares []gin.HandlerFunc
	if cfg.HTTP.AuthRateLimitEnabled {
		authLimiter := middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
		authMiddlewares = append(authMiddlewares, middleware.AuthRateLimit(authLimiter))
	}

	// Initialize HTTP handlers
	healthHandler := handler.NewHealthHandler(version).
		AddChecker("database", func(c *gin.Context) error {
			return db.Ping()
		})
	if redisClient != nil {
		healthHandler.AddChecker("redis", func(c *gin.Context) error {
			return redisClient.Ping(c.Request.Context()).Err()
		})
	}

	authHandler := handler.NewAuthHandler(authService, verificationService, passwordResetService, authMiddlewares...)
	transactionHandler := handler.NewTransactionHandler(transactionService)
	scheduleHandler := handler.NewScheduleHandler(scheduleService)
	liabilityHandler := handler.NewLiabilityHandler(liabilityService)

	// JWT authentication on all API routes except the public endpoints
	jwtConfig := middleware.DefaultJWTConfig(jwtService)
	jwtConfig.Logger = log

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	r.Register(healthHandler).
		Register(authHandler).
		Register(transactionHandler).
		Register(scheduleHandler).
		Register(liabilityHandler)

	if bankingService != nil {
		r.Register(handler.NewBankingHandler(bankingService, log))
	}

	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
