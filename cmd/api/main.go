package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/ledgerly/ledgerly-backend/internal/amqp"
	"github.com/ledgerly/ledgerly-backend/internal/config"
	"github.com/ledgerly/ledgerly-backend/internal/domain"
	"github.com/ledgerly/ledgerly-backend/internal/handler"
	"github.com/ledgerly/ledgerly-backend/internal/middleware"
	"github.com/ledgerly/ledgerly-backend/internal/repository/postgres"
	"github.com/ledgerly/ledgerly-backend/internal/repository/storage"
	"github.com/ledgerly/ledgerly-backend/internal/service"
	"github.com/ledgerly/ledgerly-backend/internal/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// @title Ledgerly API
// @version 1.0
// @description Personal finance ledger: expenses, incomes, spending limits, savings and reports.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Initialize zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Apply migrations before anything touches the schema
	if err := postgres.RunMigrations(cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Connect to database
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	// Verify database connection
	if err := pool.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Connected to database")

	// Initialize repositories
	expenseRepo := postgres.NewExpenseRepository(pool)
	incomeRepo := postgres.NewIncomeRepository(pool)
	categoryRepo := postgres.NewCategoryRepository(pool)
	incomeTypeRepo := postgres.NewIncomeTypeRepository(pool)
	limitRepo := postgres.NewSpendingLimitRepository(pool)
	savingsRepo := postgres.NewSavingsRepository(pool)
	snapshotRepo := postgres.NewSnapshotRepository(pool)

	// Object storage for receipts and backups is optional
	var objectStore storage.ObjectStore
	if cfg.S3.Enabled() {
		s3Store, err := storage.NewS3ObjectStore(ctx, cfg.S3)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create S3 object store")
		}
		objectStore = s3Store
		log.Info().Str("bucket", cfg.S3.Bucket).Msg("Object storage enabled")
	} else {
		log.Warn().Msg("S3_BUCKET not set, receipts and stored backups are disabled")
	}

	// Notifications go to connected websocket clients and, when configured, to the broker
	hub := websocket.NewHub()
	notifiers := service.MultiNotifier{websocket.NewNotifier(hub)}
	if cfg.AMQP.Enabled() {
		amqpClient, err := amqp.NewClient(cfg.AMQP.URL, cfg.AMQP.Exchange, cfg.AMQP.Queue, log.Logger)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to AMQP broker")
		}
		defer amqpClient.Close()
		notifiers = append(notifiers, amqp.NewNotifier(amqpClient, log.Logger))
		log.Info().Str("exchange", cfg.AMQP.Exchange).Msg("AMQP notifications enabled")
	}
	var notifier domain.Notifier = notifiers

	// Initialize services
	ledgerService := service.NewLedgerService(expenseRepo, categoryRepo, log.Logger)
	incomeService := service.NewIncomeService(incomeRepo, incomeTypeRepo, log.Logger)
	categoryService := service.NewCategoryService(categoryRepo, incomeTypeRepo, log.Logger)
	limitService := service.NewSpendingLimitService(limitRepo, expenseRepo, categoryRepo, notifier, log.Logger)
	savingsService := service.NewSavingsService(savingsRepo, log.Logger)
	reportService := service.NewReportService(expenseRepo, incomeRepo, limitService, savingsService, incomeService)
	receiptService := service.NewReceiptService(objectStore, ledgerService, log.Logger)
	backupService := service.NewBackupService(snapshotRepo, objectStore, limitService, savingsService, log.Logger)

	nearLimitRatio := decimal.NewFromFloat(cfg.NearLimitRatio)
	reportService.SetNearLimitRatio(nearLimitRatio)

	// Expense mutations keep limits and stored receipts in step
	ledgerService.AddObserver(limitService)
	ledgerService.AddObserver(receiptService)
	ledgerService.SetCategoryLocker(limitService)

	// Wire websocket event publishing into services
	ledgerService.SetEventPublisher(hub)
	incomeService.SetEventPublisher(hub)
	limitService.SetEventPublisher(hub)
	savingsService.SetEventPublisher(hub)
	backupService.SetEventPublisher(hub)

	if cfg.SeedDefaults {
		if err := categoryService.SeedDefaults(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to seed default categories")
		}
	}

	// Repair limit amounts that drifted while the service was down
	if repaired, err := limitService.Reconcile(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to reconcile spending limits")
	} else if repaired > 0 {
		log.Info().Int("repaired", repaired).Msg("Reconciled spending limits")
	}

	// Start reminder worker
	reminderWorker := service.NewReminderWorker(limitService, savingsService, incomeService, notifier, log.Logger, service.ReminderWorkerConfig{
		Interval: cfg.ReminderInterval,
		LeadDays: cfg.ReminderLeadDays,
	})
	reminderWorker.Start(ctx)
	defer reminderWorker.Stop()

	// Authentication is optional for local single-user setups
	var authMiddleware *middleware.AuthMiddleware
	var wsValidator websocket.TokenValidator
	if cfg.AuthEnabled() {
		authMiddleware, err = middleware.NewAuthMiddleware(cfg.Auth0Domain, cfg.Auth0Audience)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create auth middleware")
		}
		validator, err := websocket.NewAuth0JWTValidator(cfg.Auth0Domain, cfg.Auth0Audience)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create websocket token validator")
		}
		wsValidator = validator
	} else {
		log.Warn().Msg("AUTH0_DOMAIN not set, API is served without authentication")
	}

	rateLimiter := middleware.NewRateLimiterWithConfig(cfg.RateLimitPerMinute, cfg.RateLimitBurst)
	defer rateLimiter.Stop()

	// Initialize handlers
	handlers := handler.Handlers{
		Expense:  handler.NewExpenseHandler(ledgerService, reportService, receiptService),
		Income:   handler.NewIncomeHandler(incomeService),
		Category: handler.NewCategoryHandler(categoryService),
		Limit:    handler.NewLimitHandler(limitService, nearLimitRatio),
		Savings:  handler.NewSavingsHandler(savingsService),
		Report:   handler.NewReportHandler(reportService),
		Backup:   handler.NewBackupHandler(backupService),
	}
	wsHandler := handler.NewWebSocketHandler(hub, wsValidator, cfg.CORSOrigins)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = 15 * time.Second
	e.Server.WriteTimeout = 30 * time.Second

	// Request ID middleware
	e.Use(echomiddleware.RequestID())

	// CORS middleware
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Security headers middleware
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		HSTSMaxAge:         31536000,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}))

	// Request logging middleware with zerolog
	e.Use(zerologMiddleware())

	// Recovery middleware
	e.Use(echomiddleware.Recover())

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// API documentation
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.GET("/openapi.json", handler.ServeOpenAPI3Spec)

	// Live updates
	e.GET("/ws", wsHandler.HandleWS)

	// Register API routes
	handler.RegisterRoutes(e, authMiddleware, rateLimiter, handlers)

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	<-ctx.Done()

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	hub.CloseAll()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// zerologMiddleware returns a middleware that logs requests using zerolog
func zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			log.Info().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Dur("latency", time.Since(start)).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Msg("request")

			return nil
		}
	}
}
