package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/iliyamo/hotel-pms-console/internal/calendar"
	"github.com/iliyamo/hotel-pms-console/internal/config"
	"github.com/iliyamo/hotel-pms-console/internal/dashboard"
	"github.com/iliyamo/hotel-pms-console/internal/database"
	"github.com/iliyamo/hotel-pms-console/internal/folio"
	"github.com/iliyamo/hotel-pms-console/internal/handler"
	"github.com/iliyamo/hotel-pms-console/internal/interaction"
	"github.com/iliyamo/hotel-pms-console/internal/logging"
	"github.com/iliyamo/hotel-pms-console/internal/middleware"
	"github.com/iliyamo/hotel-pms-console/internal/pmsapi"
	"github.com/iliyamo/hotel-pms-console/internal/queue"
	"github.com/iliyamo/hotel-pms-console/internal/repository"
	"github.com/iliyamo/hotel-pms-console/internal/router"
	"github.com/iliyamo/hotel-pms-console/internal/service"
	"github.com/iliyamo/hotel-pms-console/internal/telemetry"
)

const serviceName = "pms-console"

func main() {
	cfg := config.Load()
	logger, err := logging.New(cfg.IsProd(), cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	shutdownTelemetry := telemetry.Setup(serviceName, logger)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTelemetry(ctx)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pms, err := pmsapi.New(pmsapi.Options{
		BaseURL:         cfg.PMSBaseURL,
		ServiceToken:    cfg.PMSServiceToken,
		Timeout:         cfg.PMSTimeout,
		MutationTimeout: cfg.PMSMutationTimeout,
		Logger:          logger,
	})
	if err != nil {
		logger.Fatal("pms client", zap.Error(err))
	}

	deliverer := &queue.Deliverer{
		Sink:        pms,
		MaxAttempts: cfg.AuditMaxAttempts,
		BaseBackoff: cfg.AuditBackoff,
		Log:         logger,
	}
	var auditAdmin *handler.AuditHandler
	if cfg.DatabaseEnabled() {
		db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			logger.Warn("mysql unavailable, undeliverable audit entries will only be logged", zap.Error(err))
		} else {
			defer db.Close()
			deadLetters := repository.NewAuditDeadLetterRepo(db)
			if err := deadLetters.EnsureSchema(ctx); err != nil {
				logger.Fatal("audit dead letter schema", zap.Error(err))
			}
			deliverer.DeadLetters = deadLetters
			auditAdmin = handler.NewAuditHandler(deadLetters, deliverer)
		}
	}

	memQueue := queue.NewMemoryQueue(cfg.AuditMemoryBuffer, deliverer, logger)
	memQueue.Start(ctx, 1)
	var auditor interaction.Auditor = memQueue
	if cfg.RabbitURL != "" {
		publisher := service.NewAuditPublisher(service.PublisherOptions{
			URL:      cfg.RabbitURL,
			Queue:    cfg.AuditQueue,
			Buffer:   cfg.AuditMemoryBuffer,
			Fallback: memQueue,
		}, logger.Named("audit-publisher"))
		publisher.Start(ctx)
		defer publisher.Wait()
		auditor = publisher
		go func() {
			if err := queue.StartAuditConsumer(ctx, cfg.RabbitURL, cfg.AuditQueue, deliverer, logger); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("audit consumer stopped", zap.Error(err))
			}
		}()
		logger.Info("audit queue: rabbitmq", zap.String("queue", cfg.AuditQueue))
	} else {
		logger.Info("audit queue: in-process")
	}

	sessions := calendar.NewRegistry(ctx, pms, auditor, calendar.Options{
		DefaultDays:    cfg.DefaultDays,
		PollInterval:   cfg.PollInterval,
		FeedSize:       cfg.NoticeFeedSize,
		RoomPageSize:   cfg.RoomPageSize,
		RoomMaxPages:   cfg.RoomMaxPages,
		BookingLimit:   cfg.BookingLimit,
		BookingPadDays: cfg.BookingPadDays,
		GuestLimit:     cfg.GuestLimit,
		CompanyLimit:   cfg.CompanyLimit,
		Pricing:        interaction.ParsePricingMode(cfg.PricingMode),
	}, cfg.SessionIdleTTL, logger)
	janitorDone := make(chan struct{})
	go func() {
		defer close(janitorDone)
		sessions.RunJanitor(ctx, time.Minute)
	}()

	rdb := config.NewRedisClient()
	if rdb == nil {
		logger.Info("redis unavailable, cache and rate limiter disabled")
	} else {
		defer rdb.Close()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger(logger))
	router.Register(e, router.Deps{
		JWTSecret: cfg.JWTSecret,
		Calendar:  handler.NewCalendarHandler(sessions, logger),
		Dashboard: handler.NewDashboardHandler(dashboard.NewService(pms, cfg.DashboardLimit, logger)),
		Folio:     handler.NewFolioHandler(folio.NewService(pms, logger)),
		Audit:     auditAdmin,
		Cache:     config.LoadCacheConfig(),
		RateLimit: config.LoadRateLimitConfig(),
		Redis:     rdb,
		Log:       logger,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           otelhttp.NewHandler(e, serviceName),
		ReadHeaderTimeout: 10 * time.Second,
		// Mutations may wait PMS_API_MUTATION_TIMEOUT and then reload.
		WriteTimeout: cfg.PMSMutationTimeout + cfg.PMSTimeout,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("listening", zap.String("addr", server.Addr), zap.String("env", cfg.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown error", zap.Error(err))
	}
	<-janitorDone
	memQueue.Wait()
}
