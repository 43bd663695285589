package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/desert-paths/internal/config"
	"github.com/iliyamo/desert-paths/internal/database"
	"github.com/iliyamo/desert-paths/internal/handler"
	"github.com/iliyamo/desert-paths/internal/logger"
	"github.com/iliyamo/desert-paths/internal/middleware"
	"github.com/iliyamo/desert-paths/internal/payment"
	"github.com/iliyamo/desert-paths/internal/queue"
	"github.com/iliyamo/desert-paths/internal/repository"
	"github.com/iliyamo/desert-paths/internal/router"
	"github.com/iliyamo/desert-paths/internal/service"
)

func main() {
	cfg := config.Load()
	logCfg := config.LoadLogConfig()
	log := logger.New(logger.Config{Level: logCfg.Level, Format: logCfg.Format, Service: "desert-paths"})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal("database open failed", "err", err)
	}
	defer func() { _ = db.Close() }()

	rdb := config.NewRedisClient(ctx)
	if rdb == nil {
		log.Warn("redis unavailable; rate limiting and caching disabled")
	} else {
		defer func() { _ = rdb.Close() }()
	}

	payCfg := config.LoadPaymentConfig()
	var (
		gateway payment.Gateway
		isMock  bool
	)
	switch payCfg.Provider {
	case config.ProviderPayTabs:
		gateway = payment.NewPayTabsGateway(payCfg, log)
	default:
		gateway = payment.NewMockGateway(payment.NewMockStore())
		isMock = true
	}
	log.Info("payment gateway selected", "provider", gateway.Name())

	qCfg := config.LoadQueueConfig()
	var events service.EventPublisher
	if qCfg.Enabled {
		events = queue.NewPublisher(qCfg.URL, qCfg.Queue, log)
		if qCfg.ConsumeLog {
			consumer := queue.NewConsumer(qCfg.URL, qCfg.Queue, qCfg.BookingLog, log)
			go func() {
				if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					log.Error("booking log consumer stopped", "err", err)
				}
			}()
		}
	}

	bookingRepo := repository.NewBookingRepo(db)
	reviewRepo := repository.NewReviewRepo(db)
	catalogRepo := repository.NewCatalogRepo(db)
	userRepo := repository.NewUserRepo(db)

	bookings := service.NewBookingService(service.BookingDeps{
		Bookings: bookingRepo,
		Payments: repository.NewPaymentRepo(db),
		Reviews:  reviewRepo,
		Catalog:  catalogRepo,
		Users:    userRepo,
		Stats:    repository.NewStatsRepo(db),
		Gateway:  gateway,
		Events:   events,
		Log:      log,
		Currency: payCfg.Currency,
	})
	reviews := service.NewReviewService(reviewRepo, bookingRepo, catalogRepo, log, nil)
	catalog := service.NewCatalogService(catalogRepo, reviewRepo, log)
	users := service.NewUserService(userRepo, log)

	cacheCfg := config.LoadCacheConfig()
	if rdb != nil {
		catalog.OnChange = func(ctx context.Context) {
			middleware.PurgeCache(ctx, rdb, cacheCfg.Prefix, log)
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger(log))
	e.Use(echomw.Recover())

	router.Register(e, router.Deps{
		JWTSecret:   cfg.JWTSecret,
		MockGateway: isMock,
		DB:          db,
		Redis:       rdb,
		RateLimit:   config.LoadRateLimitConfig(),
		Cache:       cacheCfg,
		Log:         log,
		Auth:        handler.NewAuthHandler(cfg, userRepo, repository.NewTokenRepo(db), log),
		Catalog:     handler.NewCatalogHandler(catalog, reviews, log),
		Bookings:    handler.NewBookingHandler(bookings, reviews, cfg.PublicBaseURL, log),
		Payments:    handler.NewPaymentHandler(bookings, log),
		Admin:       handler.NewAdminHandler(bookings, reviews, catalog, users, log),
	})

	addr := ":" + cfg.Port
	go func() {
		log.Info("listening", "addr", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", "err", err)
	}
	log.Info("stopped")
}
