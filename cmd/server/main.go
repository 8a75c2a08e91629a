package main // Entry point package

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

	"github.com/swiftseat/coach-booking/internal/config"
	"github.com/swiftseat/coach-booking/internal/database"
	"github.com/swiftseat/coach-booking/internal/handler"
	"github.com/swiftseat/coach-booking/internal/ledger"
	"github.com/swiftseat/coach-booking/internal/logger"
	"github.com/swiftseat/coach-booking/internal/middleware"
	"github.com/swiftseat/coach-booking/internal/queue"
	"github.com/swiftseat/coach-booking/internal/repository"
	"github.com/swiftseat/coach-booking/internal/router"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal("failed to connect to MySQL", "error", err)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatal("failed to apply schema", "error", err)
	}

	operators := repository.NewOperatorRepo(db)
	if created, err := operators.EnsureBootstrap(ctx, cfg.AdminEmail, cfg.AdminPassword, cfg.BcryptCost); err != nil {
		log.Fatal("failed to bootstrap operator", "error", err)
	} else if created {
		log.Info("bootstrap operator created", "email", cfg.AdminEmail)
	}

	amqpURL := config.AMQPURL()
	l := ledger.New(db, ledger.Options{
		Logger:    log.With("component", "ledger"),
		Publisher: queue.NewPublisher(amqpURL, log.With("component", "publisher")),
		Location:  cfg.OperatorTZ,
	})
	if cfg.SeedSample {
		if n, err := l.SeedSampleRoutes(ctx); err != nil {
			log.Error("seeding sample routes failed", "error", err)
		} else if n > 0 {
			log.Info("seeded sample routes", "count", n)
		}
	}

	rdb := config.NewRedisClient(ctx)
	if rdb == nil {
		log.Warn("redis unavailable, response cache and rate limit disabled")
	} else {
		defer rdb.Close()
	}
	cacheCfg := config.LoadCacheConfig()
	purger := middleware.NewCachePurger(cacheCfg, rdb)

	consumer := queue.NewConsumer(amqpURL, cfg.BookingLogDir, log.With("component", "consumer"))
	go func() {
		if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("booking consumer stopped", "error", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, operators, log.With("component", "auth")), cfg.JWTSecret)
	router.RegisterPublic(e,
		handler.NewPublicHandler(l, purger, log.With("component", "public")),
		middleware.NewRedisCache(cacheCfg, rdb),
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log.With("component", "ratelimit")),
	)
	router.RegisterAdmin(e, handler.NewAdminHandler(l, purger, log.With("component", "admin")), cfg.JWTSecret)

	addr := ":" + cfg.Port
	go func() {
		log.Info("listening", "addr", addr, "env", cfg.Env, "operator_tz", cfg.OperatorTZ.String())
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server error", "error", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info("received signal", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown error", "error", err)
	}
	cancel()
}
