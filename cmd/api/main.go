package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"transfers-exchange/internal/auth"
	"transfers-exchange/internal/billing"
	"transfers-exchange/internal/campaign"
	"transfers-exchange/internal/config"
	"transfers-exchange/internal/httpapi"
	"transfers-exchange/internal/identity"
	"transfers-exchange/internal/notify"
	"transfers-exchange/internal/reporting"
	"transfers-exchange/internal/wallet"
	"transfers-exchange/pkg/logger"
	"transfers-exchange/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	// Redis is optional: without it the per-buyer billing lock and daily-cap
	// counters fall back to in-process implementations.
	var limiter interface {
		billing.BuyerLocker
		billing.CapCounter
	}
	if cfg.RedisEnabled() {
		rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
		if err != nil {
			log.Error("redis init failed", "err", err)
			os.Exit(1)
		}
		defer rdb.Close()
		limiter = billing.NewRedisLimiter(rdb)
	} else {
		log.Warn("redis not configured; billing serialization is per-process only")
		limiter = billing.NewMemoryLimiter()
	}

	// Repositories
	userRepo := identity.NewPostgresRepo(db)
	notifyRepo := notify.NewPostgresRepo(db)
	ledgerRepo := wallet.NewPostgresRepo(db)
	campaignRepo := campaign.NewPostgresRepo(db)
	callRepo := billing.NewPostgresRepo(db)

	// Services
	sink := notify.NewSink(notifyRepo)
	users := identity.NewService(userRepo, sink, log)
	ledger := wallet.NewService(ledgerRepo, userRepo)
	campaigns := campaign.NewLifecycle(campaignRepo, userRepo, ledger, sink, log)
	calls := billing.NewService(callRepo, campaignRepo, ledger, sink, limiter, limiter, log)
	reports := reporting.NewService(callRepo, ledgerRepo)

	h := httpapi.Handlers{
		Auth:          authManager,
		Users:         users,
		Wallet:        ledger,
		Campaigns:     campaigns,
		Billing:       calls,
		Notifications: sink,
		Reports:       reports,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, h, auth.RequireAccessToken(authManager), db)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
