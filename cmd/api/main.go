package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/josh-kwaku/swift-payment-portal/api"
	"github.com/josh-kwaku/swift-payment-portal/internal/config"
	"github.com/josh-kwaku/swift-payment-portal/internal/fieldcrypt"
	"github.com/josh-kwaku/swift-payment-portal/internal/handler"
	"github.com/josh-kwaku/swift-payment-portal/internal/logging"
	"github.com/josh-kwaku/swift-payment-portal/internal/metrics"
	"github.com/josh-kwaku/swift-payment-portal/internal/middleware"
	"github.com/josh-kwaku/swift-payment-portal/internal/migrate"
	"github.com/josh-kwaku/swift-payment-portal/internal/mt103"
	"github.com/josh-kwaku/swift-payment-portal/internal/repository"
	"github.com/josh-kwaku/swift-payment-portal/internal/server"
	"github.com/josh-kwaku/swift-payment-portal/internal/service"
	"github.com/josh-kwaku/swift-payment-portal/internal/service/payment"
	"github.com/josh-kwaku/swift-payment-portal/internal/store"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logging.Init("swift-payment-portal", cfg.LogLevel, cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	}, cfg.DBConnectAttempts)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.AutoMigrate {
		if err := migrate.Up(ctx, db, log); err != nil {
			log.Error("failed to apply migrations", "error", err)
			os.Exit(1)
		}
	}

	cipher, err := fieldcrypt.FromHex(cfg.DataKeyHex, cfg.AppEnv, log)
	if err != nil {
		log.Error("failed to initialise field cipher", "error", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(db, "payments"),
	)

	svc := payment.NewService(
		store.NewPostgres(db, cipher),
		mt103.NewEncoder(cfg.SenderBIC),
		repository.NewCustomerRepository(db),
		metrics.NewLifecycleMetrics(reg),
		cfg,
	)

	idempotencyRepo := repository.NewIdempotencyRepository(db)
	router := server.NewRouter(server.Deps{
		JWTSecret:   cfg.JWTSecret,
		Payments:    handler.NewPaymentHandler(svc),
		Health:      handler.NewHealthHandler(db, version),
		Idempotency: middleware.Idempotency(idempotencyRepo),
		Gatherer:    reg,
		OpenAPI:     api.OpenAPI,
	})

	go service.NewJanitor(idempotencyRepo, log, cfg.IdempotencyCleanInterval).Start(ctx)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("server started", "addr", addr, "version", version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
