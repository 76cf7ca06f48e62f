package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/clinic-backoffice/internal/api/router"
	"github.com/wolfman30/clinic-backoffice/internal/appointments"
	appconfig "github.com/wolfman30/clinic-backoffice/internal/config"
	"github.com/wolfman30/clinic-backoffice/internal/http/handlers"
	"github.com/wolfman30/clinic-backoffice/internal/inventory"
	"github.com/wolfman30/clinic-backoffice/internal/ledger"
	"github.com/wolfman30/clinic-backoffice/internal/observability/metrics"
	"github.com/wolfman30/clinic-backoffice/internal/patients"
	"github.com/wolfman30/clinic-backoffice/internal/scheduling"
	"github.com/wolfman30/clinic-backoffice/internal/workbook"
	"github.com/wolfman30/clinic-backoffice/pkg/logging"
)

func main() {
	// Local development convenience; the file is absent in production.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting clinic-backoffice API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"storage_root", cfg.StorageRoot,
	)

	if err := os.MkdirAll(cfg.StorageRoot, 0o755); err != nil {
		logger.Error("failed to create storage root", "error", err, "path", cfg.StorageRoot)
		os.Exit(1)
	}

	store := workbook.NewStore(logger, metrics.NewStoreMetrics(nil))

	var cache *patients.Cache
	if cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		cache = patients.NewCache(redis.NewClient(opts))
		logger.Info("patient directory cache enabled", "addr", cfg.RedisAddr)
	}

	windows := appointments.StaticWindows{
		Default: scheduling.Window{
			Start:        cfg.SlotWindowStart,
			End:          cfg.SlotWindowEnd,
			IntervalMins: cfg.SlotIntervalMins,
		},
	}

	patientsSvc := patients.NewService(store, cache, logger)
	apptSvc := appointments.NewService(store, windows, metrics.NewSchedulingMetrics(nil), logger)
	ledgerSvc := ledger.NewService(store, logger)
	inventorySvc := inventory.NewService(store, logger)

	r := router.New(&router.Config{
		Logger:             logger,
		Patients:           handlers.NewPatientsHandler(patientsSvc, cfg.StorageRoot, logger),
		Appointments:       handlers.NewAppointmentsHandler(apptSvc, cfg.StorageRoot, logger),
		Ledger:             handlers.NewLedgerHandler(ledgerSvc, cfg.StorageRoot, logger),
		Inventory:          handlers.NewInventoryHandler(inventorySvc, cfg.StorageRoot, logger),
		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited")
}
