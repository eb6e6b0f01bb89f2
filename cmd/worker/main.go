package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/campusware/gatepass/internal/config"
	"github.com/campusware/gatepass/internal/repository/postgres"
	auditService "github.com/campusware/gatepass/internal/service/audit"
	"github.com/campusware/gatepass/internal/worker"
	"github.com/campusware/gatepass/pkg/logger"
	"github.com/campusware/gatepass/pkg/metrics"
)

const metricsAddr = ":9091"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(&logger.Config{
		Level:   logger.ParseLevel(cfg.Log.Level),
		Console: cfg.Log.Console,
	})

	hmacKey, err := cfg.Secrets.DecodeAuditHMACKey()
	if err != nil {
		log.Fatal(err, "invalid audit HMAC key")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	m := metrics.NewMetrics("gatepass_worker")
	auditSvc := auditService.NewService(postgres.NewAuditRepository(db), hmacKey, m, log)

	sweeper := worker.NewIntegritySweeper(auditSvc, m, log, cfg.Sweep)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sweeper.Start(ctx)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: metricsAddr, Handler: mux}
	go func() {
		log.Info("worker metrics listening", "addr", metricsAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err, "failed to start metrics server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down worker")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal(err, "metrics server forced to shutdown")
	}

	log.Info("worker exited properly")
}
