package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adminHandler "github.com/campusware/gatepass/internal/handler/admin"
	appointmentHandler "github.com/campusware/gatepass/internal/handler/appointment"
	auditHandler "github.com/campusware/gatepass/internal/handler/audit"
	authHandler "github.com/campusware/gatepass/internal/handler/auth"
	departmentHandler "github.com/campusware/gatepass/internal/handler/department"
	permissionHandler "github.com/campusware/gatepass/internal/handler/permission"

	"github.com/campusware/gatepass/internal/config"
	"github.com/campusware/gatepass/internal/email"
	"github.com/campusware/gatepass/internal/middleware"
	"github.com/campusware/gatepass/internal/repository/postgres"
	"github.com/campusware/gatepass/internal/router"
	appointmentService "github.com/campusware/gatepass/internal/service/appointment"
	auditService "github.com/campusware/gatepass/internal/service/audit"
	credentialService "github.com/campusware/gatepass/internal/service/credential"
	passService "github.com/campusware/gatepass/internal/service/pass"
	permissionService "github.com/campusware/gatepass/internal/service/permission"
	"github.com/campusware/gatepass/pkg/auth"
	"github.com/campusware/gatepass/pkg/crypto"
	"github.com/campusware/gatepass/pkg/logger"
	"github.com/campusware/gatepass/pkg/metrics"
)

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

	sm4Key, err := cfg.Secrets.DecodeSM4Key()
	if err != nil {
		log.Fatal(err, "invalid SM4 key")
	}
	sm4IV, err := cfg.Secrets.DecodeSM4IV()
	if err != nil {
		log.Fatal(err, "invalid SM4 IV")
	}
	vault, err := crypto.NewVault(sm4Key, sm4IV)
	if err != nil {
		log.Fatal(err, "failed to initialize vault")
	}
	hmacKey, err := cfg.Secrets.DecodeAuditHMACKey()
	if err != nil {
		log.Fatal(err, "invalid audit HMAC key")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	adminRepo := postgres.NewAdminRepository(db)
	permRepo := postgres.NewPermissionRepository(db)
	auditRepo := postgres.NewAuditRepository(db)
	apptRepo := postgres.NewAppointmentRepository(db)
	deptRepo := postgres.NewDepartmentRepository(db)

	m := metrics.NewMetrics("gatepass")

	auditSvc := auditService.NewService(auditRepo, hmacKey, m, log)
	notifier := email.NewService(cfg.SMTP, log)
	credentialSvc := credentialService.NewService(adminRepo, auditSvc, notifier, m, log)
	permissionSvc := permissionService.NewService(adminRepo, permRepo, auditSvc, m, log)
	passSvc := passService.NewService(0)
	appointmentSvc := appointmentService.NewService(apptRepo, permissionSvc, auditSvc, vault, cfg.Masking.Policy(), log)

	tokens := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.RefreshSecret, cfg.JWT.Expiry, cfg.JWT.RefreshExpiry)
	authMiddleware := middleware.NewAuthMiddleware(tokens)

	r := router.NewRouter(
		authMiddleware,
		authHandler.NewHandler(credentialSvc, auditSvc, tokens, m, log),
		adminHandler.NewHandler(credentialSvc),
		permissionHandler.NewHandler(permissionSvc, m),
		auditHandler.NewHandler(auditSvc, m),
		appointmentHandler.NewHandler(appointmentSvc, passSvc, m),
		departmentHandler.NewHandler(deptRepo),
		m,
		cfg.RateLimit,
	)
	r.Setup()

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        r.Engine(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		log.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err, "failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal(err, "server forced to shutdown")
	}

	log.Info("server exited properly")
}
