// Command milklog-server starts the milk log HTTP server.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"milklog/internal/config"
	"milklog/internal/limiter"
	"milklog/internal/repository/postgres"
	"milklog/internal/schema"
	"milklog/internal/server/httpapi"
	"milklog/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main loads configuration, ensures the database schema, and serves HTTP
// until interrupted.
func main() {
	envFile := flag.String("env-file", "", "optional .env file path")
	flag.Parse()

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
	)

	cfg, err := config.Load(*envFile)
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.New(ctx, cfg.DB.DSN)
	if err != nil {
		logger.Fatal("postgres.New", zap.Error(err))
	}
	defer db.Close()

	if err := schema.Ensure(ctx, db.Pool, logger); err != nil {
		logger.Fatal("schema ensure", zap.Error(err))
	}

	recordRepo := postgres.NewRecordRepo(db)
	cowRepo := postgres.NewCowRepo(db)
	eventRepo := postgres.NewEventRepo(db)
	userRepo := postgres.NewUserRepo(db)

	lim := limiter.NewPG(db.Pool, cfg.Limiter.Window, cfg.Limiter.MaxFails, cfg.Limiter.BlockFor)

	authSvc := service.NewAuthService(userRepo, []byte(cfg.Auth.JWTSecret), cfg.Auth.AccessTTL, lim)
	recordSvc := service.NewRecordService(recordRepo)
	reportSvc := service.NewReportService(recordRepo, cfg.Pivot.DefaultWindow)
	cowSvc := service.NewCowService(cowRepo)
	eventSvc := service.NewEventService(eventRepo)
	adminSvc := service.NewAdminService(recordRepo, cowRepo, eventRepo)

	srv := httpapi.New(httpapi.Options{
		Log:         logger,
		Tokens:      authSvc,
		Auth:        authSvc,
		Records:     recordSvc,
		Reports:     reportSvc,
		Cows:        cowSvc,
		Events:      eventSvc,
		Admin:       adminSvc,
		CORSOrigins: cfg.Server.CORSOrigins,
	})

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Server.Port
		logger.Info("listening", zap.String("addr", addr))
		errCh <- srv.Listen(addr)
	}()

	select {
	case <-ctx.Done():
		done := make(chan struct{})
		go func() {
			_ = srv.Shutdown()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
		}
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}
