package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"birthday_notification_service/internal/app"
	iclock "birthday_notification_service/internal/infra/clock"
	"birthday_notification_service/internal/infra/config"
	idb "birthday_notification_service/internal/infra/database"
	"birthday_notification_service/internal/infra/httpapi"
	"birthday_notification_service/internal/infra/logger"
	"birthday_notification_service/internal/infra/scheduler"
	"birthday_notification_service/internal/infra/webhook"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("FATAL: Could not load application configuration: %v", err)
	}

	logger.Init(cfg)
	log := logger.Log
	log.Infof("Configuration loaded. LogLevel: %s, Environment: %s, TargetHour: %d", cfg.LogLevel, cfg.Environment, cfg.TargetHour)

	// Initialize Database Connection
	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to database: %v", err)
	}
	defer db.Close()
	log.Info("Database connection established successfully.")

	if err := idb.ApplyMigrations(db); err != nil {
		log.Fatalf("FATAL: Could not apply database migrations: %v", err)
	}
	log.Info("Database migrations applied.")

	// Initialize Repositories
	userRepo := idb.NewPostgresUserRepository(db)
	ledger := idb.NewPostgresMessageLedger(db)

	// Delivery path: webhook client wrapped with the in-call retry loop.
	deliveryClient := webhook.NewClient(cfg.WebhookURL, cfg.DeliveryTimeout)
	sender := app.NewSender(deliveryClient, app.RetryPolicy{
		MaxRetries: cfg.DeliveryMaxRetries,
		BaseDelay:  cfg.BackoffBaseDelay,
	}, logger.Component("sender"))

	clk := iclock.NewSystemClock()

	engine := app.NewSchedulerEngine(userRepo, ledger, sender, clk, logger.Component("scheduler_engine"), app.SchedulerEngineConfig{
		TargetHour:       cfg.TargetHour,
		RetryMaxAttempts: cfg.RetryMaxAttempts,
		RetryRecencyDays: cfg.RetryRecencyDays,
	})

	// Recover birthdays missed during downtime before the timer starts.
	recovery := app.NewRecoveryRunner(userRepo, ledger, sender, clk, logger.Component("recovery"), cfg.RecoveryLookbackDays)
	if err := recovery.Run(context.Background()); err != nil {
		log.Errorf("Recovery pass failed: %v", err)
	}

	birthdayScheduler := scheduler.NewBirthdayScheduler(engine, logger.Component("scheduler"), cfg.ScanCronSpec)
	if err := birthdayScheduler.Start(); err != nil {
		log.Fatalf("FATAL: Could not start birthday scheduler: %v", err)
	}

	// User management API
	if cfg.Environment == "production" || cfg.Environment == "staging" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	httpapi.NewHandler(app.NewUserService(userRepo)).RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}
	go func() {
		log.Infof("HTTP server listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("FATAL: HTTP server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit // Block until a signal is received

	log.Info("Shutting down application...")
	birthdayScheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("HTTP server shutdown error: %v", err)
	}
	// db.Close() is handled by defer
	log.Info("Application shut down gracefully.")
}
