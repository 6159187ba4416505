package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/quillworks/campaign-service/internal/platform/config"
	"github.com/quillworks/campaign-service/internal/platform/database"
	applogger "github.com/quillworks/campaign-service/internal/platform/logger"
	"github.com/quillworks/campaign-service/internal/platform/messagebroker"
	"github.com/quillworks/campaign-service/internal/platform/ratelimit"

	"github.com/quillworks/campaign-service/internal/campaign_service/app"
	"github.com/quillworks/campaign-service/internal/campaign_service/repository/postgres"
	transport "github.com/quillworks/campaign-service/internal/campaign_service/transport/http"
)

const (
	serviceName     = "campaign-service"
	shutdownTimeout = 10 * time.Second
)

func main() {
	mainCtx, mainCancel := context.WithCancel(context.Background())
	defer mainCancel()

	cfg, err := config.Load(serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := applogger.New(serviceName, cfg.LogLevel)
	log.Info("Starting service...")

	dbPool, err := database.NewPostgresPool(mainCtx, cfg.PostgresDSN, log)
	if err != nil {
		log.Error("Failed to initialize database connection pool", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	natsClient, err := messagebroker.NewNATSClient(cfg.NATSUrl, serviceName, log)
	if err != nil {
		log.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer natsClient.Close()

	redisClient, err := ratelimit.NewRedisClient(mainCtx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	limiter := ratelimit.NewRedisLimiter(redisClient, ratelimit.Config{
		Requests: cfg.RateLimitRequests,
		Window:   cfg.RateLimitWindow,
	}, log)

	campaignRepo := postgres.NewPgCampaignRepository(dbPool, log)
	attemptRepo := postgres.NewPgDeliveryAttemptRepository(dbPool, log)

	lifecycle := app.NewLifecycleService(campaignRepo, attemptRepo, log)
	retry := app.NewRetryCoordinator(campaignRepo, attemptRepo, natsClient, cfg.RetryMaxAttempts, log)
	runner := app.NewSchedulerRunner(campaignRepo, natsClient, app.RunnerConfig{
		BatchSize: cfg.SchedulerBatchSize,
	}, log)

	validate := validator.New()
	campaignHandler := transport.NewCampaignHandler(lifecycle, retry, log, validate)
	schedulerHandler := transport.NewSchedulerHandler(runner, log)
	router := transport.NewRouter(campaignHandler, schedulerHandler, transport.RouterConfig{
		JWTAccessSecret: cfg.JWTAccessSecret,
		Limiter:         limiter,
	}, log)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	g, groupCtx := errgroup.WithContext(mainCtx)

	// Periodic scheduler trigger. The runner itself owns no timer; this
	// ticker and the manual endpoint both just call Run.
	g.Go(func() error {
		log.Info("Starting scheduler ticker", "polling_interval", cfg.SchedulerPollingInterval)
		ticker := time.NewTicker(cfg.SchedulerPollingInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				summary, runErr := runner.Run(groupCtx)
				if runErr != nil {
					log.ErrorContext(groupCtx, "Scheduler run failed, stopping", "error", runErr)
					return runErr
				}
				if summary.Started > 0 || len(summary.Errors) > 0 {
					log.InfoContext(groupCtx, "Scheduler pass finished",
						"checked", summary.Checked, "started", summary.Started,
						"completed", summary.Completed, "errors", len(summary.Errors))
				}
			case <-groupCtx.Done():
				log.Info("Scheduler ticker stopping")
				return groupCtx.Err()
			}
		}
	})

	g.Go(func() error {
		log.Info("Starting HTTP server", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("Shutting down HTTP server...")
		return httpServer.Shutdown(shutdownCtx)
	})

	log.Info("Service components initialized. Service is ready.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Received termination signal", "signal", sig.String())
	case <-groupCtx.Done():
		log.Error("A critical component failed, initiating shutdown")
	}

	mainCancel()

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Error during shutdown", "error", err)
	}

	log.Info("Service shutdown complete.")
}
