// Command recurring-worker materializes standing monthly obligations into
// posted charge transactions on a cron schedule, publishes charge-posted
// events over AMQP, and serves Prometheus metrics.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"vaad/internal/amqp"
	"vaad/internal/api"
	"vaad/internal/config"
	applog "vaad/internal/log"
	"vaad/internal/metrics"
	"vaad/internal/session"
	"vaad/internal/worker"
)

func main() {
	// Load .env for local development; absence is fine.
	_ = godotenv.Load()

	cfg := config.Load()
	logger := applog.SetupText(cfg.LogLevel)

	logger.Info("Starting recurring-worker")

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	// The worker authenticates with a service token when one is configured,
	// falling back to the CLI's persisted session.
	var sess *session.Store
	if cfg.APIToken != "" {
		sess = session.Open("", logger)
		sess.SetCredentials(cfg.APIToken, nil)
	} else {
		sess = session.Open(cfg.SessionFile, logger)
	}
	if !sess.LoggedIn() {
		logger.Error("No credential available; set VAAD_API_TOKEN or log in with the CLI first")
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	transport := api.NewTransport(cfg.APIBaseURL,
		&http.Client{Timeout: cfg.HTTPTimeout}, sess, logger).WithMetrics(collector)

	var events worker.Events
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
		} else {
			defer client.Close()
			events = client
			logger.Info("AMQP client initialized",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("AMQP disabled - charge events will not be published")
	}

	w := worker.New(transport, events, logger).WithMetrics(collector)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := worker.NewMetricsServer(cfg.MetricsAddr, reg)
	go func() {
		logger.Info("Metrics server listening", "addr", cfg.MetricsAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", "error", err)
		}
	}()

	logger.Info("Recurring charge worker configured", "cron", cfg.WorkerCron)
	if err := w.Start(ctx, cfg.WorkerCron); err != nil {
		logger.Error("Worker failed", "error", err)
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Metrics server shutdown failed", "error", err)
	}
	logger.Info("Recurring-worker stopped")
}
