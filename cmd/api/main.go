package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/kirillkom/decision-noise/internal/adapters/http"
	"github.com/kirillkom/decision-noise/internal/bootstrap"
	"github.com/kirillkom/decision-noise/internal/config"
	"github.com/kirillkom/decision-noise/internal/observability/audit"
	"github.com/kirillkom/decision-noise/internal/observability/logging"
	"github.com/kirillkom/decision-noise/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger("api", cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := httpadapter.LoadOpenAPI(ctx); err != nil {
		logger.Error("openapi_invalid", "error", err)
		os.Exit(1)
	}

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	if err := app.Seed(ctx); err != nil {
		logger.Error("seed_failed", "path", cfg.SeedPath, "error", err)
		os.Exit(1)
	}

	blobs, err := app.BlobStore()
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}

	httpMetrics := metrics.NewHTTPServerMetrics("api")
	auditSink := audit.Multi{audit.NewLogSink(logger), httpMetrics}
	ingestor, err := app.Ingestor(blobs, auditSink)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}

	router := httpadapter.NewRouter(cfg, ingestor, app.Dashboard, blobs,
		httpadapter.WithMetrics(httpMetrics),
		httpadapter.WithAudit(auditSink),
		httpadapter.WithLogger(logger),
	).Handler()
	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("api_listening", "port", cfg.APIPort, "storage_backend", cfg.StorageBackend, "processor_transport", cfg.ProcessorTransport)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api_server_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api_shutdown_failed", "error", err)
	}
}
