package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/decision-noise/internal/bootstrap"
	"github.com/kirillkom/decision-noise/internal/config"
	"github.com/kirillkom/decision-noise/internal/core/domain"
	"github.com/kirillkom/decision-noise/internal/core/usecase"
	"github.com/kirillkom/decision-noise/internal/observability/logging"
	"github.com/kirillkom/decision-noise/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger("worker", cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	queue, err := app.Queue(time.Duration(cfg.ProcessTimeoutSeconds) * time.Second)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}

	workerMetrics := metrics.NewWorkerMetrics("worker")
	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           workerMetrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("worker_metrics_server_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	applier := usecase.NewApplyNoiseDataUseCase(app.Industries, app.Techniques)
	processTimeout := time.Duration(cfg.ProcessTimeoutSeconds) * time.Second

	logger.Info("worker_subscribed", "subject", cfg.NATSProcessSubject)
	err = queue.ServeProcessRequests(ctx, func(handlerCtx context.Context, req domain.ProcessRequest) (domain.ProcessedResult, error) {
		applyCtx, cancel := context.WithTimeout(handlerCtx, processTimeout)
		defer cancel()

		start := time.Now()
		workerMetrics.StartApply()
		result, err := applier.Apply(applyCtx, req)
		workerMetrics.FinishApply("worker", string(req.DataType), time.Since(start), err)
		return result, err
	})
	if err != nil {
		logger.Error("worker_subscribe_failed", "error", err)
		os.Exit(1)
	}
}
