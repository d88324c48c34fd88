package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/grc-evidence-pipeline/internal/bootstrap"
	"github.com/kirillkom/grc-evidence-pipeline/internal/config"
	"github.com/kirillkom/grc-evidence-pipeline/internal/core/domain"
	"github.com/kirillkom/grc-evidence-pipeline/internal/observability/logging"
	"github.com/kirillkom/grc-evidence-pipeline/internal/observability/metrics"
)

const serviceName = "evidence-worker"

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger(serviceName, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: workerMetrics.Handler(),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeProcessRequests(ctx, func(handlerCtx context.Context, req domain.ProcessRequest) error {
		processCtx, cancel := context.WithTimeout(handlerCtx, 10*time.Minute)
		defer cancel()

		workerMetrics.StartRun()
		started := time.Now()
		stats, err := app.ProcessUC.Process(processCtx, req)
		workerMetrics.FinishRun(serviceName, time.Since(started), err)
		if err == nil {
			workerMetrics.ObserveRunOutput(serviceName, stats.Chunks, stats.Mappings)
		}
		return err
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}
