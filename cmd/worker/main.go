package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/cgint/simple-knowledge-pool-ai/internal/bootstrap"
	"github.com/cgint/simple-knowledge-pool-ai/internal/config"
	"github.com/cgint/simple-knowledge-pool-ai/internal/core/domain"
	"github.com/cgint/simple-knowledge-pool-ai/internal/observability/logging"
	"github.com/cgint/simple-knowledge-pool-ai/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	cfg.QueueEnabled = true
	logging.NewJSONLogger("worker", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(cfg, "worker")
	if err != nil {
		slog.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics("worker")
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: metricsHandler(workerMetrics),
	}
	go func() {
		slog.Info("worker metrics listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("worker metrics server failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	slog.Info("worker subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeDocumentStored(ctx, func(handlerCtx context.Context, filename string) error {
		if !strings.EqualFold(filepath.Ext(filename), domain.DocumentExtension) {
			return nil
		}

		workerMetrics.StartPrewarm()
		start := time.Now()

		prewarmCtx, cancel := context.WithTimeout(handlerCtx, 5*time.Minute)
		defer cancel()
		_, err := app.Extractor.Extract(prewarmCtx, filename)
		workerMetrics.FinishPrewarm(time.Since(start), err)
		if err != nil {
			slog.Warn("extraction_prewarm_failed", "filename", filename, "error", err)
		}
		return err
	})
	if err != nil {
		slog.Error("worker subscribe failed", "error", err)
		os.Exit(1)
	}
}

func metricsHandler(workerMetrics *metrics.WorkerMetrics) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", workerMetrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	return mux
}
