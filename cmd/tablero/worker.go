package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/lumethik/tablero/internal/app"
	jobmetrics "github.com/lumethik/tablero/internal/jobs"
	"github.com/lumethik/tablero/internal/observability"
	"github.com/lumethik/tablero/jobs"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the background source refresh worker",
	RunE:  runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	if app.InTestMode() {
		return nil
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.RedisAddr == "" {
		return errors.New("worker requires REDIS_ADDR")
	}
	logger := app.NewLogger(cfg)

	providers, err := app.BuildProviders(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("building providers: %w", err)
	}
	defer providers.Close()

	metrics := observability.NewMetrics()
	refresh := providers.RefreshJob(logger, cfg)
	refresh.Metrics = jobmetrics.NewMetrics(metrics.Registerer())

	refreshTask, err := jobs.NewSourceRefreshTask(jobs.SourceRefreshPayload{Snapshot: true})
	if err != nil {
		return fmt.Errorf("building refresh task: %w", err)
	}
	var cron []jobs.CronRegistration
	if cfg.SheetRefresh > 0 {
		cron = append(cron, jobs.CronRegistration{
			Spec:    "@every " + cfg.SheetRefresh.String(),
			Task:    refreshTask,
			Options: []asynq.Option{asynq.MaxRetry(3), asynq.Queue(jobs.QueueDefault)},
		})
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskSourceRefresh, Handler: refresh.Handle},
		},
		Cron: cron,
	})
	if err != nil {
		return fmt.Errorf("init worker: %w", err)
	}

	if cfg.WorkerMetricsAddr != "" {
		metricsServer := &http.Server{Addr: cfg.WorkerMetricsAddr, Handler: metrics.Handler(), ReadTimeout: 5 * time.Second}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn("worker metrics server", slog.Any("error", err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsServer.Shutdown(shutdownCtx)
		}()
	}

	logger.Info("worker configured", slog.Duration("refresh", cfg.SheetRefresh), slog.Int("targets", len(refresh.Targets)))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("worker run: %w", err)
	}
	return nil
}
