package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/lumethik/tablero/internal/app"
	"github.com/lumethik/tablero/internal/auth"
	"github.com/lumethik/tablero/internal/dashboard"
	dashboardhttp "github.com/lumethik/tablero/internal/dashboard/http"
	"github.com/lumethik/tablero/internal/observability"
	"github.com/lumethik/tablero/internal/shared"
	"github.com/lumethik/tablero/internal/view"
	"github.com/lumethik/tablero/jobs"
	"github.com/lumethik/tablero/report"
)

const sessionCookie = "tablero_session"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard HTTP server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := app.NewLogger(cfg)

	providers, err := app.BuildProviders(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("building providers: %w", err)
	}
	defer providers.Close()
	providers.ListenForInvalidation(ctx, logger)

	metrics := observability.NewMetrics()

	gate, err := auth.NewGate(auth.Credentials{
		Username:     cfg.ValidUsername,
		Password:     cfg.ValidPassword,
		PasswordHash: cfg.ValidPasswordHash,
	})
	if err != nil {
		return fmt.Errorf("building login gate: %w", err)
	}
	unsubscribe := gate.Subscribe(metrics.ObserveLogin)
	defer unsubscribe()

	registry := dashboard.NewRegistry(dashboard.RegistryParams{
		Logger:     logger,
		Directions: providers.Directions,
		Indicators: providers.Indicators,
		Sheet:      providers.Sheet,
		Talent:     providers.Talent,
		Finance:    providers.Finance,
		SheetOptions: dashboard.SheetOptions{
			HistogramX: cfg.SheetHistogramX,
			HistogramY: cfg.SheetHistogramY,
			Bins:       cfg.SheetBins,
		},
		Debug:        cfg.AppDebug,
		FetchTimeout: cfg.AppFetchTimeout,
		Observer:     metrics,
	})
	shell := dashboard.NewShell(dashboard.NewRouter(cfg.Fallback()), gate, registry, logger)

	templates, err := view.NewEngine(templateOptions(cfg))
	if err != nil {
		return fmt.Errorf("parsing templates: %w", err)
	}

	var store shared.SessionStore = shared.NewMemorySessionStore()
	if providers.Redis != nil {
		store = shared.NewRedisSessionStore(providers.Redis)
	}
	sessions := shared.NewSessionManager(store, sessionCookie, cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrf := shared.NewCSRFManager(cfg.CSRFSecret)

	pdfClient := report.NewClient(cfg.GotenbergURL)
	if pdfClient.Configured() && !app.InTestMode() {
		if err := pdfClient.Ping(ctx); err != nil {
			logger.Warn("gotenberg unreachable, pdf export will fail", slog.Any("error", err))
		}
	}

	dashboardHandler := dashboardhttp.NewHandler(dashboardhttp.Params{
		Logger:    logger,
		Shell:     shell,
		Templates: templates,
		CSRF:      csrf,
		PDF:       pdfClient,
		Debug:     cfg.AppDebug,
	})

	var jobHandler *jobs.Handler
	if cfg.RedisAddr != "" {
		inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
		defer inspector.Close()
		jobHandler = jobs.NewHandler(inspector, logger)
	} else {
		jobHandler = jobs.NewHandler(nil, logger)
	}

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		SessionManager:   sessions,
		CSRFManager:      csrf,
		AuthHandler:      auth.NewHandler(logger, gate, dashboardHandler, csrf),
		DashboardHandler: dashboardHandler,
		ReportHandler:    report.NewHandler(pdfClient, logger),
		JobHandler:       jobHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server",
			slog.String("addr", cfg.AppAddr),
			slog.String("version", Version),
			slog.Bool("debug", cfg.AppDebug),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

// templateOptions reloads templates from disk in debug mode when the
// directory is present, and uses the embedded copy otherwise.
func templateOptions(cfg *app.Config) view.Options {
	if !cfg.AppDebug || cfg.AppTemplatesDir == "" {
		return view.Options{}
	}
	if info, err := os.Stat(filepath.Join(cfg.AppTemplatesDir, "templates")); err != nil || !info.IsDir() {
		return view.Options{}
	}
	return view.Options{Dir: cfg.AppTemplatesDir, Reload: true}
}
