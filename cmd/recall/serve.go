package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/recallhq/recall/internal/config"
	"github.com/recallhq/recall/internal/health"
	"github.com/recallhq/recall/internal/observe"
	"github.com/recallhq/recall/internal/orchestrator"
	"github.com/recallhq/recall/pkg/repository/postgres"
)

// shutdownTimeout bounds how long serveCmd waits for in-flight requests and
// an active recording session to wind down after a shutdown signal.
const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Recall ingestion server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

// sentryDSNFromEnv reads the Sentry DSN from the environment rather than the
// YAML config, matching Sentry's own convention — the DSN is an operational
// secret, not a pipeline tuning knob. An empty return disables reporting.
func sentryDSNFromEnv() string {
	return os.Getenv("RECALL_SENTRY_DSN")
}

func runServe(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)
	slog.Info("recall starting", "config", configPath, "listen_addr", cfg.Server.ListenAddr)

	if dsn := sentryDSNFromEnv(); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: dsn}); err != nil {
			slog.Warn("sentry initialization failed — continuing without error reporting", "err", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "recall"})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown failed", "err", err)
		}
	}()
	metrics := observe.DefaultMetrics()

	reg := config.NewRegistry()
	registerBuiltinProviders(reg)

	providers, err := buildProviders(cfg, reg)
	if err != nil {
		return fmt.Errorf("build providers: %w", err)
	}

	repo, err := postgres.New(ctx, cfg.Database.PostgresDSN)
	if err != nil {
		return fmt.Errorf("connect repository: %w", err)
	}
	defer repo.Close()

	sessions := orchestrator.DefaultRegistry

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	healthHandler := health.New(
		health.Checker{
			Name: "database",
			Check: func(ctx context.Context) error {
				_, err := repo.ListRecordings(ctx, "", 1, 0)
				return err
			},
		},
	)
	e.GET("/healthz", echo.WrapHandler(http.HandlerFunc(healthHandler.Healthz)))
	e.GET("/readyz", echo.WrapHandler(http.HandlerFunc(healthHandler.Readyz)))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	srv := &http.Server{Addr: cfg.Server.ListenAddr, Handler: observe.Middleware(metrics)(e)}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", cfg.Server.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	slog.Info("providers ready",
		"llm", cfg.Providers.LLM.Name,
		"stt", cfg.Providers.STT.Name,
		"embeddings_enabled", providers.Embeddings != nil,
		"vector_store_enabled", providers.VectorStore != nil,
	)

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received, stopping…")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := sessions.StopSession(shutdownCtx); err != nil {
		slog.Error("error stopping active recording session", "err", err)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	slog.Info("goodbye")
	return nil
}
