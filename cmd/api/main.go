// Package main provides the entrypoint for the Q Mobility API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/qmobility/qmobility/internal/api"
	"github.com/qmobility/qmobility/internal/api/middleware"
	"github.com/qmobility/qmobility/internal/app"
	"github.com/qmobility/qmobility/internal/config"
	"github.com/qmobility/qmobility/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const (
	serviceName     = "qmobility-api"
	shutdownTimeout = 30 * time.Second
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("invalid configuration")
	}

	log := app.NewLogger(os.Stdout, serviceName, Version, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("server exited with error")
		stop()
		os.Exit(1)
	}
	log.Info().Msg("server stopped")
}

// run serves until ctx is cancelled, then drains in-flight requests.
func run(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	log.Info().
		Str("build_time", BuildTime).
		Str("env", cfg.Env).
		Bool("llm_enabled", cfg.LLM.Enabled).
		Bool("db_enabled", cfg.DatabaseEnabled).
		Msg("starting Q Mobility API")

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Env,
		Enabled:        cfg.Telemetry.Enabled,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		SampleRatio:    cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(flushCtx); err != nil {
			log.Error().Err(err).Msg("failed to flush telemetry")
		}
	}()

	metrics, err := middleware.NewMetrics(tp.Meter)
	if err != nil {
		return fmt.Errorf("create http metrics: %w", err)
	}

	components, err := app.Build(ctx, cfg, tp.Meter, log)
	if err != nil {
		return fmt.Errorf("build services: %w", err)
	}
	defer components.Close()

	server := &http.Server{
		Addr: net.JoinHostPort("", cfg.Port),
		Handler: api.NewRouter(api.RouterConfig{
			Version:       Version,
			BuildTime:     BuildTime,
			Logger:        log,
			ServiceName:   serviceName,
			Metrics:       metrics,
			Mobility:      components.Mobility,
			Assistant:     components.Assistant,
			Registry:      components.Registry,
			RateLimit:     middleware.PerMinute(cfg.RateLimitPerMinute),
			ChatRateLimit: middleware.PerMinute(cfg.ChatRateLimitPerMinute),
			RequireTLS:    cfg.RequireTLS,
		}),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Chat may wait on the hosted model for the whole LLM timeout.
		WriteTimeout: cfg.LLM.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", server.Addr).Int("cities", components.KnowledgeBase.Len()).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
