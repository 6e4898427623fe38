// Package app assembles the service components shared by the API server and
// the terminal client.
package app

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/metric"

	"github.com/qmobility/qmobility/internal/assistant"
	"github.com/qmobility/qmobility/internal/city"
	"github.com/qmobility/qmobility/internal/config"
	"github.com/qmobility/qmobility/internal/database"
	"github.com/qmobility/qmobility/internal/llm"
	"github.com/qmobility/qmobility/internal/mobility"
	"github.com/qmobility/qmobility/internal/provider/resilience"
	"github.com/qmobility/qmobility/internal/recommend"
)

// Components holds the wired service graph.
type Components struct {
	KnowledgeBase *city.KnowledgeBase
	Mobility      *mobility.Service
	Registry      *resilience.Registry
	Fallback      *llm.Fallback
	Assistant     *assistant.Assistant

	closers []func()
}

// Close releases resources opened by Build.
func (c *Components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

// NewLogger creates the service logger.
func NewLogger(w io.Writer, service, version string, level zerolog.Level) zerolog.Logger {
	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("service", service).
		Str("version", version).
		Logger()
}

// Build loads the knowledge base and wires the mobility service, the model
// fallback and the assistant. meter may be nil; zero thresholds mean the
// defaults.
func Build(ctx context.Context, cfg config.Config, meter metric.Meter, log zerolog.Logger) (*Components, error) {
	c := &Components{Registry: resilience.NewRegistry()}

	src, err := c.citySource(ctx, cfg, log)
	if err != nil {
		c.Close()
		return nil, err
	}

	kb, err := city.NewFromSource(ctx, src)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("load city knowledge base: %w", err)
	}
	c.KnowledgeBase = kb
	log.Info().
		Str("source", src.Name()).
		Int("cities", kb.Len()).
		Int("aliases", len(kb.Aliases())).
		Msg("city knowledge base loaded")

	thresholds := cfg.Thresholds
	if thresholds == (recommend.Thresholds{}) {
		thresholds = recommend.DefaultThresholds()
	}
	engine, err := recommend.NewEngine(thresholds)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("create decision engine: %w", err)
	}

	c.Mobility, err = mobility.NewService(mobility.ServiceConfig{
		KnowledgeBase: kb,
		Engine:        engine,
		Logger:        log,
		Meter:         meter,
	})
	if err != nil {
		c.Close()
		return nil, err
	}

	c.Fallback = llm.NewFallback(llm.FallbackConfig{
		Generator: newGenerator(ctx, cfg.LLM, log),
		Enabled:   cfg.LLM.Enabled,
		Timeout:   cfg.LLM.Timeout,
		CacheTTL:  cfg.LLM.CacheTTL,
		Registry:  c.Registry,

		RequestsPerMinute: cfg.LLM.RequestsPerMinute,
		Logger:            log,
	})

	c.Assistant, err = assistant.New(assistant.Config{
		Mobility: c.Mobility,
		Fallback: c.Fallback,
		Logger:   log,
	})
	if err != nil {
		c.Close()
		return nil, err
	}

	return c, nil
}

// citySource picks Postgres, a JSON file or the embedded table, in that order.
func (c *Components) citySource(ctx context.Context, cfg config.Config, log zerolog.Logger) (city.Source, error) {
	switch {
	case cfg.DatabaseEnabled:
		pool, err := database.Connect(ctx, cfg.Database, log)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		c.closers = append(c.closers, pool.Close)
		log.Info().
			Str("host", cfg.Database.Host).
			Int("port", cfg.Database.Port).
			Str("database", cfg.Database.Database).
			Msg("database connected")
		if cfg.DatabaseMigrate {
			if err := database.Migrate(ctx, pool, log); err != nil {
				return nil, fmt.Errorf("migrate database: %w", err)
			}
		}
		return city.NewPostgresSource(pool), nil
	case cfg.CityDataPath != "":
		return city.FileSource{Path: cfg.CityDataPath}, nil
	default:
		return city.EmbeddedSource{}, nil
	}
}

// newGenerator returns nil when the model is disabled or cannot be created;
// the fallback then reports itself disabled.
func newGenerator(ctx context.Context, cfg config.LLMConfig, log zerolog.Logger) llm.Generator {
	if !cfg.Enabled {
		return nil
	}
	gen, err := llm.NewGeminiGenerator(ctx, llm.GeminiConfig{
		APIKey: cfg.APIKey,
		Model:  cfg.Model,
	})
	if err != nil {
		log.Warn().Err(err).Msg("llm fallback disabled")
		return nil
	}
	log.Info().Str("provider", gen.Name()).Msg("llm fallback enabled")
	return gen
}
