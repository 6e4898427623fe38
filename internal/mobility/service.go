// Package mobility wires the extractor, decision engine and emission
// estimator into the single operation that turns an utterance into a
// recommendation.
package mobility

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/qmobility/qmobility/internal/city"
	"github.com/qmobility/qmobility/internal/emission"
	"github.com/qmobility/qmobility/internal/extract"
	"github.com/qmobility/qmobility/internal/recommend"
)

const instrumentationName = "github.com/qmobility/qmobility/internal/mobility"

// Result is the structured outcome of processing one utterance.
type Result struct {
	CityResolved   bool                     `json:"cityResolved"`
	CityMention    string                   `json:"cityMention,omitempty"`
	CityMatch      extract.MatchSource      `json:"cityMatch"`
	Profile        city.Profile             `json:"profile"`
	DistanceKm     *float64                 `json:"distanceKm"`
	Conditions     extract.Conditions       `json:"conditions"`
	AsksEmissions  bool                     `json:"asksEmissions"`
	AsksTraffic    bool                     `json:"asksTraffic"`
	Recommendation recommend.Recommendation `json:"recommendation"`
	EmissionGrams  *int                     `json:"emissionGrams"`
}

// Actionable reports whether the utterance carried a city or a distance.
func (r Result) Actionable() bool {
	return r.CityResolved || r.DistanceKm != nil
}

// ServiceConfig holds configuration for the mobility service.
type ServiceConfig struct {
	// KnowledgeBase is required.
	KnowledgeBase *city.KnowledgeBase

	// Extractor defaults to extract.NewDefault over KnowledgeBase.
	Extractor *extract.Extractor

	// Engine defaults to the engine with default thresholds.
	Engine *recommend.Engine

	// Logger for service operations.
	Logger zerolog.Logger

	// Meter records recommendation counts (default: global meter provider).
	Meter metric.Meter
}

// Service runs the core pipeline. It holds only immutable state.
type Service struct {
	kb        *city.KnowledgeBase
	extractor *extract.Extractor
	engine    *recommend.Engine
	logger    zerolog.Logger
	tracer    trace.Tracer

	recommendations metric.Int64Counter
}

// NewService creates a new mobility service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.KnowledgeBase == nil {
		return nil, errors.New("mobility: knowledge base is required")
	}

	extractor := cfg.Extractor
	if extractor == nil {
		var err error
		extractor, err = extract.NewDefault(cfg.KnowledgeBase)
		if err != nil {
			return nil, fmt.Errorf("create extractor: %w", err)
		}
	}

	engine := cfg.Engine
	if engine == nil {
		engine = recommend.NewDefaultEngine()
	}

	meter := cfg.Meter
	if meter == nil {
		meter = otel.Meter(instrumentationName)
	}
	counter, err := meter.Int64Counter(
		"qmobility.recommendations",
		metric.WithDescription("Recommendations produced, by mode and rationale"),
		metric.WithUnit("{recommendation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create recommendations counter: %w", err)
	}

	return &Service{
		kb:              cfg.KnowledgeBase,
		extractor:       extractor,
		engine:          engine,
		logger:          cfg.Logger,
		tracer:          otel.Tracer(instrumentationName),
		recommendations: counter,
	}, nil
}

// KnowledgeBase returns the service's knowledge base.
func (s *Service) KnowledgeBase() *city.KnowledgeBase {
	return s.kb
}

// Thresholds returns the decision engine's bucket and score limits.
func (s *Service) Thresholds() recommend.Thresholds {
	return s.engine.Thresholds()
}

// Process extracts features from the utterance and returns the
// recommendation. It never fails; empty input yields the need-distance
// recommendation against the fallback profile.
func (s *Service) Process(ctx context.Context, utterance string) Result {
	ctx, span := s.tracer.Start(ctx, "mobility.Process")
	defer span.End()

	f := s.extractor.Extract(utterance)
	profile, resolved := s.kb.Resolve(f.City.Key, f.City.Mention)
	rec := s.engine.Decide(profile, f.DistanceKm, f.Conditions)

	result := Result{
		CityResolved:   resolved,
		CityMention:    f.City.Mention,
		CityMatch:      f.City.Source,
		Profile:        profile,
		DistanceKm:     f.DistanceKm,
		Conditions:     f.Conditions,
		AsksEmissions:  f.AsksEmissions,
		AsksTraffic:    f.AsksTraffic,
		Recommendation: rec,
		EmissionGrams:  emission.Estimate(rec.Mode, f.DistanceKm),
	}

	attrs := []attribute.KeyValue{
		attribute.String("mobility.mode", string(rec.Mode)),
		attribute.String("mobility.rationale", string(rec.Rationale)),
	}
	span.SetAttributes(append(attrs,
		attribute.Bool("mobility.city_resolved", resolved),
		attribute.String("mobility.city_match", string(f.City.Source)),
	)...)
	s.recommendations.Add(ctx, 1, metric.WithAttributes(attrs...))

	event := s.logger.Debug().
		Str("city", profile.DisplayName).
		Bool("city_resolved", resolved).
		Str("mode", string(rec.Mode)).
		Str("rationale", string(rec.Rationale))
	if f.DistanceKm != nil {
		event = event.Float64("distance_km", *f.DistanceKm)
	}
	event.Msg("recommendation computed")

	return result
}
