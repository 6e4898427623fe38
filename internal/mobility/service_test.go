package mobility_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/qmobility/qmobility/internal/city"
	"github.com/qmobility/qmobility/internal/mobility"
	"github.com/qmobility/qmobility/internal/recommend"
)

func newService(t *testing.T) *mobility.Service {
	t.Helper()
	svc, err := mobility.NewService(mobility.ServiceConfig{
		KnowledgeBase: city.MustDefault(),
		Logger:        zerolog.Nop(),
	})
	require.NoError(t, err)
	return svc
}

func TestProcess_Scenarios(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	t.Run("hong kong in a hurry in the rain", func(t *testing.T) {
		r := svc.Process(ctx, "I am in Hong Kong and need to travel 6 km, raining, in a hurry")
		assert.True(t, r.CityResolved)
		assert.Equal(t, "Hong Kong", r.Profile.DisplayName)
		require.NotNil(t, r.DistanceKm)
		assert.Equal(t, 6.0, *r.DistanceKm)
		assert.True(t, r.Conditions.Rain)
		assert.True(t, r.Conditions.Hurry)
		assert.Equal(t, recommend.ModeMetroRail, r.Recommendation.Mode)
		assert.Contains(t, r.Recommendation.Reason, "hurry")
		require.NotNil(t, r.EmissionGrams)
		assert.Equal(t, 210, *r.EmissionGrams)
	})

	t.Run("unknown city short trip", func(t *testing.T) {
		r := svc.Process(ctx, "3 km to the office")
		assert.False(t, r.CityResolved)
		assert.Equal(t, city.FallbackDisplayName, r.Profile.DisplayName)
		assert.Equal(t, recommend.ModeBusMetro, r.Recommendation.Mode)
		require.NotNil(t, r.EmissionGrams)
		assert.Equal(t, 105, *r.EmissionGrams)
	})

	t.Run("no distance", func(t *testing.T) {
		r := svc.Process(ctx, "Paris, rush hour")
		assert.True(t, r.CityResolved)
		assert.Nil(t, r.DistanceKm)
		assert.Equal(t, recommend.ModeNeedDistance, r.Recommendation.Mode)
		assert.Nil(t, r.EmissionGrams)
	})

	t.Run("columbia long trip", func(t *testing.T) {
		r := svc.Process(ctx, "Columbia, SC: 20 km")
		assert.True(t, r.CityResolved)
		assert.Equal(t, recommend.ModeCarOrIntercity, r.Recommendation.Mode)
		require.NotNil(t, r.EmissionGrams)
		assert.Equal(t, 1600, *r.EmissionGrams)
	})

	t.Run("miles", func(t *testing.T) {
		r := svc.Process(ctx, "5 mi")
		require.NotNil(t, r.DistanceKm)
		assert.InDelta(t, 8.05, *r.DistanceKm, 0.01)
		assert.Equal(t, recommend.ModeCar, r.Recommendation.Mode)
	})

	t.Run("unresolved mention is echoed", func(t *testing.T) {
		r := svc.Process(ctx, "I am in Springfield, 2 km")
		assert.False(t, r.CityResolved)
		assert.Equal(t, "springfield", r.CityMention)
		assert.Equal(t, "springfield", r.Profile.DisplayName)
	})

	t.Run("thousands separator is a long trip", func(t *testing.T) {
		r := svc.Process(ctx, "1,000 km trip")
		require.NotNil(t, r.DistanceKm)
		assert.Equal(t, 1000.0, *r.DistanceKm)
		assert.Equal(t, recommend.ModeCarOrIntercity, r.Recommendation.Mode)
		require.NotNil(t, r.EmissionGrams)
		assert.Equal(t, 80000, *r.EmissionGrams)
	})

	t.Run("malformed number is no distance", func(t *testing.T) {
		r := svc.Process(ctx, "1.2.3 km")
		assert.Nil(t, r.DistanceKm)
		assert.Equal(t, recommend.ModeNeedDistance, r.Recommendation.Mode)
		assert.Nil(t, r.EmissionGrams)
	})
}

func TestProcess_EmptyInput(t *testing.T) {
	svc := newService(t)

	for _, input := range []string{"", "   ", "\n\t"} {
		r := svc.Process(context.Background(), input)
		assert.False(t, r.CityResolved)
		assert.False(t, r.Actionable())
		assert.Nil(t, r.DistanceKm)
		assert.False(t, r.Conditions.Any())
		assert.Equal(t, recommend.ModeNeedDistance, r.Recommendation.Mode)
		assert.Nil(t, r.EmissionGrams)
		assert.Equal(t, city.FallbackDisplayName, r.Profile.DisplayName)
	}
}

func TestProcess_Idempotent(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	inputs := []string{
		"New York City, 18 km, late night, with luggage",
		"paris 3 km",
		"我在上海，要走12公里，晚高峰",
		"",
	}
	for _, input := range inputs {
		first := svc.Process(ctx, input)
		for i := 0; i < 10; i++ {
			assert.Equal(t, first, svc.Process(ctx, input), input)
		}
	}
}

func TestProcess_EmissionNilIffDistanceNil(t *testing.T) {
	svc := newService(t)

	for _, input := range []string{"berlin", "berlin 0 km", "berlin 3km", "hk 30 km", "rain"} {
		r := svc.Process(context.Background(), input)
		assert.Equal(t, r.DistanceKm == nil, r.EmissionGrams == nil, input)
	}
}

func TestProcess_RecordsMetric(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	svc, err := mobility.NewService(mobility.ServiceConfig{
		KnowledgeBase: city.MustDefault(),
		Logger:        zerolog.Nop(),
		Meter:         provider.Meter("test"),
	})
	require.NoError(t, err)

	svc.Process(context.Background(), "amsterdam 3 km")
	svc.Process(context.Background(), "amsterdam 4 km")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)
	require.Len(t, rm.ScopeMetrics[0].Metrics, 1)

	m := rm.ScopeMetrics[0].Metrics[0]
	assert.Equal(t, "qmobility.recommendations", m.Name)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(2), sum.DataPoints[0].Value)

	mode, ok := sum.DataPoints[0].Attributes.Value(attribute.Key("mobility.mode"))
	require.True(t, ok)
	assert.Equal(t, string(recommend.ModeBike), mode.AsString())
}

func TestNewService_RequiresKnowledgeBase(t *testing.T) {
	_, err := mobility.NewService(mobility.ServiceConfig{Logger: zerolog.Nop()})
	assert.Error(t, err)
}
