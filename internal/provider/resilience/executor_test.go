package resilience_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qmobility/qmobility/internal/provider/resilience"
)

func fastConfig(name string) resilience.Config {
	cfg := resilience.DefaultConfig(name)
	cfg.InitialInterval = time.Millisecond
	cfg.MaxInterval = 5 * time.Millisecond
	cb := resilience.DefaultCircuitBreakerConfig(name)
	cb.ReadyToTrip = func(counts gobreaker.Counts) bool { return counts.Requests >= 100 }
	cfg.CircuitBreaker = &cb
	return cfg
}

func TestExecutor_Success(t *testing.T) {
	exec := resilience.NewExecutor[string](fastConfig("test"))

	got, err := exec.Execute(context.Background(), func(context.Context) (string, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, "test", exec.Name())
	assert.Equal(t, gobreaker.StateClosed, exec.State())
}

func TestExecutor_RetriesUntilSuccess(t *testing.T) {
	var attempts atomic.Int32
	cfg := fastConfig("test-retry")
	cfg.MaxRetries = 5
	exec := resilience.NewExecutor[int](cfg)

	got, err := exec.Execute(context.Background(), func(context.Context) (int, error) {
		if attempts.Add(1) < 3 {
			return 0, errors.New("transient")
		}
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, int32(3), attempts.Load(), "should have retried until success")
}

func TestExecutor_GivesUpAfterMaxRetries(t *testing.T) {
	var attempts atomic.Int32
	cfg := fastConfig("test-exhaust")
	cfg.MaxRetries = 2
	exec := resilience.NewExecutor[int](cfg)

	_, err := exec.Execute(context.Background(), func(context.Context) (int, error) {
		attempts.Add(1)
		return 0, assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestExecutor_NonRetryableError(t *testing.T) {
	var attempts atomic.Int32
	permanent := errors.New("bad request")
	cfg := fastConfig("test-permanent")
	cfg.MaxRetries = 3
	cfg.Retryable = func(err error) bool { return !errors.Is(err, permanent) }
	exec := resilience.NewExecutor[int](cfg)

	_, err := exec.Execute(context.Background(), func(context.Context) (int, error) {
		attempts.Add(1)
		return 0, permanent
	})
	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, int32(1), attempts.Load(), "should not retry permanent errors")
}

func TestExecutor_CircuitBreakerTrips(t *testing.T) {
	var attempts atomic.Int32
	cfg := fastConfig("test-trip")
	cfg.MaxRetries = 0
	cfg.CircuitBreaker = &resilience.CircuitBreakerConfig{
		Name:        "test-trip",
		MaxRequests: 1,
		Timeout:     time.Minute,
		ReadyToTrip: resilience.DefaultReadyToTrip,
	}
	exec := resilience.NewExecutor[int](cfg)

	fail := func(context.Context) (int, error) {
		attempts.Add(1)
		return 0, assert.AnError
	}
	for i := 0; i < 5; i++ {
		_, _ = exec.Execute(context.Background(), fail)
	}
	assert.Equal(t, gobreaker.StateOpen, exec.State())

	_, err := exec.Execute(context.Background(), fail)
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, int32(5), attempts.Load(), "open circuit should not call the provider")
}

func TestExecutor_AttemptTimeout(t *testing.T) {
	cfg := fastConfig("test-timeout")
	cfg.AttemptTimeout = 20 * time.Millisecond
	cfg.MaxRetries = 0
	exec := resilience.NewExecutor[int](cfg)

	_, err := exec.Execute(context.Background(), func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExecutor_ContextCancellation(t *testing.T) {
	var attempts atomic.Int32
	cfg := fastConfig("test-cancel")
	cfg.MaxRetries = 10
	exec := resilience.NewExecutor[int](cfg)

	ctx, cancel := context.WithCancel(context.Background())
	_, err := exec.Execute(ctx, func(context.Context) (int, error) {
		attempts.Add(1)
		cancel()
		return 0, assert.AnError
	})
	assert.Error(t, err)
	assert.Equal(t, int32(1), attempts.Load(), "cancelled context should stop retries")
}

func TestExecutor_ReportsToRegistry(t *testing.T) {
	registry := resilience.NewRegistry()
	cfg := fastConfig("llm")
	cfg.MaxRetries = 0
	cfg.Registry = registry
	exec := resilience.NewExecutor[string](cfg)

	require.Equal(t, 1, registry.Len())

	_, err := exec.Execute(context.Background(), func(context.Context) (string, error) { return "", assert.AnError })
	require.Error(t, err)
	health, ok := registry.Health("llm")
	require.True(t, ok)
	require.NotNil(t, health.LastFailureAt)
	assert.Equal(t, assert.AnError.Error(), health.LastError)
	assert.Equal(t, resilience.StatusDegraded, health.Status())

	_, err = exec.Execute(context.Background(), func(context.Context) (string, error) { return "ok", nil })
	require.NoError(t, err)
	health, _ = registry.Health("llm")
	require.NotNil(t, health.LastSuccessAt)
	assert.Equal(t, uint64(2), health.Calls)
	assert.Equal(t, uint64(1), health.Failures)
	assert.Equal(t, resilience.StatusHealthy, health.Status())
}

func TestDefaultCircuitBreakerConfig(t *testing.T) {
	cfg := resilience.DefaultCircuitBreakerConfig("test")

	assert.Equal(t, "test", cfg.Name)
	assert.Equal(t, uint32(1), cfg.MaxRequests)
	assert.Equal(t, 60*time.Second, cfg.Timeout)
	assert.NotNil(t, cfg.ReadyToTrip)
}

func TestDefaultReadyToTrip(t *testing.T) {
	tests := []struct {
		name     string
		counts   gobreaker.Counts
		expected bool
	}{
		{"no requests", gobreaker.Counts{}, false},
		{"not enough requests", gobreaker.Counts{Requests: 4, TotalFailures: 4}, false},
		{"low failure rate", gobreaker.Counts{Requests: 10, TotalFailures: 4}, false},
		{"high failure rate", gobreaker.Counts{Requests: 10, TotalFailures: 5}, true},
		{"exactly 5 requests all failing", gobreaker.Counts{Requests: 5, TotalFailures: 5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, resilience.DefaultReadyToTrip(tt.counts))
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := resilience.DefaultConfig("gemini")

	assert.Equal(t, "gemini", cfg.Name)
	assert.Equal(t, 10*time.Second, cfg.AttemptTimeout)
	assert.Equal(t, uint64(2), cfg.MaxRetries)
	assert.Equal(t, 100*time.Millisecond, cfg.InitialInterval)
	assert.Equal(t, 5*time.Second, cfg.MaxInterval)
	assert.NotNil(t, cfg.CircuitBreaker)
}
