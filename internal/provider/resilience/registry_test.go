package resilience_test

import (
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qmobility/qmobility/internal/provider/resilience"
)

type stubBreaker struct {
	state gobreaker.State
}

func (b stubBreaker) State() gobreaker.State { return b.state }

func TestRegistry_RegisterAndHealth(t *testing.T) {
	registry := resilience.NewRegistry()
	registry.Register("gemini", stubBreaker{state: gobreaker.StateClosed})

	assert.Equal(t, 1, registry.Len())

	health, ok := registry.Health("gemini")
	require.True(t, ok)
	assert.Equal(t, "gemini", health.Name)
	assert.Equal(t, gobreaker.StateClosed, health.CircuitState)
	assert.Equal(t, resilience.StatusHealthy, health.Status())
	assert.Zero(t, health.Calls)
}

func TestRegistry_Observe(t *testing.T) {
	registry := resilience.NewRegistry()
	registry.Register("gemini", stubBreaker{})

	registry.Observe("gemini", 40*time.Millisecond, nil)
	registry.Observe("gemini", 90*time.Millisecond, errors.New("503 unavailable"))
	registry.Observe("gemini", 10*time.Millisecond, errors.New("deadline exceeded"))

	health, ok := registry.Health("gemini")
	require.True(t, ok)
	assert.Equal(t, uint64(3), health.Calls)
	assert.Equal(t, uint64(2), health.Failures)
	assert.Equal(t, uint32(2), health.ConsecutiveFailures)
	assert.Equal(t, 10*time.Millisecond, health.LastLatency)
	assert.Equal(t, "deadline exceeded", health.LastError)
	require.NotNil(t, health.LastSuccessAt)
	require.NotNil(t, health.LastFailureAt)
	assert.WithinDuration(t, time.Now(), *health.LastFailureAt, time.Second)
	assert.Equal(t, resilience.StatusDegraded, health.Status())

	registry.Observe("gemini", time.Millisecond, nil)
	health, _ = registry.Health("gemini")
	assert.Zero(t, health.ConsecutiveFailures)
	assert.Equal(t, resilience.StatusHealthy, health.Status())
	assert.Equal(t, "deadline exceeded", health.LastError, "last error is kept for the status page")
}

func TestRegistry_SnapshotSorted(t *testing.T) {
	registry := resilience.NewRegistry()
	for _, name := range []string{"provider-c", "provider-a", "provider-b"} {
		registry.Register(name, stubBreaker{})
	}

	snapshot := registry.Snapshot()
	require.Len(t, snapshot, 3)
	assert.Equal(t, "provider-a", snapshot[0].Name)
	assert.Equal(t, "provider-b", snapshot[1].Name)
	assert.Equal(t, "provider-c", snapshot[2].Name)
}

func TestRegistry_UnknownProvider(t *testing.T) {
	registry := resilience.NewRegistry()

	_, ok := registry.Health("nonexistent")
	assert.False(t, ok)

	registry.Observe("nonexistent", time.Millisecond, assert.AnError)
	assert.Zero(t, registry.Len())
}

func TestProviderHealth_Status(t *testing.T) {
	tests := []struct {
		name   string
		health resilience.ProviderHealth
		want   resilience.Status
	}{
		{"closed", resilience.ProviderHealth{CircuitState: gobreaker.StateClosed}, resilience.StatusHealthy},
		{"closed after failure", resilience.ProviderHealth{CircuitState: gobreaker.StateClosed, ConsecutiveFailures: 1}, resilience.StatusDegraded},
		{"half open", resilience.ProviderHealth{CircuitState: gobreaker.StateHalfOpen}, resilience.StatusDegraded},
		{"open", resilience.ProviderHealth{CircuitState: gobreaker.StateOpen, ConsecutiveFailures: 5}, resilience.StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.health.Status())
		})
	}
}
