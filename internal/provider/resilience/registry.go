package resilience

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Breaker exposes circuit breaker state. Executor satisfies it for any T.
type Breaker interface {
	State() gobreaker.State
}

// Status is a provider's coarse health.
type Status string

// Provider health states.
const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// ProviderHealth is a point-in-time view of one provider.
type ProviderHealth struct {
	Name         string
	CircuitState gobreaker.State

	// Calls and Failures count Execute results, retries folded in.
	Calls               uint64
	Failures            uint64
	ConsecutiveFailures uint32

	LastLatency   time.Duration
	LastSuccessAt *time.Time
	LastFailureAt *time.Time
	LastError     string
}

// Status maps the breaker state and recent failures to a health state.
// A closed breaker whose latest call failed reads as degraded.
func (h ProviderHealth) Status() Status {
	switch {
	case h.CircuitState == gobreaker.StateOpen:
		return StatusUnhealthy
	case h.CircuitState == gobreaker.StateHalfOpen, h.ConsecutiveFailures > 0:
		return StatusDegraded
	default:
		return StatusHealthy
	}
}

// Registry tracks provider breakers and call outcomes for the status endpoint.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]*entry
}

type entry struct {
	breaker Breaker
	health  ProviderHealth
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]*entry)}
}

// Register adds a provider, replacing any earlier one with the same name.
func (r *Registry) Register(name string, b Breaker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = &entry{breaker: b, health: ProviderHealth{Name: name}}
}

// Observe records the outcome of one call. Unknown names are ignored.
func (r *Registry) Observe(name string, latency time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.providers[name]
	if !ok {
		return
	}

	now := time.Now()
	h := &e.health
	h.Calls++
	h.LastLatency = latency
	if err != nil {
		h.Failures++
		h.ConsecutiveFailures++
		h.LastFailureAt = &now
		h.LastError = err.Error()
		return
	}
	h.ConsecutiveFailures = 0
	h.LastSuccessAt = &now
}

// Health returns one provider's health.
func (r *Registry) Health(name string) (ProviderHealth, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.providers[name]
	if !ok {
		return ProviderHealth{}, false
	}
	return e.snapshot(), true
}

// Snapshot returns every provider's health sorted by name.
func (r *Registry) Snapshot() []ProviderHealth {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ProviderHealth, 0, len(r.providers))
	for _, e := range r.providers {
		out = append(out, e.snapshot())
	}
	slices.SortFunc(out, func(a, b ProviderHealth) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// Len returns the number of registered providers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}

func (e *entry) snapshot() ProviderHealth {
	h := e.health
	h.CircuitState = e.breaker.State()
	return h
}
