package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// ErrCircuitOpen is returned when the circuit breaker rejects a call.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Config holds configuration for an Executor.
type Config struct {
	// Name identifies the provider in the registry and logs.
	Name string

	// AttemptTimeout bounds each attempt. 0 leaves the caller's deadline.
	AttemptTimeout time.Duration

	// MaxRetries is the number of retries after the first attempt.
	MaxRetries uint64

	// InitialInterval is the first retry backoff interval.
	// Default: 100ms
	InitialInterval time.Duration

	// MaxInterval caps the retry backoff interval.
	// Default: 5 seconds
	MaxInterval time.Duration

	// CircuitBreaker configures the breaker. Default: DefaultCircuitBreakerConfig.
	CircuitBreaker *CircuitBreakerConfig

	// Retryable reports whether an error is worth retrying. nil retries all.
	Retryable func(error) bool

	// Registry receives health updates when set.
	Registry *Registry

	// Logger for breaker state changes.
	Logger zerolog.Logger
}

// DefaultConfig returns the defaults for a provider executor.
func DefaultConfig(name string) Config {
	cb := DefaultCircuitBreakerConfig(name)
	return Config{
		Name:            name,
		AttemptTimeout:  10 * time.Second,
		MaxRetries:      2,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		CircuitBreaker:  &cb,
		Logger:          zerolog.Nop(),
	}
}

// Executor runs provider calls returning T through a circuit breaker with
// exponential retry.
type Executor[T any] struct {
	name           string
	breaker        *gobreaker.CircuitBreaker[T]
	attemptTimeout time.Duration
	maxRetries     uint64
	initial        time.Duration
	maxInterval    time.Duration
	retryable      func(error) bool
	registry       *Registry
}

// NewExecutor creates an executor and registers it when cfg.Registry is set.
func NewExecutor[T any](cfg Config) *Executor[T] {
	if cfg.InitialInterval == 0 {
		cfg.InitialInterval = 100 * time.Millisecond
	}
	if cfg.MaxInterval == 0 {
		cfg.MaxInterval = 5 * time.Second
	}

	cbConfig := DefaultCircuitBreakerConfig(cfg.Name)
	if cfg.CircuitBreaker != nil {
		cbConfig = *cfg.CircuitBreaker
		if cbConfig.Name == "" {
			cbConfig.Name = cfg.Name
		}
	}

	e := &Executor[T]{
		name:           cfg.Name,
		breaker:        newCircuitBreaker[T](cbConfig, cfg.Logger),
		attemptTimeout: cfg.AttemptTimeout,
		maxRetries:     cfg.MaxRetries,
		initial:        cfg.InitialInterval,
		maxInterval:    cfg.MaxInterval,
		retryable:      cfg.Retryable,
		registry:       cfg.Registry,
	}

	if e.registry != nil {
		e.registry.Register(cfg.Name, e)
	}
	return e
}

// Execute calls fn until it succeeds, the retries are used up, the error is
// not retryable, the breaker opens, or ctx is done.
func (e *Executor[T]) Execute(ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = e.initial
	bo.MaxInterval = e.maxInterval
	bo.MaxElapsedTime = 0 // bounded by WithMaxRetries

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, e.maxRetries), ctx)

	var result T
	operation := func() error {
		out, err := e.breaker.Execute(func() (T, error) {
			return e.attempt(ctx, fn)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(ErrCircuitOpen)
			}
			if ctx.Err() != nil || (e.retryable != nil && !e.retryable(err)) {
				return backoff.Permanent(err)
			}
			return err
		}
		result = out
		return nil
	}

	start := time.Now()
	err := backoff.Retry(operation, policy)
	if e.registry != nil {
		e.registry.Observe(e.name, time.Since(start), err)
	}
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

func (e *Executor[T]) attempt(ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	if e.attemptTimeout <= 0 {
		return fn(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, e.attemptTimeout)
	defer cancel()
	return fn(attemptCtx)
}

// Name returns the provider name.
func (e *Executor[T]) Name() string {
	return e.name
}

// State returns the current circuit breaker state.
func (e *Executor[T]) State() gobreaker.State {
	return e.breaker.State()
}
