package llm

import (
	"context"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/qmobility/qmobility/internal/provider/resilience"
)

// FallbackConfig holds configuration for the fallback adapter.
type FallbackConfig struct {
	// Generator is the hosted model. A nil generator disables the fallback.
	Generator Generator

	// Enabled turns the fallback on.
	Enabled bool

	// Timeout bounds one whole Reply call, retries included.
	// Default: 15 seconds
	Timeout time.Duration

	// CacheTTL is how long replies are reused for identical messages.
	// Default: 10 minutes. Negative disables caching.
	CacheTTL time.Duration

	// RequestsPerMinute caps calls to the generator. Zero means unlimited.
	RequestsPerMinute int

	// Resilience configures the breaker and retry around the generator.
	// Default: resilience.DefaultConfig with IsTransient as retry filter.
	Resilience *resilience.Config

	// Registry receives provider health when set.
	Registry *resilience.Registry

	// Logger for fallback operations.
	Logger zerolog.Logger
}

// Fallback calls the generator with a timeout, circuit breaker, retry and
// a reply cache. Concurrent identical messages share one call. Every failure
// becomes a StatusUnavailable reply.
type Fallback struct {
	generator Generator
	enabled   bool
	timeout   time.Duration
	cache     *cache.Cache
	limiter   *rate.Limiter
	inflight  singleflight.Group
	executor  *resilience.Executor[string]
	logger    zerolog.Logger
}

// NewFallback creates a fallback adapter.
func NewFallback(cfg FallbackConfig) *Fallback {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	f := &Fallback{
		generator: cfg.Generator,
		enabled:   cfg.Enabled && cfg.Generator != nil,
		timeout:   timeout,
		logger:    cfg.Logger,
	}
	if !f.enabled {
		return f
	}

	ttl := cfg.CacheTTL
	if ttl == 0 {
		ttl = 10 * time.Minute
	}
	if ttl > 0 {
		f.cache = cache.New(ttl, 2*ttl)
	}

	if cfg.RequestsPerMinute > 0 {
		f.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), cfg.RequestsPerMinute)
	}

	var rc resilience.Config
	if cfg.Resilience != nil {
		rc = *cfg.Resilience
	} else {
		rc = resilience.DefaultConfig(cfg.Generator.Name())
		rc.Retryable = IsTransient
	}
	if rc.Name == "" {
		rc.Name = cfg.Generator.Name()
	}
	if cfg.Registry != nil {
		rc.Registry = cfg.Registry
	}
	rc.Logger = cfg.Logger
	f.executor = resilience.NewExecutor[string](rc)

	return f
}

// Enabled reports whether replies will reach the generator.
func (f *Fallback) Enabled() bool {
	return f.enabled
}

// Reply asks the model about a message.
func (f *Fallback) Reply(ctx context.Context, message string) Reply {
	if !f.enabled {
		return Reply{Status: StatusDisabled}
	}

	key := strings.ToLower(strings.TrimSpace(message))
	if f.cache != nil {
		if cached, found := f.cache.Get(key); found {
			if text, ok := cached.(string); ok {
				return Reply{Text: text, Status: StatusOK, Cached: true}
			}
		}
	}

	waitCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	start := time.Now()
	// The shared call outlives any single caller; each caller only stops
	// waiting for it.
	ch := f.inflight.DoChan(key, func() (any, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.timeout)
		defer cancel()
		return f.generate(callCtx, key, message)
	})

	var (
		text   string
		err    error
		shared bool
	)
	select {
	case res := <-ch:
		err, shared = res.Err, res.Shared
		if err == nil {
			text = res.Val.(string)
		}
	case <-waitCtx.Done():
		err = waitCtx.Err()
	}
	if err != nil {
		f.logger.Warn().
			Err(err).
			Str("provider", f.generator.Name()).
			Dur("duration", time.Since(start)).
			Msg("llm fallback unavailable")
		return Reply{Text: UnavailableText, Status: StatusUnavailable}
	}

	f.logger.Debug().
		Str("provider", f.generator.Name()).
		Dur("duration", time.Since(start)).
		Int("chars", len(text)).
		Bool("shared", shared).
		Msg("llm fallback replied")

	return Reply{Text: text, Status: StatusOK}
}

// generate waits on the limiter, calls the model and caches a success.
func (f *Fallback) generate(ctx context.Context, key, message string) (string, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}
	prompt := BuildPrompt(message)
	text, err := f.executor.Execute(ctx, func(ctx context.Context) (string, error) {
		return f.generator.Generate(ctx, prompt)
	})
	if err != nil {
		return "", err
	}
	if f.cache != nil {
		f.cache.Set(key, text, cache.DefaultExpiration)
	}
	return text, nil
}
