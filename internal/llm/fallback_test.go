package llm_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/qmobility/qmobility/internal/llm"
	"github.com/qmobility/qmobility/internal/provider/resilience"
)

type fakeGenerator struct {
	calls atomic.Int32
	fn    func(ctx context.Context, prompt string) (string, error)
}

func (g *fakeGenerator) Name() string { return "fake" }

func (g *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.calls.Add(1)
	return g.fn(ctx, prompt)
}

func fastResilience() *resilience.Config {
	cfg := resilience.DefaultConfig("fake")
	cfg.MaxRetries = 1
	cfg.InitialInterval = time.Millisecond
	cfg.MaxInterval = 2 * time.Millisecond
	cfg.Retryable = llm.IsTransient
	return &cfg
}

func TestFallback_Disabled(t *testing.T) {
	gen := &fakeGenerator{fn: func(context.Context, string) (string, error) { return "hi", nil }}

	f := llm.NewFallback(llm.FallbackConfig{Generator: gen, Enabled: false, Logger: zerolog.Nop()})
	assert.False(t, f.Enabled())
	assert.Equal(t, llm.Reply{Status: llm.StatusDisabled}, f.Reply(context.Background(), "hello"))
	assert.Zero(t, gen.calls.Load())

	f = llm.NewFallback(llm.FallbackConfig{Enabled: true, Logger: zerolog.Nop()})
	assert.False(t, f.Enabled(), "nil generator disables the fallback")
}

func TestFallback_ReplyAndCache(t *testing.T) {
	var gotPrompt string
	gen := &fakeGenerator{fn: func(_ context.Context, prompt string) (string, error) {
		gotPrompt = prompt
		return "Take the metro.", nil
	}}

	f := llm.NewFallback(llm.FallbackConfig{
		Generator:  gen,
		Enabled:    true,
		Resilience: fastResilience(),
		Logger:     zerolog.Nop(),
	})

	reply := f.Reply(context.Background(), "How do I get around Tokyo?")
	assert.Equal(t, llm.StatusOK, reply.Status)
	assert.Equal(t, "Take the metro.", reply.Text)
	assert.False(t, reply.Cached)
	assert.Contains(t, gotPrompt, "How do I get around Tokyo?")

	again := f.Reply(context.Background(), "  how do i get around tokyo?  ")
	assert.True(t, again.Cached)
	assert.Equal(t, "Take the metro.", again.Text)
	assert.Equal(t, int32(1), gen.calls.Load())
}

func TestFallback_CacheDisabled(t *testing.T) {
	gen := &fakeGenerator{fn: func(context.Context, string) (string, error) { return "ok", nil }}

	f := llm.NewFallback(llm.FallbackConfig{
		Generator:  gen,
		Enabled:    true,
		CacheTTL:   -1,
		Resilience: fastResilience(),
		Logger:     zerolog.Nop(),
	})
	f.Reply(context.Background(), "hi")
	f.Reply(context.Background(), "hi")
	assert.Equal(t, int32(2), gen.calls.Load())
}

func TestFallback_ErrorIsUnavailable(t *testing.T) {
	gen := &fakeGenerator{fn: func(context.Context, string) (string, error) {
		return "", genai.APIError{Code: http.StatusForbidden, Message: "permission denied"}
	}}

	f := llm.NewFallback(llm.FallbackConfig{
		Generator:  gen,
		Enabled:    true,
		Resilience: fastResilience(),
		Logger:     zerolog.Nop(),
	})

	reply := f.Reply(context.Background(), "hello")
	assert.Equal(t, llm.StatusUnavailable, reply.Status)
	assert.Equal(t, llm.UnavailableText, reply.Text)
	assert.Equal(t, int32(1), gen.calls.Load(), "permanent errors are not retried")

	// Failures are not cached.
	f.Reply(context.Background(), "hello")
	assert.Equal(t, int32(2), gen.calls.Load())
}

func TestFallback_TransientErrorRetried(t *testing.T) {
	gen := &fakeGenerator{}
	gen.fn = func(context.Context, string) (string, error) {
		if gen.calls.Load() == 1 {
			return "", fmt.Errorf("gemini generate: %w", genai.APIError{Code: http.StatusServiceUnavailable, Status: "UNAVAILABLE"})
		}
		return "recovered", nil
	}

	f := llm.NewFallback(llm.FallbackConfig{
		Generator:  gen,
		Enabled:    true,
		Resilience: fastResilience(),
		Logger:     zerolog.Nop(),
	})

	reply := f.Reply(context.Background(), "hello")
	assert.Equal(t, llm.StatusOK, reply.Status)
	assert.Equal(t, "recovered", reply.Text)
	assert.Equal(t, int32(2), gen.calls.Load())
}

func TestFallback_Timeout(t *testing.T) {
	gen := &fakeGenerator{fn: func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}

	f := llm.NewFallback(llm.FallbackConfig{
		Generator:  gen,
		Enabled:    true,
		Timeout:    30 * time.Millisecond,
		Resilience: fastResilience(),
		Logger:     zerolog.Nop(),
	})

	start := time.Now()
	reply := f.Reply(context.Background(), "hello")
	assert.Equal(t, llm.StatusUnavailable, reply.Status)
	assert.Less(t, time.Since(start), time.Second)
}

func TestFallback_ConcurrentIdenticalMessagesShareCall(t *testing.T) {
	release := make(chan struct{})
	gen := &fakeGenerator{fn: func(context.Context, string) (string, error) {
		<-release
		return "shared", nil
	}}

	f := llm.NewFallback(llm.FallbackConfig{
		Generator:  gen,
		Enabled:    true,
		CacheTTL:   -1,
		Resilience: fastResilience(),
		Logger:     zerolog.Nop(),
	})

	const callers = 5
	replies := make([]llm.Reply, callers)
	var started, done sync.WaitGroup
	started.Add(callers)
	done.Add(callers)
	for i := range callers {
		go func() {
			defer done.Done()
			started.Done()
			replies[i] = f.Reply(context.Background(), "same question")
		}()
	}
	started.Wait()
	require.Eventually(t, func() bool { return gen.calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	done.Wait()

	assert.Equal(t, int32(1), gen.calls.Load())
	for _, r := range replies {
		assert.Equal(t, "shared", r.Text)
	}
}

func TestFallback_CancelledCallerDoesNotFailOthers(t *testing.T) {
	release := make(chan struct{})
	gen := &fakeGenerator{fn: func(ctx context.Context, _ string) (string, error) {
		select {
		case <-release:
			return "still here", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}}

	f := llm.NewFallback(llm.FallbackConfig{
		Generator:  gen,
		Enabled:    true,
		Timeout:    5 * time.Second,
		CacheTTL:   -1,
		Resilience: fastResilience(),
		Logger:     zerolog.Nop(),
	})

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	first := make(chan llm.Reply, 1)
	go func() { first <- f.Reply(firstCtx, "same question") }()
	require.Eventually(t, func() bool { return gen.calls.Load() == 1 }, time.Second, time.Millisecond)

	cancelFirst()
	assert.Equal(t, llm.StatusUnavailable, (<-first).Status)

	second := make(chan llm.Reply, 1)
	go func() { second <- f.Reply(context.Background(), "same question") }()
	time.Sleep(20 * time.Millisecond)
	close(release)

	reply := <-second
	assert.Equal(t, llm.StatusOK, reply.Status)
	assert.Equal(t, "still here", reply.Text)
	assert.Equal(t, int32(1), gen.calls.Load(), "the running call is joined, not restarted")
}

func TestFallback_RateLimitedCallTimesOut(t *testing.T) {
	gen := &fakeGenerator{fn: func(context.Context, string) (string, error) { return "ok", nil }}

	f := llm.NewFallback(llm.FallbackConfig{
		Generator:         gen,
		Enabled:           true,
		CacheTTL:          -1,
		Timeout:           50 * time.Millisecond,
		RequestsPerMinute: 1,
		Resilience:        fastResilience(),
		Logger:            zerolog.Nop(),
	})

	assert.Equal(t, llm.StatusOK, f.Reply(context.Background(), "first").Status)

	reply := f.Reply(context.Background(), "second")
	assert.Equal(t, llm.StatusUnavailable, reply.Status)
	assert.Equal(t, int32(1), gen.calls.Load())
}

func TestFallback_ReportsHealth(t *testing.T) {
	registry := resilience.NewRegistry()
	gen := &fakeGenerator{fn: func(context.Context, string) (string, error) { return "ok", nil }}

	f := llm.NewFallback(llm.FallbackConfig{
		Generator:  gen,
		Enabled:    true,
		Resilience: fastResilience(),
		Registry:   registry,
		Logger:     zerolog.Nop(),
	})
	f.Reply(context.Background(), "hello")

	health, ok := registry.Health("fake")
	require.True(t, ok)
	assert.Equal(t, resilience.StatusHealthy, health.Status())
	assert.NotNil(t, health.LastSuccessAt)
}

func TestBuildPrompt(t *testing.T) {
	p := llm.BuildPrompt("  best way across town?  ")
	assert.Contains(t, p, "User: best way across town?")
	assert.Contains(t, p, "mobility")
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limited", genai.APIError{Code: http.StatusTooManyRequests, Status: "RESOURCE_EXHAUSTED"}, true},
		{"request timeout", genai.APIError{Code: http.StatusRequestTimeout}, true},
		{"server error", genai.APIError{Code: http.StatusInternalServerError}, true},
		{"unavailable wrapped", fmt.Errorf("gemini generate: %w", genai.APIError{Code: http.StatusServiceUnavailable}), true},
		{"pointer error", &genai.APIError{Code: http.StatusBadGateway}, true},
		{"bad request", genai.APIError{Code: http.StatusBadRequest, Message: "quota exceeded 503"}, false},
		{"permission denied", genai.APIError{Code: http.StatusForbidden}, false},
		{"deadline", context.DeadlineExceeded, true},
		{"wrapped deadline", fmt.Errorf("attempt: %w", context.DeadlineExceeded), true},
		{"plain error mentioning 503", errors.New("503 service unavailable"), false},
		{"canceled", context.Canceled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, llm.IsTransient(tt.err))
		})
	}
}

func TestNewGeminiGenerator_RequiresKey(t *testing.T) {
	_, err := llm.NewGeminiGenerator(context.Background(), llm.GeminiConfig{})
	assert.ErrorIs(t, err, llm.ErrNotConfigured)
}
