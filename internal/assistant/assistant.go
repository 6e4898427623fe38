// Package assistant answers chat messages: the rule engine first, the hosted
// model only when the message carries nothing the rules can act on.
package assistant

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/qmobility/qmobility/internal/compose"
	"github.com/qmobility/qmobility/internal/llm"
	"github.com/qmobility/qmobility/internal/mobility"
)

// Source identifies which path produced a reply.
type Source string

// Reply sources.
const (
	SourceRules   Source = "rules"
	SourceTraffic Source = "traffic"
	SourceLLM     Source = "llm"
)

// exitWords end a terminal session.
var exitWords = []string{"exit", "quit", "stop", "bye"}

// IsExit reports whether the message asks to end the session.
func IsExit(message string) bool {
	m := strings.ToLower(strings.TrimSpace(message))
	for _, w := range exitWords {
		if m == w {
			return true
		}
	}
	return false
}

// Fallback is the hosted-model path. *llm.Fallback implements it.
type Fallback interface {
	Enabled() bool
	Reply(ctx context.Context, message string) llm.Reply
}

// Config holds configuration for the assistant.
type Config struct {
	// Mobility is required.
	Mobility *mobility.Service

	// Fallback is optional.
	Fallback Fallback

	// Logger for assistant operations.
	Logger zerolog.Logger
}

// Assistant routes chat messages.
type Assistant struct {
	mobility *mobility.Service
	fallback Fallback
	logger   zerolog.Logger
}

// Response is the assistant's answer to one message.
type Response struct {
	Text   string          `json:"reply"`
	Source Source          `json:"source"`
	Status llm.Status      `json:"llmStatus,omitempty"`
	Result mobility.Result `json:"result"`
}

// New creates an assistant.
func New(cfg Config) (*Assistant, error) {
	if cfg.Mobility == nil {
		return nil, errors.New("assistant: mobility service is required")
	}
	return &Assistant{
		mobility: cfg.Mobility,
		fallback: cfg.Fallback,
		logger:   cfg.Logger,
	}, nil
}

// Reply answers one message. The model is consulted only when no city was
// resolved and no distance was given; its text is returned verbatim.
func (a *Assistant) Reply(ctx context.Context, message string) Response {
	result := a.mobility.Process(ctx, message)

	if result.Actionable() {
		return Response{Text: compose.Compose(result), Source: SourceRules, Result: result}
	}

	if result.AsksTraffic {
		return Response{Text: compose.TrafficAdvice, Source: SourceTraffic, Result: result}
	}

	if a.fallback != nil && a.fallback.Enabled() {
		reply := a.fallback.Reply(ctx, message)
		a.logger.Debug().Str("llm_status", string(reply.Status)).Msg("answered with llm fallback")
		return Response{Text: reply.Text, Source: SourceLLM, Status: reply.Status, Result: result}
	}

	return Response{Text: compose.Compose(result), Source: SourceRules, Result: result}
}
