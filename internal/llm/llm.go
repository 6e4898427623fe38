// Package llm adapts a hosted text-generation model as the fallback for
// messages the rule engine cannot act on.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Errors returned by generators.
var (
	ErrEmptyResponse = errors.New("empty response from model")
	ErrNotConfigured = errors.New("llm generator not configured")
)

// Generator produces a text continuation for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)

	// Name returns the provider name for logging and health reporting.
	Name() string
}

// Status describes how a fallback reply was produced.
type Status string

// Reply statuses.
const (
	StatusOK          Status = "ok"
	StatusUnavailable Status = "unavailable"
	StatusDisabled    Status = "disabled"
)

// UnavailableText is shown to the user when the model cannot answer.
const UnavailableText = "The chat assistant is unavailable right now. " +
	`Tell me your city and distance (e.g., "Paris, 3 km, raining") for an offline recommendation.`

// Reply is the outcome of a fallback call. Text is surfaced verbatim.
type Reply struct {
	Text   string `json:"text"`
	Status Status `json:"status"`
	Cached bool   `json:"cached"`
}

const promptTemplate = `You are Q, a concise urban mobility assistant.
Recommend how to travel (walk, bike, public transport, taxi, car or rail) and
keep the answer under 120 words. If the city or distance is missing, ask for it.

User: %s`

// BuildPrompt wraps the user's message in the assistant instructions.
func BuildPrompt(message string) string {
	return fmt.Sprintf(promptTemplate, strings.TrimSpace(message))
}
