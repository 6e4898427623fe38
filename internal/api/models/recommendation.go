package models

// MaxInputRunes bounds utterances and chat messages.
const MaxInputRunes = 1000

// RecommendationRequest is the body of POST /v1/recommendations.
type RecommendationRequest struct {
	Utterance string `json:"utterance"`
}

// ChatRequest is the body of POST /v1/chat.
type ChatRequest struct {
	Message string `json:"message"`
}
