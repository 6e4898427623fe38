package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/qmobility/qmobility/internal/api/models"
	"github.com/qmobility/qmobility/internal/api/response"
	"github.com/qmobility/qmobility/internal/assistant"
	"github.com/qmobility/qmobility/internal/mobility"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 64 << 10

// RecommendationHandler handles the recommendation and chat endpoints.
type RecommendationHandler struct {
	service   *mobility.Service
	assistant *assistant.Assistant
}

// NewRecommendationHandler creates a new RecommendationHandler.
func NewRecommendationHandler(service *mobility.Service, a *assistant.Assistant) *RecommendationHandler {
	return &RecommendationHandler{service: service, assistant: a}
}

// Recommend handles POST /v1/recommendations - rule-based recommendation
// for one utterance.
func (h *RecommendationHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	var input models.RecommendationRequest
	if !decodeBody(w, r, &input) {
		return
	}
	if fieldErrors := validateText("utterance", input.Utterance); fieldErrors != nil {
		response.BadRequest(w, r, "validation error", fieldErrors...)
		return
	}

	result := h.service.Process(r.Context(), input.Utterance)
	response.JSON(w, r, http.StatusOK, result)
}

// Chat handles POST /v1/chat - conversational reply, using the hosted model
// only when the rules have nothing to act on.
func (h *RecommendationHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var input models.ChatRequest
	if !decodeBody(w, r, &input) {
		return
	}
	if fieldErrors := validateText("message", input.Message); fieldErrors != nil {
		response.BadRequest(w, r, "validation error", fieldErrors...)
		return
	}

	response.JSON(w, r, http.StatusOK, h.assistant.Reply(r.Context(), input.Message))
}

// decodeBody reads a JSON body into dst, writing a 400 problem on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.BadRequest(w, r, "request body too large")
			return false
		}
		response.BadRequest(w, r, "invalid JSON body")
		return false
	}
	return true
}

func validateText(field, value string) []models.FieldError {
	switch {
	case strings.TrimSpace(value) == "":
		return []models.FieldError{{Field: field, Message: "must not be empty", Code: models.FieldCodeRequired}}
	case utf8.RuneCountInString(value) > models.MaxInputRunes:
		return []models.FieldError{{Field: field, Message: "must be at most 1000 characters", Code: models.FieldCodeTooLong}}
	}
	return nil
}
