package models_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qmobility/qmobility/internal/api/models"
)

func TestProblemKind_Catalog(t *testing.T) {
	tests := []struct {
		kind   models.ProblemKind
		slug   string
		title  string
		status int
	}{
		{models.ProblemValidation, "validation-error", "Validation error", http.StatusBadRequest},
		{models.ProblemNotFound, "not-found", "Not found", http.StatusNotFound},
		{models.ProblemMethodNotAllowed, "method-not-allowed", "Method not allowed", http.StatusMethodNotAllowed},
		{models.ProblemTLSRequired, "tls-required", "TLS required", http.StatusForbidden},
		{models.ProblemUnsupportedMediaType, "unsupported-media-type", "Unsupported media type", http.StatusUnsupportedMediaType},
		{models.ProblemTooManyRequests, "too-many-requests", "Too many requests", http.StatusTooManyRequests},
		{models.ProblemInternal, "internal-error", "Internal server error", http.StatusInternalServerError},
		{models.ProblemUnavailable, "service-unavailable", "Service unavailable", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			assert.Equal(t, "https://qmobility.dev/problems/"+tt.slug, tt.kind.URI())
			assert.Equal(t, tt.title, tt.kind.Title())
			assert.Equal(t, tt.status, tt.kind.Status())
		})
	}
}

func TestProblemKind_UnknownIsInternal(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, models.ProblemKind(99).Status())
	assert.Equal(t, models.ProblemInternal.URI(), models.ProblemKind(-1).URI())
}

func TestProblem_Write(t *testing.T) {
	p := models.NewProblem(models.ProblemValidation, "req_test123", "invalid input").
		WithErrors(models.FieldError{Field: "message", Message: "too long", Code: models.FieldCodeTooLong})
	p.Instance = "/v1/chat"

	w := httptest.NewRecorder()
	p.Write(w)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
	assert.Equal(t, "req_test123", w.Header().Get("X-Request-Id"))

	var result models.Problem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))

	assert.Equal(t, models.ProblemValidation.URI(), result.Type)
	assert.Equal(t, "Validation error", result.Title)
	assert.Equal(t, http.StatusBadRequest, result.Status)
	assert.Equal(t, "invalid input", result.Detail)
	assert.Equal(t, "/v1/chat", result.Instance)
	assert.Equal(t, "req_test123", result.TraceID)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "message", result.Errors[0].Field)
	assert.Equal(t, "TOO_LONG", result.Errors[0].Code)
}

func TestProblem_WriteWithoutTraceID(t *testing.T) {
	w := httptest.NewRecorder()
	models.NewProblem(models.ProblemInternal, "", "boom").Write(w)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, w.Header().Get("X-Request-Id"))
}

func TestTimestamp_JSON(t *testing.T) {
	ts := models.Timestamp(time.Date(2025, 3, 1, 9, 30, 0, 0, time.FixedZone("CET", 3600)))

	data, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, `"2025-03-01T08:30:00Z"`, string(data))

	var back models.Timestamp
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, ts.Time().Equal(back.Time()))

	require.NoError(t, json.Unmarshal([]byte(`"2025-03-01T08:30:00.250Z"`), &back))
	assert.Equal(t, 250*time.Millisecond, time.Duration(back.Time().Nanosecond()))

	assert.Error(t, json.Unmarshal([]byte(`12`), &back))
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &back))
}
