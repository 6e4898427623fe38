package models

import (
	"encoding/json"
	"net/http"
)

// problemBaseURI prefixes every problem type.
const problemBaseURI = "https://qmobility.dev/problems/"

// ProblemKind enumerates the error classes the API can return.
type ProblemKind int

// Problem kinds.
const (
	ProblemValidation ProblemKind = iota
	ProblemNotFound
	ProblemMethodNotAllowed
	ProblemTLSRequired
	ProblemUnsupportedMediaType
	ProblemTooManyRequests
	ProblemInternal
	ProblemUnavailable
)

type problemType struct {
	slug   string
	title  string
	status int
}

var problemCatalog = [...]problemType{
	ProblemValidation:           {"validation-error", "Validation error", http.StatusBadRequest},
	ProblemNotFound:             {"not-found", "Not found", http.StatusNotFound},
	ProblemMethodNotAllowed:     {"method-not-allowed", "Method not allowed", http.StatusMethodNotAllowed},
	ProblemTLSRequired:          {"tls-required", "TLS required", http.StatusForbidden},
	ProblemUnsupportedMediaType: {"unsupported-media-type", "Unsupported media type", http.StatusUnsupportedMediaType},
	ProblemTooManyRequests:      {"too-many-requests", "Too many requests", http.StatusTooManyRequests},
	ProblemInternal:             {"internal-error", "Internal server error", http.StatusInternalServerError},
	ProblemUnavailable:          {"service-unavailable", "Service unavailable", http.StatusServiceUnavailable},
}

func (k ProblemKind) info() problemType {
	if k < 0 || int(k) >= len(problemCatalog) {
		return problemCatalog[ProblemInternal]
	}
	return problemCatalog[k]
}

// URI returns the problem type URI.
func (k ProblemKind) URI() string { return problemBaseURI + k.info().slug }

// Title returns the fixed human-readable title.
func (k ProblemKind) Title() string { return k.info().title }

// Status returns the HTTP status code.
func (k ProblemKind) Status() int { return k.info().status }

// Problem is an RFC 7807 error body, written as application/problem+json.
type Problem struct {
	Type     string       `json:"type"`
	Title    string       `json:"title"`
	Status   int          `json:"status"`
	Detail   string       `json:"detail,omitempty"`
	Instance string       `json:"instance,omitempty"`
	TraceID  string       `json:"traceId"`
	Errors   []FieldError `json:"errors,omitempty"`
}

// FieldError describes one invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Field error codes.
const (
	FieldCodeRequired = "REQUIRED"
	FieldCodeTooLong  = "TOO_LONG"
)

// NewProblem builds a problem of the given kind. traceID is the request ID.
func NewProblem(kind ProblemKind, traceID, detail string) *Problem {
	return &Problem{
		Type:    kind.URI(),
		Title:   kind.Title(),
		Status:  kind.Status(),
		Detail:  detail,
		TraceID: traceID,
	}
}

// WithErrors attaches field errors.
func (p *Problem) WithErrors(errs ...FieldError) *Problem {
	p.Errors = append(p.Errors, errs...)
	return p
}

// Write sends the problem with its status code.
func (p *Problem) Write(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/problem+json")
	if p.TraceID != "" {
		w.Header().Set("X-Request-Id", p.TraceID)
	}
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}
