// Package response writes JSON bodies and RFC 7807 problems for handlers.
package response

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/qmobility/qmobility/internal/api/middleware"
	"github.com/qmobility/qmobility/internal/api/models"
)

// JSON writes data with the given status. The body is encoded before the
// header goes out, so an encoding failure still yields a clean 500 problem.
func JSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	requestID := middleware.GetRequestID(r.Context())

	var body bytes.Buffer
	if data != nil {
		if err := json.NewEncoder(&body).Encode(data); err != nil {
			Problem(w, r, models.ProblemInternal, "response encoding failed")
			return
		}
	}

	if requestID != "" {
		w.Header().Set("X-Request-Id", requestID)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body.Bytes())
}

// Problem writes a problem of the given kind for the request.
func Problem(w http.ResponseWriter, r *http.Request, kind models.ProblemKind, detail string, fieldErrors ...models.FieldError) {
	p := models.NewProblem(kind, middleware.GetRequestID(r.Context()), detail).WithErrors(fieldErrors...)
	p.Instance = r.URL.Path
	p.Write(w)
}

// BadRequest writes a 400 validation problem.
func BadRequest(w http.ResponseWriter, r *http.Request, detail string, fieldErrors ...models.FieldError) {
	Problem(w, r, models.ProblemValidation, detail, fieldErrors...)
}

// ServiceUnavailable writes a 503 problem.
func ServiceUnavailable(w http.ResponseWriter, r *http.Request, detail string) {
	Problem(w, r, models.ProblemUnavailable, detail)
}
