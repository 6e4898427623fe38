package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/qmobility/qmobility/internal/api/models"
)

// statusWriter records the status code and body size written by a handler.
type statusWriter struct {
	http.ResponseWriter
	status  int
	written int64
}

func newStatusWriter(w http.ResponseWriter) *statusWriter {
	return &statusWriter{ResponseWriter: w, status: http.StatusOK}
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Write(b []byte) (int, error) {
	n, err := sw.ResponseWriter.Write(b)
	sw.written += int64(n)
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (sw *statusWriter) Unwrap() http.ResponseWriter {
	return sw.ResponseWriter
}

// matchedRoute returns the chi route pattern, or "" when nothing matched.
// Only valid after the request has been routed.
func matchedRoute(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}

// routePattern is matchedRoute falling back to the raw path, for logs.
func routePattern(r *http.Request) string {
	if route := matchedRoute(r); route != "" {
		return route
	}
	return r.URL.Path
}

// writeProblem sends a problem for the current request.
func writeProblem(w http.ResponseWriter, r *http.Request, kind models.ProblemKind, detail string) {
	p := models.NewProblem(kind, GetRequestID(r.Context()), detail)
	p.Instance = r.URL.Path
	p.Write(w)
}
