package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/roomdrop/roomdrop/internal/metrics"
)

// statusWriter wraps http.ResponseWriter to capture status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

// Metrics returns middleware that records Prometheus metrics.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap response writer to capture status
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		path := normalizePath(r.URL.Path)

		metrics.HTTPRequestsTotal.WithLabelValues(
			r.Method, path, strconv.Itoa(wrapped.status),
		).Inc()

		metrics.HTTPRequestDuration.WithLabelValues(
			r.Method, path,
		).Observe(duration)
	})
}

// normalizePath normalizes paths to avoid high cardinality in metrics.
func normalizePath(path string) string {
	if path == "/api/rooms" || path == "/api/rooms/nearby" {
		return path
	}
	if rest, ok := strings.CutPrefix(path, "/api/rooms/"); ok && rest != "" {
		switch {
		case strings.HasSuffix(rest, "/messages"):
			return "/api/rooms/:id/messages"
		case strings.HasSuffix(rest, "/verify"):
			return "/api/rooms/:id/verify"
		default:
			return "/api/rooms/:id"
		}
	}
	if rest, ok := strings.CutPrefix(path, "/api/uploads/"); ok && rest != "" {
		return "/api/uploads/:id"
	}
	return path
}
