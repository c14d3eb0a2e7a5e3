// Package middleware holds the HTTP Surface's cross-cutting request
// handling: structured access logging and metrics recording.
package middleware

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// MetricsRecorder is the narrow hook the logging middleware reports HTTP
// request outcomes through; nil is a valid no-op value.
type MetricsRecorder interface {
	RecordHTTPRequest(method, path string, status int, duration time.Duration)
}

// responseWriterWrapper captures the status code written by the wrapped
// handler so it can be logged after the fact.
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriterWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Logging returns a middleware that logs each request as a structured
// logrus entry and reports it to metrics, if non-nil.
func Logging(metrics MetricsRecorder) func(http.Handler) http.Handler {
	log := logrus.WithField("component", "http")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriterWrapper{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			duration := time.Since(start)
			log.WithFields(logrus.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      wrapped.statusCode,
				"duration_ms": duration.Milliseconds(),
				"remote_addr": r.RemoteAddr,
			}).Info("http request")

			if metrics != nil {
				metrics.RecordHTTPRequest(r.Method, r.URL.Path, wrapped.statusCode, duration)
			}
		})
	}
}
