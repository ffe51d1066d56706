package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-ID"

type logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// Mutable part of the request log entry. Inner middlewares fill it in
type requestLog struct {
	userID uuid.UUID
}

type requestLogKey struct{}

// Record authenticated user to the access log entry of the request
func setLogUser(ctx context.Context, userID uuid.UUID) {
	if entry, ok := ctx.Value(requestLogKey{}).(*requestLog); ok {
		entry.userID = userID
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (w *statusWriter) Write(p []byte) (int, error) {
	size, err := w.ResponseWriter.Write(p)
	w.size += size
	return size, err
}

func (w *statusWriter) WriteHeader(statusCode int) {
	w.ResponseWriter.WriteHeader(statusCode)
	w.status = statusCode
}

// Log every request once it is served. Server errors are logged with error level
// Request id is taken from X-Request-ID header or generated, and echoed back
// Query string is not logged: it may carry tokens
func LoggerMiddleware(l logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, requestID)

			entry := &requestLog{}
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(sw, r.WithContext(context.WithValue(r.Context(), requestLogKey{}, entry)))

			log := l.Info
			if sw.status >= http.StatusInternalServerError {
				log = l.Error
			}

			args := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
				"request_id", requestID,
				"duration", time.Since(start),
				"status", sw.status,
				"size", sw.size,
			}
			if entry.userID != uuid.Nil {
				args = append(args, "user_id", entry.userID)
			}

			log("got HTTP request", args...)
		})
	}
}
