// Package trace assigns each request an id and logs its lifecycle.
package trace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	applog "fairpos/internal/log"
)

type contextKey string

const requestIDKey contextKey = "request_id"

type Middleware struct {
	extractIP  func(*http.Request) string
	suspicious func(*http.Request) bool
	logs       *applog.StructuredLogger
}

// NewMiddleware builds the tracing middleware. suspicious may be nil;
// when set, flagged requests are logged at Warn before handling. A nil
// logs gets a default stdout logger.
func NewMiddleware(extractIP func(*http.Request) string, suspicious func(*http.Request) bool, logs *applog.StructuredLogger) *Middleware {
	if logs == nil {
		logs = applog.NewStructuredLogger(applog.New(applog.DefaultConfig()))
	}
	return &Middleware{extractIP: extractIP, suspicious: suspicious, logs: logs}
}

func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := ""
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}

		requestID := GenerateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		if m.suspicious != nil && m.suspicious(r) {
			m.logs.LogSuspiciousRequest(ctx, r, requestID, clientIP)
		}

		m.logs.LogHTTPStart(ctx, r, requestID, clientIP)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		m.logs.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), requestID, clientIP)
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// GenerateRequestID returns a random id, falling back to a timestamp
// if the system RNG is unavailable.
func GenerateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

// GetRequestID extracts the request id from a context, or "".
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}
