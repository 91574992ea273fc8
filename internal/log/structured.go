package log

import (
	"context"
	"log/slog"
	"net/http"
)

// StructuredLogger emits the domain events the POS cares about with a
// fixed field set per event, so the records are greppable across
// server and worker logs.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

// LogHTTPStart records an incoming request before it is handled.
func (sl *StructuredLogger) LogHTTPStart(ctx context.Context, r *http.Request, requestID, clientIP string) {
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent"), r.Header.Get("Referer")).
		WithRequestID(requestID).
		WithClientIP(clientIP).
		WithComponent(ComponentHTTP)

	sl.logger.InfoContext(ctx, "HTTP request started", fields.ToSlice()...)
}

// LogHTTPEnd records the response: Info below 400, Warn for client
// errors, Error for server errors.
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, requestID, clientIP string) {
	level := slog.LevelInfo
	if statusCode >= 500 {
		level = slog.LevelError
	} else if statusCode >= 400 {
		level = slog.LevelWarn
	}

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "", "").
		WithHTTPResponse(statusCode, durationMs, statusCode < 400).
		WithRequestID(requestID).
		WithClientIP(clientIP).
		WithComponent(ComponentHTTP)

	sl.logger.Log(ctx, level, "HTTP request completed", fields.ToSlice()...)
}

// LogSuspiciousRequest flags a request whose path or headers match a
// known scanner pattern. The request is still served.
func (sl *StructuredLogger) LogSuspiciousRequest(ctx context.Context, r *http.Request, requestID, clientIP string) {
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent"), "").
		WithRequestID(requestID).
		WithClientIP(clientIP).
		WithComponent(ComponentSecurity)

	sl.logger.WarnContext(ctx, "Suspicious request", fields.ToSlice()...)
}

// LogSaleRecorded logs a successful checkout.
func (sl *StructuredLogger) LogSaleRecorded(ctx context.Context, saleID, orderNumber string, totalCents int64) {
	fields := NewFields().
		WithSale(saleID, orderNumber, totalCents).
		WithOperation(OpCheckout).
		WithComponent(ComponentStore)

	sl.logger.InfoContext(ctx, "Sale recorded", fields.ToSlice()...)
}

// LogSnapshotRecorded logs a recorded rollup snapshot.
func (sl *StructuredLogger) LogSnapshotRecorded(ctx context.Context, snapshotID, eventID string, grossCents int64, lines int) {
	fields := NewFields().
		WithSnapshot(snapshotID, eventID, grossCents, lines).
		WithOperation(OpRecord).
		WithComponent(ComponentStorage)

	sl.logger.InfoContext(ctx, "Snapshot recorded", fields.ToSlice()...)
}
