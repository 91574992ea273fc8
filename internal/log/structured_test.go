package log

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
)

func capture() (*StructuredLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := New(Config{Handler: slog.NewTextHandler(&buf, nil)})
	return NewStructuredLogger(logger), &buf
}

func TestLogHTTPEndLevels(t *testing.T) {
	cases := []struct {
		status int
		level  string
	}{
		{200, "INFO"},
		{404, "WARN"},
		{500, "ERROR"},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprint(tc.status), func(t *testing.T) {
			sl, buf := capture()
			r := httptest.NewRequest("GET", "/api/products?active=1", nil)
			sl.LogHTTPEnd(context.Background(), r, tc.status, 12, "req_abc", "10.0.0.1")

			out := buf.String()
			for _, want := range []string{
				"level=" + tc.level,
				"HTTP request completed",
				"status_code=" + fmt.Sprint(tc.status),
				"request_id=req_abc",
				"client_ip=10.0.0.1",
				"component=http",
				"path=/api/products",
			} {
				if !strings.Contains(out, want) {
					t.Fatalf("log line missing %q:\n%s", want, out)
				}
			}
		})
	}
}

func TestLogHTTPStartCarriesRequestFields(t *testing.T) {
	sl, buf := capture()
	r := httptest.NewRequest("POST", "/api/checkout", nil)
	r.Header.Set("User-Agent", "pos-terminal/1.0")
	sl.LogHTTPStart(context.Background(), r, "req_def", "10.0.0.2")

	out := buf.String()
	for _, want := range []string{"HTTP request started", "method=POST", "request_id=req_def", "user_agent=pos-terminal/1.0"} {
		if !strings.Contains(out, want) {
			t.Fatalf("log line missing %q:\n%s", want, out)
		}
	}
}

func TestLogSaleRecordedFields(t *testing.T) {
	sl, buf := capture()
	sl.LogSaleRecorded(context.Background(), "SO-9f1c03a2", "Fall-241005-0930", 1600)

	out := buf.String()
	for _, want := range []string{"Sale recorded", "sale_id=SO-9f1c03a2", "order_number=Fall-241005-0930", "amount_cents=1600", "component=store", "operation=checkout"} {
		if !strings.Contains(out, want) {
			t.Fatalf("log line missing %q:\n%s", want, out)
		}
	}
}

func TestWithComponentTagsEveryRecord(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Handler: slog.NewTextHandler(&buf, nil)}).WithComponent(ComponentWorker)
	logger.Info("Worker stopped gracefully")

	if !strings.Contains(buf.String(), "component=worker") {
		t.Fatalf("record not tagged with component:\n%s", buf.String())
	}
}
