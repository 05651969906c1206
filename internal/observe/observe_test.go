package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// --- Metrics ---

func TestMetricsRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RequestsTotal.WithLabelValues("GET", "200").Inc()
	m.RequestDuration.WithLabelValues("GET").Observe(0.05)
	m.FailuresTotal.WithLabelValues("POST").Inc()
	m.ExcludedTotal.Inc()

	expected := `
# HELP interceptor_requests_total Total number of intercepted requests.
# TYPE interceptor_requests_total counter
interceptor_requests_total{method="GET",status="200"} 1
`
	if err := testutil.CollectAndCompare(m.RequestsTotal, strings.NewReader(expected)); err != nil {
		t.Fatalf("metrics mismatch: %v", err)
	}
}

func TestMetricsHistogramObservations(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RequestDuration.WithLabelValues("GET").Observe(0.001)
	m.RequestDuration.WithLabelValues("GET").Observe(0.05)
	m.RequestDuration.WithLabelValues("GET").Observe(2.0)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var count uint64
	for _, mf := range mfs {
		if mf.GetName() == "interceptor_request_duration_seconds" {
			for _, metric := range mf.GetMetric() {
				count += metric.GetHistogram().GetSampleCount()
			}
		}
	}
	if count != 3 {
		t.Fatalf("expected 3 observations, got %d", count)
	}
}

// --- Logging ---

func TestNewLoggerJSONDefault(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: LevelInfo, Output: &buf})

	logger.Info("test message", "key", "value")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not valid JSON: %v\noutput: %s", err, buf.String())
	}
	if entry["msg"] != "test message" {
		t.Fatalf("expected msg 'test message', got %v", entry["msg"])
	}
	if entry["key"] != "value" {
		t.Fatalf("expected key 'value', got %v", entry["key"])
	}
}

func TestNewLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: LevelWarn, Output: &buf})

	logger.Info("should be filtered")
	if buf.Len() > 0 {
		t.Fatal("info message should be filtered at warn level")
	}

	logger.Warn("should appear")
	if buf.Len() == 0 {
		t.Fatal("warn message should appear at warn level")
	}
}

func TestNewLoggerTextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Format: FormatText, Output: &buf})

	logger.Info("hello")
	if !strings.Contains(buf.String(), "msg=hello") {
		t.Fatalf("expected text format, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("debug") != LevelDebug {
		t.Error("debug")
	}
	if ParseLevel("WARN") != LevelWarn {
		t.Error("WARN")
	}
	if ParseLevel("error") != LevelError {
		t.Error("error")
	}
	if ParseLevel("") != LevelInfo || ParseLevel("bogus") != LevelInfo {
		t.Error("unknown should mean info")
	}
}

func TestParseFormat(t *testing.T) {
	if ParseFormat("text") != FormatText {
		t.Error("text")
	}
	if ParseFormat("json") != FormatJSON || ParseFormat("") != FormatJSON {
		t.Error("json should be the default")
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	// Must be safe to use anywhere a logger is required.
	NopLogger().Error("discarded", "key", "value")
}

func TestLoggerContext(t *testing.T) {
	logger := slog.Default()
	ctx := WithLogger(context.Background(), logger)

	if LoggerFrom(ctx) != logger {
		t.Fatal("should retrieve same logger from context")
	}
	if LoggerFrom(context.Background()) == nil {
		t.Fatal("should return default logger when none in context")
	}
}

// --- EventLogger ---

func TestSlogEventLoggerEmitsFields(t *testing.T) {
	var buf bytes.Buffer
	el := NewSlogEventLogger(NewLogger(LogConfig{Output: &buf}))

	el.Log(slog.LevelInfo, "HTTP Request http://x/y", map[string]any{
		"method":     "GET",
		"level_name": "INFO",
	})

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("event is not valid JSON: %v", err)
	}
	if entry["msg"] != "HTTP Request http://x/y" {
		t.Errorf("unexpected event name %v", entry["msg"])
	}
	if entry["method"] != "GET" {
		t.Errorf("expected method field, got %v", entry["method"])
	}
	if entry["level_name"] != "INFO" {
		t.Errorf("expected level_name field, got %v", entry["level_name"])
	}
}

func TestSlogEventLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	el := NewSlogEventLogger(NewLogger(LogConfig{Level: LevelInfo, Output: &buf}))

	el.Log(slog.LevelError, "HTTP Error http://x/y", map[string]any{})

	var entry map[string]interface{}
	json.Unmarshal(buf.Bytes(), &entry)
	if entry["level"] != "ERROR" {
		t.Fatalf("expected ERROR slog level, got %v", entry["level"])
	}
}

func TestNopEventLogger(t *testing.T) {
	// Must not panic and must accept any input.
	NopEventLogger{}.Log(slog.LevelError, "anything", nil)
}

// --- Tracing ---

func TestGenerateTraceIDUnique(t *testing.T) {
	ids := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := GenerateTraceID()
		if ids[id] {
			t.Fatalf("duplicate trace ID: %s", id)
		}
		ids[id] = true
	}
}

func TestTraceIDFromRequestReusesExisting(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(TraceHeader, "existing-trace-id")

	if got := TraceIDFromRequest(req); got != "existing-trace-id" {
		t.Fatalf("expected existing-trace-id, got %s", got)
	}
}

func TestTraceIDFromRequestGeneratesNew(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	if got := TraceIDFromRequest(req); got == "" {
		t.Fatal("should generate a trace ID")
	}
}

func TestTraceIDContext(t *testing.T) {
	ctx := WithTraceID(context.Background(), "my-trace")
	if got := TraceIDFrom(ctx); got != "my-trace" {
		t.Fatalf("expected my-trace, got %s", got)
	}
	if TraceIDFrom(context.Background()) != "" {
		t.Fatal("missing trace ID should be empty")
	}
}
