package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Component: ComponentStore, Format: FormatJSON, Output: &buf})

	logger.Info("Transaction added", FieldID, 42)
	logger.Debug("hidden")

	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec); err != nil {
		t.Fatalf("expected exactly one JSON record, got %q: %v", buf.String(), err)
	}
	if rec[FieldComponent] != ComponentStore || rec[FieldID] != float64(42) {
		t.Fatalf("record = %v", rec)
	}

	buf.Reset()
	logger.WithComponent(ComponentHTTP).Warn("slow")
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec[FieldComponent] != ComponentHTTP {
		t.Fatalf("component = %v", rec[FieldComponent])
	}
}

func TestPrettyFormat(t *testing.T) {
	var buf bytes.Buffer
	New(Config{Format: FormatPretty, Output: &buf, Component: ComponentApp}).Info("hello")
	if !bytes.Contains(buf.Bytes(), []byte("hello")) {
		t.Fatalf("pretty output = %q", buf.String())
	}
}

func TestMiddlewareAndFromContext(t *testing.T) {
	if got := FromContext(context.Background()); got.Component() != "unknown" {
		t.Fatalf("fallback component = %q", got.Component())
	}

	var buf bytes.Buffer
	logger := New(Config{Component: ComponentHTTP, Format: FormatJSON, Output: &buf})
	h := Middleware(logger)(RequestIDMiddleware(func(*http.Request) string { return "req_1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			LogError(r.Context(), FromContext(r.Context()), "boom", errors.New("disk full"), OpCreate, ErrorTypeStorage)
		}),
	))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec); err != nil {
		t.Fatalf("unmarshal %q: %v", buf.String(), err)
	}
	if rec[FieldRequestID] != "req_1" || rec[FieldError] != "disk full" || rec[FieldErrorType] != ErrorTypeStorage {
		t.Fatalf("record = %v", rec)
	}
}
