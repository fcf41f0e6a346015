package logger

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLogLevel(tt.input); got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestContextRequestLoggerFallback(t *testing.T) {
	// a bare context has no request logger; the default must come back
	if got := ContextRequestLogger(context.Background()); got != slog.Default() {
		t.Error("expected slog.Default() for a context without a request logger")
	}
}

func TestContextRequestLoggerRoundTrip(t *testing.T) {
	logger := slog.Default().With(slog.String("request_id", "test"))
	ctx := ContextWithRequestLogger(context.Background(), logger)

	if got := ContextRequestLogger(ctx); got != logger {
		t.Error("stored request logger was not returned")
	}
}

func TestContextWithLogAttrsNoOp(t *testing.T) {
	// must not panic on a context that RequestLogging never touched
	ContextWithLogAttrs(context.Background(), slog.String("key", "value"))
}

func TestRequestLoggingAttachesLogger(t *testing.T) {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(RequestLogging(slog.Default()))

	var sawRequestLogger bool
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		sawRequestLogger = ContextRequestLogger(r.Context()) != slog.Default()
		ContextWithLogAttrs(r.Context(), slog.String("extra", "attr"))
		w.WriteHeader(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/health", nil)
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if !sawRequestLogger {
		t.Error("handler did not see a request-scoped logger")
	}
}
