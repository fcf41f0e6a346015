// Package logger configures the application slog loggers.
//
// In dev the logs are rendered for the console using tint; in prod the logs
// are emitted as JSON for ingestion by the log pipeline.
//
// Request-scoped loggers are stored on the request context by the
// RequestLogging middleware and retrieved by handlers with
// ContextRequestLogger.
package logger

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/lmittmann/tint"
)

// ParseLogLevel converts a LOG_LEVEL string to a slog.Level.
// Unrecognized values fall back to info.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// InitLogger creates the application logger.
//
// dev/test environments get human-readable tint output, everything else gets
// JSON. The returned logger is also installed as the slog default.
func InitLogger(level slog.Level, environment string) *slog.Logger {
	var handler slog.Handler

	if environment == "dev" || environment == "test" {
		handler = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}

type contextKey int

const (
	requestLoggerKey contextKey = iota
	logAttrsKey
)

// logAttrs accumulates attributes added by middleware/handlers during a
// request so they can be included in the final request log line.
type logAttrs struct {
	mu    sync.Mutex
	attrs []slog.Attr
}

// ContextWithRequestLogger stores a request-scoped logger on the context.
func ContextWithRequestLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, requestLoggerKey, logger)
}

// ContextRequestLogger retrieves the request-scoped logger from the context.
// Falls back to slog.Default() if the context has no request logger (e.g. in
// tests that call handlers directly).
func ContextRequestLogger(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(requestLoggerKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// ContextWithLogAttrs appends attributes to the request's attribute
// accumulator, to be emitted with the final request log line.
// No-op if the context was not set up by RequestLogging.
func ContextWithLogAttrs(ctx context.Context, attrs ...slog.Attr) {
	la, ok := ctx.Value(logAttrsKey).(*logAttrs)
	if !ok {
		return
	}
	la.mu.Lock()
	defer la.mu.Unlock()
	la.attrs = append(la.attrs, attrs...)
}

// RequestLogging returns a chi middleware that attaches a request-scoped
// logger to the context and emits one log line per completed request.
func RequestLogging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := middleware.GetReqID(r.Context())

			reqLogger := logger.With(
				slog.String("request_id", requestID),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
			)

			la := &logAttrs{}
			ctx := ContextWithRequestLogger(r.Context(), reqLogger)
			ctx = context.WithValue(ctx, logAttrsKey, la)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r.WithContext(ctx))

			la.mu.Lock()
			extra := la.attrs
			la.mu.Unlock()

			args := []any{
				slog.Int("status", ww.Status()),
				slog.Duration("duration", time.Since(start)),
			}
			for _, attr := range extra {
				args = append(args, attr)
			}

			reqLogger.Info("request completed", args...)
		})
	}
}
