// Package middleware provides request-scoped Fiber middleware for logging,
// authentication, rate limiting and tracing.
package middleware

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Logger is the global structured logger instance used throughout the application.
var Logger *slog.Logger

type contextKey string

const (
	RequestIDKey contextKey = "request_id"
	UserIDKey    contextKey = "user_id"
	TraceIDKey   contextKey = "trace_id"
)

// ctxHandler is a slog.Handler that adds context values to the log record.
type ctxHandler struct {
	slog.Handler
}

// Handle adds context values to the record before passing it to the underlying handler.
func (h *ctxHandler) Handle(ctx context.Context, r slog.Record) error {
	if rid, ok := ctx.Value(RequestIDKey).(string); ok {
		r.AddAttrs(slog.String("request_id", rid))
	}
	if uid, ok := ctx.Value(UserIDKey).(uint); ok {
		r.AddAttrs(slog.Any("user_id", uid))
	}
	if tid, ok := ctx.Value(TraceIDKey).(string); ok {
		r.AddAttrs(slog.String("trace_id", tid))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *ctxHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ctxHandler{h.Handler.WithAttrs(attrs)}
}

func (h *ctxHandler) WithGroup(name string) slog.Handler {
	return &ctxHandler{h.Handler.WithGroup(name)}
}

func init() {
	opts := &slog.HandlerOptions{Level: parseLevel(os.Getenv("LOG_LEVEL"))}

	var handler slog.Handler
	if os.Getenv("APP_ENV") == "production" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	Logger = slog.New(&ctxHandler{handler})
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithUserID returns ctx carrying uid for log enrichment.
func WithUserID(ctx context.Context, uid uint) context.Context {
	return context.WithValue(ctx, UserIDKey, uid)
}

// ContextMiddleware copies the request ID into the request context so that
// service-layer log lines carry it. Authenticate and TracingMiddleware add
// the user and trace IDs later in the chain.
func ContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if rid, ok := c.Locals("requestid").(string); ok {
			c.SetUserContext(context.WithValue(c.UserContext(), RequestIDKey, rid))
		}
		return c.Next()
	}
}

// StructuredLogger logs one line per request. Probes are logged at debug
// level only.
func StructuredLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}

		attrs := []any{
			slog.Int("status", status),
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("ip", c.IP()),
			slog.Duration("latency", time.Since(start)),
		}
		ctx := c.UserContext()
		switch {
		case err != nil:
			Logger.ErrorContext(ctx, "request failed", append(attrs, slog.String("error", err.Error()))...)
		case isProbe(c.Path()):
			Logger.DebugContext(ctx, "probe", attrs...)
		default:
			Logger.InfoContext(ctx, "request", append(attrs, slog.String("user_agent", c.Get(fiber.HeaderUserAgent)))...)
		}
		return err
	}
}
