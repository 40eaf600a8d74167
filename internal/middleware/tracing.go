package middleware

import (
	"context"
	"strings"

	"myblog/internal/observability"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// WithTraceID returns ctx carrying tid for log enrichment.
func WithTraceID(ctx context.Context, tid string) context.Context {
	return context.WithValue(ctx, TraceIDKey, tid)
}

// TracingMiddleware opens a server span per request, named after the matched
// route. Probe and metrics endpoints are not traced.
func TracingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if isProbe(c.Path()) {
			return c.Next()
		}

		carrier := propagation.HeaderCarrier(c.GetReqHeaders())
		ctx := otel.GetTextMapPropagator().Extract(c.UserContext(), carrier)
		ctx, span := observability.Tracer.Start(ctx, c.Method()+" "+c.Route().Path,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.request.method", c.Method()),
				attribute.String("url.path", c.Path()),
				attribute.String("client.address", c.IP()),
			),
		)
		defer span.End()

		if rid, ok := c.Locals("requestid").(string); ok {
			span.SetAttributes(attribute.String("request.id", rid))
		}
		c.SetUserContext(WithTraceID(ctx, span.SpanContext().TraceID().String()))

		err := c.Next()

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
		span.SetAttributes(attribute.Int("http.response.status_code", status))
		if id := c.Params("id"); id != "" {
			span.SetAttributes(attribute.String("blog.resource_id", id))
		}
		if uid, ok := CurrentUserID(c); ok {
			span.SetAttributes(attribute.Int("user.id", int(uid)))
		}
		if err != nil {
			span.RecordError(err)
		}
		if status >= fiber.StatusInternalServerError {
			span.SetStatus(codes.Error, "server error")
		}
		return err
	}
}

func isProbe(path string) bool {
	return path == "/metrics" || path == "/health" || strings.HasPrefix(path, "/health/")
}
