package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// TracingMiddleware OpenTelemetryトレーシングミドルウェア
func TracingMiddleware() echo.MiddlewareFunc {
	tracer := otel.Tracer("coin-wallet-http")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			// トレースコンテキストの伝播
			ctx := otel.GetTextMapPropagator().Extract(req.Context(), propagation.HeaderCarrier(req.Header))

			route := c.Path()
			if route == "" {
				route = req.URL.Path
			}
			ctx, span := tracer.Start(ctx, req.Method+" "+route,
				trace.WithSpanKind(trace.SpanKindServer),
			)
			defer span.End()

			span.SetAttributes(
				attribute.String("http.method", req.Method),
				attribute.String("http.route", route),
				attribute.String("http.user_agent", req.UserAgent()),
				attribute.String("http.request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			c.SetRequest(req.WithContext(ctx))

			err := next(c)

			statusCode := c.Response().Status
			span.SetAttributes(attribute.Int("http.status_code", statusCode))
			if userID, ok := c.Get(UserIDKey).(string); ok && userID != "" {
				span.SetAttributes(attribute.String("user_id", userID))
			}

			if err != nil {
				span.RecordError(err)
			}
			if err != nil || statusCode >= http.StatusInternalServerError {
				span.SetStatus(otelcodes.Error, http.StatusText(statusCode))
			}

			return err
		}
	}
}
