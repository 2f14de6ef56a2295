package middleware

import (
	"net/http"
	"time"

	otelinfra "coin-wallet/internal/infrastructure/observability/otel"

	"github.com/labstack/echo/v4"
)

// MetricsMiddleware メトリクス記録ミドルウェア
// ErrorHandlerMiddleware より外側に置くと、エラーレスポンスのステータスコードで集計できる
func MetricsMiddleware(metrics *otelinfra.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			ctx := c.Request().Context()
			method := c.Request().Method
			path := c.Path()

			metrics.RecordRequest(ctx, method, path)

			err := next(c)

			metrics.RecordResponseTime(ctx, method, path, time.Since(start).Seconds())

			status := c.Response().Status
			if err != nil && status < http.StatusBadRequest {
				status = http.StatusInternalServerError
			}
			switch {
			case status >= http.StatusInternalServerError:
				metrics.RecordError(ctx, "server_error")
			case status >= http.StatusBadRequest:
				metrics.RecordError(ctx, "client_error")
			}

			return err
		}
	}
}
