package middleware

import (
	"net/http"
	"time"

	otelinfra "coin-wallet/internal/infrastructure/observability/otel"

	"github.com/labstack/echo/v4"
)

// LoggingMiddleware アクセスログミドルウェア（1リクエスト1行）
func LoggingMiddleware(logger *otelinfra.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			req := c.Request()
			fields := map[string]interface{}{
				"method":      req.Method,
				"path":        req.URL.Path,
				"status_code": c.Response().Status,
				"duration_ms": time.Since(start).Milliseconds(),
				"remote_addr": c.RealIP(),
				"request_id":  c.Response().Header().Get(echo.HeaderXRequestID),
			}
			if userID, ok := c.Get(UserIDKey).(string); ok && userID != "" {
				fields["user_id"] = userID
			}

			switch {
			case err != nil:
				logger.Error(req.Context(), "HTTP request failed", err, fields)
			case c.Response().Status >= http.StatusInternalServerError:
				logger.Warn(req.Context(), "HTTP request completed with server error", fields)
			default:
				logger.Info(req.Context(), "HTTP request completed", fields)
			}

			return err
		}
	}
}
