package middleware

import (
	"context"
	"net/http"
	"strings"

	otelinfra "coin-wallet/internal/infrastructure/observability/otel"

	"github.com/labstack/echo/v4"
)

// UserIDKey 認証済みユーザーIDを格納するコンテキストキー
const UserIDKey = "user_id"

// TokenValidator JWTを検証してユーザーIDを返す
type TokenValidator interface {
	ValidateToken(ctx context.Context, tokenString string) (string, error)
}

// AuthMiddleware JWT認証ミドルウェア
func AuthMiddleware(validator TokenValidator, logger *otelinfra.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			// Authorizationヘッダーからトークンを取得
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				logger.Warn(ctx, "Missing authorization header", nil)
				return c.JSON(http.StatusUnauthorized, ErrorResponse{
					Error:   "unauthorized",
					Message: "Missing authorization header",
				})
			}

			// Bearerトークンの形式を確認
			scheme, tokenString, found := strings.Cut(authHeader, " ")
			if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(tokenString) == "" {
				logger.Warn(ctx, "Invalid authorization header format", nil)
				return c.JSON(http.StatusUnauthorized, ErrorResponse{
					Error:   "unauthorized",
					Message: "Invalid authorization header format",
				})
			}

			userID, err := validator.ValidateToken(ctx, strings.TrimSpace(tokenString))
			if err != nil {
				logger.Warn(ctx, "Invalid token", map[string]interface{}{
					"error": err.Error(),
				})
				return c.JSON(http.StatusUnauthorized, ErrorResponse{
					Error:   "unauthorized",
					Message: "Invalid or expired token",
				})
			}

			c.Set(UserIDKey, userID)
			return next(c)
		}
	}
}
