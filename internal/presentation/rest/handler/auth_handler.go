package handler

import (
	"net/http"
	"strings"

	authapp "coin-wallet/internal/application/auth"

	"github.com/labstack/echo/v4"
)

// AuthHandler 認証関連ハンドラー
type AuthHandler struct {
	authService *authapp.AuthApplicationService
}

// NewAuthHandler 新しいAuthHandlerを作成
func NewAuthHandler(authService *authapp.AuthApplicationService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// GenerateToken ウォレットAPI用のトークンを発行する
// @Summary ウォレットAPIのトークンを発行
// @Tags auth
// @Accept json
// @Produce json
// @Param request body GenerateTokenRequest true "ユーザーID"
// @Success 200 {object} GenerateTokenResponse
// @Failure 400 {object} ErrorResponse
// @Router /auth/token [post]
func (h *AuthHandler) GenerateToken(c echo.Context) error {
	var body GenerateTokenRequest
	if err := bindAndValidate(c, &body); err != nil {
		return err
	}
	userID := strings.TrimSpace(body.UserID)
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "UserID is required")
	}

	issued, err := h.authService.GenerateToken(c.Request().Context(), &authapp.GenerateTokenRequest{UserID: userID})
	if err != nil {
		return err
	}

	// トークンはプロキシやブラウザにキャッシュさせない
	c.Response().Header().Set("Cache-Control", "no-store")
	return c.JSON(http.StatusOK, GenerateTokenResponse{
		Token:     issued.Token,
		ExpiresIn: int(issued.ExpiresIn),
		TokenType: issued.TokenType,
	})
}
