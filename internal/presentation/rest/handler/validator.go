package handler

import (
	"net/http"

	restmiddleware "coin-wallet/internal/presentation/rest/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// RequestValidator echo.Validator の実装
type RequestValidator struct {
	validate *validator.Validate
}

// NewRequestValidator 新しいRequestValidatorを作成
func NewRequestValidator() *RequestValidator {
	return &RequestValidator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// Validate リクエストボディを検証し、最初の違反をHTTPエラーとして返す
func (v *RequestValidator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			return echo.NewHTTPError(http.StatusBadRequest, fieldMessage(errs[0]))
		}
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email address"
	case "max":
		return fe.Field() + " is too long"
	default:
		return fe.Field() + " is invalid"
	}
}

// bindAndValidate リクエストボディを読み込んで検証する
func bindAndValidate(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if c.Echo().Validator == nil {
		return nil
	}
	return c.Validate(dst)
}

// currentUserID 認証ミドルウェアが設定したユーザーIDを取得
func currentUserID(c echo.Context) (string, error) {
	userID, ok := c.Get(restmiddleware.UserIDKey).(string)
	if !ok || userID == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "user_id not found in token")
	}
	return userID, nil
}
