package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	authapp "coin-wallet/internal/application/auth"
	paymentapp "coin-wallet/internal/application/payment"
	"coin-wallet/internal/domain/coin"
	"coin-wallet/internal/domain/purchase"
	"coin-wallet/internal/domain/reward"
	"coin-wallet/internal/domain/transaction"
	"coin-wallet/internal/domain/wallet"
	otelinfra "coin-wallet/internal/infrastructure/observability/otel"
)

// ErrorResponse エラーレスポンス
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// errorMapping ドメインエラーとHTTPレスポンスの対応
type errorMapping struct {
	target  error
	status  int
	code    string
	message string // 空の場合は err.Error() を返す
}

var errorMappings = []errorMapping{
	{target: reward.ErrAlreadyClaimed, status: http.StatusConflict, code: "already_claimed"},
	{target: reward.ErrTaskLocked, status: http.StatusConflict, code: "task_locked"},
	{target: reward.ErrTaskNotFound, status: http.StatusNotFound, code: "task_not_found"},
	{target: purchase.ErrPaymentNotFound, status: http.StatusNotFound, code: "payment_not_found"},
	{target: purchase.ErrPaymentAlreadyFinalized, status: http.StatusConflict, code: "payment_already_finalized"},
	{target: coin.ErrPackageNotFound, status: http.StatusNotFound, code: "package_not_found"},
	{target: coin.ErrAmountBelowMinimum, status: http.StatusBadRequest, code: "amount_below_minimum"},
	{target: coin.ErrAmountAboveMaximum, status: http.StatusBadRequest, code: "amount_above_maximum"},
	{target: paymentapp.ErrFractionalAmount, status: http.StatusBadRequest, code: "invalid_amount"},
	{target: paymentapp.ErrInvalidPurchase, status: http.StatusBadRequest, code: "invalid_purchase"},
	{
		target:  paymentapp.ErrIncompleteProfile,
		status:  http.StatusBadRequest,
		code:    "incomplete_profile",
		message: "Please complete your profile (name, email, contact number) before purchasing",
	},
	{target: paymentapp.ErrCheckoutRejected, status: http.StatusUnprocessableEntity, code: "checkout_rejected"},
	{target: paymentapp.ErrGatewayUnavailable, status: http.StatusServiceUnavailable, code: "gateway_unavailable"},
	{target: paymentapp.ErrInvalidSignature, status: http.StatusUnauthorized, code: "invalid_signature"},
	{target: transaction.ErrInvalidDateRange, status: http.StatusBadRequest, code: "invalid_date_range"},
	{target: transaction.ErrInvalidTransaction, status: http.StatusBadRequest, code: "invalid_filter"},
	{target: wallet.ErrBalanceOutOfRange, status: http.StatusConflict, code: "balance_out_of_range"},
	{target: wallet.ErrVersionConflict, status: http.StatusConflict, code: "version_conflict"},
	{target: authapp.ErrInvalidUserID, status: http.StatusBadRequest, code: "invalid_user_id"},
	{target: authapp.ErrInvalidToken, status: http.StatusUnauthorized, code: "unauthorized"},
}

// ErrorHandlerMiddleware エラーハンドリングミドルウェア
func ErrorHandlerMiddleware(logger *otelinfra.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}
			if c.Response().Committed {
				return err
			}

			return HandleError(c, err, logger)
		}
	}
}

// HandleError エラーを処理して適切なHTTPレスポンスを返す
func HandleError(c echo.Context, err error, logger *otelinfra.Logger) error {
	ctx := c.Request().Context()

	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		message := m.message
		if message == "" {
			message = err.Error()
		}
		logger.Warn(ctx, "Request rejected", map[string]interface{}{
			"error": err.Error(),
			"code":  m.code,
			"path":  c.Request().URL.Path,
		})
		return c.JSON(m.status, ErrorResponse{
			Error:   m.code,
			Message: message,
		})
	}

	// EchoのHTTPエラー
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		logger.Warn(ctx, "HTTP error", map[string]interface{}{
			"status_code": httpErr.Code,
			"message":     httpErr.Message,
		})
		message, ok := httpErr.Message.(string)
		if !ok {
			message = http.StatusText(httpErr.Code)
		}
		return c.JSON(httpErr.Code, ErrorResponse{
			Error:   httpErrorCode(httpErr.Code),
			Message: message,
		})
	}

	// 予期しないエラー
	logger.Error(ctx, "Internal server error", err, map[string]interface{}{
		"path": c.Request().URL.Path,
	})
	return c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_server_error",
		Message: "An unexpected error occurred",
	})
}

func httpErrorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusTooManyRequests:
		return "rate_limited"
	default:
		return "http_error"
	}
}
