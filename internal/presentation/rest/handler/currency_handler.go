package handler

import (
	"net/http"

	currencyapp "coin-wallet/internal/application/currency"

	"github.com/labstack/echo/v4"
)

// CurrencyHandler 残高とパッケージカタログのハンドラー
type CurrencyHandler struct {
	currencyService *currencyapp.CurrencyApplicationService
}

// NewCurrencyHandler 新しいCurrencyHandlerを作成
func NewCurrencyHandler(currencyService *currencyapp.CurrencyApplicationService) *CurrencyHandler {
	return &CurrencyHandler{
		currencyService: currencyService,
	}
}

// GetBalance 残高取得ハンドラー（ユーザーAPI用）
// @Summary 残高を取得
// @Description 自分のコイン残高を取得します
// @Tags wallet
// @Produce json
// @Security Bearer
// @Success 200 {object} BalanceResponse "残高取得成功"
// @Failure 401 {object} ErrorResponse "認証エラー"
// @Router /me/balance [get]
func (h *CurrencyHandler) GetBalance(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	return h.writeBalance(c, userID)
}

// GetBalanceAdmin 残高取得ハンドラー（運用API用）
// @Summary 残高を取得（運用API）
// @Description 指定されたユーザーのコイン残高を取得します
// @Tags admin
// @Produce json
// @Param user_id path string true "ユーザーID" example(user123)
// @Param X-API-Key header string true "APIキー"
// @Success 200 {object} BalanceResponse "残高取得成功"
// @Failure 401 {object} ErrorResponse "認証エラー"
// @Router /admin/users/{user_id}/balance [get]
func (h *CurrencyHandler) GetBalanceAdmin(c echo.Context) error {
	userID := c.Param("user_id")
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id is required")
	}
	return h.writeBalance(c, userID)
}

func (h *CurrencyHandler) writeBalance(c echo.Context, userID string) error {
	resp, err := h.currencyService.GetBalance(c.Request().Context(), &currencyapp.GetBalanceRequest{
		UserID: userID,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, BalanceResponse{
		UserID:     resp.UserID,
		Balance:    resp.Balance,
		RupeeValue: resp.RupeeValue.StringFixed(2),
	})
}

// ListPackages パッケージ一覧ハンドラー
// @Summary コインパッケージ一覧
// @Description 販売中のコインパッケージを表示順で返します
// @Tags wallet
// @Produce json
// @Security Bearer
// @Success 200 {object} PackagesResponse "取得成功"
// @Failure 401 {object} ErrorResponse "認証エラー"
// @Router /coins/packages [get]
func (h *CurrencyHandler) ListPackages(c echo.Context) error {
	resp, err := h.currencyService.ListPackages(c.Request().Context())
	if err != nil {
		return err
	}

	items := make([]PackageItem, len(resp.Packages))
	for i, p := range resp.Packages {
		items[i] = PackageItem{
			PackageID:  p.PackageID,
			Name:       p.Name,
			CoinAmount: p.CoinAmount,
			BonusCoins: p.BonusCoins,
			TotalCoins: p.TotalCoins,
			RupeePrice: p.RupeePrice.StringFixed(2),
			IsPopular:  p.IsPopular,
		}
	}

	return c.JSON(http.StatusOK, PackagesResponse{Packages: items})
}
