package handler

import (
	"net/http"
	"strconv"
	"time"

	historyapp "coin-wallet/internal/application/history"
	"coin-wallet/internal/domain/transaction"

	"github.com/labstack/echo/v4"
)

// HistoryHandler 履歴関連ハンドラー
type HistoryHandler struct {
	historyService *historyapp.HistoryApplicationService
}

// NewHistoryHandler 新しいHistoryHandlerを作成
func NewHistoryHandler(historyService *historyapp.HistoryApplicationService) *HistoryHandler {
	return &HistoryHandler{
		historyService: historyService,
	}
}

// GetTransactionHistory トランザクション履歴取得ハンドラー（ユーザーAPI用）
// @Summary トランザクション履歴を取得
// @Description 自分のトランザクション履歴を新しい順に取得します。ページ番号とフィルタに対応しています
// @Tags history
// @Produce json
// @Security Bearer
// @Param page query int false "ページ番号（1始まり）" default(1)
// @Param limit query int false "取得件数（デフォルト: 20, 最大: 1000)" default(20)
// @Param type query string false "タイプでフィルタ（purchase/spend/earn/refund/withdraw）" example(purchase)
// @Param from query string false "開始日時（RFC3339）" example(2024-01-01T00:00:00Z)
// @Param to query string false "終了日時（RFC3339）" example(2024-01-31T23:59:59Z)
// @Success 200 {object} TransactionHistoryResponse "履歴取得成功"
// @Failure 400 {object} ErrorResponse "不正なリクエスト"
// @Failure 401 {object} ErrorResponse "認証エラー"
// @Router /me/transactions [get]
func (h *HistoryHandler) GetTransactionHistory(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	return h.getTransactionHistoryInternal(c, userID)
}

// GetTransactionHistoryAdmin トランザクション履歴取得ハンドラー（運用API用）
// @Summary トランザクション履歴を取得（運用API）
// @Description 指定されたユーザーのトランザクション履歴を取得します
// @Tags admin
// @Produce json
// @Param user_id path string true "ユーザーID" example(user123)
// @Param X-API-Key header string true "APIキー"
// @Param page query int false "ページ番号（1始まり）" default(1)
// @Param limit query int false "取得件数" default(20)
// @Param type query string false "タイプでフィルタ"
// @Success 200 {object} TransactionHistoryResponse "履歴取得成功"
// @Failure 400 {object} ErrorResponse "不正なリクエスト"
// @Failure 401 {object} ErrorResponse "認証エラー"
// @Router /admin/users/{user_id}/transactions [get]
func (h *HistoryHandler) GetTransactionHistoryAdmin(c echo.Context) error {
	userID := c.Param("user_id")
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id is required")
	}
	return h.getTransactionHistoryInternal(c, userID)
}

func (h *HistoryHandler) getTransactionHistoryInternal(c echo.Context, userID string) error {
	page, err := intQueryParam(c, "page", 1)
	if err != nil || page < 1 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid page parameter")
	}
	limit, err := intQueryParam(c, "limit", historyapp.DefaultLimit)
	if err != nil || limit < 1 || limit > historyapp.MaxLimit {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid limit parameter")
	}
	from, err := timeQueryParam(c, "from")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid from parameter")
	}
	to, err := timeQueryParam(c, "to")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid to parameter")
	}

	resp, err := h.historyService.GetTransactionHistory(c.Request().Context(), &historyapp.GetTransactionHistoryRequest{
		UserID:          userID,
		Page:            page,
		Limit:           limit,
		TransactionType: c.QueryParam("type"),
		From:            from,
		To:              to,
	})
	if err != nil {
		return err
	}

	items := make([]TransactionItem, len(resp.Transactions))
	for i, txn := range resp.Transactions {
		items[i] = toTransactionItem(txn)
	}

	return c.JSON(http.StatusOK, TransactionHistoryResponse{
		Transactions: items,
		Pagination: Pagination{
			Page:       resp.Pagination.Page,
			Limit:      resp.Pagination.Limit,
			Total:      resp.Pagination.Total,
			TotalPages: resp.Pagination.TotalPages,
			HasMore:    resp.Pagination.HasMore,
		},
	})
}

func toTransactionItem(txn *transaction.Transaction) TransactionItem {
	item := TransactionItem{
		TransactionID: txn.TransactionID(),
		UserID:        txn.UserID(),
		Type:          txn.TransactionType().String(),
		CoinAmount:    txn.CoinAmount(),
		SignedAmount:  txn.SignedAmount(),
		Status:        txn.Status().String(),
		Description:   txn.Description(),
		CreatedAt:     txn.CreatedAt().UTC().Format(time.RFC3339),
	}
	if r := txn.RupeeAmount(); r != nil {
		item.RupeeAmount = r.StringFixed(2)
	}
	if ref := txn.ReferenceID(); ref != nil {
		item.ReferenceID = *ref
	}
	return item
}

func intQueryParam(c echo.Context, name string, def int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func timeQueryParam(c echo.Context, name string) (*time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
