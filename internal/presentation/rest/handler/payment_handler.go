package handler

import (
	"net/http"
	"strings"

	paymentapp "coin-wallet/internal/application/payment"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// PaymentHandler コイン購入ハンドラー
type PaymentHandler struct {
	paymentService *paymentapp.PaymentApplicationService
}

// NewPaymentHandler 新しいPaymentHandlerを作成
func NewPaymentHandler(paymentService *paymentapp.PaymentApplicationService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// CreatePurchase 購入セッション作成ハンドラー
// @Summary コイン購入を開始
// @Description パッケージまたは任意金額で決済セッションを作成します
// @Tags purchase
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body PurchaseRequest true "購入リクエスト"
// @Success 201 {object} PurchaseResponse "セッション作成成功"
// @Failure 400 {object} ErrorResponse "不正なリクエスト"
// @Failure 404 {object} ErrorResponse "パッケージが見つからない"
// @Failure 422 {object} ErrorResponse "ゲートウェイが拒否"
// @Failure 503 {object} ErrorResponse "ゲートウェイ障害"
// @Router /purchases [post]
func (h *PaymentHandler) CreatePurchase(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var reqBody PurchaseRequest
	if err := bindAndValidate(c, &reqBody); err != nil {
		return err
	}

	req := &paymentapp.CreateCheckoutRequest{
		UserID:    userID,
		PackageID: strings.TrimSpace(reqBody.PackageID),
		Customer: paymentapp.Customer{
			Name:  reqBody.Customer.Name,
			Email: reqBody.Customer.Email,
			Phone: reqBody.Customer.Phone,
		},
	}
	if raw := strings.TrimSpace(reqBody.Amount); raw != "" {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid amount format")
		}
		req.Amount = &amount
	}

	resp, err := h.paymentService.CreateCheckout(c.Request().Context(), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, toPurchaseResponse(resp))
}

// GetPurchase 購入状態取得ハンドラー
// @Summary 購入状態を取得
// @Description 購入の状態を返します。pending の場合はゲートウェイに問い合わせて確定します
// @Tags purchase
// @Produce json
// @Security Bearer
// @Param order_id path string true "注文ID"
// @Success 200 {object} PurchaseResponse "取得成功"
// @Failure 404 {object} ErrorResponse "注文が見つからない"
// @Router /purchases/{order_id} [get]
func (h *PaymentHandler) GetPurchase(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	resp, err := h.paymentService.GetStatus(c.Request().Context(), userID, c.Param("order_id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toPurchaseResponse(resp))
}

// HandleNotification 決済通知ハンドラー（ゲートウェイから呼ばれる）
// @Summary 決済通知を受け取る
// @Description 署名を検証し、確定処理をキューに登録します
// @Tags purchase
// @Accept json
// @Produce json
// @Param request body PaymentNotification true "決済通知"
// @Success 200 {object} NotificationAck "受領"
// @Failure 400 {object} ErrorResponse "不正なリクエスト"
// @Failure 401 {object} ErrorResponse "署名が不正"
// @Router /payments/notifications [post]
func (h *PaymentHandler) HandleNotification(c echo.Context) error {
	var body PaymentNotification
	if err := bindAndValidate(c, &body); err != nil {
		return err
	}

	err := h.paymentService.HandleNotification(c.Request().Context(), &paymentapp.Notification{
		OrderID:           body.OrderID,
		StatusCode:        body.StatusCode,
		GrossAmount:       body.GrossAmount,
		SignatureKey:      body.SignatureKey,
		TransactionStatus: body.TransactionStatus,
		FraudStatus:       body.FraudStatus,
		TransactionID:     body.TransactionID,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, NotificationAck{Status: "ok"})
}

// ReconcilePayment 注文の突き合わせハンドラー（運用API用）
// @Summary 注文をゲートウェイと突き合わせる（運用API）
// @Tags admin
// @Produce json
// @Param order_id path string true "注文ID"
// @Param X-API-Key header string true "APIキー"
// @Success 200 {object} PurchaseResponse "突き合わせ結果"
// @Failure 404 {object} ErrorResponse "注文が見つからない"
// @Router /admin/payments/{order_id}/reconcile [post]
func (h *PaymentHandler) ReconcilePayment(c echo.Context) error {
	resp, err := h.paymentService.Reconcile(c.Request().Context(), c.Param("order_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPurchaseResponse(resp))
}

// ExpireStalePayments 期限切れ処理ハンドラー（運用API用）
// @Summary 放置された pending の購入を期限切れにする（運用API）
// @Tags admin
// @Produce json
// @Param X-API-Key header string true "APIキー"
// @Success 200 {object} ExpireResponse "処理件数"
// @Router /admin/payments/expire [post]
func (h *PaymentHandler) ExpireStalePayments(c echo.Context) error {
	n, err := h.paymentService.ExpireStale(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ExpireResponse{Expired: n})
}

func toPurchaseResponse(resp *paymentapp.PurchaseResponse) PurchaseResponse {
	return PurchaseResponse{
		OrderID:       resp.OrderID,
		Status:        resp.Status,
		Coins:         resp.Coins,
		Amount:        resp.Amount.StringFixed(2),
		SnapToken:     resp.SnapToken,
		RedirectURL:   resp.RedirectURL,
		Message:       resp.Message,
		TransactionID: resp.TransactionID,
	}
}
