package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"

	"coin-wallet/internal/application/payment"
	"coin-wallet/internal/domain/purchase"
	otelinfra "coin-wallet/internal/infrastructure/observability/otel"
)

// Reconciler 注文の状態をゲートウェイと突き合わせる
type Reconciler interface {
	Reconcile(ctx context.Context, orderID string) (*payment.PurchaseResponse, error)
}

// Handler 決済確定タスクのハンドラ
type Handler struct {
	reconciler Reconciler
	logger     *otelinfra.Logger
}

// NewHandler 新しいHandlerを作成
func NewHandler(reconciler Reconciler, logger *otelinfra.Logger) *Handler {
	return &Handler{
		reconciler: reconciler,
		logger:     logger,
	}
}

// HandleSettle 決済確定タスクを処理する
// ゲートウェイ上でまだ pending の場合はリトライに回す
func (h *Handler) HandleSettle(ctx context.Context, t *asynq.Task) error {
	var p SettlePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("json.Unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}

	resp, err := h.reconciler.Reconcile(ctx, p.OrderID)
	if err != nil {
		if errors.Is(err, purchase.ErrPaymentNotFound) {
			return fmt.Errorf("order %s: %v: %w", p.OrderID, err, asynq.SkipRetry)
		}
		return fmt.Errorf("failed to reconcile order %s: %w", p.OrderID, err)
	}

	if resp.Status == purchase.PaymentStatusPending.String() {
		return fmt.Errorf("order %s still pending at gateway", p.OrderID)
	}

	h.logger.Info(ctx, "Settle task processed", map[string]interface{}{
		"order_id": p.OrderID,
		"status":   resp.Status,
	})
	return nil
}

// NewServeMux タスク種別ごとのハンドラを登録したマルチプレクサを作成
func NewServeMux(h *Handler) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypePaymentSettle, h.HandleSettle)
	return mux
}
