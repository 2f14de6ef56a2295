package handler

import (
	"context"

	currencyapp "coin-wallet/internal/application/currency"
	paymentapp "coin-wallet/internal/application/payment"

	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// AdminHandler gRPC運用サービスハンドラー
type AdminHandler struct {
	currencyService *currencyapp.CurrencyApplicationService
	paymentService  *paymentapp.PaymentApplicationService
}

var _ AdminServiceServer = (*AdminHandler)(nil)

// NewAdminHandler 新しいAdminHandlerを作成
func NewAdminHandler(
	currencyService *currencyapp.CurrencyApplicationService,
	paymentService *paymentapp.PaymentApplicationService,
) *AdminHandler {
	return &AdminHandler{
		currencyService: currencyService,
		paymentService:  paymentService,
	}
}

// GetUserBalance 指定ユーザーの残高取得
func (h *AdminHandler) GetUserBalance(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	if req.GetValue() == "" {
		return nil, invalidArgument("user_id is required")
	}

	resp, err := h.currencyService.GetBalance(ctx, &currencyapp.GetBalanceRequest{UserID: req.GetValue()})
	if err != nil {
		return nil, toStatus(err)
	}
	return newStruct(balanceFields(resp))
}

// ReconcilePayment 注文をゲートウェイの状態と突き合わせる
func (h *AdminHandler) ReconcilePayment(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	if req.GetValue() == "" {
		return nil, invalidArgument("order_id is required")
	}

	resp, err := h.paymentService.Reconcile(ctx, req.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}
	return newStruct(purchaseFields(resp))
}

// ExpireStalePayments 期限切れの pending 注文を失効させる
func (h *AdminHandler) ExpireStalePayments(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	expired, err := h.paymentService.ExpireStale(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return newStruct(map[string]interface{}{"expired": expired})
}
