package handler

import (
	"context"
	"strings"
	"time"

	currencyapp "coin-wallet/internal/application/currency"
	historyapp "coin-wallet/internal/application/history"
	paymentapp "coin-wallet/internal/application/payment"
	rewardapp "coin-wallet/internal/application/reward"
	"coin-wallet/internal/domain/transaction"
	"coin-wallet/internal/presentation/grpc/interceptor"

	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// WalletHandler gRPCウォレットサービスハンドラー
type WalletHandler struct {
	currencyService *currencyapp.CurrencyApplicationService
	historyService  *historyapp.HistoryApplicationService
	paymentService  *paymentapp.PaymentApplicationService
	rewardService   *rewardapp.RewardApplicationService
}

var _ WalletServiceServer = (*WalletHandler)(nil)

// NewWalletHandler 新しいWalletHandlerを作成
func NewWalletHandler(
	currencyService *currencyapp.CurrencyApplicationService,
	historyService *historyapp.HistoryApplicationService,
	paymentService *paymentapp.PaymentApplicationService,
	rewardService *rewardapp.RewardApplicationService,
) *WalletHandler {
	return &WalletHandler{
		currencyService: currencyService,
		historyService:  historyService,
		paymentService:  paymentService,
		rewardService:   rewardService,
	}
}

// GetBalance 残高取得
func (h *WalletHandler) GetBalance(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	userID, err := currentUserID(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := h.currencyService.GetBalance(ctx, &currencyapp.GetBalanceRequest{UserID: userID})
	if err != nil {
		return nil, toStatus(err)
	}
	return newStruct(balanceFields(resp))
}

// ListPackages コインパッケージ一覧
func (h *WalletHandler) ListPackages(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	resp, err := h.currencyService.ListPackages(ctx)
	if err != nil {
		return nil, toStatus(err)
	}

	packages := make([]interface{}, 0, len(resp.Packages))
	for _, p := range resp.Packages {
		packages = append(packages, map[string]interface{}{
			"package_id":  p.PackageID,
			"name":        p.Name,
			"coin_amount": p.CoinAmount,
			"bonus_coins": p.BonusCoins,
			"total_coins": p.TotalCoins,
			"rupee_price": p.RupeePrice.StringFixed(2),
			"is_popular":  p.IsPopular,
		})
	}
	return newStruct(map[string]interface{}{"packages": packages})
}

// GetTransactionHistory トランザクション履歴取得
// リクエストのフィールド: page, limit, type, from, to（RFC3339）
func (h *WalletHandler) GetTransactionHistory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := currentUserID(ctx)
	if err != nil {
		return nil, err
	}

	appReq, err := historyRequest(userID, req)
	if err != nil {
		return nil, err
	}

	resp, err := h.historyService.GetTransactionHistory(ctx, appReq)
	if err != nil {
		return nil, toStatus(err)
	}
	return newStruct(historyFields(resp))
}

// CreatePurchase 購入セッション作成
// リクエストのフィールド: package_id または amount、customer{name, email, phone}
func (h *WalletHandler) CreatePurchase(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := currentUserID(ctx)
	if err != nil {
		return nil, err
	}

	fields := req.GetFields()
	appReq := &paymentapp.CreateCheckoutRequest{
		UserID:    userID,
		PackageID: strings.TrimSpace(fields["package_id"].GetStringValue()),
	}
	if customer := fields["customer"].GetStructValue(); customer != nil {
		c := customer.GetFields()
		appReq.Customer = paymentapp.Customer{
			Name:  c["name"].GetStringValue(),
			Email: c["email"].GetStringValue(),
			Phone: c["phone"].GetStringValue(),
		}
	}
	if v, ok := fields["amount"]; ok {
		amount, err := decimalValue(v)
		if err != nil {
			return nil, invalidArgument("invalid amount format")
		}
		appReq.Amount = &amount
	}

	resp, err := h.paymentService.CreateCheckout(ctx, appReq)
	if err != nil {
		return nil, toStatus(err)
	}
	return newStruct(purchaseFields(resp))
}

// GetPurchase 購入状態取得
func (h *WalletHandler) GetPurchase(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	userID, err := currentUserID(ctx)
	if err != nil {
		return nil, err
	}
	if req.GetValue() == "" {
		return nil, invalidArgument("order_id is required")
	}

	resp, err := h.paymentService.GetStatus(ctx, userID, req.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}
	return newStruct(purchaseFields(resp))
}

// ListTasks 報酬タスク一覧
func (h *WalletHandler) ListTasks(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	userID, err := currentUserID(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := h.rewardService.ListTasks(ctx, userID)
	if err != nil {
		return nil, toStatus(err)
	}

	tasks := make([]interface{}, 0, len(resp.Tasks))
	for _, t := range resp.Tasks {
		task := map[string]interface{}{
			"task_id":     t.TaskID,
			"title":       t.Title,
			"description": t.Description,
			"reward":      t.Reward,
			"completed":   t.Completed,
		}
		if t.Progress != nil {
			task["progress"] = map[string]interface{}{
				"current": t.Progress.Current,
				"target":  t.Progress.Target,
			}
		}
		tasks = append(tasks, task)
	}
	return newStruct(map[string]interface{}{"tasks": tasks})
}

// ClaimTask 報酬受け取り
func (h *WalletHandler) ClaimTask(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	userID, err := currentUserID(ctx)
	if err != nil {
		return nil, err
	}
	if req.GetValue() == "" {
		return nil, invalidArgument("task_id is required")
	}

	resp, err := h.rewardService.ClaimTask(ctx, &rewardapp.ClaimTaskRequest{
		UserID: userID,
		TaskID: req.GetValue(),
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return newStruct(map[string]interface{}{
		"task_id":        resp.TaskID,
		"reward":         resp.Reward,
		"transaction_id": resp.TransactionID,
		"balance":        resp.BalanceAfter,
	})
}

func currentUserID(ctx context.Context) (string, error) {
	userID, ok := interceptor.UserIDFromContext(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "user not authenticated")
	}
	return userID, nil
}

func historyRequest(userID string, req *structpb.Struct) (*historyapp.GetTransactionHistoryRequest, error) {
	fields := req.GetFields()
	appReq := &historyapp.GetTransactionHistoryRequest{
		UserID:          userID,
		Page:            1,
		Limit:           historyapp.DefaultLimit,
		TransactionType: fields["type"].GetStringValue(),
	}
	if v, ok := fields["page"]; ok {
		appReq.Page = int(v.GetNumberValue())
		if appReq.Page < 1 {
			return nil, invalidArgument("page must be at least 1")
		}
	}
	if v, ok := fields["limit"]; ok {
		appReq.Limit = int(v.GetNumberValue())
		if appReq.Limit < 1 {
			return nil, invalidArgument("limit must be at least 1")
		}
	}
	for name, dst := range map[string]**time.Time{"from": &appReq.From, "to": &appReq.To} {
		raw := fields[name].GetStringValue()
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, invalidArgument(name + " must be an RFC3339 timestamp")
		}
		*dst = &t
	}
	return appReq, nil
}

func decimalValue(v *structpb.Value) (decimal.Decimal, error) {
	if _, ok := v.GetKind().(*structpb.Value_NumberValue); ok {
		return decimal.NewFromFloat(v.GetNumberValue()), nil
	}
	return decimal.NewFromString(strings.TrimSpace(v.GetStringValue()))
}

func balanceFields(resp *currencyapp.GetBalanceResponse) map[string]interface{} {
	return map[string]interface{}{
		"user_id":     resp.UserID,
		"balance":     resp.Balance,
		"rupee_value": resp.RupeeValue.StringFixed(2),
	}
}

func historyFields(resp *historyapp.GetTransactionHistoryResponse) map[string]interface{} {
	items := make([]interface{}, 0, len(resp.Transactions))
	for _, txn := range resp.Transactions {
		items = append(items, transactionFields(txn))
	}
	return map[string]interface{}{
		"transactions": items,
		"pagination": map[string]interface{}{
			"page":        resp.Pagination.Page,
			"limit":       resp.Pagination.Limit,
			"total":       resp.Pagination.Total,
			"total_pages": resp.Pagination.TotalPages,
			"has_more":    resp.Pagination.HasMore,
		},
	}
}

func transactionFields(txn *transaction.Transaction) map[string]interface{} {
	item := map[string]interface{}{
		"transaction_id": txn.TransactionID(),
		"user_id":        txn.UserID(),
		"type":           txn.TransactionType().String(),
		"coin_amount":    txn.CoinAmount(),
		"signed_amount":  txn.SignedAmount(),
		"status":         txn.Status().String(),
		"description":    txn.Description(),
		"created_at":     txn.CreatedAt().UTC().Format(time.RFC3339),
	}
	if r := txn.RupeeAmount(); r != nil {
		item["rupee_amount"] = r.StringFixed(2)
	}
	if ref := txn.ReferenceID(); ref != nil {
		item["reference_id"] = *ref
	}
	return item
}

func purchaseFields(resp *paymentapp.PurchaseResponse) map[string]interface{} {
	fields := map[string]interface{}{
		"order_id": resp.OrderID,
		"status":   resp.Status,
		"coins":    resp.Coins,
		"amount":   resp.Amount.StringFixed(2),
	}
	optional := map[string]string{
		"snap_token":     resp.SnapToken,
		"redirect_url":   resp.RedirectURL,
		"message":        resp.Message,
		"transaction_id": resp.TransactionID,
	}
	for k, v := range optional {
		if v != "" {
			fields[k] = v
		}
	}
	return fields
}

func newStruct(fields map[string]interface{}) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to encode response")
	}
	return s, nil
}
