package payment

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrGatewayUnavailable 決済ゲートウェイに接続できない
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	// ErrCheckoutRejected 決済ゲートウェイがセッション作成を拒否した
	ErrCheckoutRejected = errors.New("checkout rejected by payment gateway")
	// ErrInvalidSignature 通知の署名が一致しない
	ErrInvalidSignature = errors.New("invalid notification signature")
	// ErrInvalidPurchase パッケージと金額の指定が不正
	ErrInvalidPurchase = errors.New("either package_id or amount is required")
	// ErrFractionalAmount 金額に小数が含まれる
	ErrFractionalAmount = errors.New("amount must be a whole rupee value")
	// ErrIncompleteProfile 購入者情報が不足している
	ErrIncompleteProfile = errors.New("customer profile incomplete")
)

// Outcome ゲートウェイ上の決済結果
type Outcome string

const (
	OutcomePending   Outcome = "pending"
	OutcomeSettled   Outcome = "settled"
	OutcomeDeclined  Outcome = "declined"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeExpired   Outcome = "expired"
	OutcomeUnknown   Outcome = "unknown" // 返金など購入フローでは扱わない状態
)

// SessionRequest 決済セッション作成パラメータ
type SessionRequest struct {
	OrderID  string
	Amount   decimal.Decimal
	ItemName string
	Customer Customer
	Expiry   time.Duration
}

// Session 決済セッション
type Session struct {
	Token       string
	RedirectURL string
}

// GatewayStatus ゲートウェイに問い合わせた決済状態
type GatewayStatus struct {
	OrderID              string
	Outcome              Outcome
	Message              string
	GatewayTransactionID string
}

// Gateway 決済ゲートウェイ
type Gateway interface {
	// CreateSession 決済セッションを作成
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)

	// CheckStatus 注文の決済状態を取得
	CheckStatus(ctx context.Context, orderID string) (*GatewayStatus, error)

	// VerifySignature 通知の署名を検証
	VerifySignature(n *Notification) bool
}

// SettlementQueue 決済確定処理をワーカーに渡すキュー
type SettlementQueue interface {
	EnqueueSettlement(ctx context.Context, orderID string) error
}
