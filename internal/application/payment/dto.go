package payment

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer 決済画面に渡す購入者情報
type Customer struct {
	Name  string
	Email string
	Phone string
}

// CreateCheckoutRequest 購入セッション作成リクエスト（PackageID と Amount はどちらか一方）
type CreateCheckoutRequest struct {
	UserID    string
	PackageID string
	Amount    *decimal.Decimal
	Customer  Customer
}

// PurchaseResponse 購入の状態
type PurchaseResponse struct {
	OrderID       string
	Status        string
	Coins         int64
	Amount        decimal.Decimal
	SnapToken     string
	RedirectURL   string
	Message       string
	TransactionID string
	CreatedAt     time.Time
}

// Notification ゲートウェイからの決済通知
type Notification struct {
	OrderID           string
	StatusCode        string
	GrossAmount       string
	SignatureKey      string
	TransactionStatus string
	FraudStatus       string
	TransactionID     string
}
