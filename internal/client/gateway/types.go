package gateway

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"coin-wallet/internal/client/walleterr"
)

// Customer ゲートウェイが要求する購入者情報
type Customer struct {
	Name  string
	Email string
	Phone string
}

// Validate 必須項目が揃っているかを検証する
func (c Customer) Validate() error {
	var missing []string
	if strings.TrimSpace(c.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(c.Email) == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(c.Phone) == "" {
		missing = append(missing, "contact number")
	}
	if len(missing) > 0 {
		return walleterr.Validation(fmt.Sprintf("Please complete your profile (%s) before purchasing", strings.Join(missing, ", ")))
	}
	return nil
}

// CheckoutRequest チェックアウトに渡す内容
type CheckoutRequest struct {
	Amount     decimal.Decimal
	TotalCoins int64  // ゲートウェイには不透明。成功時のコールバックまで引き継ぐ
	PackageID  string // カスタム金額の場合は空
	Customer   Customer
}

// Request 決済開始リクエスト。結果はどちらか一方のコールバックで一度だけ通知される
type Request struct {
	CheckoutRequest
	OnSuccess func(Confirmation)
	OnFailure func(Failure)
}

// Confirmation 決済成功時の確認情報
type Confirmation struct {
	Token      string // ゲートウェイの決済確認トークン（注文ID）
	TotalCoins int64
}

// Reason 決済失敗の理由
type Reason string

const (
	ReasonDeclined    Reason = "declined"
	ReasonCancelled   Reason = "cancelled"
	ReasonUnavailable Reason = "unavailable"
	ReasonError       Reason = "error"
)

// Failure 決済失敗の内容
type Failure struct {
	Reason      Reason
	Description string // ゲートウェイからのメッセージ
	Err         error
}

// Error error インターフェースの実装
func (f *Failure) Error() string {
	if f.Description != "" {
		return fmt.Sprintf("payment %s: %s", f.Reason, f.Description)
	}
	if f.Err != nil {
		return fmt.Sprintf("payment %s: %v", f.Reason, f.Err)
	}
	return fmt.Sprintf("payment %s", f.Reason)
}

// Unwrap 原因エラーを返す
func (f *Failure) Unwrap() error {
	return f.Err
}

// Is エラー分類との照合
func (f *Failure) Is(target error) bool {
	var we *walleterr.Error
	if !errors.As(target, &we) {
		return false
	}
	return f.Kind() == we.Kind
}

// As errors.As で *walleterr.Error として取り出せるようにする
func (f *Failure) As(target any) bool {
	p, ok := target.(**walleterr.Error)
	if !ok {
		return false
	}
	*p = f.WalletError()
	return true
}

// Kind エラー分類を返す
func (f *Failure) Kind() walleterr.Kind {
	switch f.Reason {
	case ReasonCancelled:
		return walleterr.KindPaymentCancelled
	case ReasonUnavailable:
		return walleterr.KindGatewayUnavailable
	default:
		return walleterr.KindPaymentDeclined
	}
}

// WalletError 表示用のエラーに変換する
func (f *Failure) WalletError() *walleterr.Error {
	return &walleterr.Error{
		Kind:    f.Kind(),
		Message: f.Description,
		Network: f.Reason == ReasonUnavailable,
		Err:     f.Err,
	}
}

// Declined 拒否の失敗を作成
func Declined(description string) *Failure {
	return &Failure{Reason: ReasonDeclined, Description: description}
}

// Cancelled キャンセルの失敗を作成
func Cancelled(description string) *Failure {
	return &Failure{Reason: ReasonCancelled, Description: description}
}
