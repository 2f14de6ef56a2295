package walleterr

import (
	"errors"
	"fmt"
)

// Kind エラー種別
type Kind string

const (
	KindCatalogUnavailable Kind = "catalog_unavailable" // カタログ取得失敗（フロー全体の再読み込みで回復）
	KindGatewayUnavailable Kind = "gateway_unavailable" // 決済スクリプト読み込み失敗
	KindPaymentDeclined    Kind = "payment_declined"    // 決済拒否
	KindPaymentCancelled   Kind = "payment_cancelled"   // 決済キャンセル（ウィンドウを閉じた等）
	KindValidation         Kind = "validation"          // ローカルの前提条件違反
	KindLedgerFetch        Kind = "ledger_fetch"        // 履歴の取得・エクスポート失敗
)

var (
	// ErrCatalogUnavailable カタログ取得失敗
	ErrCatalogUnavailable = &Error{Kind: KindCatalogUnavailable}
	// ErrGatewayUnavailable 決済ゲートウェイ利用不可
	ErrGatewayUnavailable = &Error{Kind: KindGatewayUnavailable}
	// ErrPaymentDeclined 決済拒否
	ErrPaymentDeclined = &Error{Kind: KindPaymentDeclined}
	// ErrPaymentCancelled 決済キャンセル
	ErrPaymentCancelled = &Error{Kind: KindPaymentCancelled}
	// ErrValidation 入力検証エラー
	ErrValidation = &Error{Kind: KindValidation}
	// ErrLedgerFetch 履歴取得失敗
	ErrLedgerFetch = &Error{Kind: KindLedgerFetch}
)

var defaultMessages = map[Kind]string{
	KindCatalogUnavailable: "Unable to load coin packages. Please try again.",
	KindGatewayUnavailable: "Payment service is unavailable right now.",
	KindPaymentDeclined:    "Payment failed. Please try again.",
	KindPaymentCancelled:   "Payment was cancelled.",
	KindValidation:         "Please check your input.",
	KindLedgerFetch:        "Unable to load transactions. Please try again.",
}

// Error ユーザー向けメッセージと原因を持つエラー
type Error struct {
	Kind    Kind
	Message string // ユーザー向けメッセージ
	Network bool   // ネットワーク層の失敗か（業務的な拒否と区別する）
	Err     error
}

// Error error インターフェースの実装
func (e *Error) Error() string {
	msg := e.UserMessage()
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

// Unwrap 原因エラーを返す
func (e *Error) Unwrap() error {
	return e.Err
}

// Is 種別が一致すれば同じエラーとみなす
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// UserMessage 表示用メッセージを返す
func (e *Error) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return defaultMessages[e.Kind]
}

// New 種別とメッセージからエラーを作成
func New(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Network ネットワーク起因のエラーを作成
func Network(kind Kind, err error) *Error {
	return &Error{Kind: kind, Network: true, Err: err}
}

// Validation 入力検証エラーを作成
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// KindOf エラーの種別を返す（分類外の場合は空文字）
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsNetwork ネットワーク起因のエラーかどうかを返す
func IsNetwork(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Network
	}
	return false
}

// Message エラーから表示用メッセージを取り出す
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.UserMessage()
	}
	if err == nil {
		return ""
	}
	return "Something went wrong. Please try again."
}
