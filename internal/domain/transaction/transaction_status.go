package transaction

import (
	"fmt"
)

// TransactionStatus トランザクションステータスを表す値オブジェクト
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"   // 処理中
	TransactionStatusCompleted TransactionStatus = "completed" // 完了
	TransactionStatusFailed    TransactionStatus = "failed"    // 失敗
	TransactionStatusRefunded  TransactionStatus = "refunded"  // 返金済み
)

// NewTransactionStatus 新しいTransactionStatusを作成
func NewTransactionStatus(s string) (TransactionStatus, error) {
	ts := TransactionStatus(s)
	if !ts.Valid() {
		return "", fmt.Errorf("invalid transaction status: %s", s)
	}
	return ts, nil
}

// String 文字列表現を返す
func (ts TransactionStatus) String() string {
	return string(ts)
}

// Valid 有効なトランザクションステータスかどうかを返す
func (ts TransactionStatus) Valid() bool {
	switch ts {
	case TransactionStatusPending, TransactionStatusCompleted, TransactionStatusFailed, TransactionStatusRefunded:
		return true
	default:
		return false
	}
}

// IsCompleted 完了状態かどうかを返す
func (ts TransactionStatus) IsCompleted() bool {
	return ts == TransactionStatusCompleted
}

// IsFailed 失敗状態かどうかを返す
func (ts TransactionStatus) IsFailed() bool {
	return ts == TransactionStatusFailed
}

// IsTerminal 終端状態かどうかを返す
func (ts TransactionStatus) IsTerminal() bool {
	return ts != TransactionStatusPending
}

// CanTransitionTo 指定したステータスへ遷移できるかを返す
// 終端状態からは completed → refunded のみ許可する
func (ts TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	switch ts {
	case TransactionStatusPending:
		return next == TransactionStatusCompleted || next == TransactionStatusFailed
	case TransactionStatusCompleted:
		return next == TransactionStatusRefunded
	default:
		return false
	}
}
