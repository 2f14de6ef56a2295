package transaction

import (
	"fmt"
)

// TransactionType トランザクションタイプを表す値オブジェクト
type TransactionType string

const (
	TransactionTypePurchase TransactionType = "purchase" // コイン購入
	TransactionTypeSpend    TransactionType = "spend"    // コンテンツ購入などでの消費
	TransactionTypeEarn     TransactionType = "earn"     // タスク報酬などの獲得
	TransactionTypeRefund   TransactionType = "refund"   // 返金
	TransactionTypeWithdraw TransactionType = "withdraw" // 出金
)

// NewTransactionType 新しいTransactionTypeを作成
func NewTransactionType(s string) (TransactionType, error) {
	tt := TransactionType(s)
	if !tt.Valid() {
		return "", fmt.Errorf("invalid transaction type: %s", s)
	}
	return tt, nil
}

// String 文字列表現を返す
func (tt TransactionType) String() string {
	return string(tt)
}

// Valid 有効なトランザクションタイプかどうかを返す
func (tt TransactionType) Valid() bool {
	switch tt {
	case TransactionTypePurchase, TransactionTypeSpend, TransactionTypeEarn, TransactionTypeRefund, TransactionTypeWithdraw:
		return true
	default:
		return false
	}
}

// IsCredit 残高を増やすタイプかどうかを返す（符号はタイプから決まり、保存されない）
func (tt TransactionType) IsCredit() bool {
	switch tt {
	case TransactionTypePurchase, TransactionTypeEarn, TransactionTypeRefund:
		return true
	default:
		return false
	}
}

// IsDebit 残高を減らすタイプかどうかを返す
func (tt TransactionType) IsDebit() bool {
	return tt == TransactionTypeSpend || tt == TransactionTypeWithdraw
}

// IsMoneyDenominated ルピー金額を伴うタイプかどうかを返す
func (tt TransactionType) IsMoneyDenominated() bool {
	switch tt {
	case TransactionTypePurchase, TransactionTypeRefund, TransactionTypeWithdraw:
		return true
	default:
		return false
	}
}

// AllTransactionTypes 全てのトランザクションタイプを返す
func AllTransactionTypes() []TransactionType {
	return []TransactionType{
		TransactionTypePurchase,
		TransactionTypeSpend,
		TransactionTypeEarn,
		TransactionTypeRefund,
		TransactionTypeWithdraw,
	}
}
