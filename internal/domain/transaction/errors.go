package transaction

import "errors"

var (
	// ErrTransactionNotFound トランザクションが見つからないエラー
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrInvalidTransaction 無効なトランザクションエラー
	ErrInvalidTransaction = errors.New("invalid transaction")
	// ErrDuplicateTransactionID 重複トランザクションIDエラー
	ErrDuplicateTransactionID = errors.New("duplicate transaction id")
	// ErrInvalidStatusTransition 許可されないステータス遷移
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	// ErrInvalidDateRange 日付範囲が無効
	ErrInvalidDateRange = errors.New("invalid date range")
	// ErrUnexpectedRupeeAmount ルピー金額を持てないタイプに金額が指定された
	ErrUnexpectedRupeeAmount = errors.New("rupee amount not allowed for transaction type")
)
