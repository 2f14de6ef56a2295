package purchase

import "errors"

var (
	// ErrPaymentNotFound 決済が見つからないエラー
	ErrPaymentNotFound = errors.New("payment not found")
	// ErrPaymentAlreadyFinalized 既に確定済みの決済
	ErrPaymentAlreadyFinalized = errors.New("payment already finalized")
	// ErrInvalidOrderID 注文IDが無効
	ErrInvalidOrderID = errors.New("invalid order id")
	// ErrInvalidUserID ユーザーIDが無効
	ErrInvalidUserID = errors.New("invalid user id")
	// ErrInvalidAmount 金額が無効
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInvalidStatus ステータスが無効
	ErrInvalidStatus = errors.New("invalid payment status")
)
