package wallet

import "errors"

var (
	// ErrInvalidUserID ユーザーIDが無効
	ErrInvalidUserID = errors.New("invalid user id")
	// ErrInvalidAmount 無効な金額エラー
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrBalanceOutOfRange 残高が範囲外
	ErrBalanceOutOfRange = errors.New("balance out of range")
	// ErrInsufficientBalance 残高不足エラー
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrWalletNotFound ウォレットが見つからないエラー
	ErrWalletNotFound = errors.New("wallet not found")
	// ErrVersionConflict 楽観的ロックの競合
	ErrVersionConflict = errors.New("wallet version conflict")
)
