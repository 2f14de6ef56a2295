package coin

import "errors"

var (
	// ErrInvalidPackageID パッケージIDが無効
	ErrInvalidPackageID = errors.New("invalid package id")
	// ErrInvalidPackageName パッケージ名が無効
	ErrInvalidPackageName = errors.New("invalid package name")
	// ErrInvalidCoinAmount コイン数が無効
	ErrInvalidCoinAmount = errors.New("invalid coin amount")
	// ErrInvalidBonusCoins ボーナスコイン数が無効
	ErrInvalidBonusCoins = errors.New("invalid bonus coins")
	// ErrInvalidRupeePrice 価格が無効
	ErrInvalidRupeePrice = errors.New("invalid rupee price")
	// ErrPackageNotFound パッケージが見つからないエラー
	ErrPackageNotFound = errors.New("coin package not found")
	// ErrAmountBelowMinimum 金額が最小値未満
	ErrAmountBelowMinimum = errors.New("amount below minimum")
	// ErrAmountAboveMaximum 金額が最大値超過
	ErrAmountAboveMaximum = errors.New("amount above maximum")
	// ErrCoinPriceOutOfRange コンテンツ価格が範囲外
	ErrCoinPriceOutOfRange = errors.New("coin price out of range")
)
