package currency

import "github.com/shopspring/decimal"

// GetBalanceRequest 残高取得リクエスト
type GetBalanceRequest struct {
	UserID string
}

// GetBalanceResponse 残高取得レスポンス
type GetBalanceResponse struct {
	UserID     string
	Balance    int64
	RupeeValue decimal.Decimal
}

// PackageDTO コインパッケージ
type PackageDTO struct {
	PackageID  string
	Name       string
	CoinAmount int64
	BonusCoins int64
	TotalCoins int64
	RupeePrice decimal.Decimal
	IsPopular  bool
}

// ListPackagesResponse パッケージ一覧レスポンス
type ListPackagesResponse struct {
	Packages []PackageDTO
}
