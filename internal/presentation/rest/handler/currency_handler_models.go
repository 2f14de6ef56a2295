package handler

// BalanceResponse 残高レスポンス
// @Description コイン残高とルピー換算額
type BalanceResponse struct {
	UserID     string `json:"user_id" example:"user123"`
	Balance    int64  `json:"balance" example:"2200"`
	RupeeValue string `json:"rupee_value" example:"110.00"`
}

// PackageItem コインパッケージ
// @Description 購入可能なコインパッケージ
type PackageItem struct {
	PackageID  string `json:"package_id" example:"popular"`
	Name       string `json:"name" example:"Popular"`
	CoinAmount int64  `json:"coin_amount" example:"2000"`
	BonusCoins int64  `json:"bonus_coins" example:"200"`
	TotalCoins int64  `json:"total_coins" example:"2200"`
	RupeePrice string `json:"rupee_price" example:"100.00"`
	IsPopular  bool   `json:"is_popular" example:"true"`
}

// PackagesResponse パッケージ一覧レスポンス
// @Description パッケージ一覧（表示順）
type PackagesResponse struct {
	Packages []PackageItem `json:"packages"`
}
