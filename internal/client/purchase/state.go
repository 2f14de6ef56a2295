package purchase

import (
	"github.com/shopspring/decimal"

	"coin-wallet/internal/domain/coin"
)

// State 購入フローの状態
type State string

const (
	StateIdle       State = "idle"
	StateLoading    State = "loading"
	StateSelecting  State = "selecting"
	StateProcessing State = "processing"
	StateSuccess    State = "success"
	StateError      State = "error"
)

// Mode 購入フローの種類
type Mode int

const (
	// ModePackages カタログのパッケージから選ぶ
	ModePackages Mode = iota
	// ModeTopUp 固定の金額か任意の金額でチャージする
	ModeTopUp
)

// Selection 選択中の購入内容
type Selection struct {
	PackageID  string // トップアップでは空
	Amount     decimal.Decimal
	TotalCoins int64
	Custom     bool // 任意金額の入力か
}

// Snapshot 画面に公開する購入フローの状態
type Snapshot struct {
	State             State
	Mode              Mode
	Packages          []*coin.Package
	Tiers             []decimal.Decimal
	Selection         *Selection
	Err               error
	ErrorMessage      string
	ValidationMessage string
	GatewayErr        error // 決済スクリプトの読み込み失敗。Retry で読み込み直す
	CanPay            bool  // 決済スクリプトが読み込み済みか
	CreditedCoins     int64 // 成功時に加算したコイン
}
