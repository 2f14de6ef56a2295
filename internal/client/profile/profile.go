package profile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"

	"coin-wallet/internal/client/gateway"
	"coin-wallet/internal/domain/coin"
)

// DefaultScriptURL 決済スクリプトの既定URL (サンドボックス)
const DefaultScriptURL = "https://app.sandbox.midtrans.com/snap/snap.js"

// ErrMissingServer サーバーURLが設定されていない
var ErrMissingServer = errors.New("server url is required")

// ErrMissingUser ユーザーIDが設定されていない
var ErrMissingUser = errors.New("user id is required")

// Profile walletctl の接続設定
type Profile struct {
	Server    string   `toml:"server"`
	UserID    string   `toml:"user_id"`
	ScriptURL string   `toml:"script_url"`
	LogLevel  string   `toml:"log_level"`
	Timeout   Duration `toml:"timeout"`
	PageSize  int      `toml:"page_size"`
	Customer  Customer `toml:"customer"`
	TopUp     TopUp    `toml:"topup"`
}

// Customer 決済に使う購入者情報
type Customer struct {
	Name  string `toml:"name"`
	Email string `toml:"email"`
	Phone string `toml:"phone"`
}

// TopUp チャージ金額の設定
type TopUp struct {
	Min   string   `toml:"min"`
	Max   string   `toml:"max"`
	Tiers []string `toml:"tiers"`
}

// Duration TOML文字列 ("30s" など) で指定する時間
type Duration struct {
	time.Duration
}

// UnmarshalText time.ParseDuration 形式を読み込む
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = v
	return nil
}

// DefaultPath 既定のプロファイルパス
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "walletctl.toml"
	}
	return filepath.Join(dir, "walletctl", "profile.toml")
}

// Load プロファイルを読み込む。ファイルが存在しない場合は空のプロファイルを返す
func Load(path string) (*Profile, error) {
	p := &Profile{}
	if path == "" {
		return p, nil
	}
	meta, err := toml.DecodeFile(path, p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return p, nil
		}
		return nil, fmt.Errorf("failed to read profile %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown profile key %q in %s", undecoded[0].String(), path)
	}
	return p, nil
}

// Validate 接続に必要な項目を検証する
func (p *Profile) Validate() error {
	if p.Server == "" {
		return ErrMissingServer
	}
	if p.UserID == "" {
		return ErrMissingUser
	}
	return nil
}

// GatewayCustomer 決済アダプタ用の購入者情報
func (p *Profile) GatewayCustomer() gateway.Customer {
	return gateway.Customer{
		Name:  p.Customer.Name,
		Email: p.Customer.Email,
		Phone: p.Customer.Phone,
	}
}

// TopUpBounds チャージ上下限。未設定の項目は既定値を使う
func (p *Profile) TopUpBounds() (coin.TopUpBounds, error) {
	bounds := coin.DefaultTopUpBounds()
	if p.TopUp.Min != "" {
		v, err := decimal.NewFromString(p.TopUp.Min)
		if err != nil {
			return coin.TopUpBounds{}, fmt.Errorf("invalid topup.min %q: %w", p.TopUp.Min, err)
		}
		bounds.Min = v
	}
	if p.TopUp.Max != "" {
		v, err := decimal.NewFromString(p.TopUp.Max)
		if err != nil {
			return coin.TopUpBounds{}, fmt.Errorf("invalid topup.max %q: %w", p.TopUp.Max, err)
		}
		bounds.Max = v
	}
	if bounds.Min.GreaterThan(bounds.Max) {
		return coin.TopUpBounds{}, fmt.Errorf("topup.min %s exceeds topup.max %s", bounds.Min, bounds.Max)
	}
	return bounds, nil
}

// TopUpTiers チャージの固定金額
func (p *Profile) TopUpTiers() ([]decimal.Decimal, error) {
	tiers := make([]decimal.Decimal, 0, len(p.TopUp.Tiers))
	for _, s := range p.TopUp.Tiers {
		v, err := decimal.NewFromString(s)
		if err != nil {
			return nil, fmt.Errorf("invalid topup tier %q: %w", s, err)
		}
		if !v.Equal(v.Truncate(0)) {
			return nil, fmt.Errorf("invalid topup tier %q: must be a whole rupee amount", s)
		}
		tiers = append(tiers, v)
	}
	return tiers, nil
}
