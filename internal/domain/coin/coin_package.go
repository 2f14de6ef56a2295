package coin

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var packageIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-\.]{1,64}$`)

// Package 購入可能なコインパッケージ（取得後は不変）
type Package struct {
	id         string
	name       string
	coinAmount int64
	bonusCoins int64
	rupeePrice decimal.Decimal
	isPopular  bool
}

// NewPackage 新しいPackageを作成
func NewPackage(id, name string, coinAmount, bonusCoins int64, rupeePrice decimal.Decimal, isPopular bool) (*Package, error) {
	if !packageIDRegex.MatchString(id) {
		return nil, ErrInvalidPackageID
	}
	if strings.TrimSpace(name) == "" {
		return nil, ErrInvalidPackageName
	}
	if coinAmount <= 0 {
		return nil, ErrInvalidCoinAmount
	}
	if bonusCoins < 0 {
		return nil, ErrInvalidBonusCoins
	}
	if rupeePrice.Sign() <= 0 {
		return nil, ErrInvalidRupeePrice
	}
	return &Package{
		id:         id,
		name:       name,
		coinAmount: coinAmount,
		bonusCoins: bonusCoins,
		rupeePrice: rupeePrice,
		isPopular:  isPopular,
	}, nil
}

// ID パッケージIDを返す
func (p *Package) ID() string {
	return p.id
}

// Name パッケージ名を返す
func (p *Package) Name() string {
	return p.name
}

// CoinAmount 基本コイン数を返す
func (p *Package) CoinAmount() int64 {
	return p.coinAmount
}

// BonusCoins ボーナスコイン数を返す
func (p *Package) BonusCoins() int64 {
	return p.bonusCoins
}

// TotalCoins 付与される合計コイン数を返す
func (p *Package) TotalCoins() int64 {
	return p.coinAmount + p.bonusCoins
}

// RupeePrice 価格を返す
func (p *Package) RupeePrice() decimal.Decimal {
	return p.rupeePrice
}

// IsPopular 人気パッケージかどうか（表示用）
func (p *Package) IsPopular() bool {
	return p.isPopular
}

// MustNewPackage テスト用ヘルパー: NewPackageを呼び出し、エラーが発生した場合はpanicする
func MustNewPackage(id, name string, coinAmount, bonusCoins int64, rupeePrice decimal.Decimal, isPopular bool) *Package {
	p, err := NewPackage(id, name, coinAmount, bonusCoins, rupeePrice, isPopular)
	if err != nil {
		panic(err)
	}
	return p
}
