package coin

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// CoinsPerRupee 1ルピーあたりのコイン数（1コイン = 0.05ルピー）
	CoinsPerRupee = 20
	// MinCoinPrice コンテンツ価格の最小コイン数
	MinCoinPrice = 1
	// MaxCoinPrice コンテンツ価格の最大コイン数
	MaxCoinPrice = 2000
	// MinTopUpRupees カスタムチャージの最小金額
	MinTopUpRupees = 10
	// MaxTopUpRupees カスタムチャージの最大金額
	MaxTopUpRupees = 10000
)

var coinsPerRupee = decimal.NewFromInt(CoinsPerRupee)

// CoinsToRupees コイン数をルピー金額に変換する
func CoinsToRupees(coins int64) decimal.Decimal {
	return decimal.NewFromInt(coins).Div(coinsPerRupee).Round(2)
}

// RupeesToCoins ルピー金額をコイン数に変換する（端数は切り捨て）
func RupeesToCoins(rupees decimal.Decimal) int64 {
	if rupees.Sign() <= 0 {
		return 0
	}
	return rupees.Mul(coinsPerRupee).Floor().IntPart()
}

// ValidateCoinPrice コンテンツ価格が範囲内かを検証する
func ValidateCoinPrice(coins int64) error {
	if coins < MinCoinPrice || coins > MaxCoinPrice {
		return fmt.Errorf("%w: %d (allowed %d-%d)", ErrCoinPriceOutOfRange, coins, MinCoinPrice, MaxCoinPrice)
	}
	return nil
}

// TopUpBounds カスタムチャージ金額の範囲
type TopUpBounds struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

// DefaultTopUpBounds デフォルトのチャージ範囲を返す
func DefaultTopUpBounds() TopUpBounds {
	return TopUpBounds{
		Min: decimal.NewFromInt(MinTopUpRupees),
		Max: decimal.NewFromInt(MaxTopUpRupees),
	}
}

// Validate 金額が範囲内かを検証する。範囲外の値を丸めることはしない
func (b TopUpBounds) Validate(rupees decimal.Decimal) error {
	if rupees.LessThan(b.Min) {
		return fmt.Errorf("%w: minimum is %s", ErrAmountBelowMinimum, FormatRupees(b.Min))
	}
	if rupees.GreaterThan(b.Max) {
		return fmt.Errorf("%w: maximum is %s", ErrAmountAboveMaximum, FormatRupees(b.Max))
	}
	return nil
}

// ValidateTopUpAmount デフォルト範囲でチャージ金額を検証する
func ValidateTopUpAmount(rupees decimal.Decimal) error {
	return DefaultTopUpBounds().Validate(rupees)
}

// FormatCoins コイン数を3桁区切りで整形する
func FormatCoins(coins int64) string {
	sign := ""
	if coins < 0 {
		sign = "-"
		coins = -coins
	}
	s := strconv.FormatInt(coins, 10)
	if len(s) <= 3 {
		return sign + s
	}

	var b strings.Builder
	head := len(s) % 3
	if head > 0 {
		b.WriteString(s[:head])
	}
	for i := head; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return sign + b.String()
}

// FormatRupees ルピー金額を表示用に整形する
func FormatRupees(rupees decimal.Decimal) string {
	return "₹" + rupees.StringFixed(2)
}
