package coin

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPackage(t *testing.T) {
	tests := []struct {
		name       string
		id         string
		pkgName    string
		coinAmount int64
		bonusCoins int64
		price      decimal.Decimal
		wantTotal  int64
		wantError  error
	}{
		{
			name:       "正常系: ボーナスなし",
			id:         "pkg-1",
			pkgName:    "Starter",
			coinAmount: 200,
			price:      decimal.NewFromInt(10),
			wantTotal:  200,
		},
		{
			name:       "正常系: ボーナスあり",
			id:         "pkg-2",
			pkgName:    "Value",
			coinAmount: 1000,
			bonusCoins: 100,
			price:      decimal.NewFromInt(50),
			wantTotal:  1100,
		},
		{
			name:       "異常系: 不正なID",
			id:         "pkg 1",
			pkgName:    "Starter",
			coinAmount: 200,
			price:      decimal.NewFromInt(10),
			wantError:  ErrInvalidPackageID,
		},
		{
			name:       "異常系: 空の名前",
			id:         "pkg-1",
			pkgName:    "  ",
			coinAmount: 200,
			price:      decimal.NewFromInt(10),
			wantError:  ErrInvalidPackageName,
		},
		{
			name:       "異常系: コイン数0",
			id:         "pkg-1",
			pkgName:    "Starter",
			price:      decimal.NewFromInt(10),
			wantError:  ErrInvalidCoinAmount,
		},
		{
			name:       "異常系: 負のボーナス",
			id:         "pkg-1",
			pkgName:    "Starter",
			coinAmount: 200,
			bonusCoins: -1,
			price:      decimal.NewFromInt(10),
			wantError:  ErrInvalidBonusCoins,
		},
		{
			name:       "異常系: 価格0",
			id:         "pkg-1",
			pkgName:    "Starter",
			coinAmount: 200,
			price:      decimal.Zero,
			wantError:  ErrInvalidRupeePrice,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewPackage(tt.id, tt.pkgName, tt.coinAmount, tt.bonusCoins, tt.price, false)
			if tt.wantError != nil {
				assert.ErrorIs(t, err, tt.wantError)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.id, got.ID())
			assert.Equal(t, tt.wantTotal, got.TotalCoins())
			assert.True(t, tt.price.Equal(got.RupeePrice()))
		})
	}
}
