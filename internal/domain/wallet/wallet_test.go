package wallet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWallet(t *testing.T) {
	tests := []struct {
		name      string
		userID    string
		balance   int64
		wantError error
	}{
		{name: "正常系: 残高0", userID: "user123", balance: 0},
		{name: "正常系: 残高あり", userID: "user@example.com", balance: 500},
		{name: "異常系: 不正なユーザーID", userID: "user 1", balance: 0, wantError: ErrInvalidUserID},
		{name: "異常系: マイナス残高", userID: "user123", balance: -1, wantError: ErrBalanceOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewWallet(tt.userID, tt.balance, 1)
			if tt.wantError != nil {
				assert.ErrorIs(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.userID, got.UserID())
			assert.Equal(t, tt.balance, got.Balance())
			assert.Equal(t, 1, got.Version())
		})
	}
}

func TestWallet_Credit(t *testing.T) {
	tests := []struct {
		name        string
		wallet      *Wallet
		amount      int64
		wantBalance int64
		wantVersion int
		wantError   error
	}{
		{
			name:        "正常系: 加算",
			wallet:      MustNewWallet("user1", 100, 1),
			amount:      200,
			wantBalance: 300,
			wantVersion: 2,
		},
		{
			name:        "異常系: 0コイン",
			wallet:      MustNewWallet("user1", 100, 1),
			amount:      0,
			wantBalance: 100,
			wantVersion: 1,
			wantError:   ErrInvalidAmount,
		},
		{
			name:        "異常系: 上限超過",
			wallet:      MustNewWallet("user1", MaxBalance, 1),
			amount:      1,
			wantBalance: MaxBalance,
			wantVersion: 1,
			wantError:   ErrBalanceOutOfRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.wallet.Credit(tt.amount)
			if tt.wantError != nil {
				assert.ErrorIs(t, err, tt.wantError)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantBalance, tt.wallet.Balance())
			assert.Equal(t, tt.wantVersion, tt.wallet.Version())
		})
	}
}

func TestWallet_Debit(t *testing.T) {
	w := MustNewWallet("user1", 100, 1)
	require.NoError(t, w.Debit(40))
	assert.Equal(t, int64(60), w.Balance())

	assert.ErrorIs(t, w.Debit(61), ErrInsufficientBalance)
	assert.Equal(t, int64(60), w.Balance())
	assert.ErrorIs(t, w.Debit(-1), ErrInvalidAmount)
}
