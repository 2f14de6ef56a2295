package transaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTransactionType(t *testing.T) {
	for _, tt := range AllTransactionTypes() {
		t.Run("正常系: "+tt.String(), func(t *testing.T) {
			got, err := NewTransactionType(tt.String())
			require.NoError(t, err)
			assert.Equal(t, tt, got)
		})
	}

	t.Run("異常系: 無効な値", func(t *testing.T) {
		_, err := NewTransactionType("grant")
		assert.Error(t, err)
	})
}

func TestTransactionType_Sign(t *testing.T) {
	tests := []struct {
		name       string
		tt         TransactionType
		wantCredit bool
		wantMoney  bool
	}{
		{name: "purchase は入金・金銭あり", tt: TransactionTypePurchase, wantCredit: true, wantMoney: true},
		{name: "earn は入金・金銭なし", tt: TransactionTypeEarn, wantCredit: true},
		{name: "refund は入金・金銭あり", tt: TransactionTypeRefund, wantCredit: true, wantMoney: true},
		{name: "spend は出金・金銭なし", tt: TransactionTypeSpend},
		{name: "withdraw は出金・金銭あり", tt: TransactionTypeWithdraw, wantMoney: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCredit, tt.tt.IsCredit())
			assert.Equal(t, !tt.wantCredit, tt.tt.IsDebit())
			assert.Equal(t, tt.wantMoney, tt.tt.IsMoneyDenominated())
		})
	}
}
