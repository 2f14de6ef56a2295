package transaction

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rupees(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestNewTransaction(t *testing.T) {
	tests := []struct {
		name        string
		id          string
		userID      string
		txType      TransactionType
		coinAmount  int64
		rupeeAmount *decimal.Decimal
		status      TransactionStatus
		wantError   error
	}{
		{
			name:        "正常系: 購入トランザクション",
			id:          "tx-1",
			userID:      "user123",
			txType:      TransactionTypePurchase,
			coinAmount:  200,
			rupeeAmount: rupees("10"),
			status:      TransactionStatusCompleted,
		},
		{
			name:       "正常系: 報酬トランザクション",
			id:         "tx-2",
			userID:     "user123",
			txType:     TransactionTypeEarn,
			coinAmount: 50,
			status:     TransactionStatusCompleted,
		},
		{
			name:       "異常系: 不正なID",
			id:         "tx 1",
			userID:     "user123",
			txType:     TransactionTypeEarn,
			coinAmount: 50,
			status:     TransactionStatusCompleted,
			wantError:  ErrInvalidTransactionID,
		},
		{
			name:       "異常系: 不正なユーザーID",
			id:         "tx-1",
			userID:     "",
			txType:     TransactionTypeEarn,
			coinAmount: 50,
			status:     TransactionStatusCompleted,
			wantError:  ErrInvalidUserID,
		},
		{
			name:       "異常系: コイン数0",
			id:         "tx-1",
			userID:     "user123",
			txType:     TransactionTypeSpend,
			coinAmount: 0,
			status:     TransactionStatusCompleted,
			wantError:  ErrInvalidAmount,
		},
		{
			name:       "異常系: コイン数が上限超過",
			id:         "tx-1",
			userID:     "user123",
			txType:     TransactionTypeSpend,
			coinAmount: MaxAmount + 1,
			status:     TransactionStatusCompleted,
			wantError:  ErrAmountTooLarge,
		},
		{
			name:        "異常系: 金銭を伴わないタイプにルピー金額",
			id:          "tx-1",
			userID:      "user123",
			txType:      TransactionTypeSpend,
			coinAmount:  10,
			rupeeAmount: rupees("0.5"),
			status:      TransactionStatusCompleted,
			wantError:   ErrUnexpectedRupeeAmount,
		},
		{
			name:       "異常系: 無効なタイプ",
			id:         "tx-1",
			userID:     "user123",
			txType:     TransactionType("grant"),
			coinAmount: 10,
			status:     TransactionStatusCompleted,
			wantError:  ErrInvalidType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewTransaction(tt.id, tt.userID, tt.txType, tt.coinAmount, tt.rupeeAmount, tt.status, "desc")
			if tt.wantError != nil {
				assert.ErrorIs(t, err, tt.wantError)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.id, got.TransactionID())
			assert.Equal(t, tt.userID, got.UserID())
			assert.Equal(t, tt.txType, got.TransactionType())
			assert.Equal(t, tt.coinAmount, got.CoinAmount())
			assert.Equal(t, tt.status, got.Status())
			assert.False(t, got.CreatedAt().IsZero())
		})
	}
}

func TestTransaction_SignedAmount(t *testing.T) {
	earn := MustNewTransaction("tx-1", "user1", TransactionTypeEarn, 30, nil, TransactionStatusCompleted, "")
	spend := MustNewTransaction("tx-2", "user1", TransactionTypeSpend, 30, nil, TransactionStatusCompleted, "")
	withdraw := MustNewTransaction("tx-3", "user1", TransactionTypeWithdraw, 30, rupees("1.5"), TransactionStatusCompleted, "")

	assert.Equal(t, int64(30), earn.SignedAmount())
	assert.Equal(t, int64(-30), spend.SignedAmount())
	assert.Equal(t, int64(-30), withdraw.SignedAmount())
}

func TestTransaction_UpdateStatus(t *testing.T) {
	t.Run("正常系: completed → refunded", func(t *testing.T) {
		tx := MustNewTransaction("tx-1", "user1", TransactionTypePurchase, 200, rupees("10"), TransactionStatusCompleted, "")
		require.NoError(t, tx.UpdateStatus(TransactionStatusRefunded))
		assert.Equal(t, TransactionStatusRefunded, tx.Status())
	})

	t.Run("異常系: failed は終端", func(t *testing.T) {
		tx := MustNewTransaction("tx-1", "user1", TransactionTypePurchase, 200, rupees("10"), TransactionStatusFailed, "")
		assert.ErrorIs(t, tx.UpdateStatus(TransactionStatusCompleted), ErrInvalidStatusTransition)
		assert.Equal(t, TransactionStatusFailed, tx.Status())
	})

	t.Run("異常系: 無効なステータス", func(t *testing.T) {
		tx := MustNewTransaction("tx-1", "user1", TransactionTypeEarn, 5, nil, TransactionStatusPending, "")
		assert.ErrorIs(t, tx.UpdateStatus(TransactionStatus("unknown")), ErrInvalidTransaction)
	})
}

func TestTransaction_RelatedContent(t *testing.T) {
	tx := MustNewTransaction("tx-1", "user1", TransactionTypeSpend, 15, nil, TransactionStatusCompleted, "unlock")
	assert.Nil(t, tx.RelatedContentType())

	tx.SetRelatedContent("video", "vid-9")
	tx.SetReferenceID("order-1")
	require.NotNil(t, tx.RelatedContentType())
	assert.Equal(t, "video", *tx.RelatedContentType())
	assert.Equal(t, "vid-9", *tx.RelatedContentID())
	assert.Equal(t, "order-1", *tx.ReferenceID())
}

func TestFilter(t *testing.T) {
	now := time.Now()
	earlier := now.Add(-time.Hour)
	later := now.Add(time.Hour)
	tx := MustNewTransactionAt("tx-1", "user1", TransactionTypeSpend, 15, nil, TransactionStatusCompleted, "", now)

	assert.True(t, Filter{}.Matches(tx))
	assert.True(t, Filter{}.WithType(TransactionTypeSpend).Matches(tx))
	assert.False(t, Filter{}.WithType(TransactionTypeEarn).Matches(tx))
	assert.True(t, Filter{From: &earlier, To: &later}.Matches(tx))
	assert.False(t, Filter{From: &later}.Matches(tx))

	assert.NoError(t, Filter{From: &earlier, To: &later}.Validate())
	assert.ErrorIs(t, Filter{From: &later, To: &earlier}.Validate(), ErrInvalidDateRange)

	assert.True(t, Filter{}.WithType(TransactionTypeSpend).Equal(Filter{}.WithType(TransactionTypeSpend)))
	assert.False(t, Filter{}.Equal(Filter{}.WithType(TransactionTypeSpend)))
}

func TestNewPaginationCursor(t *testing.T) {
	tests := []struct {
		name  string
		page  int
		limit int
		total int
		want  PaginationCursor
	}{
		{
			name: "正常系: 先頭ページ", page: 1, limit: 10, total: 25,
			want: PaginationCursor{Page: 1, Limit: 10, Total: 25, TotalPages: 3, HasMore: true},
		},
		{
			name: "正常系: 最終ページ", page: 3, limit: 10, total: 25,
			want: PaginationCursor{Page: 3, Limit: 10, Total: 25, TotalPages: 3, HasMore: false},
		},
		{
			name: "正常系: 0件", page: 1, limit: 10, total: 0,
			want: PaginationCursor{Page: 1, Limit: 10, Total: 0, TotalPages: 0, HasMore: false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewPaginationCursor(tt.page, tt.limit, tt.total))
		})
	}
	assert.Equal(t, 20, Offset(3, 10))
	assert.Equal(t, 0, Offset(0, 10))
}
