package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"coin-wallet/internal/domain/transaction"
)

// MockTransactionRepository モックトランザクションリポジトリ
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Save(ctx context.Context, t *transaction.Transaction) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTransactionRepository) FindByTransactionID(ctx context.Context, transactionID string) (*transaction.Transaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FindByUserID(ctx context.Context, userID string, filter transaction.Filter, limit, offset int) ([]*transaction.Transaction, error) {
	args := m.Called(ctx, userID, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*transaction.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) CountByUserID(ctx context.Context, userID string, filter transaction.Filter) (int, error) {
	args := m.Called(ctx, userID, filter)
	return args.Int(0), args.Error(1)
}

func sampleTransactions() []*transaction.Transaction {
	return []*transaction.Transaction{
		transaction.MustNewTransaction("txn2", "user123", transaction.TransactionTypeSpend, 50, nil,
			transaction.TransactionStatusCompleted, "Unlocked chapter 3"),
		transaction.MustNewTransaction("txn1", "user123", transaction.TransactionTypeEarn, 10, nil,
			transaction.TransactionStatusCompleted, "Daily login"),
	}
}

func TestHistoryApplicationService_GetTransactionHistory(t *testing.T) {
	earn := transaction.TransactionTypeEarn
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		req        *GetTransactionHistoryRequest
		setupMocks func(*MockTransactionRepository)
		wantError  bool
		wantIs     error
		checkFunc  func(*testing.T, *GetTransactionHistoryResponse)
	}{
		{
			name: "正常系: 既定の件数で1ページ目を取得",
			req:  &GetTransactionHistoryRequest{UserID: "user123"},
			setupMocks: func(m *MockTransactionRepository) {
				m.On("CountByUserID", mock.Anything, "user123", transaction.Filter{}).Return(45, nil)
				m.On("FindByUserID", mock.Anything, "user123", transaction.Filter{}, DefaultLimit, 0).Return(sampleTransactions(), nil)
			},
			checkFunc: func(t *testing.T, resp *GetTransactionHistoryResponse) {
				assert.Len(t, resp.Transactions, 2)
				assert.Equal(t, transaction.PaginationCursor{Page: 1, Limit: 20, Total: 45, TotalPages: 3, HasMore: true}, resp.Pagination)
			},
		},
		{
			name: "正常系: タイプと期間で絞り込み",
			req: &GetTransactionHistoryRequest{
				UserID: "user123", Page: 2, Limit: 10, TransactionType: "earn", From: &from, To: &to,
			},
			setupMocks: func(m *MockTransactionRepository) {
				filter := transaction.Filter{Type: &earn, From: &from, To: &to}
				m.On("CountByUserID", mock.Anything, "user123", filter).Return(12, nil)
				m.On("FindByUserID", mock.Anything, "user123", filter, 10, 10).Return(sampleTransactions()[1:], nil)
			},
			checkFunc: func(t *testing.T, resp *GetTransactionHistoryResponse) {
				assert.Len(t, resp.Transactions, 1)
				assert.Equal(t, 2, resp.Pagination.Page)
				assert.Equal(t, 2, resp.Pagination.TotalPages)
				assert.False(t, resp.Pagination.HasMore)
			},
		},
		{
			name: "正常系: 上限を超える件数は切り詰め",
			req:  &GetTransactionHistoryRequest{UserID: "user123", Limit: 5000},
			setupMocks: func(m *MockTransactionRepository) {
				m.On("CountByUserID", mock.Anything, "user123", transaction.Filter{}).Return(2, nil)
				m.On("FindByUserID", mock.Anything, "user123", transaction.Filter{}, MaxLimit, 0).Return(sampleTransactions(), nil)
			},
			checkFunc: func(t *testing.T, resp *GetTransactionHistoryResponse) {
				assert.Equal(t, MaxLimit, resp.Pagination.Limit)
			},
		},
		{
			name: "正常系: 範囲外のページは空",
			req:  &GetTransactionHistoryRequest{UserID: "user123", Page: 5},
			setupMocks: func(m *MockTransactionRepository) {
				m.On("CountByUserID", mock.Anything, "user123", transaction.Filter{}).Return(3, nil)
			},
			checkFunc: func(t *testing.T, resp *GetTransactionHistoryResponse) {
				assert.Empty(t, resp.Transactions)
				assert.NotNil(t, resp.Transactions)
				assert.False(t, resp.Pagination.HasMore)
			},
		},
		{
			name:      "異常系: 不明なタイプ",
			req:       &GetTransactionHistoryRequest{UserID: "user123", TransactionType: "gift"},
			wantError: true,
			wantIs:    transaction.ErrInvalidTransaction,
		},
		{
			name:      "異常系: 期間が逆転",
			req:       &GetTransactionHistoryRequest{UserID: "user123", From: &to, To: &from},
			wantError: true,
			wantIs:    transaction.ErrInvalidDateRange,
		},
		{
			name: "異常系: DBエラー",
			req:  &GetTransactionHistoryRequest{UserID: "user123"},
			setupMocks: func(m *MockTransactionRepository) {
				m.On("CountByUserID", mock.Anything, "user123", transaction.Filter{}).Return(0, errors.New("connection refused"))
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockTransactionRepository)
			if tt.setupMocks != nil {
				tt.setupMocks(repo)
			}
			s := NewHistoryApplicationService(repo, nil, nil, 0)

			resp, err := s.GetTransactionHistory(context.Background(), tt.req)
			if tt.wantError {
				require.Error(t, err)
				if tt.wantIs != nil {
					assert.ErrorIs(t, err, tt.wantIs)
				}
				assert.Nil(t, resp)
				return
			}
			require.NoError(t, err)
			tt.checkFunc(t, resp)
			repo.AssertExpectations(t)
		})
	}
}
