package mysql

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"coin-wallet/internal/domain/purchase"
)

var paymentRowColumns = []string{
	"order_id", "user_id", "package_id", "coins", "rupee_amount", "status",
	"gateway_message", "snap_token", "redirect_url", "transaction_id",
	"created_at", "updated_at",
}

func newTestPaymentRepository(t *testing.T) (*PaymentRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return &PaymentRepository{
		db:     &DB{DB: db},
		tracer: otel.Tracer("test"),
	}, mock
}

func TestPaymentRepository_Save(t *testing.T) {
	packageID := "popular"
	p := purchase.MustNewPayment("ord_1", "user123", &packageID, 1100, decimal.RequireFromString("100"))

	tests := []struct {
		name      string
		setupMock func(sqlmock.Sqlmock)
		wantError bool
	}{
		{
			name: "正常系: 保存",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO payments`).
					WithArgs("ord_1", "user123", "popular", int64(1100), "100.00", "pending",
						"", "", "", nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
					WillReturnResult(sqlmock.NewResult(1, 1))
			},
		},
		{
			name: "異常系: DBエラー",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO payments`).WillReturnError(sql.ErrConnDone)
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newTestPaymentRepository(t)
			tt.setupMock(mock)

			err := repo.Save(context.Background(), p)
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPaymentRepository_FindByOrderID(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		setupMock func(sqlmock.Sqlmock)
		wantError error
		check     func(t *testing.T, p *purchase.Payment)
	}{
		{
			name: "正常系: 確定済みの決済",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(paymentRowColumns).
					AddRow("ord_1", "user123", "popular", 1100, "100.00", "settled",
						"", "snap-token", "https://pay.example/ord_1", "txn_1", now, now)
				mock.ExpectQuery(`FROM payments\s+WHERE order_id = \?`).
					WithArgs("ord_1").
					WillReturnRows(rows)
			},
			check: func(t *testing.T, p *purchase.Payment) {
				assert.Equal(t, purchase.PaymentStatusSettled, p.Status())
				require.NotNil(t, p.TransactionID())
				assert.Equal(t, "txn_1", *p.TransactionID())
				require.NotNil(t, p.PackageID())
				assert.Equal(t, "popular", *p.PackageID())
				assert.True(t, decimal.RequireFromString("100").Equal(p.RupeeAmount()))
			},
		},
		{
			name: "正常系: カスタム金額の決済",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(paymentRowColumns).
					AddRow("ord_1", "user123", nil, 2500, "250.00", "pending",
						"", "", "", nil, now, now)
				mock.ExpectQuery(`FROM payments`).WithArgs("ord_1").WillReturnRows(rows)
			},
			check: func(t *testing.T, p *purchase.Payment) {
				assert.Nil(t, p.PackageID())
				assert.Nil(t, p.TransactionID())
				assert.Equal(t, int64(2500), p.Coins())
			},
		},
		{
			name: "異常系: 決済が見つからない",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM payments`).WithArgs("ord_1").WillReturnError(sql.ErrNoRows)
			},
			wantError: purchase.ErrPaymentNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newTestPaymentRepository(t)
			tt.setupMock(mock)

			got, err := repo.FindByOrderID(context.Background(), "ord_1")
			if tt.wantError != nil {
				assert.ErrorIs(t, err, tt.wantError)
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				tt.check(t, got)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPaymentRepository_Update(t *testing.T) {
	tests := []struct {
		name         string
		rowsAffected int64
		wantError    error
	}{
		{name: "正常系: pending の決済を確定", rowsAffected: 1},
		{name: "異常系: 既に確定済み", rowsAffected: 0, wantError: purchase.ErrPaymentAlreadyFinalized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newTestPaymentRepository(t)

			p := purchase.MustNewPayment("ord_1", "user123", nil, 1000, decimal.RequireFromString("100"))
			require.NoError(t, p.Settle("txn_1"))

			mock.ExpectExec(`UPDATE payments\s+SET status = \?, gateway_message = \?, transaction_id = \?, updated_at = \?\s+WHERE order_id = \? AND status = \?`).
				WithArgs("settled", "", "txn_1", sqlmock.AnyArg(), "ord_1", "pending").
				WillReturnResult(sqlmock.NewResult(0, tt.rowsAffected))

			err := repo.Update(context.Background(), p)
			if tt.wantError != nil {
				assert.ErrorIs(t, err, tt.wantError)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPaymentRepository_UpdateCheckout(t *testing.T) {
	repo, mock := newTestPaymentRepository(t)

	p := purchase.MustNewPayment("ord_1", "user123", nil, 1000, decimal.RequireFromString("100"))
	p.AttachCheckout("snap-token", "https://pay.example/ord_1")

	mock.ExpectExec(`UPDATE payments\s+SET snap_token = \?, redirect_url = \?`).
		WithArgs("snap-token", "https://pay.example/ord_1", sqlmock.AnyArg(), "ord_1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateCheckout(context.Background(), p))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepository_FindPendingBefore(t *testing.T) {
	repo, mock := newTestPaymentRepository(t)

	before := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	created := before.Add(-time.Hour)
	rows := sqlmock.NewRows(paymentRowColumns).
		AddRow("ord_1", "user123", nil, 1000, "100.00", "pending", "", "", "", nil, created, created).
		AddRow("ord_2", "user456", "starter", 500, "50.00", "pending", "", "", "", nil, created, created)

	mock.ExpectQuery(`WHERE status = \? AND created_at < \?\s+ORDER BY created_at ASC\s+LIMIT \?`).
		WithArgs("pending", before, 50).
		WillReturnRows(rows)

	got, err := repo.FindPendingBefore(context.Background(), before, 50)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "ord_1", got[0].OrderID())
	assert.Equal(t, "ord_2", got[1].OrderID())
	assert.NoError(t, mock.ExpectationsWereMet())
}
