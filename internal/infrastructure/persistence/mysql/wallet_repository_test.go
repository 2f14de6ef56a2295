package mysql

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"coin-wallet/internal/domain/wallet"
)

func newTestWalletRepository(t *testing.T) (*WalletRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return &WalletRepository{
		db:     &DB{DB: db},
		tracer: otel.Tracer("test"),
	}, mock
}

func TestWalletRepository_FindByUserID(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(sqlmock.Sqlmock)
		want      *wallet.Wallet
		wantError error
	}{
		{
			name: "正常系: ウォレットが見つかる",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"user_id", "balance", "version"}).AddRow("user123", 1250, 4)
				mock.ExpectQuery(`SELECT user_id, balance, version`).
					WithArgs("user123").
					WillReturnRows(rows)
			},
			want: wallet.MustNewWallet("user123", 1250, 4),
		},
		{
			name: "異常系: ウォレットが見つからない",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT user_id, balance, version`).
					WithArgs("user123").
					WillReturnError(sql.ErrNoRows)
			},
			wantError: wallet.ErrWalletNotFound,
		},
		{
			name: "異常系: DBエラー",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT user_id, balance, version`).
					WithArgs("user123").
					WillReturnError(sql.ErrConnDone)
			},
			wantError: sql.ErrConnDone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newTestWalletRepository(t)
			tt.setupMock(mock)

			got, err := repo.FindByUserID(context.Background(), "user123")
			if tt.wantError != nil {
				assert.ErrorIs(t, err, tt.wantError)
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want.Balance(), got.Balance())
				assert.Equal(t, tt.want.Version(), got.Version())
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestWalletRepository_Save(t *testing.T) {
	tests := []struct {
		name         string
		rowsAffected int64
		wantError    error
	}{
		{name: "正常系: 保存", rowsAffected: 1},
		{name: "異常系: バージョン競合", rowsAffected: 0, wantError: wallet.ErrVersionConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newTestWalletRepository(t)

			w := wallet.MustNewWallet("user123", 1000, 3)
			require.NoError(t, w.Credit(250))

			mock.ExpectExec(`UPDATE wallets`).
				WithArgs(int64(1250), 4, "user123", 3).
				WillReturnResult(sqlmock.NewResult(0, tt.rowsAffected))

			err := repo.Save(context.Background(), w)
			if tt.wantError != nil {
				assert.ErrorIs(t, err, tt.wantError)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestWalletRepository_Create(t *testing.T) {
	repo, mock := newTestWalletRepository(t)

	mock.ExpectExec(`INSERT INTO wallets`).
		WithArgs("user123", int64(0), 0).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), wallet.MustNewWallet("user123", 0, 0))
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
