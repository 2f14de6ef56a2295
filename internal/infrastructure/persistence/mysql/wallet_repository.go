package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"coin-wallet/internal/domain/wallet"
)

// WalletRepository MySQL実装のWalletRepository
type WalletRepository struct {
	db     *DB
	tracer trace.Tracer
}

// NewWalletRepository 新しいWalletRepositoryを作成
func NewWalletRepository(db *DB) *WalletRepository {
	return &WalletRepository{
		db:     db,
		tracer: otel.Tracer("wallet-repository"),
	}
}

// FindByUserID ユーザーIDでウォレットを取得
func (r *WalletRepository) FindByUserID(ctx context.Context, userID string) (*wallet.Wallet, error) {
	ctx, span := r.tracer.Start(ctx, "WalletRepository.FindByUserID")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.user_id", userID),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "wallets"),
	)

	query := `
		SELECT user_id, balance, version
		FROM wallets
		WHERE user_id = ?
	`

	var dbUserID string
	var balance int64
	var version int

	err := r.db.conn(ctx).QueryRowContext(ctx, query, userID).Scan(&dbUserID, &balance, &version)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(otelcodes.Ok, "wallet not found")
		return nil, wallet.ErrWalletNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to find wallet: %w", err)
	}

	span.SetAttributes(
		attribute.Int64("db.balance", balance),
		attribute.Int("db.version", version),
	)
	span.SetStatus(otelcodes.Ok, "wallet found")

	w, err := wallet.NewWallet(dbUserID, balance, version)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct wallet entity: %w", err)
	}
	return w, nil
}

// Save ウォレットを保存（楽観的ロック）
// エンティティの version は変更後の値。保存時は1つ前の version と一致する行のみ更新する
func (r *WalletRepository) Save(ctx context.Context, w *wallet.Wallet) error {
	ctx, span := r.tracer.Start(ctx, "WalletRepository.Save")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.user_id", w.UserID()),
		attribute.Int64("db.balance", w.Balance()),
		attribute.Int("db.version", w.Version()),
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.table", "wallets"),
	)

	query := `
		UPDATE wallets
		SET balance = ?, version = ?, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ? AND version = ?
	`

	result, err := r.db.conn(ctx).ExecContext(ctx, query,
		w.Balance(),
		w.Version(),
		w.UserID(),
		w.Version()-1,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to save wallet: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		span.RecordError(wallet.ErrVersionConflict)
		span.SetStatus(otelcodes.Error, wallet.ErrVersionConflict.Error())
		return wallet.ErrVersionConflict
	}

	span.SetAttributes(attribute.Int64("db.rows_affected", rowsAffected))
	span.SetStatus(otelcodes.Ok, "wallet saved")
	return nil
}

// Create 新しいウォレットを作成（既に存在する場合は何もしない）
func (r *WalletRepository) Create(ctx context.Context, w *wallet.Wallet) error {
	ctx, span := r.tracer.Start(ctx, "WalletRepository.Create")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.user_id", w.UserID()),
		attribute.Int64("db.balance", w.Balance()),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.table", "wallets"),
	)

	query := `
		INSERT INTO wallets (user_id, balance, version)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE user_id = user_id
	`

	_, err := r.db.conn(ctx).ExecContext(ctx, query, w.UserID(), w.Balance(), w.Version())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to create wallet: %w", err)
	}

	span.SetStatus(otelcodes.Ok, "wallet created")
	return nil
}
