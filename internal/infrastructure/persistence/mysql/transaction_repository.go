package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"coin-wallet/internal/domain/transaction"
)

// mysqlErrDuplicateEntry 一意制約違反のエラー番号
const mysqlErrDuplicateEntry = 1062

const transactionColumns = `
			transaction_id, user_id, transaction_type, coin_amount, rupee_amount,
			status, related_content_type, related_content_id, reference_id,
			description, created_at`

// TransactionRepository MySQL実装のTransactionRepository
type TransactionRepository struct {
	db     *DB
	tracer trace.Tracer
}

// NewTransactionRepository 新しいTransactionRepositoryを作成
func NewTransactionRepository(db *DB) *TransactionRepository {
	return &TransactionRepository{
		db:     db,
		tracer: otel.Tracer("transaction-repository"),
	}
}

// Save トランザクションを保存
func (r *TransactionRepository) Save(ctx context.Context, t *transaction.Transaction) error {
	ctx, span := r.tracer.Start(ctx, "TransactionRepository.Save")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.transaction_id", t.TransactionID()),
		attribute.String("db.user_id", t.UserID()),
		attribute.String("db.transaction_type", t.TransactionType().String()),
		attribute.Int64("db.coin_amount", t.CoinAmount()),
		attribute.String("db.status", t.Status().String()),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.table", "transactions"),
	)

	query := `
		INSERT INTO transactions (` + transactionColumns + `
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var rupeeAmount interface{}
	if amount := t.RupeeAmount(); amount != nil {
		rupeeAmount = amount.StringFixed(2)
	}

	_, err := r.db.conn(ctx).ExecContext(ctx, query,
		t.TransactionID(),
		t.UserID(),
		t.TransactionType().String(),
		t.CoinAmount(),
		rupeeAmount,
		t.Status().String(),
		nullableString(t.RelatedContentType()),
		nullableString(t.RelatedContentID()),
		nullableString(t.ReferenceID()),
		t.Description(),
		t.CreatedAt().UTC(),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlErrDuplicateEntry {
			return fmt.Errorf("failed to save transaction %s: %w", t.TransactionID(), transaction.ErrDuplicateTransactionID)
		}
		return fmt.Errorf("failed to save transaction: %w", err)
	}

	span.SetStatus(otelcodes.Ok, "transaction saved")
	return nil
}

// FindByTransactionID トランザクションIDでトランザクションを取得
func (r *TransactionRepository) FindByTransactionID(ctx context.Context, transactionID string) (*transaction.Transaction, error) {
	ctx, span := r.tracer.Start(ctx, "TransactionRepository.FindByTransactionID")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.transaction_id", transactionID),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "transactions"),
	)

	query := `
		SELECT` + transactionColumns + `
		FROM transactions
		WHERE transaction_id = ?
	`

	t, err := scanTransaction(r.db.conn(ctx).QueryRowContext(ctx, query, transactionID))
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(otelcodes.Ok, "transaction not found")
		return nil, transaction.ErrTransactionNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to find transaction: %w", err)
	}

	span.SetStatus(otelcodes.Ok, "transaction found")
	return t, nil
}

// FindByUserID ユーザーIDでトランザクション一覧を取得（新しい順、フィルタ・ページネーション対応）
func (r *TransactionRepository) FindByUserID(ctx context.Context, userID string, filter transaction.Filter, limit, offset int) ([]*transaction.Transaction, error) {
	ctx, span := r.tracer.Start(ctx, "TransactionRepository.FindByUserID")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.user_id", userID),
		attribute.Int("db.limit", limit),
		attribute.Int("db.offset", offset),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "transactions"),
	)

	where, args := filterClause(userID, filter)
	query := `
		SELECT` + transactionColumns + `
		FROM transactions
		WHERE ` + where + `
		ORDER BY created_at DESC, transaction_id DESC
		LIMIT ? OFFSET ?
	`
	args = append(args, limit, offset)

	rows, err := r.db.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	transactions := []*transaction.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, t)
	}

	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	span.SetAttributes(attribute.Int("db.result_count", len(transactions)))
	span.SetStatus(otelcodes.Ok, fmt.Sprintf("found %d transactions", len(transactions)))
	return transactions, nil
}

// CountByUserID フィルタに一致するトランザクション件数を取得
func (r *TransactionRepository) CountByUserID(ctx context.Context, userID string, filter transaction.Filter) (int, error) {
	ctx, span := r.tracer.Start(ctx, "TransactionRepository.CountByUserID")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.user_id", userID),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "transactions"),
	)

	where, args := filterClause(userID, filter)
	query := `SELECT COUNT(*) FROM transactions WHERE ` + where

	var total int
	if err := r.db.conn(ctx).QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	span.SetAttributes(attribute.Int("db.total", total))
	span.SetStatus(otelcodes.Ok, "transactions counted")
	return total, nil
}

func filterClause(userID string, filter transaction.Filter) (string, []interface{}) {
	conditions := []string{"user_id = ?"}
	args := []interface{}{userID}

	if filter.Type != nil {
		conditions = append(conditions, "transaction_type = ?")
		args = append(args, filter.Type.String())
	}
	if filter.From != nil {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, filter.From.UTC())
	}
	if filter.To != nil {
		conditions = append(conditions, "created_at <= ?")
		args = append(args, filter.To.UTC())
	}
	return strings.Join(conditions, " AND "), args
}

// rowScanner *sql.Row と *sql.Rows に共通するScan
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row rowScanner) (*transaction.Transaction, error) {
	var dbTransactionID, dbUserID, dbTransactionType, dbStatus, description string
	var coinAmount int64
	var rupeeAmount, relatedContentType, relatedContentID, referenceID sql.NullString
	var createdAt time.Time

	if err := row.Scan(
		&dbTransactionID,
		&dbUserID,
		&dbTransactionType,
		&coinAmount,
		&rupeeAmount,
		&dbStatus,
		&relatedContentType,
		&relatedContentID,
		&referenceID,
		&description,
		&createdAt,
	); err != nil {
		return nil, err
	}

	tt, err := transaction.NewTransactionType(dbTransactionType)
	if err != nil {
		return nil, fmt.Errorf("invalid transaction type: %w", err)
	}

	ts, err := transaction.NewTransactionStatus(dbStatus)
	if err != nil {
		return nil, fmt.Errorf("invalid transaction status: %w", err)
	}

	var rupees *decimal.Decimal
	if rupeeAmount.Valid {
		d, err := decimal.NewFromString(rupeeAmount.String)
		if err != nil {
			return nil, fmt.Errorf("invalid rupee amount: %w", err)
		}
		rupees = &d
	}

	t, err := transaction.NewTransactionAt(dbTransactionID, dbUserID, tt, coinAmount, rupees, ts, description, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct transaction entity: %w", err)
	}
	if relatedContentType.Valid && relatedContentID.Valid {
		t.SetRelatedContent(relatedContentType.String, relatedContentID.String)
	}
	if referenceID.Valid {
		t.SetReferenceID(referenceID.String)
	}
	return t, nil
}

func nullableString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}
