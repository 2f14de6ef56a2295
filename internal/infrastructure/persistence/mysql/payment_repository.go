package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"coin-wallet/internal/domain/purchase"
)

const paymentColumns = `
			order_id, user_id, package_id, coins, rupee_amount, status,
			gateway_message, snap_token, redirect_url, transaction_id,
			created_at, updated_at`

// PaymentRepository MySQL実装のPaymentRepository
type PaymentRepository struct {
	db     *DB
	tracer trace.Tracer
}

// NewPaymentRepository 新しいPaymentRepositoryを作成
func NewPaymentRepository(db *DB) *PaymentRepository {
	return &PaymentRepository{
		db:     db,
		tracer: otel.Tracer("payment-repository"),
	}
}

// Save 新しい決済を保存
func (r *PaymentRepository) Save(ctx context.Context, p *purchase.Payment) error {
	ctx, span := r.tracer.Start(ctx, "PaymentRepository.Save")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.order_id", p.OrderID()),
		attribute.String("db.user_id", p.UserID()),
		attribute.Int64("db.coins", p.Coins()),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.table", "payments"),
	)

	query := `
		INSERT INTO payments (` + paymentColumns + `
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.conn(ctx).ExecContext(ctx, query,
		p.OrderID(),
		p.UserID(),
		nullableString(p.PackageID()),
		p.Coins(),
		p.RupeeAmount().StringFixed(2),
		p.Status().String(),
		p.GatewayMessage(),
		p.SnapToken(),
		p.RedirectURL(),
		nullableString(p.TransactionID()),
		p.CreatedAt().UTC(),
		p.UpdatedAt().UTC(),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to save payment: %w", err)
	}

	span.SetStatus(otelcodes.Ok, "payment saved")
	return nil
}

// FindByOrderID 注文IDで決済を取得
func (r *PaymentRepository) FindByOrderID(ctx context.Context, orderID string) (*purchase.Payment, error) {
	ctx, span := r.tracer.Start(ctx, "PaymentRepository.FindByOrderID")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.order_id", orderID),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "payments"),
	)

	query := `
		SELECT` + paymentColumns + `
		FROM payments
		WHERE order_id = ?
	`

	p, err := scanPayment(r.db.conn(ctx).QueryRowContext(ctx, query, orderID))
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(otelcodes.Ok, "payment not found")
		return nil, purchase.ErrPaymentNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to find payment: %w", err)
	}

	span.SetAttributes(attribute.String("db.status", p.Status().String()))
	span.SetStatus(otelcodes.Ok, "payment found")
	return p, nil
}

// Update 決済の状態を更新する。pending の行のみ更新するため、同じ注文を二重に確定することはない
func (r *PaymentRepository) Update(ctx context.Context, p *purchase.Payment) error {
	ctx, span := r.tracer.Start(ctx, "PaymentRepository.Update")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.order_id", p.OrderID()),
		attribute.String("db.status", p.Status().String()),
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.table", "payments"),
	)

	query := `
		UPDATE payments
		SET status = ?, gateway_message = ?, transaction_id = ?, updated_at = ?
		WHERE order_id = ? AND status = ?
	`

	result, err := r.db.conn(ctx).ExecContext(ctx, query,
		p.Status().String(),
		p.GatewayMessage(),
		nullableString(p.TransactionID()),
		p.UpdatedAt().UTC(),
		p.OrderID(),
		purchase.PaymentStatusPending.String(),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to update payment: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		span.SetStatus(otelcodes.Error, purchase.ErrPaymentAlreadyFinalized.Error())
		return purchase.ErrPaymentAlreadyFinalized
	}

	span.SetStatus(otelcodes.Ok, "payment updated")
	return nil
}

// UpdateCheckout チェックアウトセッション情報のみ更新
func (r *PaymentRepository) UpdateCheckout(ctx context.Context, p *purchase.Payment) error {
	ctx, span := r.tracer.Start(ctx, "PaymentRepository.UpdateCheckout")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.order_id", p.OrderID()),
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.table", "payments"),
	)

	query := `
		UPDATE payments
		SET snap_token = ?, redirect_url = ?, updated_at = ?
		WHERE order_id = ?
	`

	_, err := r.db.conn(ctx).ExecContext(ctx, query,
		p.SnapToken(),
		p.RedirectURL(),
		p.UpdatedAt().UTC(),
		p.OrderID(),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to update checkout: %w", err)
	}

	span.SetStatus(otelcodes.Ok, "checkout updated")
	return nil
}

// FindPendingBefore 指定日時より前に作成された pending の決済を古い順に取得
func (r *PaymentRepository) FindPendingBefore(ctx context.Context, before time.Time, limit int) ([]*purchase.Payment, error) {
	ctx, span := r.tracer.Start(ctx, "PaymentRepository.FindPendingBefore")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.before", before.UTC().Format(time.RFC3339)),
		attribute.Int("db.limit", limit),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "payments"),
	)

	query := `
		SELECT` + paymentColumns + `
		FROM payments
		WHERE status = ? AND created_at < ?
		ORDER BY created_at ASC
		LIMIT ?
	`

	rows, err := r.db.conn(ctx).QueryContext(ctx, query, purchase.PaymentStatusPending.String(), before.UTC(), limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to query pending payments: %w", err)
	}
	defer rows.Close()

	payments := []*purchase.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}

	span.SetAttributes(attribute.Int("db.result_count", len(payments)))
	span.SetStatus(otelcodes.Ok, fmt.Sprintf("found %d pending payments", len(payments)))
	return payments, nil
}

func scanPayment(row rowScanner) (*purchase.Payment, error) {
	var orderID, userID, amount, status, gatewayMessage, snapToken, redirectURL string
	var packageID, transactionID sql.NullString
	var coins int64
	var createdAt, updatedAt time.Time

	if err := row.Scan(
		&orderID,
		&userID,
		&packageID,
		&coins,
		&amount,
		&status,
		&gatewayMessage,
		&snapToken,
		&redirectURL,
		&transactionID,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	rupeeAmount, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid rupee amount: %w", err)
	}
	ps, err := purchase.NewPaymentStatus(status)
	if err != nil {
		return nil, err
	}

	var packageIDPtr, transactionIDPtr *string
	if packageID.Valid {
		packageIDPtr = &packageID.String
	}
	if transactionID.Valid {
		transactionIDPtr = &transactionID.String
	}

	p, err := purchase.RestorePayment(orderID, userID, packageIDPtr, coins, rupeeAmount, ps,
		gatewayMessage, snapToken, redirectURL, transactionIDPtr, createdAt, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct payment entity: %w", err)
	}
	return p, nil
}
