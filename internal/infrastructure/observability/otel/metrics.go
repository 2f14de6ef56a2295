package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics メトリクス定義
type Metrics struct {
	// 台帳トランザクション数
	TransactionCount metric.Int64Counter

	// 付与したコイン数
	CoinsCredited metric.Int64Counter

	// ウォレット残高
	WalletBalance metric.Int64Gauge

	// 決済の結果（settled / declined / cancelled / expired）
	PaymentOutcome metric.Int64Counter

	// リクエスト数
	RequestCount metric.Int64Counter

	// レスポンス時間
	ResponseTime metric.Float64Histogram

	// エラー数
	ErrorCount metric.Int64Counter
}

// NewMetrics 新しいMetricsを作成
func NewMetrics(meterName string) (*Metrics, error) {
	meter := otel.Meter(meterName)

	transactionCount, err := meter.Int64Counter(
		"wallet_transactions_total",
		metric.WithDescription("Total number of ledger transactions"),
	)
	if err != nil {
		return nil, err
	}

	coinsCredited, err := meter.Int64Counter(
		"wallet_coins_credited_total",
		metric.WithDescription("Total number of coins credited"),
		metric.WithUnit("{coin}"),
	)
	if err != nil {
		return nil, err
	}

	walletBalance, err := meter.Int64Gauge(
		"wallet_balance",
		metric.WithDescription("Wallet balance after the last change"),
		metric.WithUnit("{coin}"),
	)
	if err != nil {
		return nil, err
	}

	paymentOutcome, err := meter.Int64Counter(
		"wallet_payments_total",
		metric.WithDescription("Total number of finalized gateway payments"),
	)
	if err != nil {
		return nil, err
	}

	requestCount, err := meter.Int64Counter(
		"requests_total",
		metric.WithDescription("Total number of requests"),
	)
	if err != nil {
		return nil, err
	}

	responseTime, err := meter.Float64Histogram(
		"response_time_seconds",
		metric.WithDescription("Response time in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"errors_total",
		metric.WithDescription("Total number of errors"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		TransactionCount: transactionCount,
		CoinsCredited:    coinsCredited,
		WalletBalance:    walletBalance,
		PaymentOutcome:   paymentOutcome,
		RequestCount:     requestCount,
		ResponseTime:     responseTime,
		ErrorCount:       errorCount,
	}, nil
}

// RecordTransaction 台帳トランザクションを記録
func (m *Metrics) RecordTransaction(ctx context.Context, transactionType string, coins int64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("transaction_type", transactionType))
	m.TransactionCount.Add(ctx, 1, attrs)
	if coins > 0 {
		m.CoinsCredited.Add(ctx, coins, attrs)
	}
}

// RecordWalletBalance ウォレット残高を記録
func (m *Metrics) RecordWalletBalance(ctx context.Context, userID string, balance int64) {
	if m == nil {
		return
	}
	m.WalletBalance.Record(ctx, balance,
		metric.WithAttributes(
			attribute.String("user_id", userID),
		),
	)
}

// RecordPaymentOutcome 決済の確定結果を記録
func (m *Metrics) RecordPaymentOutcome(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.PaymentOutcome.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("status", status),
		),
	)
}

// RecordRequest リクエストを記録
func (m *Metrics) RecordRequest(ctx context.Context, method, path string) {
	if m == nil {
		return
	}
	m.RequestCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("path", path),
		),
	)
}

// RecordResponseTime レスポンス時間を記録
func (m *Metrics) RecordResponseTime(ctx context.Context, method, path string, duration float64) {
	if m == nil {
		return
	}
	m.ResponseTime.Record(ctx, duration,
		metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("path", path),
		),
	)
}

// RecordError エラーを記録
func (m *Metrics) RecordError(ctx context.Context, errorType string) {
	if m == nil {
		return
	}
	m.ErrorCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("error_type", errorType),
		),
	)
}
