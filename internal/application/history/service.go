package history

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"coin-wallet/internal/domain/transaction"
	otelinfra "coin-wallet/internal/infrastructure/observability/otel"
)

const (
	// DefaultLimit 1ページの既定件数
	DefaultLimit = 20
	// MaxLimit 1ページの最大件数（CSVエクスポートで使用する上限）
	MaxLimit = 1000
)

// HistoryApplicationService 履歴アプリケーションサービス
type HistoryApplicationService struct {
	transactionRepo transaction.TransactionRepository
	logger          *otelinfra.Logger
	metrics         *otelinfra.Metrics
	tracer          trace.Tracer
	maxLimit        int
}

// NewHistoryApplicationService 新しいHistoryApplicationServiceを作成
func NewHistoryApplicationService(
	transactionRepo transaction.TransactionRepository,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
	maxLimit int,
) *HistoryApplicationService {
	if maxLimit <= 0 || maxLimit > MaxLimit {
		maxLimit = MaxLimit
	}
	return &HistoryApplicationService{
		transactionRepo: transactionRepo,
		logger:          logger,
		metrics:         metrics,
		tracer:          otel.Tracer("history-service"),
		maxLimit:        maxLimit,
	}
}

// GetTransactionHistory トランザクション履歴を新しい順に取得
func (s *HistoryApplicationService) GetTransactionHistory(ctx context.Context, req *GetTransactionHistoryRequest) (*GetTransactionHistoryResponse, error) {
	ctx, span := s.tracer.Start(ctx, "HistoryApplicationService.GetTransactionHistory")
	defer span.End()

	// バリデーション
	if req.Limit <= 0 {
		req.Limit = DefaultLimit
	}
	if req.Limit > s.maxLimit {
		req.Limit = s.maxLimit
	}
	if req.Page < 1 {
		req.Page = 1
	}

	span.SetAttributes(
		attribute.String("user_id", req.UserID),
		attribute.Int("page", req.Page),
		attribute.Int("limit", req.Limit),
		attribute.String("transaction_type", req.TransactionType),
	)

	filter := transaction.Filter{From: req.From, To: req.To}
	if req.TransactionType != "" {
		tt, err := transaction.NewTransactionType(req.TransactionType)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			return nil, fmt.Errorf("%w: %v", transaction.ErrInvalidTransaction, err)
		}
		filter = filter.WithType(tt)
	}
	if err := filter.Validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	total, err := s.transactionRepo.CountByUserID(ctx, req.UserID, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to count transactions", err, map[string]interface{}{
			"user_id": req.UserID,
		})
		return nil, fmt.Errorf("failed to count transactions: %w", err)
	}

	transactions := []*transaction.Transaction{}
	offset := transaction.Offset(req.Page, req.Limit)
	if offset < total {
		transactions, err = s.transactionRepo.FindByUserID(ctx, req.UserID, filter, req.Limit, offset)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			s.logger.Error(ctx, "Failed to get transaction history", err, map[string]interface{}{
				"user_id": req.UserID,
			})
			return nil, fmt.Errorf("failed to get transaction history: %w", err)
		}
	}

	s.logger.Debug(ctx, "Transaction history fetched", map[string]interface{}{
		"user_id":  req.UserID,
		"page":     req.Page,
		"returned": len(transactions),
		"total":    total,
	})

	span.SetAttributes(attribute.Int("total", total))
	span.SetStatus(otelcodes.Ok, "history fetched")

	return &GetTransactionHistoryResponse{
		Transactions: transactions,
		Pagination:   transaction.NewPaginationCursor(req.Page, req.Limit, total),
	}, nil
}
