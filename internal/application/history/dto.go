package history

import (
	"time"

	"coin-wallet/internal/domain/transaction"
)

// GetTransactionHistoryRequest トランザクション履歴取得リクエスト
type GetTransactionHistoryRequest struct {
	UserID          string
	Page            int
	Limit           int
	TransactionType string     // optional: "purchase", "spend", "earn", "refund", "withdraw"
	From            *time.Time // optional
	To              *time.Time // optional
}

// GetTransactionHistoryResponse トランザクション履歴取得レスポンス
type GetTransactionHistoryResponse struct {
	Transactions []*transaction.Transaction
	Pagination   transaction.PaginationCursor
}
