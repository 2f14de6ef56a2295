package transaction

import (
	"context"
)

// TransactionRepository トランザクションリポジトリインターフェース
type TransactionRepository interface {
	// Save トランザクションを保存
	Save(ctx context.Context, transaction *Transaction) error

	// FindByTransactionID トランザクションIDでトランザクションを取得
	FindByTransactionID(ctx context.Context, transactionID string) (*Transaction, error)

	// FindByUserID ユーザーIDでトランザクション一覧を取得（created_at 降順、フィルタ・ページネーション対応）
	FindByUserID(ctx context.Context, userID string, filter Filter, limit, offset int) ([]*Transaction, error)

	// CountByUserID フィルタに一致するトランザクション件数を取得
	CountByUserID(ctx context.Context, userID string, filter Filter) (int, error)
}
