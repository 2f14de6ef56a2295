package transaction

import (
	"context"
)

// TransactionManager トランザクション管理インターフェース
type TransactionManager interface {
	// WithTransaction トランザクション内で関数を実行
	// fn に渡される ctx はDBトランザクションに紐付いており、リポジトリはこの ctx 経由で同じトランザクションを使う
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
