package purchase

import (
	"context"
	"time"
)

// PaymentRepository 決済リポジトリインターフェース
type PaymentRepository interface {
	// Save 新しい決済を保存
	Save(ctx context.Context, payment *Payment) error

	// FindByOrderID 注文IDで決済を取得
	FindByOrderID(ctx context.Context, orderID string) (*Payment, error)

	// Update 決済を更新（pending の行のみ更新し、確定済みなら ErrPaymentAlreadyFinalized）
	Update(ctx context.Context, payment *Payment) error

	// UpdateCheckout チェックアウトセッション情報のみ更新
	UpdateCheckout(ctx context.Context, payment *Payment) error

	// FindPendingBefore 指定日時より前に作成された pending の決済を取得
	FindPendingBefore(ctx context.Context, before time.Time, limit int) ([]*Payment, error)
}
