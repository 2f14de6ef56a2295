package purchase

import "fmt"

// PaymentStatus 決済のステータス
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"   // ゲートウェイで処理中
	PaymentStatusSettled   PaymentStatus = "settled"   // 決済完了・コイン付与済み
	PaymentStatusDeclined  PaymentStatus = "declined"  // 拒否
	PaymentStatusCancelled PaymentStatus = "cancelled" // ユーザーによるキャンセル
	PaymentStatusExpired   PaymentStatus = "expired"   // 期限切れ
)

// NewPaymentStatus 新しいPaymentStatusを作成
func NewPaymentStatus(s string) (PaymentStatus, error) {
	ps := PaymentStatus(s)
	if !ps.Valid() {
		return "", fmt.Errorf("invalid payment status: %s", s)
	}
	return ps, nil
}

// String 文字列表現を返す
func (ps PaymentStatus) String() string {
	return string(ps)
}

// Valid 有効なステータスかどうかを返す
func (ps PaymentStatus) Valid() bool {
	switch ps {
	case PaymentStatusPending, PaymentStatusSettled, PaymentStatusDeclined, PaymentStatusCancelled, PaymentStatusExpired:
		return true
	default:
		return false
	}
}

// IsFinal 確定済み（これ以上変化しない）かどうかを返す
func (ps PaymentStatus) IsFinal() bool {
	return ps.Valid() && ps != PaymentStatusPending
}
