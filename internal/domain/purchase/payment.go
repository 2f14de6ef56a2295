package purchase

import (
	"regexp"
	"time"

	"github.com/shopspring/decimal"
)

var (
	orderIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-\.]{1,64}$`)
	userIDRegex  = regexp.MustCompile(`^[a-zA-Z0-9_\-\.\@]{1,255}$`)
)

// Payment ゲートウェイ決済とコイン付与を結びつけるエンティティ
// 注文IDが冪等キーとなり、同じ注文でコインが二重に付与されることはない
type Payment struct {
	orderID        string
	userID         string
	packageID      *string // カスタム金額チャージの場合はnil
	coins          int64
	rupeeAmount    decimal.Decimal
	status         PaymentStatus
	gatewayMessage string
	snapToken      string
	redirectURL    string
	transactionID  *string // 付与時に作成した台帳レコード
	createdAt      time.Time
	updatedAt      time.Time
}

// NewPayment 新しいPaymentエンティティを作成（ステータスはpending）
func NewPayment(orderID, userID string, packageID *string, coins int64, rupeeAmount decimal.Decimal) (*Payment, error) {
	if !orderIDRegex.MatchString(orderID) {
		return nil, ErrInvalidOrderID
	}
	if !userIDRegex.MatchString(userID) {
		return nil, ErrInvalidUserID
	}
	if coins <= 0 || rupeeAmount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}

	now := time.Now()
	return &Payment{
		orderID:     orderID,
		userID:      userID,
		packageID:   packageID,
		coins:       coins,
		rupeeAmount: rupeeAmount,
		status:      PaymentStatusPending,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// RestorePayment 永続化層から読み込んだ値でPaymentを復元
func RestorePayment(
	orderID, userID string,
	packageID *string,
	coins int64,
	rupeeAmount decimal.Decimal,
	status PaymentStatus,
	gatewayMessage, snapToken, redirectURL string,
	transactionID *string,
	createdAt, updatedAt time.Time,
) (*Payment, error) {
	p, err := NewPayment(orderID, userID, packageID, coins, rupeeAmount)
	if err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	p.status = status
	p.gatewayMessage = gatewayMessage
	p.snapToken = snapToken
	p.redirectURL = redirectURL
	p.transactionID = transactionID
	p.createdAt = createdAt
	p.updatedAt = updatedAt
	return p, nil
}

// OrderID 注文IDを返す
func (p *Payment) OrderID() string {
	return p.orderID
}

// UserID ユーザーIDを返す
func (p *Payment) UserID() string {
	return p.userID
}

// PackageID パッケージIDを返す
func (p *Payment) PackageID() *string {
	return p.packageID
}

// Coins 付与予定のコイン数を返す
func (p *Payment) Coins() int64 {
	return p.coins
}

// RupeeAmount 決済金額を返す
func (p *Payment) RupeeAmount() decimal.Decimal {
	return p.rupeeAmount
}

// Status ステータスを返す
func (p *Payment) Status() PaymentStatus {
	return p.status
}

// GatewayMessage ゲートウェイからのメッセージを返す
func (p *Payment) GatewayMessage() string {
	return p.gatewayMessage
}

// SnapToken チェックアウトトークンを返す
func (p *Payment) SnapToken() string {
	return p.snapToken
}

// RedirectURL チェックアウト画面のURLを返す
func (p *Payment) RedirectURL() string {
	return p.redirectURL
}

// TransactionID 付与時の台帳トランザクションIDを返す
func (p *Payment) TransactionID() *string {
	return p.transactionID
}

// CreatedAt 作成日時を返す
func (p *Payment) CreatedAt() time.Time {
	return p.createdAt
}

// UpdatedAt 更新日時を返す
func (p *Payment) UpdatedAt() time.Time {
	return p.updatedAt
}

// AttachCheckout チェックアウトセッション情報を設定
func (p *Payment) AttachCheckout(snapToken, redirectURL string) {
	p.snapToken = snapToken
	p.redirectURL = redirectURL
	p.updatedAt = time.Now()
}

// Settle 決済完了として確定し、付与した台帳トランザクションを記録
func (p *Payment) Settle(transactionID string) error {
	if err := p.finalize(PaymentStatusSettled, ""); err != nil {
		return err
	}
	p.transactionID = &transactionID
	return nil
}

// Decline 拒否として確定
func (p *Payment) Decline(message string) error {
	return p.finalize(PaymentStatusDeclined, message)
}

// Cancel キャンセルとして確定
func (p *Payment) Cancel(message string) error {
	return p.finalize(PaymentStatusCancelled, message)
}

// Expire 期限切れとして確定
func (p *Payment) Expire() error {
	return p.finalize(PaymentStatusExpired, "checkout expired")
}

func (p *Payment) finalize(status PaymentStatus, message string) error {
	if p.status.IsFinal() {
		return ErrPaymentAlreadyFinalized
	}
	p.status = status
	p.gatewayMessage = message
	p.updatedAt = time.Now()
	return nil
}

// MustNewPayment テスト用ヘルパー: NewPaymentを呼び出し、エラーが発生した場合はpanicする
func MustNewPayment(orderID, userID string, packageID *string, coins int64, rupeeAmount decimal.Decimal) *Payment {
	p, err := NewPayment(orderID, userID, packageID, coins, rupeeAmount)
	if err != nil {
		panic(err)
	}
	return p
}
