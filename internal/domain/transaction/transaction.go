package transaction

import (
	"errors"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidTransactionID トランザクションIDが無効
	ErrInvalidTransactionID = errors.New("invalid transaction id")
	// ErrInvalidUserID ユーザーIDが無効
	ErrInvalidUserID = errors.New("invalid user id")
	// ErrInvalidAmount 金額が無効
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrAmountTooLarge 金額が大きすぎる
	ErrAmountTooLarge = errors.New("amount too large")
	// ErrInvalidType トランザクションタイプが無効
	ErrInvalidType = errors.New("invalid transaction type")
)

const (
	// MaxAmount 1トランザクションあたりの最大コイン数
	MaxAmount = 1_000_000_000
	// MaxDescriptionLength 説明文の最大長
	MaxDescriptionLength = 255
)

var (
	idRegex     = regexp.MustCompile(`^[a-zA-Z0-9_\-\.\@]{1,255}$`)
	userIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-\.\@]{1,255}$`)
)

// Transaction サーバーが採番する不変のトランザクションエンティティ
type Transaction struct {
	transactionID      string
	userID             string
	transactionType    TransactionType
	coinAmount         int64            // 正の整数。符号はタイプから決まる
	rupeeAmount        *decimal.Decimal // 金銭を伴うタイプのみ
	status             TransactionStatus
	relatedContentType *string
	relatedContentID   *string
	referenceID        *string // 決済の注文IDやタスクIDなど
	description        string
	createdAt          time.Time
}

// NewTransaction 新しいTransactionエンティティを作成
func NewTransaction(
	transactionID string,
	userID string,
	transactionType TransactionType,
	coinAmount int64,
	rupeeAmount *decimal.Decimal,
	status TransactionStatus,
	description string,
) (*Transaction, error) {
	return NewTransactionAt(transactionID, userID, transactionType, coinAmount, rupeeAmount, status, description, time.Now())
}

// NewTransactionAt 作成日時を指定してTransactionエンティティを作成（永続化層・APIからの復元用）
func NewTransactionAt(
	transactionID string,
	userID string,
	transactionType TransactionType,
	coinAmount int64,
	rupeeAmount *decimal.Decimal,
	status TransactionStatus,
	description string,
	createdAt time.Time,
) (*Transaction, error) {
	if !idRegex.MatchString(transactionID) {
		return nil, ErrInvalidTransactionID
	}
	if !userIDRegex.MatchString(userID) {
		return nil, ErrInvalidUserID
	}
	if !transactionType.Valid() {
		return nil, ErrInvalidType
	}
	if !status.Valid() {
		return nil, ErrInvalidTransaction
	}
	if coinAmount <= 0 {
		return nil, ErrInvalidAmount
	}
	if coinAmount > MaxAmount {
		return nil, ErrAmountTooLarge
	}
	if rupeeAmount != nil {
		if !transactionType.IsMoneyDenominated() {
			return nil, ErrUnexpectedRupeeAmount
		}
		if rupeeAmount.Sign() < 0 {
			return nil, ErrInvalidAmount
		}
	}
	if len(description) > MaxDescriptionLength {
		description = description[:MaxDescriptionLength]
	}

	return &Transaction{
		transactionID:   transactionID,
		userID:          userID,
		transactionType: transactionType,
		coinAmount:      coinAmount,
		rupeeAmount:     rupeeAmount,
		status:          status,
		description:     description,
		createdAt:       createdAt,
	}, nil
}

// TransactionID トランザクションIDを返す
func (t *Transaction) TransactionID() string {
	return t.transactionID
}

// UserID ユーザーIDを返す
func (t *Transaction) UserID() string {
	return t.userID
}

// TransactionType トランザクションタイプを返す
func (t *Transaction) TransactionType() TransactionType {
	return t.transactionType
}

// CoinAmount コイン数を返す（常に正）
func (t *Transaction) CoinAmount() int64 {
	return t.coinAmount
}

// SignedAmount タイプから決まる符号付きのコイン数を返す
func (t *Transaction) SignedAmount() int64 {
	if t.transactionType.IsDebit() {
		return -t.coinAmount
	}
	return t.coinAmount
}

// RupeeAmount ルピー金額を返す（金銭を伴わないタイプはnil）
func (t *Transaction) RupeeAmount() *decimal.Decimal {
	return t.rupeeAmount
}

// Status ステータスを返す
func (t *Transaction) Status() TransactionStatus {
	return t.status
}

// RelatedContentType 関連コンテンツの種別を返す
func (t *Transaction) RelatedContentType() *string {
	return t.relatedContentType
}

// RelatedContentID 関連コンテンツのIDを返す
func (t *Transaction) RelatedContentID() *string {
	return t.relatedContentID
}

// ReferenceID 参照ID（注文IDなど）を返す
func (t *Transaction) ReferenceID() *string {
	return t.referenceID
}

// Description 説明文を返す
func (t *Transaction) Description() string {
	return t.description
}

// CreatedAt 作成日時を返す
func (t *Transaction) CreatedAt() time.Time {
	return t.createdAt
}

// SetRelatedContent 関連コンテンツを設定
func (t *Transaction) SetRelatedContent(contentType, contentID string) {
	t.relatedContentType = &contentType
	t.relatedContentID = &contentID
}

// SetReferenceID 参照IDを設定
func (t *Transaction) SetReferenceID(referenceID string) {
	t.referenceID = &referenceID
}

// UpdateStatus ステータスを更新（終端状態からは completed → refunded のみ）
func (t *Transaction) UpdateStatus(status TransactionStatus) error {
	if !status.Valid() {
		return ErrInvalidTransaction
	}
	if !t.status.CanTransitionTo(status) {
		return ErrInvalidStatusTransition
	}
	t.status = status
	return nil
}

// MustNewTransaction テスト用ヘルパー: NewTransactionを呼び出し、エラーが発生した場合はpanicする
func MustNewTransaction(
	transactionID string,
	userID string,
	transactionType TransactionType,
	coinAmount int64,
	rupeeAmount *decimal.Decimal,
	status TransactionStatus,
	description string,
) *Transaction {
	tx, err := NewTransaction(transactionID, userID, transactionType, coinAmount, rupeeAmount, status, description)
	if err != nil {
		panic(err)
	}
	return tx
}

// MustNewTransactionAt テスト用ヘルパー: NewTransactionAtを呼び出し、エラーが発生した場合はpanicする
func MustNewTransactionAt(
	transactionID string,
	userID string,
	transactionType TransactionType,
	coinAmount int64,
	rupeeAmount *decimal.Decimal,
	status TransactionStatus,
	description string,
	createdAt time.Time,
) *Transaction {
	tx, err := NewTransactionAt(transactionID, userID, transactionType, coinAmount, rupeeAmount, status, description, createdAt)
	if err != nil {
		panic(err)
	}
	return tx
}
