package wallet

import (
	"regexp"
)

const (
	// MaxBalance 最大残高
	MaxBalance = 1_000_000_000_000
)

var userIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-\.\@]{1,255}$`)

// Wallet ユーザーごとのコイン残高（サーバーが唯一の正とする値）
type Wallet struct {
	userID  string
	balance int64
	version int // 楽観的ロック用
}

// NewWallet 新しいWalletエンティティを作成
func NewWallet(userID string, balance int64, version int) (*Wallet, error) {
	if !userIDRegex.MatchString(userID) {
		return nil, ErrInvalidUserID
	}
	if balance < 0 || balance > MaxBalance {
		return nil, ErrBalanceOutOfRange
	}
	return &Wallet{
		userID:  userID,
		balance: balance,
		version: version,
	}, nil
}

// UserID ユーザーIDを返す
func (w *Wallet) UserID() string {
	return w.userID
}

// Balance 残高を返す
func (w *Wallet) Balance() int64 {
	return w.balance
}

// Version バージョンを返す（楽観的ロック用）
func (w *Wallet) Version() int {
	return w.version
}

// Credit コインを加算する
func (w *Wallet) Credit(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	// オーバーフローチェック
	if w.balance > MaxBalance-amount {
		return ErrBalanceOutOfRange
	}
	w.balance += amount
	w.version++
	return nil
}

// Debit コインを減算する（マイナス残高は許可しない）
func (w *Wallet) Debit(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if w.balance < amount {
		return ErrInsufficientBalance
	}
	w.balance -= amount
	w.version++
	return nil
}

// MustNewWallet テスト用ヘルパー: NewWalletを呼び出し、エラーが発生した場合はpanicする
func MustNewWallet(userID string, balance int64, version int) *Wallet {
	w, err := NewWallet(userID, balance, version)
	if err != nil {
		panic(err)
	}
	return w
}
