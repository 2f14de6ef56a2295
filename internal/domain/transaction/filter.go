package transaction

import (
	"time"
)

// Filter 履歴取得時のフィルタ条件
type Filter struct {
	Type *TransactionType
	From *time.Time
	To   *time.Time
}

// Validate フィルタ条件を検証する
func (f Filter) Validate() error {
	if f.Type != nil && !f.Type.Valid() {
		return ErrInvalidTransaction
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return ErrInvalidDateRange
	}
	return nil
}

// Matches トランザクションがフィルタ条件に一致するかを返す
func (f Filter) Matches(t *Transaction) bool {
	if f.Type != nil && t.TransactionType() != *f.Type {
		return false
	}
	if f.From != nil && t.CreatedAt().Before(*f.From) {
		return false
	}
	if f.To != nil && t.CreatedAt().After(*f.To) {
		return false
	}
	return true
}

// WithType タイプを指定したフィルタを返す
func (f Filter) WithType(tt TransactionType) Filter {
	f.Type = &tt
	return f
}

// Equal 同じ条件かどうかを返す
func (f Filter) Equal(other Filter) bool {
	return equalType(f.Type, other.Type) && equalTime(f.From, other.From) && equalTime(f.To, other.To)
}

func equalType(a, b *TransactionType) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
