package ledger

import (
	"context"
	"errors"
	"sort"
	"sync"

	"coin-wallet/internal/client/fetch"
	"coin-wallet/internal/client/walleterr"
	"coin-wallet/internal/domain/transaction"
	otelinfra "coin-wallet/internal/infrastructure/observability/otel"
)

const (
	// DefaultPageSize 1ページあたりの件数
	DefaultPageSize = 20
	// ExportLimit エクスポート時に取得する最大件数
	ExportLimit = 1000
)

// ErrStaleResponse 新しい要求に追い越された応答
var ErrStaleResponse = errors.New("stale ledger response discarded")

// Page 取引履歴の1ページ
type Page struct {
	Transactions []*transaction.Transaction
	Cursor       transaction.PaginationCursor
}

// Source 取引履歴の取得元
type Source interface {
	ListTransactions(ctx context.Context, filter transaction.Filter, page, limit int) (*Page, error)
}

// Status 履歴画面の状態
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusError   Status = "error"
)

// View 履歴画面に公開する状態
type View struct {
	Status       Status
	Filter       transaction.Filter
	PageNumber   int
	Page         *Page
	Err          error
	ErrorMessage string
}

// Ledger 取引履歴の表示状態を管理する
type Ledger struct {
	source Source
	limit  int
	policy fetch.Policy
	logger *otelinfra.Logger

	mu          sync.Mutex
	attempt     uint64
	filter      transaction.Filter
	pageNumber  int
	current     *Page
	status      Status
	err         error
	subscribers map[int]func(View)
	nextSubID   int
}

// NewLedger 新しいLedgerを作成
func NewLedger(source Source, limit int, policy fetch.Policy, logger *otelinfra.Logger) *Ledger {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	return &Ledger{
		source:      source,
		limit:       limit,
		policy:      policy,
		logger:      logger,
		pageNumber:  1,
		status:      StatusIdle,
		subscribers: make(map[int]func(View)),
	}
}

// Load 現在の条件で履歴を取得する
func (l *Ledger) Load(ctx context.Context) (*Page, error) {
	return l.load(ctx, false)
}

// SetFilter フィルタを変更して1ページ目から取得し直す
func (l *Ledger) SetFilter(ctx context.Context, filter transaction.Filter) (*Page, error) {
	if err := filter.Validate(); err != nil {
		return nil, walleterr.New(walleterr.KindValidation, "Please check the filter", err)
	}
	l.mu.Lock()
	l.filter = filter
	l.pageNumber = 1
	l.mu.Unlock()
	return l.load(ctx, false)
}

// SetPage フィルタを保ったままページを移動する
func (l *Ledger) SetPage(ctx context.Context, page int) (*Page, error) {
	if page < 1 {
		return nil, walleterr.Validation("Page must be 1 or greater")
	}
	l.mu.Lock()
	l.pageNumber = page
	l.mu.Unlock()
	return l.load(ctx, false)
}

// Refresh 表示中のページを裏で更新する。失敗しても表示中のページは保持する
func (l *Ledger) Refresh(ctx context.Context) (*Page, error) {
	return l.load(ctx, true)
}

func (l *Ledger) load(ctx context.Context, background bool) (*Page, error) {
	l.mu.Lock()
	l.attempt++
	attempt := l.attempt
	filter := l.filter
	pageNumber := l.pageNumber
	background = background && l.current != nil
	if !background {
		l.status = StatusLoading
	}
	l.mu.Unlock()
	l.publish()

	page, err := fetch.Do(ctx, l.policy, func(ctx context.Context) (*Page, error) {
		return l.source.ListTransactions(ctx, filter, pageNumber, l.limit)
	})

	l.mu.Lock()
	if attempt != l.attempt {
		l.mu.Unlock()
		return nil, ErrStaleResponse
	}
	if err != nil {
		wrapped := toLedgerError(err)
		l.err = wrapped
		if !background {
			l.status = StatusError
			l.current = nil
		}
		l.mu.Unlock()
		l.publish()

		l.logger.Warn(ctx, "Failed to load transactions", map[string]interface{}{
			"page":       pageNumber,
			"background": background,
			"error":      err.Error(),
		})
		return nil, wrapped
	}

	if page == nil {
		page = &Page{Cursor: transaction.NewPaginationCursor(pageNumber, l.limit, 0)}
	}
	sortNewestFirst(page.Transactions)
	l.current = page
	l.status = StatusReady
	l.err = nil
	l.mu.Unlock()
	l.publish()
	return page, nil
}

func toLedgerError(err error) error {
	if walleterr.KindOf(err) == walleterr.KindLedgerFetch {
		return err
	}
	if walleterr.IsNetwork(err) || fetch.IsTemporary(err) {
		return walleterr.Network(walleterr.KindLedgerFetch, err)
	}
	return walleterr.New(walleterr.KindLedgerFetch, "", err)
}

func sortNewestFirst(txs []*transaction.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].CreatedAt().After(txs[j].CreatedAt())
	})
}

// View 現在の表示状態を返す
func (l *Ledger) View() View {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.viewLocked()
}

func (l *Ledger) viewLocked() View {
	v := View{
		Status:     l.status,
		Filter:     l.filter,
		PageNumber: l.pageNumber,
		Page:       l.current,
		Err:        l.err,
	}
	if l.err != nil {
		v.ErrorMessage = walleterr.Message(l.err)
	}
	return v
}

// Subscribe 表示状態の変化を購読する。戻り値の関数で購読を解除する
func (l *Ledger) Subscribe(fn func(View)) func() {
	l.mu.Lock()
	id := l.nextSubID
	l.nextSubID++
	l.subscribers[id] = fn
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		delete(l.subscribers, id)
		l.mu.Unlock()
	}
}

func (l *Ledger) publish() {
	l.mu.Lock()
	view := l.viewLocked()
	subs := make([]func(View), 0, len(l.subscribers))
	for _, fn := range l.subscribers {
		subs = append(subs, fn)
	}
	l.mu.Unlock()

	for _, fn := range subs {
		fn(view)
	}
}
