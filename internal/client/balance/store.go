package balance

import (
	"context"
	"fmt"
	"sync"

	"coin-wallet/internal/domain/coin"
)

// Source 権威ある残高の取得元（サーバー）
type Source interface {
	GetBalance(ctx context.Context) (int64, error)
}

// Snapshot 表示用の残高スナップショット
type Snapshot struct {
	Authoritative int64 // 最後にサーバーから取得した残高
	Pending       int64 // 未確定の楽観的加算の合計
	Loaded        bool  // 一度でもサーバーから取得できたか
}

// Display 表示する残高（権威値 + 楽観的加算）
func (s Snapshot) Display() int64 {
	return s.Authoritative + s.Pending
}

// CreditID 楽観的加算の識別子
type CreditID uint64

type credit struct {
	id     CreditID
	amount int64
	reason string
}

// Store 全ての表示ウィジェットが共有する残高ストア
// 書き込みはサーバーからの取得と、購入・報酬成功時の楽観的加算のみ。楽観的加算は永続化しない
type Store struct {
	source Source

	mu            sync.Mutex
	authoritative int64
	loaded        bool
	credits       []credit
	seq           CreditID
	subscribers   map[int]func(Snapshot)
	nextSubID     int
}

// NewStore 新しいStoreを作成
func NewStore(source Source) *Store {
	return &Store{
		source:      source,
		subscribers: make(map[int]func(Snapshot)),
	}
}

// Snapshot 現在の残高を返す
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Display 表示用の残高を返す
func (s *Store) Display() int64 {
	return s.Snapshot().Display()
}

// Credit 楽観的加算を即座に適用する。同時に行われた加算は互いに上書きせず加算される
func (s *Store) Credit(amount int64, reason string) CreditID {
	s.mu.Lock()
	s.seq++
	id := s.seq
	s.credits = append(s.credits, credit{id: id, amount: amount, reason: reason})
	snap := s.snapshotLocked()
	subs := s.subscribersLocked()
	s.mu.Unlock()

	notify(subs, snap)
	return id
}

// Revert サーバーに拒否された楽観的加算を取り消す
func (s *Store) Revert(id CreditID) bool {
	s.mu.Lock()
	removed := false
	for i, c := range s.credits {
		if c.id == id {
			s.credits = append(s.credits[:i:i], s.credits[i+1:]...)
			removed = true
			break
		}
	}
	if !removed {
		s.mu.Unlock()
		return false
	}
	snap := s.snapshotLocked()
	subs := s.subscribersLocked()
	s.mu.Unlock()

	notify(subs, snap)
	return true
}

// Refresh サーバーから残高を取得して権威値を置き換える
// 取得開始より前に適用された楽観的加算のみを破棄し、取得中に行われた加算は保持する
func (s *Store) Refresh(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	fence := s.seq
	s.mu.Unlock()

	value, err := s.source.GetBalance(ctx)
	if err != nil {
		return s.Snapshot(), fmt.Errorf("failed to fetch balance: %w", err)
	}

	s.mu.Lock()
	s.authoritative = value
	s.loaded = true
	kept := s.credits[:0]
	for _, c := range s.credits {
		if c.id > fence {
			kept = append(kept, c)
		}
	}
	s.credits = kept
	snap := s.snapshotLocked()
	subs := s.subscribersLocked()
	s.mu.Unlock()

	notify(subs, snap)
	return snap, nil
}

// Subscribe 残高の変化を購読する。戻り値の関数で購読を解除する
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

func (s *Store) snapshotLocked() Snapshot {
	var pending int64
	for _, c := range s.credits {
		pending += c.amount
	}
	return Snapshot{
		Authoritative: s.authoritative,
		Pending:       pending,
		Loaded:        s.loaded,
	}
}

func (s *Store) subscribersLocked() []func(Snapshot) {
	subs := make([]func(Snapshot), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	return subs
}

func notify(subs []func(Snapshot), snap Snapshot) {
	for _, fn := range subs {
		fn(snap)
	}
}

// FormatBalance 残高を表示用に整形する
func FormatBalance(snap Snapshot) string {
	if !snap.Loaded && snap.Pending == 0 {
		return "-- coins"
	}
	return coin.FormatCoins(snap.Display()) + " coins"
}
