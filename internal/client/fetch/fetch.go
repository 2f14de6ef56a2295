package fetch

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Policy 読み取り系リクエストのタイムアウトと再試行の方針
// 決済呼び出しには使わない（決済の再試行は常にユーザー操作による）
type Policy struct {
	Timeout         time.Duration // 1回の試行のタイムアウト
	MaxTries        uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultPolicy デフォルトの方針を返す
func DefaultPolicy() Policy {
	return Policy{
		Timeout:         5 * time.Second,
		MaxTries:        3,
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     2 * time.Second,
	}
}

// temporary 一時的な失敗かどうかを示すエラー
type temporary interface {
	Temporary() bool
}

// IsTemporary 再試行で回復しうるエラーかどうかを返す
func IsTemporary(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	// net.OpError の Temporary はほぼ常に false を返すため、トランスポートの失敗は先に判定する
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var t temporary
	if errors.As(err, &t) {
		return t.Temporary()
	}
	return false
}

// Do 試行ごとにタイムアウトを設定し、一時的な失敗のみ指数バックオフで再試行する
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}
	tries := p.MaxTries
	if tries == 0 {
		tries = 1
	}

	return backoff.Retry(ctx, func() (T, error) {
		attemptCtx := ctx
		if p.Timeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, p.Timeout)
			defer cancel()
		}

		v, err := op(attemptCtx)
		if err == nil {
			return v, nil
		}
		// 呼び出し元のキャンセルは再試行しない
		if ctx.Err() != nil {
			return v, backoff.Permanent(ctx.Err())
		}
		if !IsTemporary(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(tries))
}
