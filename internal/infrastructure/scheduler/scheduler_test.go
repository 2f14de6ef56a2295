package scheduler

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	otelinfra "coin-wallet/internal/infrastructure/observability/otel"
)

type countingExpirer struct {
	calls   atomic.Int32
	expired int
	err     error
}

func (e *countingExpirer) ExpireStale(ctx context.Context) (int, error) {
	e.calls.Add(1)
	return e.expired, e.err
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		wantErr bool
	}{
		{name: "正常系: 5分ごと", spec: "*/5 * * * *"},
		{name: "正常系: 記述子", spec: "@every 1m"},
		{name: "異常系: 秒フィールド付きは不可", spec: "0 */5 * * * *", wantErr: true},
		{name: "異常系: 空文字", spec: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.spec, &countingExpirer{}, nil)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, s)
				return
			}
			require.NoError(t, err)
			assert.Len(t, s.cron.Entries(), 1)
		})
	}
}

func TestScheduler_RunExpiry(t *testing.T) {
	t.Run("正常系: 失効処理を呼び出す", func(t *testing.T) {
		expirer := &countingExpirer{expired: 3}
		s, err := New("*/5 * * * *", expirer, nil)
		require.NoError(t, err)

		s.RunExpiry()
		assert.Equal(t, int32(1), expirer.calls.Load())
	})

	t.Run("異常系: 失敗をログに残す", func(t *testing.T) {
		var buf bytes.Buffer
		logger := otelinfra.NewLoggerWithWriter(noop.NewTracerProvider().Tracer("test"), &buf)
		expirer := &countingExpirer{err: errors.New("db down")}
		s, err := New("*/5 * * * *", expirer, logger)
		require.NoError(t, err)

		s.RunExpiry()
		assert.Contains(t, buf.String(), "Expiry job failed")
		assert.Contains(t, buf.String(), "db down")
	})
}

func TestScheduler_StartStop(t *testing.T) {
	expirer := &countingExpirer{}
	s, err := New("@every 1s", expirer, nil)
	require.NoError(t, err)

	s.Start()
	assert.Eventually(t, func() bool {
		return expirer.calls.Load() > 0
	}, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
}
