package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	otelinfra "coin-wallet/internal/infrastructure/observability/otel"
)

// Expirer 期限切れの pending 注文を失効させる
type Expirer interface {
	ExpireStale(ctx context.Context) (int, error)
}

// Scheduler 定期ジョブの実行
type Scheduler struct {
	cron    *cron.Cron
	expirer Expirer
	logger  *otelinfra.Logger
	timeout time.Duration
}

// New 新しいSchedulerを作成し、失効ジョブを spec（5フィールドのcron形式）で登録する
func New(spec string, expirer Expirer, logger *otelinfra.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cron.DefaultLogger),
			cron.SkipIfStillRunning(cron.DefaultLogger),
		)),
		expirer: expirer,
		logger:  logger,
		timeout: time.Minute,
	}
	if _, err := s.cron.AddFunc(spec, s.RunExpiry); err != nil {
		return nil, fmt.Errorf("invalid expiry schedule %q: %w", spec, err)
	}
	return s, nil
}

// RunExpiry 失効ジョブを1回実行
func (s *Scheduler) RunExpiry() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	expired, err := s.expirer.ExpireStale(ctx)
	if err != nil {
		s.logger.Error(ctx, "Expiry job failed", err, map[string]interface{}{
			"expired": expired,
		})
		return
	}
	s.logger.Debug(ctx, "Expiry job finished", map[string]interface{}{
		"expired": expired,
	})
}

// Start スケジューラーを開始
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop スケジューラーを停止し、実行中のジョブの完了を待つ
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
