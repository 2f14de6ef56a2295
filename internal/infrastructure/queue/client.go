package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"coin-wallet/internal/infrastructure/config"
	otelinfra "coin-wallet/internal/infrastructure/observability/otel"
)

// enqueuer asynq.Client のうち利用する操作
type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// Client 決済確定タスクを登録するキュークライアント
type Client struct {
	client enqueuer
	logger *otelinfra.Logger
	tracer trace.Tracer
}

// RedisOpt Redis設定から asynq の接続オプションを作成
func RedisOpt(cfg *config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// NewClient 新しいClientを作成
func NewClient(cfg *config.RedisConfig, logger *otelinfra.Logger) *Client {
	return newClient(asynq.NewClient(RedisOpt(cfg)), logger)
}

func newClient(c enqueuer, logger *otelinfra.Logger) *Client {
	return &Client{
		client: c,
		logger: logger,
		tracer: otel.Tracer("queue-client"),
	}
}

// EnqueueSettlement 決済確定タスクを登録する。同じ注文のタスクが既にあれば何もしない
func (c *Client) EnqueueSettlement(ctx context.Context, orderID string) error {
	ctx, span := c.tracer.Start(ctx, "QueueClient.EnqueueSettlement")
	defer span.End()

	span.SetAttributes(
		attribute.String("queue.task_type", TypePaymentSettle),
		attribute.String("queue.order_id", orderID),
	)

	task, err := NewSettleTask(orderID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return err
	}

	info, err := c.client.EnqueueContext(ctx, task)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
			span.SetStatus(otelcodes.Ok, "settlement already queued")
			return nil
		}
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to enqueue settle task: %w", err)
	}

	c.logger.Debug(ctx, "Settle task enqueued", map[string]interface{}{
		"order_id": orderID,
		"task_id":  info.ID,
		"queue":    info.Queue,
	})
	span.SetStatus(otelcodes.Ok, "settlement queued")
	return nil
}

// Close 接続を閉じる
func (c *Client) Close() error {
	return c.client.Close()
}
