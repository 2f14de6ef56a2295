package reward

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"coin-wallet/internal/domain/reward"
	"coin-wallet/internal/domain/service"
	"coin-wallet/internal/domain/transaction"
	otelinfra "coin-wallet/internal/infrastructure/observability/otel"
)

// CoinCreditor コイン付与を行うドメインサービス
type CoinCreditor interface {
	Credit(ctx context.Context, req service.CreditRequest) (*service.CreditResult, error)
}

// RewardApplicationService 報酬タスクアプリケーションサービス
type RewardApplicationService struct {
	taskRepo reward.TaskRepository
	credits  CoinCreditor
	logger   *otelinfra.Logger
	metrics  *otelinfra.Metrics
	tracer   trace.Tracer
	now      func() time.Time
}

// NewRewardApplicationService 新しいRewardApplicationServiceを作成
func NewRewardApplicationService(
	taskRepo reward.TaskRepository,
	credits CoinCreditor,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) *RewardApplicationService {
	return &RewardApplicationService{
		taskRepo: taskRepo,
		credits:  credits,
		logger:   logger,
		metrics:  metrics,
		tracer:   otel.Tracer("reward-service"),
		now:      time.Now,
	}
}

// ListTasks ユーザーのタスク一覧を取得
func (s *RewardApplicationService) ListTasks(ctx context.Context, userID string) (*ListTasksResponse, error) {
	ctx, span := s.tracer.Start(ctx, "RewardApplicationService.ListTasks")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", userID))

	tasks, err := s.taskRepo.FindByUserID(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to list reward tasks", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, fmt.Errorf("failed to list reward tasks: %w", err)
	}

	resp := &ListTasksResponse{Tasks: make([]TaskDTO, 0, len(tasks))}
	for _, t := range tasks {
		resp.Tasks = append(resp.Tasks, toDTO(t))
	}

	span.SetAttributes(attribute.Int("task_count", len(resp.Tasks)))
	span.SetStatus(otelcodes.Ok, "tasks listed")
	return resp, nil
}

// ClaimTask タスクの報酬を受け取る。付与とタスクの更新は同じDBトランザクションで行い、二重受け取りはできない
func (s *RewardApplicationService) ClaimTask(ctx context.Context, req *ClaimTaskRequest) (*ClaimTaskResponse, error) {
	ctx, span := s.tracer.Start(ctx, "RewardApplicationService.ClaimTask")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", req.UserID),
		attribute.String("task_id", req.TaskID),
	)

	task, err := s.taskRepo.FindByUserIDAndTaskID(ctx, req.UserID, req.TaskID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}
	if err := task.CanClaim(); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	result, err := s.credits.Credit(ctx, service.CreditRequest{
		UserID:      req.UserID,
		Type:        transaction.TransactionTypeEarn,
		Coins:       task.Reward(),
		Description: task.Title(),
		ReferenceID: task.TaskID(),
		InTx: func(ctx context.Context, _ *transaction.Transaction) error {
			if err := task.Claim(s.now()); err != nil {
				return err
			}
			return s.taskRepo.MarkClaimed(ctx, task)
		},
	})
	if err != nil {
		if errors.Is(err, transaction.ErrDuplicateTransactionID) {
			err = reward.ErrAlreadyClaimed
		}
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		if !errors.Is(err, reward.ErrAlreadyClaimed) {
			s.logger.Error(ctx, "Failed to claim reward", err, map[string]interface{}{
				"user_id": req.UserID,
				"task_id": req.TaskID,
			})
		}
		return nil, fmt.Errorf("failed to claim reward: %w", err)
	}

	s.metrics.RecordTransaction(ctx, transaction.TransactionTypeEarn.String(), task.Reward())
	s.metrics.RecordWalletBalance(ctx, req.UserID, result.BalanceAfter)
	s.logger.Info(ctx, "Reward claimed", map[string]interface{}{
		"user_id":        req.UserID,
		"task_id":        req.TaskID,
		"reward":         task.Reward(),
		"transaction_id": result.Transaction.TransactionID(),
	})

	span.SetStatus(otelcodes.Ok, "reward claimed")
	return &ClaimTaskResponse{
		TaskID:        task.TaskID(),
		Reward:        task.Reward(),
		TransactionID: result.Transaction.TransactionID(),
		BalanceAfter:  result.BalanceAfter,
	}, nil
}

func toDTO(t *reward.Task) TaskDTO {
	dto := TaskDTO{
		TaskID:      t.TaskID(),
		Title:       t.Title(),
		Description: t.Description(),
		Reward:      t.Reward(),
		Completed:   t.Completed(),
	}
	if p := t.Progress(); p != nil {
		dto.Progress = &ProgressDTO{Current: p.Current, Target: p.Target}
	}
	return dto
}
