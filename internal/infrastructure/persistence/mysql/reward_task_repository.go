package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"coin-wallet/internal/domain/reward"
)

const rewardTaskColumns = `
			task_id, user_id, title, description, reward,
			progress_current, progress_target, completed, claimed_at`

// RewardTaskRepository MySQL実装のTaskRepository
type RewardTaskRepository struct {
	db     *DB
	tracer trace.Tracer
}

// NewRewardTaskRepository 新しいRewardTaskRepositoryを作成
func NewRewardTaskRepository(db *DB) *RewardTaskRepository {
	return &RewardTaskRepository{
		db:     db,
		tracer: otel.Tracer("reward-task-repository"),
	}
}

// FindByUserID ユーザーのタスク一覧を表示順で取得
func (r *RewardTaskRepository) FindByUserID(ctx context.Context, userID string) ([]*reward.Task, error) {
	ctx, span := r.tracer.Start(ctx, "RewardTaskRepository.FindByUserID")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.user_id", userID),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "reward_tasks"),
	)

	query := `
		SELECT` + rewardTaskColumns + `
		FROM reward_tasks
		WHERE user_id = ?
		ORDER BY sort_order ASC, task_id ASC
	`

	rows, err := r.db.conn(ctx).QueryContext(ctx, query, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to query reward tasks: %w", err)
	}
	defer rows.Close()

	tasks := []*reward.Task{}
	for rows.Next() {
		t, err := scanRewardTask(rows)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			return nil, fmt.Errorf("failed to scan reward task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to iterate reward tasks: %w", err)
	}

	span.SetAttributes(attribute.Int("db.result_count", len(tasks)))
	span.SetStatus(otelcodes.Ok, fmt.Sprintf("found %d reward tasks", len(tasks)))
	return tasks, nil
}

// FindByUserIDAndTaskID ユーザーの特定タスクを取得
func (r *RewardTaskRepository) FindByUserIDAndTaskID(ctx context.Context, userID, taskID string) (*reward.Task, error) {
	ctx, span := r.tracer.Start(ctx, "RewardTaskRepository.FindByUserIDAndTaskID")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.user_id", userID),
		attribute.String("db.task_id", taskID),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "reward_tasks"),
	)

	query := `
		SELECT` + rewardTaskColumns + `
		FROM reward_tasks
		WHERE user_id = ? AND task_id = ?
	`

	t, err := scanRewardTask(r.db.conn(ctx).QueryRowContext(ctx, query, userID, taskID))
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(otelcodes.Ok, "reward task not found")
		return nil, reward.ErrTaskNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to find reward task: %w", err)
	}

	span.SetStatus(otelcodes.Ok, "reward task found")
	return t, nil
}

// MarkClaimed 未受け取りのタスクを受け取り済みにする
func (r *RewardTaskRepository) MarkClaimed(ctx context.Context, t *reward.Task) error {
	ctx, span := r.tracer.Start(ctx, "RewardTaskRepository.MarkClaimed")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.user_id", t.UserID()),
		attribute.String("db.task_id", t.TaskID()),
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.table", "reward_tasks"),
	)

	claimedAt := time.Now().UTC()
	if t.ClaimedAt() != nil {
		claimedAt = t.ClaimedAt().UTC()
	}

	query := `
		UPDATE reward_tasks
		SET completed = TRUE, claimed_at = ?
		WHERE user_id = ? AND task_id = ? AND completed = FALSE
	`

	result, err := r.db.conn(ctx).ExecContext(ctx, query, claimedAt, t.UserID(), t.TaskID())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to mark reward task claimed: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		span.SetStatus(otelcodes.Error, reward.ErrAlreadyClaimed.Error())
		return reward.ErrAlreadyClaimed
	}

	span.SetStatus(otelcodes.Ok, "reward task claimed")
	return nil
}

func scanRewardTask(row rowScanner) (*reward.Task, error) {
	var taskID, userID, title, description string
	var rewardCoins int64
	var progressCurrent, progressTarget sql.NullInt64
	var completed bool
	var claimedAt sql.NullTime

	if err := row.Scan(
		&taskID,
		&userID,
		&title,
		&description,
		&rewardCoins,
		&progressCurrent,
		&progressTarget,
		&completed,
		&claimedAt,
	); err != nil {
		return nil, err
	}

	var progress *reward.Progress
	if progressTarget.Valid {
		progress = &reward.Progress{Current: int(progressCurrent.Int64), Target: int(progressTarget.Int64)}
	}

	t, err := reward.NewTask(taskID, userID, title, description, rewardCoins, progress, completed)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct reward task entity: %w", err)
	}
	if claimedAt.Valid {
		t.SetClaimedAt(claimedAt.Time)
	}
	return t, nil
}
