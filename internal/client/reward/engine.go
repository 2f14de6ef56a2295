package reward

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"coin-wallet/internal/client/balance"
	"coin-wallet/internal/client/fetch"
	otelinfra "coin-wallet/internal/infrastructure/observability/otel"
)

var (
	// ErrAlreadyClaimed 受け取り済みのタスク
	ErrAlreadyClaimed = errors.New("reward already claimed")
	// ErrTaskLocked 進捗が目標に達していないタスク
	ErrTaskLocked = errors.New("task is not yet complete")
	// ErrTaskNotFound 存在しないタスク
	ErrTaskNotFound = errors.New("task not found")
)

// Progress タスクの進捗
type Progress struct {
	Current int64
	Target  int64
}

// Task 報酬タスク
type Task struct {
	ID          string
	Title       string
	Description string
	Reward      int64
	Completed   bool
	Progress    *Progress // 進捗のないタスクは nil
}

// CanClaim 報酬を受け取れるかを検証する
func (t Task) CanClaim() error {
	if t.Completed {
		return ErrAlreadyClaimed
	}
	if t.Progress != nil && t.Progress.Current < t.Progress.Target {
		return ErrTaskLocked
	}
	return nil
}

func (t Task) clone() Task {
	if t.Progress != nil {
		p := *t.Progress
		t.Progress = &p
	}
	return t
}

// Source タスクの取得と報酬の受け取り
type Source interface {
	ListTasks(ctx context.Context) ([]Task, error)
	ClaimTask(ctx context.Context, taskID string) error
}

// Credits 共有残高ストア
type Credits interface {
	Credit(amount int64, reason string) balance.CreditID
	Revert(id balance.CreditID) bool
}

// Engine 報酬タスクの一覧と受け取りを管理する
type Engine struct {
	source  Source
	credits Credits
	policy  fetch.Policy
	logger  *otelinfra.Logger

	mu    sync.Mutex
	tasks []Task
}

// NewEngine 新しいEngineを作成
func NewEngine(source Source, credits Credits, policy fetch.Policy, logger *otelinfra.Logger) *Engine {
	return &Engine{
		source:  source,
		credits: credits,
		policy:  policy,
		logger:  logger,
	}
}

// Load サーバーからタスク一覧を取得する
func (e *Engine) Load(ctx context.Context) ([]Task, error) {
	tasks, err := fetch.Do(ctx, e.policy, e.source.ListTasks)
	if err != nil {
		e.logger.Warn(ctx, "Failed to load reward tasks", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}

	e.mu.Lock()
	e.tasks = make([]Task, len(tasks))
	for i, t := range tasks {
		e.tasks[i] = t.clone()
	}
	e.mu.Unlock()
	return e.Tasks(), nil
}

// Tasks 現在のタスク一覧のコピーを返す
func (e *Engine) Tasks() []Task {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Task, len(e.tasks))
	for i, t := range e.tasks {
		out[i] = t.clone()
	}
	return out
}

// CanClaim 指定したタスクの報酬を受け取れるかを返す
func (e *Engine) CanClaim(taskID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	i := e.indexLocked(taskID)
	return i >= 0 && e.tasks[i].CanClaim() == nil
}

// Claim 報酬を受け取る。先に完了扱いと残高加算を行い、サーバーに拒否された場合は両方を元に戻す
func (e *Engine) Claim(ctx context.Context, taskID string) (Task, error) {
	e.mu.Lock()
	i := e.indexLocked(taskID)
	if i < 0 {
		e.mu.Unlock()
		return Task{}, ErrTaskNotFound
	}
	before := e.tasks[i].clone()
	if err := before.CanClaim(); err != nil {
		e.mu.Unlock()
		return before, err
	}
	claimed := before.clone()
	claimed.Completed = true
	e.tasks[i] = claimed
	e.mu.Unlock()

	creditID := e.credits.Credit(claimed.Reward, "task "+taskID)

	if err := e.source.ClaimTask(ctx, taskID); err != nil {
		e.credits.Revert(creditID)
		e.mu.Lock()
		if j := e.indexLocked(taskID); j >= 0 {
			e.tasks[j] = before
		}
		e.mu.Unlock()

		e.logger.Warn(ctx, "Reward claim rejected", map[string]interface{}{
			"task_id": taskID,
			"error":   err.Error(),
		})
		return before, fmt.Errorf("failed to claim task %s: %w", taskID, err)
	}

	e.logger.Info(ctx, "Reward claimed", map[string]interface{}{
		"task_id": taskID,
		"reward":  claimed.Reward,
	})
	return claimed.clone(), nil
}

func (e *Engine) indexLocked(taskID string) int {
	for i, t := range e.tasks {
		if t.ID == taskID {
			return i
		}
	}
	return -1
}
