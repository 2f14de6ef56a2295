package reward

import (
	"context"
)

// TaskRepository 報酬タスクリポジトリインターフェース
type TaskRepository interface {
	// FindByUserID ユーザーのタスク一覧を取得
	FindByUserID(ctx context.Context, userID string) ([]*Task, error)

	// FindByUserIDAndTaskID ユーザーの特定タスクを取得
	FindByUserIDAndTaskID(ctx context.Context, userID, taskID string) (*Task, error)

	// MarkClaimed 未受け取りのタスクを受け取り済みにする（受け取り済みなら ErrAlreadyClaimed）
	MarkClaimed(ctx context.Context, task *Task) error
}
