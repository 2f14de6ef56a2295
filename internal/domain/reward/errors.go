package reward

import "errors"

var (
	// ErrTaskNotFound タスクが見つからないエラー
	ErrTaskNotFound = errors.New("reward task not found")
	// ErrAlreadyClaimed 既に受け取り済みのタスク
	ErrAlreadyClaimed = errors.New("reward already claimed")
	// ErrTaskLocked 進捗が目標に達していないタスク
	ErrTaskLocked = errors.New("reward task progress incomplete")
	// ErrInvalidTaskID タスクIDが無効
	ErrInvalidTaskID = errors.New("invalid task id")
	// ErrInvalidReward 報酬が無効
	ErrInvalidReward = errors.New("invalid reward")
	// ErrInvalidProgress 進捗が無効
	ErrInvalidProgress = errors.New("invalid progress")
)
