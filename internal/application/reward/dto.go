package reward

// TaskDTO 報酬タスク
type TaskDTO struct {
	TaskID      string
	Title       string
	Description string
	Reward      int64
	Completed   bool
	Progress    *ProgressDTO
}

// ProgressDTO タスクの進捗
type ProgressDTO struct {
	Current int
	Target  int
}

// ListTasksResponse タスク一覧レスポンス
type ListTasksResponse struct {
	Tasks []TaskDTO
}

// ClaimTaskRequest 報酬受け取りリクエスト
type ClaimTaskRequest struct {
	UserID string
	TaskID string
}

// ClaimTaskResponse 報酬受け取りレスポンス
type ClaimTaskResponse struct {
	TaskID        string
	Reward        int64
	TransactionID string
	BalanceAfter  int64
}
