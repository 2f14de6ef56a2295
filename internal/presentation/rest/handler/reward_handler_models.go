package handler

// ProgressBody タスクの進捗
type ProgressBody struct {
	Current int `json:"current" example:"3"`
	Target  int `json:"target" example:"5"`
}

// TaskItem 報酬タスク
// @Description 報酬タスク。progress がないタスクは達成済みなら受け取れる
type TaskItem struct {
	TaskID      string        `json:"task_id" example:"read_5_chapters"`
	Title       string        `json:"title" example:"Read 5 chapters"`
	Description string        `json:"description" example:"Finish five chapters of any series"`
	Reward      int64         `json:"reward" example:"100"`
	Completed   bool          `json:"completed" example:"false"`
	Progress    *ProgressBody `json:"progress,omitempty"`
}

// TasksResponse タスク一覧レスポンス
type TasksResponse struct {
	Tasks []TaskItem `json:"tasks"`
}

// ClaimTaskResponse 報酬受け取りレスポンス
type ClaimTaskResponse struct {
	TaskID        string `json:"task_id" example:"daily_login"`
	Reward        int64  `json:"reward" example:"10"`
	TransactionID string `json:"transaction_id" example:"txn_123"`
	Balance       int64  `json:"balance" example:"2210"`
}
