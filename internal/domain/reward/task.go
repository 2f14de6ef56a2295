package reward

import (
	"regexp"
	"time"
)

var taskIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-\.]{1,64}$`)

// Progress タスクの進捗
type Progress struct {
	Current int
	Target  int
}

// Reached 目標に到達したかどうかを返す
func (p Progress) Reached() bool {
	return p.Current >= p.Target
}

// Task ユーザーごとの報酬タスク
type Task struct {
	taskID      string
	userID      string
	title       string
	description string
	reward      int64
	progress    *Progress // 進捗条件のないタスクはnil
	completed   bool
	claimedAt   *time.Time
}

// NewTask 新しいTaskエンティティを作成
func NewTask(taskID, userID, title, description string, reward int64, progress *Progress, completed bool) (*Task, error) {
	if !taskIDRegex.MatchString(taskID) {
		return nil, ErrInvalidTaskID
	}
	if reward <= 0 {
		return nil, ErrInvalidReward
	}
	if progress != nil && (progress.Target <= 0 || progress.Current < 0) {
		return nil, ErrInvalidProgress
	}
	return &Task{
		taskID:      taskID,
		userID:      userID,
		title:       title,
		description: description,
		reward:      reward,
		progress:    progress,
		completed:   completed,
	}, nil
}

// TaskID タスクIDを返す
func (t *Task) TaskID() string {
	return t.taskID
}

// UserID ユーザーIDを返す
func (t *Task) UserID() string {
	return t.userID
}

// Title タイトルを返す
func (t *Task) Title() string {
	return t.title
}

// Description 説明を返す
func (t *Task) Description() string {
	return t.description
}

// Reward 報酬コイン数を返す
func (t *Task) Reward() int64 {
	return t.reward
}

// Progress 進捗を返す
func (t *Task) Progress() *Progress {
	return t.progress
}

// Completed 受け取り済みかどうかを返す
func (t *Task) Completed() bool {
	return t.completed
}

// ClaimedAt 受け取り日時を返す
func (t *Task) ClaimedAt() *time.Time {
	return t.claimedAt
}

// SetClaimedAt 受け取り日時を設定（リポジトリから読み込んだ際に使用）
func (t *Task) SetClaimedAt(at time.Time) {
	t.claimedAt = &at
}

// CanClaim 受け取り可能かを検証する
func (t *Task) CanClaim() error {
	if t.completed {
		return ErrAlreadyClaimed
	}
	if t.progress != nil && !t.progress.Reached() {
		return ErrTaskLocked
	}
	return nil
}

// Claim 報酬を受け取る（一度きり）
func (t *Task) Claim(now time.Time) error {
	if err := t.CanClaim(); err != nil {
		return err
	}
	t.completed = true
	t.claimedAt = &now
	return nil
}

// MustNewTask テスト用ヘルパー: NewTaskを呼び出し、エラーが発生した場合はpanicする
func MustNewTask(taskID, userID, title, description string, reward int64, progress *Progress, completed bool) *Task {
	t, err := NewTask(taskID, userID, title, description, reward, progress, completed)
	if err != nil {
		panic(err)
	}
	return t
}
