package reward

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTask(t *testing.T) {
	tests := []struct {
		name      string
		taskID    string
		reward    int64
		progress  *Progress
		wantError error
	}{
		{name: "正常系: 進捗なし", taskID: "daily-login", reward: 10},
		{name: "正常系: 進捗あり", taskID: "watch-5", reward: 50, progress: &Progress{Current: 2, Target: 5}},
		{name: "異常系: 不正なID", taskID: "", reward: 10, wantError: ErrInvalidTaskID},
		{name: "異常系: 報酬0", taskID: "daily-login", reward: 0, wantError: ErrInvalidReward},
		{name: "異常系: 目標0", taskID: "watch-5", reward: 10, progress: &Progress{Current: 0, Target: 0}, wantError: ErrInvalidProgress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewTask(tt.taskID, "user1", "title", "desc", tt.reward, tt.progress, false)
			if tt.wantError != nil {
				assert.ErrorIs(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.reward, got.Reward())
			assert.False(t, got.Completed())
		})
	}
}

func TestTask_Claim(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name      string
		task      *Task
		wantError error
	}{
		{
			name: "正常系: 進捗なしのタスク",
			task: MustNewTask("daily-login", "user1", "Daily login", "", 10, nil, false),
		},
		{
			name: "正常系: 目標到達済み",
			task: MustNewTask("watch-5", "user1", "Watch 5", "", 50, &Progress{Current: 5, Target: 5}, false),
		},
		{
			name:      "異常系: 受け取り済み",
			task:      MustNewTask("daily-login", "user1", "Daily login", "", 10, nil, true),
			wantError: ErrAlreadyClaimed,
		},
		{
			name:      "異常系: 進捗未達",
			task:      MustNewTask("watch-5", "user1", "Watch 5", "", 50, &Progress{Current: 4, Target: 5}, false),
			wantError: ErrTaskLocked,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.task.Claim(now)
			if tt.wantError != nil {
				assert.ErrorIs(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.task.Completed())
			require.NotNil(t, tt.task.ClaimedAt())
			assert.Equal(t, now, *tt.task.ClaimedAt())

			// 二回目は拒否される
			assert.ErrorIs(t, tt.task.Claim(now), ErrAlreadyClaimed)
		})
	}
}
