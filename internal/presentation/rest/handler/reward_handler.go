package handler

import (
	"net/http"

	rewardapp "coin-wallet/internal/application/reward"

	"github.com/labstack/echo/v4"
)

// RewardHandler 報酬タスクハンドラー
type RewardHandler struct {
	rewardService *rewardapp.RewardApplicationService
}

// NewRewardHandler 新しいRewardHandlerを作成
func NewRewardHandler(rewardService *rewardapp.RewardApplicationService) *RewardHandler {
	return &RewardHandler{
		rewardService: rewardService,
	}
}

// ListTasks タスク一覧ハンドラー
// @Summary 報酬タスク一覧
// @Tags rewards
// @Produce json
// @Security Bearer
// @Success 200 {object} TasksResponse "取得成功"
// @Failure 401 {object} ErrorResponse "認証エラー"
// @Router /me/tasks [get]
func (h *RewardHandler) ListTasks(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	resp, err := h.rewardService.ListTasks(c.Request().Context(), userID)
	if err != nil {
		return err
	}

	items := make([]TaskItem, len(resp.Tasks))
	for i, t := range resp.Tasks {
		items[i] = TaskItem{
			TaskID:      t.TaskID,
			Title:       t.Title,
			Description: t.Description,
			Reward:      t.Reward,
			Completed:   t.Completed,
		}
		if t.Progress != nil {
			items[i].Progress = &ProgressBody{Current: t.Progress.Current, Target: t.Progress.Target}
		}
	}

	return c.JSON(http.StatusOK, TasksResponse{Tasks: items})
}

// ClaimTask 報酬受け取りハンドラー
// @Summary タスクの報酬を受け取る
// @Tags rewards
// @Produce json
// @Security Bearer
// @Param task_id path string true "タスクID"
// @Success 200 {object} ClaimTaskResponse "受け取り成功"
// @Failure 404 {object} ErrorResponse "タスクが見つからない"
// @Failure 409 {object} ErrorResponse "受け取り済み、または未達成"
// @Router /me/tasks/{task_id}/claim [post]
func (h *RewardHandler) ClaimTask(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	resp, err := h.rewardService.ClaimTask(c.Request().Context(), &rewardapp.ClaimTaskRequest{
		UserID: userID,
		TaskID: c.Param("task_id"),
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, ClaimTaskResponse{
		TaskID:        resp.TaskID,
		Reward:        resp.Reward,
		TransactionID: resp.TransactionID,
		Balance:       resp.BalanceAfter,
	})
}
