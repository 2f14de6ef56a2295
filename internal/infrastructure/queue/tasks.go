package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// タスク種別
const (
	TypePaymentSettle = "payment:settle"
)

// キュー名
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
)

// SettlePayload 決済確定タスクのペイロード
type SettlePayload struct {
	OrderID string `json:"order_id"`
}

// NewSettleTask 決済確定タスクを作成
// 同じ注文の通知が続けて届いても、保持期間中は1件のタスクにまとめる
func NewSettleTask(orderID string) (*asynq.Task, error) {
	data, err := json.Marshal(SettlePayload{OrderID: orderID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal settle payload: %w", err)
	}
	return asynq.NewTask(TypePaymentSettle, data,
		asynq.Queue(QueueCritical),
		asynq.MaxRetry(10),
		asynq.TaskID(TypePaymentSettle+":"+orderID),
		asynq.Retention(10*time.Minute),
	), nil
}
