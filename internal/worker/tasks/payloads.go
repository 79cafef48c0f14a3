package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Task Types
const (
	TypeRotateLogs = "logs:rotate"
)

// QueueMaintenance 运维任务队列
const QueueMaintenance = "maintenance"

// RotateLogsPayload 日志归档任务载荷。
// Date 为空时由处理器取执行当天的前一天；Categories 为空表示全部分类。
type RotateLogsPayload struct {
	Date       string   `json:"date,omitempty"` // YYYY-MM-DD
	Categories []string `json:"categories,omitempty"`
}

// NewRotateLogsTask 构造日志归档任务
func NewRotateLogsTask(p RotateLogsPayload) (*asynq.Task, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal payload failed: %w", err)
	}
	return asynq.NewTask(TypeRotateLogs, data, asynq.Queue(QueueMaintenance), asynq.MaxRetry(3)), nil
}
