package queue

import (
	"context"
	"fmt"
	"time"

	"ordermgmt/internal/config"
	"ordermgmt/internal/logstore"
	"ordermgmt/internal/worker/tasks"

	"github.com/hibiken/asynq"
)

// Client 任务队列客户端接口
type Client interface {
	EnqueueRotateLogs(ctx context.Context, date time.Time, categories ...logstore.Category) (string, error)
	Close() error
}

type asynqClient struct {
	client *asynq.Client
}

// NewClient 创建任务队列客户端
func NewClient(cfg config.RedisConfig) Client {
	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &asynqClient{client: client}
}

// EnqueueRotateLogs 提交日志归档任务，返回任务 ID
func (c *asynqClient) EnqueueRotateLogs(ctx context.Context, date time.Time, categories ...logstore.Category) (string, error) {
	p := tasks.RotateLogsPayload{Date: date.Format(logstore.DateLayout)}
	for _, cat := range categories {
		p.Categories = append(p.Categories, string(cat))
	}

	task, err := tasks.NewRotateLogsTask(p)
	if err != nil {
		return "", err
	}
	info, err := c.client.EnqueueContext(ctx, task, asynq.Timeout(time.Minute))
	if err != nil {
		return "", fmt.Errorf("enqueue task failed: %w", err)
	}
	return info.ID, nil
}

func (c *asynqClient) Close() error {
	return c.client.Close()
}
