package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ordermgmt/internal/logstore"
	"ordermgmt/internal/metrics"
	"ordermgmt/internal/worker/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// LogRotator 日志归档抽象，便于注入 mock
type LogRotator interface {
	Rotate(c logstore.Category, date time.Time) (string, error)
}

// RotateHandler 日志归档任务处理器
type RotateHandler struct {
	rotator LogRotator
	logger  *zap.Logger
	now     func() time.Time
}

// NewRotateHandler 创建处理器
func NewRotateHandler(rotator LogRotator, logger *zap.Logger) *RotateHandler {
	return &RotateHandler{
		rotator: rotator,
		logger:  logger,
		now:     time.Now,
	}
}

// HandleRotateLogs 将当前日志移动到归档目录。目标已存在时跳过，不视为失败。
func (h *RotateHandler) HandleRotateLogs(ctx context.Context, t *asynq.Task) error {
	var p tasks.RotateLogsPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("json unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}

	date := h.now().AddDate(0, 0, -1)
	if p.Date != "" {
		parsed, err := time.ParseInLocation(logstore.DateLayout, p.Date, time.Local)
		if err != nil {
			return fmt.Errorf("invalid date %q: %v: %w", p.Date, err, asynq.SkipRetry)
		}
		date = parsed
	}

	categories := logstore.Categories
	if len(p.Categories) > 0 {
		categories = make([]logstore.Category, 0, len(p.Categories))
		for _, name := range p.Categories {
			c, err := logstore.ParseCategory(name)
			if err != nil {
				return fmt.Errorf("category %q: %v: %w", name, err, asynq.SkipRetry)
			}
			categories = append(categories, c)
		}
	}

	var errs []error
	for _, c := range categories {
		path, err := h.rotator.Rotate(c, date)
		switch {
		case errors.Is(err, logstore.ErrArchiveExists):
			metrics.LogRotationsTotal.WithLabelValues(string(c), "exists").Inc()
			h.logger.Warn("归档文件已存在，跳过", zap.String("category", string(c)), zap.String("date", date.Format(logstore.DateLayout)))
		case err != nil:
			metrics.LogRotationsTotal.WithLabelValues(string(c), "error").Inc()
			h.logger.Error("日志归档失败", zap.String("category", string(c)), zap.Error(err))
			errs = append(errs, err)
		case path == "":
			metrics.LogRotationsTotal.WithLabelValues(string(c), "skipped").Inc()
			h.logger.Info("当前日志不存在，无需归档", zap.String("category", string(c)))
		default:
			metrics.LogRotationsTotal.WithLabelValues(string(c), "rotated").Inc()
			h.logger.Info("日志归档完成", zap.String("category", string(c)), zap.String("path", path))
		}
	}
	return errors.Join(errs...)
}
