package worker

import (
	"context"
	"fmt"

	"ordermgmt/internal/config"
	"ordermgmt/internal/worker/handlers"
	"ordermgmt/internal/worker/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Server 后台任务服务，包含定时调度
type Server struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
	cron      string
	logger    *zap.Logger
}

// NewServer 创建 Worker，注册日志归档任务
func NewServer(
	redisCfg config.RedisConfig,
	workerCfg config.WorkerConfig,
	rotator handlers.LogRotator,
	logger *zap.Logger,
) *Server {
	redisOpt := asynq.RedisClientOpt{
		Addr:     redisCfg.Addr(),
		Password: redisCfg.Password,
		DB:       redisCfg.DB,
	}

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 2,
		Queues: map[string]int{
			tasks.QueueMaintenance: 1,
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logger.Error("任务执行失败",
				zap.String("type", task.Type()),
				zap.Error(err),
			)
		}),
	})

	mux := asynq.NewServeMux()
	rotateHandler := handlers.NewRotateHandler(rotator, logger)
	mux.HandleFunc(tasks.TypeRotateLogs, rotateHandler.HandleRotateLogs)

	return &Server{
		server:    srv,
		scheduler: asynq.NewScheduler(redisOpt, nil),
		mux:       mux,
		cron:      workerCfg.RotateCron,
		logger:    logger,
	}
}

// Start 非阻塞启动 Worker 与调度器
func (s *Server) Start() error {
	if s.cron != "" {
		task, err := tasks.NewRotateLogsTask(tasks.RotateLogsPayload{})
		if err != nil {
			return err
		}
		entryID, err := s.scheduler.Register(s.cron, task)
		if err != nil {
			return fmt.Errorf("注册日志归档计划失败: %w", err)
		}
		if err := s.scheduler.Start(); err != nil {
			return fmt.Errorf("启动调度器失败: %w", err)
		}
		s.logger.Info("日志归档计划已注册", zap.String("cron", s.cron), zap.String("entry_id", entryID))
	}

	s.logger.Info("Worker 服务器启动中 (后台)...")
	return s.server.Start(s.mux)
}

// Shutdown 停止 Worker 与调度器
func (s *Server) Shutdown() {
	s.logger.Info("Worker 服务器停止中...")
	if s.cron != "" {
		s.scheduler.Shutdown()
	}
	s.server.Shutdown()
}
