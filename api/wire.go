package api

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	analyticsHandlers "ordermgmt/api/handlers/analytics"
	auditHandlers "ordermgmt/api/handlers/audit"
	authHandlers "ordermgmt/api/handlers/auth"
	logsHandlers "ordermgmt/api/handlers/logs"
	"ordermgmt/api/handlers/orders"
	"ordermgmt/api/handlers/products"
	"ordermgmt/api/handlers/web"

	"ordermgmt/internal/analytics"
	"ordermgmt/internal/audit"
	"ordermgmt/internal/auth"
	"ordermgmt/internal/catalog"
	"ordermgmt/internal/config"
	"ordermgmt/internal/infra/queue"
	"ordermgmt/internal/logger"
	"ordermgmt/internal/logstore"
	"ordermgmt/internal/worker"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AppContainer 应用容器，集中管理所有服务依赖
type AppContainer struct {
	// 基础设施
	DB          *gorm.DB
	Config      *config.Config
	RedisClient redis.UniversalClient
	QueueClient queue.Client

	// 认证
	JWTService *auth.JWTService
	Users      *auth.UserDirectory

	// 审计与统计
	LogStore    *logstore.Store
	Records     *audit.RecordStore
	Interceptor *audit.Interceptor
	Aggregator  *analytics.Aggregator
	Stats       analytics.Reader

	// 业务
	Catalog *catalog.Service

	WorkerServer *worker.Server
}

// Handlers 所有 HTTP 处理器
type Handlers struct {
	Auth         *authHandlers.AuthHandler
	Products     *products.ProductHandler
	Orders       *orders.OrderHandler
	ProductPages *web.ProductPages
	OrderPages   *web.OrderPages
	Logs         *logsHandlers.LogHandler
	Dashboard    *analyticsHandlers.DashboardHandler
	Records      *auditHandlers.RecordsHandler
}

// InitContainer 初始化应用容器。rdb 为 nil 时统计不缓存、归档同步执行、不启动 Worker。
func InitContainer(db *gorm.DB, cfg *config.Config, rdb redis.UniversalClient) (*AppContainer, error) {
	c := &AppContainer{
		DB:          db,
		Config:      cfg,
		RedisClient: rdb,
	}

	if err := c.initAuth(cfg); err != nil {
		return nil, err
	}
	if err := c.initAudit(cfg); err != nil {
		return nil, err
	}
	c.Catalog = catalog.NewService(db)

	if rdb != nil {
		c.QueueClient = queue.NewClient(cfg.Redis)
		if cfg.Worker.Enabled {
			c.WorkerServer = worker.NewServer(cfg.Redis, cfg.Worker, c.LogStore, logger.Get())
		}
	}

	return c, nil
}

// Seed 写入示例数据
func (c *AppContainer) Seed(ctx context.Context) error {
	return catalog.Seed(ctx, c.DB, c.Users)
}

func (c *AppContainer) initAuth(cfg *config.Config) error {
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}

	secret := strings.TrimSpace(cfg.Auth.JWTSecret)
	if secret == "" {
		secret = strings.TrimSpace(os.Getenv("JWT_SECRET_KEY"))
	}
	if secret == "" {
		// 生产模式必须显式配置密钥
		if strings.EqualFold(cfg.Server.Mode, "release") || strings.EqualFold(appEnv, "prod") {
			return fmt.Errorf("JWT 密钥未配置，生产环境禁止使用默认密钥")
		}
		secret = "default_jwt_secret_key_change_in_production"
		logger.Warn("JWT 密钥未配置，已回退为开发默认值")
	}

	c.JWTService = auth.NewJWTService(secret, cfg.Auth.Issuer)
	c.Users = auth.NewUserDirectory(c.DB)
	return nil
}

func (c *AppContainer) initAudit(cfg *config.Config) error {
	loc, err := time.LoadLocation(cfg.Analytics.Timezone)
	if err != nil {
		return fmt.Errorf("无效的统计时区 %q: %w", cfg.Analytics.Timezone, err)
	}

	c.LogStore = logstore.New(cfg.Logs.BaseDir)
	c.Records = audit.NewRecordStore(c.DB)

	c.Aggregator = analytics.NewAggregator(c.Records, analytics.WithLocation(loc))
	cached := analytics.NewCachedAggregator(c.Aggregator, c.RedisClient, cfg.Analytics.CacheTTL)
	c.Stats = cached

	// 每次写入后清除按类型计数缓存，统计与按天、按小时计数保持一致
	opts := []audit.Option{
		audit.WithEnabled(cfg.Audit.Enabled),
		audit.WithWriteTimeout(cfg.Audit.WriteTimeout),
		audit.WithInvalidator(cached),
	}
	if cfg.Audit.TrackToLogFile {
		opts = append(opts, audit.WithTracker(c.LogStore))
	}
	c.Interceptor = audit.NewInterceptor(
		audit.NewRegistry(cfg.Audit.Groups),
		c.Records,
		audit.NewDirectoryResolver(c.Users),
		opts...,
	)

	logger.Info("调用审计已初始化",
		zap.Bool("enabled", cfg.Audit.Enabled),
		zap.Bool("track_to_log_file", cfg.Audit.TrackToLogFile),
		zap.String("timezone", loc.String()),
	)
	return nil
}

// InitHandlers 初始化所有 Handlers
func (c *AppContainer) InitHandlers() *Handlers {
	return &Handlers{
		Auth:         authHandlers.NewAuthHandler(c.JWTService, c.Users),
		Products:     products.NewProductHandler(c.Catalog, c.Interceptor),
		Orders:       orders.NewOrderHandler(c.Catalog, c.Users, c.Interceptor),
		ProductPages: web.NewProductPages(c.Catalog, c.Interceptor),
		OrderPages:   web.NewOrderPages(c.Catalog, c.Users, c.Interceptor),
		Logs:         logsHandlers.NewLogHandler(c.LogStore, c.QueueClient),
		Dashboard:    analyticsHandlers.NewDashboardHandler(c.Aggregator, c.Stats),
		Records:      auditHandlers.NewRecordsHandler(c.Records, c.Users),
	}
}

// Close 释放队列客户端
func (c *AppContainer) Close() {
	if c.QueueClient != nil {
		if err := c.QueueClient.Close(); err != nil {
			logger.Warn("关闭任务队列客户端失败", zap.Error(err))
		}
	}
}
