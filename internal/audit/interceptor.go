package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ordermgmt/internal/auth"
	"ordermgmt/internal/logger"
	"ordermgmt/internal/logstore"
	"ordermgmt/internal/metrics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// DefaultWriteTimeout 单次审计写入的上限
const DefaultWriteTimeout = 2 * time.Second

// ErrNoActor 调用者未认证或为匿名
var ErrNoActor = errors.New("no authenticated actor")

// ActorResolver 将调用者解析为持久化的用户 ID
type ActorResolver interface {
	ResolveActor(ctx context.Context, p *auth.Principal) (uint, error)
}

// UserLookup 按用户名查询用户
type UserLookup interface {
	FindByUsername(ctx context.Context, username string) (*auth.User, error)
}

// DirectoryResolver 通过用户目录解析调用者
type DirectoryResolver struct {
	users UserLookup
}

// NewDirectoryResolver 创建基于用户目录的解析器
func NewDirectoryResolver(users UserLookup) *DirectoryResolver {
	return &DirectoryResolver{users: users}
}

// ResolveActor 匿名调用者返回 ErrNoActor
func (r *DirectoryResolver) ResolveActor(ctx context.Context, p *auth.Principal) (uint, error) {
	if p.IsAnonymous() {
		return 0, ErrNoActor
	}
	user, err := r.users.FindByUsername(ctx, p.Username)
	if err != nil {
		return 0, err
	}
	return user.ID, nil
}

// RecordSaver 审计记录写入
type RecordSaver interface {
	Save(ctx context.Context, rec *Record) (*Record, error)
}

// LineTracker 审计成功后追加到应用日志文件
type LineTracker interface {
	Append(level logstore.Level, message string)
}

// Invalidator 审计写入成功后清除依赖审计数据的缓存
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Call 一次被拦截的业务调用
type Call struct {
	Owner  string // 入口名，如 ProductController
	Method string
	Args   []any
}

// Interceptor 业务调用审计拦截器。
// 只在调用成功后同步写入一条记录，任何审计失败都不会影响业务调用的结果。
type Interceptor struct {
	registry *Registry
	store    RecordSaver
	actors   ActorResolver
	tracker  LineTracker
	caches   []Invalidator
	timeout  time.Duration
	enabled  bool
	tracer   trace.Tracer
}

// Option 拦截器配置项
type Option func(*Interceptor)

// WithTracker 成功写入后追加一行到应用日志
func WithTracker(t LineTracker) Option {
	return func(i *Interceptor) {
		i.tracker = t
	}
}

// WithInvalidator 写入成功后清除统计缓存
func WithInvalidator(inv Invalidator) Option {
	return func(i *Interceptor) {
		if inv != nil {
			i.caches = append(i.caches, inv)
		}
	}
}

// WithWriteTimeout 设置写入超时
func WithWriteTimeout(d time.Duration) Option {
	return func(i *Interceptor) {
		if d > 0 {
			i.timeout = d
		}
	}
}

// WithEnabled 开关
func WithEnabled(enabled bool) Option {
	return func(i *Interceptor) {
		i.enabled = enabled
	}
}

// NewInterceptor 创建拦截器
func NewInterceptor(registry *Registry, store RecordSaver, actors ActorResolver, opts ...Option) *Interceptor {
	if registry == nil {
		registry = NewRegistry(nil)
	}
	i := &Interceptor{
		registry: registry,
		store:    store,
		actors:   actors,
		timeout:  DefaultWriteTimeout,
		enabled:  true,
		tracer:   otel.Tracer("ordermgmt/internal/audit"),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Observe 执行业务调用，成功后记录审计。返回值与错误原样交还调用方。
func Observe[T any](ctx context.Context, i *Interceptor, principal *auth.Principal, call Call, fn func(context.Context) (T, error)) (T, error) {
	result, err := fn(ctx)
	if err != nil {
		i.skip("failed_call")
		return result, err
	}
	i.Record(ctx, principal, call)
	return result, nil
}

// ObserveErr 无返回值版本的 Observe
func ObserveErr(ctx context.Context, i *Interceptor, principal *auth.Principal, call Call, fn func(context.Context) error) error {
	_, err := Observe(ctx, i, principal, call, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Record 为已成功的调用写入审计记录，失败只记录日志
func (i *Interceptor) Record(ctx context.Context, principal *auth.Principal, call Call) {
	if i == nil || !i.enabled {
		return
	}

	log := logger.WithContext(ctx).With(
		zap.String("owner", call.Owner),
		zap.String("method", call.Method),
	)

	defer func() {
		if r := recover(); r != nil {
			metrics.AuditFailuresTotal.WithLabelValues("panic").Inc()
			log.Error("审计记录异常", zap.Any("panic", r))
		}
	}()

	queryType, ok := i.registry.Lookup(call.Owner, call.Method)
	if !ok {
		i.skip("unregistered")
		log.Debug("未注册的拦截入口")
		return
	}
	if principal.IsAnonymous() {
		i.skip("anonymous")
		return
	}

	// 业务请求被取消不应中断审计写入，但写入本身有上限
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), i.timeout)
	defer cancel()

	writeCtx, span := i.tracer.Start(writeCtx, "audit.Record")
	defer span.End()
	span.SetAttributes(
		attribute.String("audit.query_type", queryType),
		attribute.String("audit.method", call.Method),
		attribute.String("audit.user", principal.Username),
	)

	userID, err := i.actors.ResolveActor(writeCtx, principal)
	if err != nil {
		if errors.Is(err, ErrNoActor) || errors.Is(err, auth.ErrUserNotFound) {
			i.skip("no_actor")
			log.Warn("未找到审计用户", zap.String("user", principal.Username), zap.Error(err))
			return
		}
		metrics.AuditFailuresTotal.WithLabelValues("resolve").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "resolve actor")
		log.Error("解析审计用户失败", zap.String("user", principal.Username), zap.Error(err))
		return
	}

	detail := FormatDetail(call.Method, call.Args)
	start := time.Now()
	_, err = i.store.Save(writeCtx, &Record{
		QueryType: queryType,
		Detail:    detail,
		UserID:    userID,
	})
	metrics.AuditWriteDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.AuditFailuresTotal.WithLabelValues("save").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "save record")
		log.Error("保存审计记录失败", zap.String("query_type", queryType), zap.Error(err))
		return
	}

	metrics.AuditRecordsTotal.WithLabelValues(queryType).Inc()
	for _, cache := range i.caches {
		if err := cache.Invalidate(writeCtx); err != nil {
			log.Warn("清除统计缓存失败", zap.Error(err))
		}
	}
	if i.tracker != nil {
		i.tracker.Append(logstore.LevelInfo, fmt.Sprintf("User %s executed %s query: %s", principal.Username, queryType, detail))
	}
}

func (i *Interceptor) skip(reason string) {
	if i == nil || !i.enabled {
		return
	}
	metrics.AuditSkippedTotal.WithLabelValues(reason).Inc()
}
