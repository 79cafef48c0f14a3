package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// API 指标
var (
	// APIRequestsTotal API 请求总数
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ordermgmt_api_requests_total",
			Help: "API 请求总数",
		},
		[]string{"method", "path", "status"},
	)

	// APIRequestDuration API 请求延迟（秒）
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ordermgmt_api_request_duration_seconds",
			Help:    "API 请求延迟分布",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// 审计指标
var (
	// AuditRecordsTotal 成功写入的审计记录，按查询类型
	AuditRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ordermgmt_audit_records_total",
			Help: "写入的审计记录总数",
		},
		[]string{"query_type"},
	)

	// AuditFailuresTotal 审计失败次数，stage 取 resolve、save、panic
	AuditFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ordermgmt_audit_failures_total",
			Help: "审计写入失败总数",
		},
		[]string{"stage"},
	)

	// AuditSkippedTotal 跳过的调用，reason 取 anonymous、no_actor、unregistered、failed_call
	AuditSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ordermgmt_audit_skipped_total",
			Help: "未记录审计的调用总数",
		},
		[]string{"reason"},
	)

	// AuditWriteDuration 单次审计写入耗时（秒）
	AuditWriteDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ordermgmt_audit_write_duration_seconds",
			Help:    "审计写入耗时分布",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
		},
	)
)

// 日志归档指标
var (
	// LogRotationsTotal 日志归档次数，result 取 rotated、skipped、exists、error
	LogRotationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ordermgmt_log_rotations_total",
			Help: "日志归档执行次数",
		},
		[]string{"category", "result"},
	)
)
