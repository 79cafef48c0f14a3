package logs

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	response "ordermgmt/api/handlers/common"
	"ordermgmt/internal/infra/queue"
	"ordermgmt/internal/logger"
	"ordermgmt/internal/logstore"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// DefaultLines 未指定行数时返回的行数
	DefaultLines = 500
	// DefaultCategory 未指定分类时查看持久层日志
	DefaultCategory = logstore.CategoryDatabase
)

// LogHandler 日志查看处理器
type LogHandler struct {
	store *logstore.Store
	queue queue.Client // 为 nil 时同步归档
}

// NewLogHandler 创建日志查看处理器
func NewLogHandler(store *logstore.Store, q queue.Client) *LogHandler {
	return &LogHandler{store: store, queue: q}
}

// LogsView 日志查看结果
type LogsView struct {
	LogType        logstore.Category   `json:"logType"`
	ViewType       string              `json:"viewType"` // current, archived
	Date           string              `json:"date,omitempty"`
	Lines          int                 `json:"lines"`
	Logs           []string            `json:"logs"`
	AvailableDates []string            `json:"availableDates"`
	LogTypes       []logstore.Category `json:"logTypes"`
}

// ViewCurrentLogs 查看当前日志
// @Summary 查看当前日志
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Param logType query string false "APPLICATION 或 DATABASE" default(DATABASE)
// @Param lines query int false "返回最后 N 行，负数表示全部" default(500)
// @Success 200 {object} response.APIResponse{data=LogsView}
// @Router /admin/logs [get]
func (h *LogHandler) ViewCurrentLogs(c *gin.Context) {
	category, lines, ok := parseCommon(c)
	if !ok {
		return
	}

	response.OK(c, http.StatusOK, LogsView{
		LogType:        category,
		ViewType:       "current",
		Lines:          lines,
		Logs:           h.store.ReadCurrent(category, lines),
		AvailableDates: h.availableDates(category),
		LogTypes:       logstore.Categories,
	})
}

// ViewArchivedLogs 查看归档日志，date 必填 (YYYY-MM-DD)
func (h *LogHandler) ViewArchivedLogs(c *gin.Context) {
	category, lines, ok := parseCommon(c)
	if !ok {
		return
	}
	date, ok := parseDate(c, c.Query("date"))
	if !ok {
		return
	}

	response.OK(c, http.StatusOK, LogsView{
		LogType:        category,
		ViewType:       "archived",
		Date:           date.Format(logstore.DateLayout),
		Lines:          lines,
		Logs:           h.store.ReadArchived(category, date, lines),
		AvailableDates: h.availableDates(category),
		LogTypes:       logstore.Categories,
	})
}

// RotateLogs 归档当前日志。配置了任务队列时异步执行，返回任务 ID。
func (h *LogHandler) RotateLogs(c *gin.Context) {
	date := time.Now().AddDate(0, 0, -1)
	if raw := c.Query("date"); raw != "" {
		parsed, ok := parseDate(c, raw)
		if !ok {
			return
		}
		date = parsed
	}

	categories := logstore.Categories
	if raw := c.Query("logType"); raw != "" {
		category, err := logstore.ParseCategory(raw)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, "无效的日志类型: "+raw)
			return
		}
		categories = []logstore.Category{category}
	}

	if h.queue != nil {
		taskID, err := h.queue.EnqueueRotateLogs(c.Request.Context(), date, categories...)
		if err != nil {
			logger.WithContext(c.Request.Context()).Error("提交归档任务失败", zap.Error(err))
			response.Fail(c, http.StatusServiceUnavailable, "提交归档任务失败")
			return
		}
		response.OK(c, http.StatusAccepted, gin.H{"taskId": taskID})
		return
	}

	archived := make(map[logstore.Category]string, len(categories))
	for _, category := range categories {
		path, err := h.store.Rotate(category, date)
		if err != nil && !errors.Is(err, logstore.ErrArchiveExists) {
			logger.WithContext(c.Request.Context()).Error("日志归档失败", zap.String("category", string(category)), zap.Error(err))
			response.Fail(c, http.StatusInternalServerError, "日志归档失败")
			return
		}
		archived[category] = path
	}
	response.OK(c, http.StatusOK, gin.H{"date": date.Format(logstore.DateLayout), "archived": archived})
}

func (h *LogHandler) availableDates(category logstore.Category) []string {
	dates := h.store.ListAvailableDates(category)
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.Format(logstore.DateLayout)
	}
	return out
}

func parseCommon(c *gin.Context) (logstore.Category, int, bool) {
	category := DefaultCategory
	if raw := c.Query("logType"); raw != "" {
		parsed, err := logstore.ParseCategory(raw)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, "无效的日志类型: "+raw)
			return "", 0, false
		}
		category = parsed
	}

	lines := DefaultLines
	if raw := c.Query("lines"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, "无效的行数: "+raw)
			return "", 0, false
		}
		lines = n
	}
	return category, lines, true
}

func parseDate(c *gin.Context, raw string) (time.Time, bool) {
	if raw == "" {
		response.Fail(c, http.StatusBadRequest, "缺少 date 参数")
		return time.Time{}, false
	}
	date, err := time.ParseInLocation(logstore.DateLayout, raw, time.Local)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "无效的日期: "+raw)
		return time.Time{}, false
	}
	return date, true
}
