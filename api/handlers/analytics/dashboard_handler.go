package analytics

import (
	"net/http"
	"time"

	response "ordermgmt/api/handlers/common"
	"ordermgmt/internal/analytics"
	"ordermgmt/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DefaultDays 未指定日期范围时统计的天数（含今天）
const DefaultDays = 7

// DashboardHandler 审计统计仪表盘
type DashboardHandler struct {
	reader analytics.Reader
	loc    *time.Location
	window func(days int) (time.Time, time.Time)
}

// NewDashboardHandler 创建仪表盘处理器
func NewDashboardHandler(agg *analytics.Aggregator, reader analytics.Reader) *DashboardHandler {
	if reader == nil {
		reader = agg
	}
	return &DashboardHandler{reader: reader, loc: agg.Location(), window: agg.DayWindow}
}

// Dashboard 仪表盘数据
type Dashboard struct {
	StartDate     string           `json:"startDate"`
	EndDate       string           `json:"endDate"`
	QueriesByDay  map[string]int64 `json:"queriesByDay"`
	QueriesByType map[string]int64 `json:"queriesByType"`
	QueriesByHour map[int]int64    `json:"queriesByHour"`
	Error         string           `json:"error,omitempty"`
}

// GetDashboard 审计统计
// @Summary 审计统计仪表盘
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Param startDate query string false "开始日期 YYYY-MM-DD"
// @Param endDate query string false "结束日期 YYYY-MM-DD（含）"
// @Success 200 {object} Dashboard
// @Router /admin/dashboard [get]
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	start, end := h.window(DefaultDays)

	if raw := c.Query("startDate"); raw != "" {
		d, err := time.ParseInLocation(analytics.DayKeyLayout, raw, h.loc)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, "无效的开始日期: "+raw)
			return
		}
		start = d
	}
	if raw := c.Query("endDate"); raw != "" {
		d, err := time.ParseInLocation(analytics.DayKeyLayout, raw, h.loc)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, "无效的结束日期: "+raw)
			return
		}
		// 结束日期当天整天计入
		end = d.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}

	view := Dashboard{
		StartDate: start.Format(analytics.DayKeyLayout),
		EndDate:   end.Format(analytics.DayKeyLayout),
	}

	ctx := c.Request.Context()
	byDay, err := h.reader.CountByDay(ctx, start, end)
	if err == nil {
		view.QueriesByDay = byDay
		view.QueriesByType, err = h.reader.CountByType(ctx)
	}
	if err == nil {
		view.QueriesByHour, err = h.reader.CountByHour(ctx)
	}

	if err != nil {
		// 统计失败仍然渲染页面，只带上错误信息
		logger.WithContext(ctx).Error("加载仪表盘统计失败", zap.Error(err))
		view.QueriesByDay = map[string]int64{}
		view.QueriesByType = map[string]int64{}
		view.QueriesByHour = map[int]int64{}
		view.Error = "加载统计数据失败: " + err.Error()
	}

	c.JSON(http.StatusOK, view)
}
