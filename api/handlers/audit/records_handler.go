package audit

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	response "ordermgmt/api/handlers/common"
	"ordermgmt/internal/audit"
	"ordermgmt/internal/auth"
	"ordermgmt/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DefaultLimit 默认返回条数
const DefaultLimit = 100

// RecordFinder 审计记录查询
type RecordFinder interface {
	FindByActor(ctx context.Context, userID uint, limit int) ([]audit.Record, error)
	FindByTimestampRange(ctx context.Context, start, end time.Time, limit int) ([]audit.Record, error)
}

// RecordsHandler 审计记录查询处理器
type RecordsHandler struct {
	records RecordFinder
	users   audit.UserLookup
}

// NewRecordsHandler 创建处理器
func NewRecordsHandler(records RecordFinder, users audit.UserLookup) *RecordsHandler {
	return &RecordsHandler{records: records, users: users}
}

// ListRecords 按用户或时间范围查询审计记录。
// 参数 userId 或 username 二选一；否则必须给出 start/end (RFC3339)。
// @Summary 查询审计记录
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Router /admin/audit/records [get]
func (h *RecordsHandler) ListRecords(c *gin.Context) {
	ctx := c.Request.Context()

	limit := DefaultLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			response.Fail(c, http.StatusBadRequest, "无效的 limit: "+raw)
			return
		}
		limit = n
	}

	userID, ok := h.resolveUser(c)
	if !ok {
		return
	}
	if userID != 0 {
		records, err := h.records.FindByActor(ctx, userID, limit)
		if err != nil {
			response.FailWithError(c, err)
			return
		}
		response.OK(c, http.StatusOK, nonNil(records))
		return
	}

	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "缺少或无效的 start 参数")
		return
	}
	end, err := time.Parse(time.RFC3339, c.Query("end"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "缺少或无效的 end 参数")
		return
	}

	records, err := h.records.FindByTimestampRange(ctx, start, end, limit)
	if err != nil {
		response.FailWithError(c, err)
		return
	}
	response.OK(c, http.StatusOK, nonNil(records))
}

// resolveUser 返回 0 表示未按用户过滤
func (h *RecordsHandler) resolveUser(c *gin.Context) (uint, bool) {
	if raw := c.Query("userId"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			response.Fail(c, http.StatusBadRequest, "无效的 userId: "+raw)
			return 0, false
		}
		return uint(id), true
	}

	name := c.Query("username")
	if name == "" || h.users == nil {
		return 0, true
	}
	user, err := h.users.FindByUsername(c.Request.Context(), name)
	if errors.Is(err, auth.ErrUserNotFound) {
		response.Fail(c, http.StatusNotFound, "用户不存在: "+name)
		return 0, false
	}
	if err != nil {
		logger.WithContext(c.Request.Context()).Error("查询用户失败", zap.String("username", name), zap.Error(err))
		response.Fail(c, http.StatusInternalServerError, "查询用户失败")
		return 0, false
	}
	return user.ID, true
}

func nonNil(records []audit.Record) []audit.Record {
	if records == nil {
		return []audit.Record{}
	}
	return records
}
