package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// ReadinessResponse 就绪检查响应
type ReadinessResponse struct {
	Status   string `json:"status"`
	Reason   string `json:"reason,omitempty"`
	Database string `json:"database,omitempty"`
	Redis    string `json:"redis,omitempty"`
}

// HealthCheck 健康检查
// @Summary 服务健康检查
// @Description 返回基础健康状态，可供监控探针使用
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func HealthCheck() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, HealthResponse{Status: "healthy", Service: "ordermgmt"})
	}
}

// ReadinessCheck 就绪检查，数据库不可用时返回 503。Redis 为可选依赖，只报告状态。
// @Summary 服务就绪检查
// @Tags System
// @Produce json
// @Success 200 {object} ReadinessResponse
// @Failure 503 {object} ReadinessResponse
// @Router /ready [get]
func ReadinessCheck(dbCheck, redisCheck func() error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := dbCheck(); err != nil {
			c.JSON(http.StatusServiceUnavailable, ReadinessResponse{
				Status: "not_ready",
				Reason: "database ping failed",
			})
			return
		}

		resp := ReadinessResponse{Status: "ready", Database: "connected", Redis: "connected"}
		if redisCheck != nil {
			if err := redisCheck(); err != nil {
				resp.Redis = "unavailable"
			}
		}
		c.JSON(http.StatusOK, resp)
	}
}

// --- 列表辅助函数 ---

// trimList 去掉空白项
func trimList(list []string) []string {
	var res []string
	for _, item := range list {
		if v := strings.TrimSpace(item); v != "" {
			res = append(res, v)
		}
	}
	return res
}

// defaultIfEmpty 返回非空列表或默认值
func defaultIfEmpty(list []string, def []string) []string {
	if len(list) == 0 {
		return def
	}
	return list
}
