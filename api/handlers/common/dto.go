package common

import (
	"errors"
	"net/http"
	"strconv"

	"ordermgmt/internal/catalog"
	"ordermgmt/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// APIResponse 通用响应结构，用于封装成功或失败结果。
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ErrorResponse 统一错误返回结构。
type ErrorResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// OK 返回成功响应
func OK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, APIResponse{Success: true, Data: data})
}

// Fail 返回错误响应
func Fail(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Success: false, Message: message})
}

// FailWithError 按业务错误映射 HTTP 状态码
func FailWithError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, catalog.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Code: "FORBIDDEN", Message: "无权访问该资源"})
	case errors.Is(err, catalog.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: "INVALID_INPUT", Message: err.Error()})
	default:
		logger.WithContext(c.Request.Context()).Error("请求处理失败", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Code: "INTERNAL", Message: "服务器内部错误"})
	}
}

// ParseID 解析路径参数中的数字 ID，失败时直接写入 400
func ParseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		Fail(c, http.StatusBadRequest, "无效的 ID: "+c.Param(name))
		return 0, false
	}
	return uint(id), true
}
