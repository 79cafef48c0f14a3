package logstore

import (
	"errors"
	"strings"

	"ordermgmt/internal/logger"

	"go.uber.org/zap"
)

// Category 日志分类
type Category string

const (
	CategoryApplication Category = "APPLICATION" // 应用日志
	CategoryDatabase    Category = "DATABASE"    // 持久层日志
)

// Categories 全部日志分类
var Categories = []Category{CategoryApplication, CategoryDatabase}

// ErrInvalidCategory 未知日志分类
var ErrInvalidCategory = errors.New("invalid log category")

// Prefix 文件名前缀
func (c Category) Prefix() string {
	if c == CategoryDatabase {
		return "database"
	}
	return "application"
}

// ParseCategory 解析分类名（不区分大小写）
func ParseCategory(s string) (Category, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(CategoryApplication):
		return CategoryApplication, nil
	case string(CategoryDatabase):
		return CategoryDatabase, nil
	}
	return "", ErrInvalidCategory
}

// Level 追加日志级别
type Level string

const (
	LevelInfo    Level = "INFO"
	LevelWarning Level = "WARNING"
	LevelError   Level = "ERROR"
)

// log 同步输出到 zap
func (l Level) log(message string) {
	switch l {
	case LevelWarning:
		logger.Warn(message, zap.String("source", "logstore"))
	case LevelError:
		logger.Error(message, zap.String("source", "logstore"))
	default:
		logger.Info(message, zap.String("source", "logstore"))
	}
}
