package logger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	globalLogger   *zap.Logger
	databaseLogger *zap.Logger
	databaseFile   *reopenableFile
)

// 上下文键
type contextKey string

const traceIDKey contextKey = "trace_id"

// Init 初始化日志系统
func Init(level, format, outputPath string) error {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}

	writer, err := openWriter(outputPath)
	if err != nil {
		return err
	}

	core := zapcore.NewCore(newEncoder(format, true), writer, zapLevel)
	globalLogger = zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))

	return nil
}

// InitDatabase 初始化持久层日志（SQL 执行记录），输出到独立文件，
// 供日志查看页面的 database 分类读取。文件归档后需调用 ReopenDatabase。
func InitDatabase(level, path string) error {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.DebugLevel
	}

	var writer zapcore.WriteSyncer
	var file *reopenableFile
	switch path {
	case "stdout", "stderr", "":
		w, err := openWriter(path)
		if err != nil {
			return err
		}
		writer = w
	default:
		f, err := openReopenable(path)
		if err != nil {
			return err
		}
		writer, file = f, f
	}

	core := zapcore.NewCore(newEncoder("console", false), writer, zapLevel)
	if databaseFile != nil {
		_ = databaseFile.Close()
	}
	databaseLogger = zap.New(core)
	databaseFile = file
	return nil
}

// ReopenDatabase 重新打开持久层日志文件。
// 文件被改名归档后调用，之后的写入落到原路径的新文件。未输出到文件时为空操作。
func ReopenDatabase() error {
	if databaseFile == nil {
		return nil
	}
	return databaseFile.Reopen()
}

// CloseDatabase 关闭持久层日志文件，之后回退到全局 Logger
func CloseDatabase() error {
	if databaseFile == nil {
		databaseLogger = nil
		return nil
	}
	_ = databaseLogger.Sync()
	err := databaseFile.Close()
	databaseLogger = nil
	databaseFile = nil
	return err
}

// reopenableFile 可重新打开的追加写文件
type reopenableFile struct {
	mu   sync.Mutex
	path string
	file *os.File
}

func openReopenable(path string) (*reopenableFile, error) {
	f := &reopenableFile{path: path}
	if err := f.Reopen(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *reopenableFile) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.file == nil {
		return 0, os.ErrClosed
	}
	return f.file.Write(p)
}

func (f *reopenableFile) Sync() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.file == nil {
		return nil
	}
	return f.file.Sync()
}

// Reopen 关闭旧句柄并按原路径重新创建
func (f *reopenableFile) Reopen() error {
	file, err := openFile(f.path)
	if err != nil {
		return err
	}

	f.mu.Lock()
	old := f.file
	f.file = file
	f.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	return nil
}

func (f *reopenableFile) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.file == nil {
		return nil
	}
	err := f.file.Close()
	f.file = nil
	return err
}

func newEncoder(format string, color bool) zapcore.Encoder {
	var encoderConfig zapcore.EncoderConfig
	if format == "json" {
		encoderConfig = zap.NewProductionEncoderConfig()
	} else {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		if color {
			encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		} else {
			encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		}
	}
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if format == "json" {
		return zapcore.NewJSONEncoder(encoderConfig)
	}
	return zapcore.NewConsoleEncoder(encoderConfig)
}

func openWriter(outputPath string) (zapcore.WriteSyncer, error) {
	switch outputPath {
	case "stdout", "":
		return zapcore.AddSync(os.Stdout), nil
	case "stderr":
		return zapcore.AddSync(os.Stderr), nil
	}

	file, err := openFile(outputPath)
	if err != nil {
		return nil, err
	}
	return zapcore.AddSync(file), nil
}

func openFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("创建日志目录失败: %w", err)
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("打开日志文件失败: %w", err)
	}
	return file, nil
}

// Get 获取全局 Logger，未初始化时返回 Nop Logger
func Get() *zap.Logger {
	if globalLogger == nil {
		return zap.NewNop()
	}
	return globalLogger
}

// Database 获取持久层日志 Logger，未初始化时回退到全局 Logger
func Database() *zap.Logger {
	if databaseLogger == nil {
		return Get()
	}
	return databaseLogger
}

// Set 替换全局 Logger（测试中注入 observer）
func Set(l *zap.Logger) {
	globalLogger = l
}

// WithTraceID 创建带 TraceID 的上下文
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// GetTraceID 从上下文获取 TraceID
func GetTraceID(ctx context.Context) string {
	if traceID, ok := ctx.Value(traceIDKey).(string); ok {
		return traceID
	}
	return ""
}

// WithContext 创建带上下文信息的 Logger
func WithContext(ctx context.Context) *zap.Logger {
	logger := Get()
	if ctx == nil {
		return logger
	}
	if traceID := GetTraceID(ctx); traceID != "" {
		logger = logger.With(zap.String("trace_id", traceID))
	}
	return logger
}

// Debug 便捷方法
func Debug(msg string, fields ...zap.Field) {
	Get().Debug(msg, fields...)
}

// Info 便捷方法
func Info(msg string, fields ...zap.Field) {
	Get().Info(msg, fields...)
}

// Warn 便捷方法
func Warn(msg string, fields ...zap.Field) {
	Get().Warn(msg, fields...)
}

// Error 便捷方法
func Error(msg string, fields ...zap.Field) {
	Get().Error(msg, fields...)
}

// Fatal 便捷方法
func Fatal(msg string, fields ...zap.Field) {
	Get().Fatal(msg, fields...)
}

// Sync 刷新日志缓冲区
func Sync() error {
	if databaseLogger != nil {
		_ = databaseLogger.Sync()
	}
	if globalLogger != nil {
		return globalLogger.Sync()
	}
	return nil
}
