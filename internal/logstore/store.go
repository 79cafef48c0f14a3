// Package logstore 提供日志文件的只读窗口访问与追加写入。
//
// 目录布局固定为：
//
//	{base}/application.log
//	{base}/database.log
//	{base}/archived/{application|database}.{YYYY-MM-DD}.log
//
// 读路径不会返回错误：文件不存在或读取失败都退化为空结果，并通过 zap 记录。
package logstore

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"ordermgmt/internal/logger"

	"go.uber.org/zap"
)

const (
	// DateLayout 归档文件名中的日期格式
	DateLayout = "2006-01-02"
	// TimestampLayout 追加日志行的时间格式（ISO-8601 本地时间）
	TimestampLayout = "2006-01-02T15:04:05.000"

	archiveDirName = "archived"
)

// ErrArchiveExists 归档目标文件已存在
var ErrArchiveExists = errors.New("archive file already exists")

// Store 日志文件访问器
type Store struct {
	baseDir    string
	archiveDir string
	now        func() time.Time

	// 进程内单写者，跨进程依赖 O_APPEND 语义
	mu sync.Mutex

	patterns map[Category]*regexp.Regexp
}

// Option Store 配置项
type Option func(*Store)

// WithClock 替换时间源
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New 创建日志访问器，baseDir 为空时使用 "logs"
func New(baseDir string, opts ...Option) *Store {
	if baseDir == "" {
		baseDir = "logs"
	}
	s := &Store{
		baseDir:    baseDir,
		archiveDir: filepath.Join(baseDir, archiveDirName),
		now:        time.Now,
		patterns:   make(map[Category]*regexp.Regexp, len(Categories)),
	}
	for _, c := range Categories {
		s.patterns[c] = regexp.MustCompile(`^` + regexp.QuoteMeta(c.Prefix()) + `\.\d{4}-\d{2}-\d{2}\.log$`)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BaseDir 当前日志目录
func (s *Store) BaseDir() string {
	return s.baseDir
}

// CurrentPath 当前日志文件路径
func (s *Store) CurrentPath(c Category) string {
	return filepath.Join(s.baseDir, c.Prefix()+".log")
}

// ArchivePath 归档日志文件路径
func (s *Store) ArchivePath(c Category, date time.Time) string {
	return filepath.Join(s.archiveDir, fmt.Sprintf("%s.%s.log", c.Prefix(), date.Format(DateLayout)))
}

// ReadCurrent 读取当前日志的最后 maxLines 行，maxLines < 0 表示全部
func (s *Store) ReadCurrent(c Category, maxLines int) []string {
	if !s.known(c) {
		return []string{}
	}
	return readTail(s.CurrentPath(c), maxLines)
}

// ReadArchived 读取指定日期归档日志的最后 maxLines 行
func (s *Store) ReadArchived(c Category, date time.Time, maxLines int) []string {
	if !s.known(c) {
		return []string{}
	}
	return readTail(s.ArchivePath(c, date), maxLines)
}

// ListAvailableDates 根据归档目录中的文件名列出可用日期（降序、去重）。
// 日期只从文件名解析，不参考文件修改时间。
func (s *Store) ListAvailableDates(c Category) []time.Time {
	dates := []time.Time{}
	pattern, ok := s.patterns[c]
	if !ok {
		logger.Warn("未知日志分类", zap.String("category", string(c)))
		return dates
	}

	entries, err := os.ReadDir(s.archiveDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn("归档目录不存在", zap.String("dir", s.archiveDir))
		} else {
			logger.Error("读取归档目录失败", zap.String("dir", s.archiveDir), zap.Error(err))
		}
		return dates
	}

	offset := len(c.Prefix()) + 1
	seen := make(map[string]struct{})

	for _, entry := range entries {
		name := entry.Name()
		if !pattern.MatchString(name) {
			continue
		}
		if !s.isRegular(entry) {
			continue
		}

		raw := name[offset : offset+len(DateLayout)]
		if _, ok := seen[raw]; ok {
			continue
		}
		date, err := time.Parse(DateLayout, raw)
		if err != nil {
			// 形如 2024-13-45 的名字能通过正则但不是合法日期
			logger.Warn("归档文件日期无效", zap.String("file", name), zap.Error(err))
			continue
		}
		seen[raw] = struct{}{}
		dates = append(dates, date)
	}

	sort.Slice(dates, func(i, j int) bool {
		return dates[i].After(dates[j])
	})
	return dates
}

func (s *Store) known(c Category) bool {
	if _, ok := s.patterns[c]; ok {
		return true
	}
	logger.Warn("未知日志分类", zap.String("category", string(c)))
	return false
}

func (s *Store) isRegular(entry os.DirEntry) bool {
	if entry.Type().IsRegular() {
		return true
	}
	if entry.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(s.archiveDir, entry.Name()))
	return err == nil && info.Mode().IsRegular()
}

// Append 以 "[时间] LEVEL: message" 格式追加一行到 application.log。
// 写入失败只记录日志，不向调用方返回。
func (s *Store) Append(level Level, message string) {
	level.log(message)

	line := fmt.Sprintf("[%s] %s: %s\n", s.now().Format(TimestampLayout), level, message)
	path := s.CurrentPath(CategoryApplication)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		logger.Error("创建日志目录失败", zap.String("path", path), zap.Error(err))
		return
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		logger.Error("打开日志文件失败", zap.String("path", path), zap.Error(err))
		return
	}
	defer f.Close()

	if _, err := f.WriteString(line); err != nil {
		logger.Error("写入日志文件失败", zap.String("path", path), zap.Error(err))
	}
}

// Rotate 将当前日志移动为指定日期的归档文件。
// 当前文件不存在时返回空路径；目标已存在时返回 ErrArchiveExists，不覆盖。
// database 分类归档后重新打开持久层日志文件，后续 SQL 日志写入新的当前文件。
func (s *Store) Rotate(c Category, date time.Time) (string, error) {
	if _, ok := s.patterns[c]; !ok {
		return "", ErrInvalidCategory
	}
	src := s.CurrentPath(c)
	dst := s.ArchivePath(c, date)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(src); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("检查日志文件失败: %w", err)
	}
	if _, err := os.Stat(dst); err == nil {
		return "", ErrArchiveExists
	}
	if err := os.MkdirAll(s.archiveDir, 0o755); err != nil {
		return "", fmt.Errorf("创建归档目录失败: %w", err)
	}
	if err := os.Rename(src, dst); err != nil {
		return "", fmt.Errorf("归档日志失败: %w", err)
	}
	if c == CategoryDatabase {
		if err := logger.ReopenDatabase(); err != nil {
			logger.Error("重新打开持久层日志失败", zap.String("path", src), zap.Error(err))
		}
	}
	return dst, nil
}

// readTail 读取文件最后 maxLines 行。只保留窗口内的行，
// 末尾没有换行的半行也作为最后一个元素返回。
func readTail(path string, maxLines int) []string {
	lines := []string{}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn("日志文件不存在", zap.String("path", path))
		} else {
			logger.Error("打开日志文件失败", zap.String("path", path), zap.Error(err))
		}
		return lines
	}
	defer f.Close()

	if maxLines == 0 {
		return lines
	}

	var ring *window
	if maxLines > 0 {
		ring = newWindow(maxLines)
	}

	r := bufio.NewReader(f)
	for {
		line, err := r.ReadString('\n')
		if len(line) > 0 {
			line = strings.TrimSuffix(line, "\n")
			line = strings.TrimSuffix(line, "\r")
			if ring != nil {
				ring.push(line)
			} else {
				lines = append(lines, line)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			logger.Error("读取日志文件失败", zap.String("path", path), zap.Error(err))
			return []string{}
		}
	}

	if ring != nil {
		return ring.slice()
	}
	return lines
}

// window 固定容量的环形缓冲，保存最近写入的 n 行
type window struct {
	buf   []string
	start int
	size  int
}

func newWindow(n int) *window {
	return &window{buf: make([]string, n)}
}

func (w *window) push(s string) {
	if w.size < len(w.buf) {
		w.buf[(w.start+w.size)%len(w.buf)] = s
		w.size++
		return
	}
	w.buf[w.start] = s
	w.start = (w.start + 1) % len(w.buf)
}

func (w *window) slice() []string {
	out := make([]string, w.size)
	for i := 0; i < w.size; i++ {
		out[i] = w.buf[(w.start+i)%len(w.buf)]
	}
	return out
}
