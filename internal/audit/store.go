package audit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"
)

// ErrInvalidRecord 记录缺少必填字段或已有 ID
var ErrInvalidRecord = errors.New("invalid audit record")

// RecordStore 审计记录持久化，时间统一以 UTC 存储
type RecordStore struct {
	db  *gorm.DB
	now func() time.Time

	mu   sync.Mutex
	last time.Time
}

// StoreOption RecordStore 配置项
type StoreOption func(*RecordStore)

// WithStoreClock 替换时间源
func WithStoreClock(now func() time.Time) StoreOption {
	return func(s *RecordStore) {
		s.now = now
	}
}

// NewRecordStore 创建审计记录存储
func NewRecordStore(db *gorm.DB, opts ...StoreOption) *RecordStore {
	s := &RecordStore{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save 写入记录并分配 ID 与时间戳。
// 时间戳在进程内单调不减，时钟回拨时沿用上一次的值。
func (s *RecordStore) Save(ctx context.Context, rec *Record) (*Record, error) {
	if rec == nil || rec.ID != 0 || rec.QueryType == "" || rec.UserID == 0 {
		return nil, ErrInvalidRecord
	}

	rec.Timestamp = s.nextTimestamp()
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, fmt.Errorf("保存审计记录失败: %w", err)
	}
	return rec, nil
}

func (s *RecordStore) nextTimestamp() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.now().UTC()
	if ts.Before(s.last) {
		ts = s.last
	}
	s.last = ts
	return ts
}

// FindByActor 查询某个用户的记录，按时间倒序，limit <= 0 表示不限
func (s *RecordStore) FindByActor(ctx context.Context, userID uint, limit int) ([]Record, error) {
	var records []Record
	q := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("queried_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("按用户查询审计记录失败: %w", err)
	}
	return records, nil
}

// FindByTimestampRange 查询 [start, end] 闭区间内的记录，按时间倒序
func (s *RecordStore) FindByTimestampRange(ctx context.Context, start, end time.Time, limit int) ([]Record, error) {
	records := []Record{}
	if start.After(end) {
		return records, nil
	}

	q := s.db.WithContext(ctx).
		Where("queried_at >= ? AND queried_at <= ?", start.UTC(), end.UTC()).
		Order("queried_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("按时间查询审计记录失败: %w", err)
	}
	return records, nil
}

// CountByType 按查询类型分组计数
func (s *RecordStore) CountByType(ctx context.Context) ([]TypeCount, error) {
	var counts []TypeCount
	err := s.db.WithContext(ctx).
		Model(&Record{}).
		Select("query_type, COUNT(*) AS count").
		Group("query_type").
		Order("query_type").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("按类型统计审计记录失败: %w", err)
	}
	return counts, nil
}

// TimestampsBetween 返回 [start, end] 内所有记录的时间戳（UTC），
// 按天或按小时分桶由调用方在指定时区下完成。
func (s *RecordStore) TimestampsBetween(ctx context.Context, start, end time.Time) ([]time.Time, error) {
	timestamps := []time.Time{}
	if start.After(end) {
		return timestamps, nil
	}

	err := s.db.WithContext(ctx).
		Model(&Record{}).
		Where("queried_at >= ? AND queried_at <= ?", start.UTC(), end.UTC()).
		Order("queried_at").
		Pluck("queried_at", &timestamps).Error
	if err != nil {
		return nil, fmt.Errorf("查询审计时间戳失败: %w", err)
	}
	return timestamps, nil
}
