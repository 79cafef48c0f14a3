// Package analytics 将审计记录聚合为按类型、按天、按小时的计数。
package analytics

import (
	"context"
	"fmt"
	"time"

	"ordermgmt/internal/audit"
)

// DayKeyLayout 按天分组的键格式
const DayKeyLayout = "2006-01-02"

// HoursPerDay 按小时统计的桶数
const HoursPerDay = 24

// Source 聚合所需的审计记录查询
type Source interface {
	CountByType(ctx context.Context) ([]audit.TypeCount, error)
	TimestampsBetween(ctx context.Context, start, end time.Time) ([]time.Time, error)
}

// Reader 仪表盘读取的统计接口
type Reader interface {
	CountByType(ctx context.Context) (map[string]int64, error)
	CountByDay(ctx context.Context, start, end time.Time) (map[string]int64, error)
	CountByHour(ctx context.Context) (map[int]int64, error)
}

// Aggregator 审计记录统计
type Aggregator struct {
	source Source
	loc    *time.Location
	now    func() time.Time
}

// Option Aggregator 配置项
type Option func(*Aggregator)

// WithLocation 按天、按小时分桶使用的时区
func WithLocation(loc *time.Location) Option {
	return func(a *Aggregator) {
		if loc != nil {
			a.loc = loc
		}
	}
}

// WithClock 替换时间源
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		a.now = now
	}
}

// NewAggregator 创建统计器，默认 UTC
func NewAggregator(source Source, opts ...Option) *Aggregator {
	a := &Aggregator{source: source, loc: time.UTC, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Location 分桶时区
func (a *Aggregator) Location() *time.Location {
	return a.loc
}

// CountByType 全部记录按查询类型计数
func (a *Aggregator) CountByType(ctx context.Context) (map[string]int64, error) {
	counts, err := a.source.CountByType(ctx)
	if err != nil {
		return nil, fmt.Errorf("按类型统计失败: %w", err)
	}

	result := make(map[string]int64, len(counts))
	for _, c := range counts {
		result[c.QueryType] += c.Count
	}
	return result, nil
}

// CountByDay 统计 [start, end] 内的记录，按日期 (YYYY-MM-DD) 分组。
// start 晚于 end 时返回空结果。
func (a *Aggregator) CountByDay(ctx context.Context, start, end time.Time) (map[string]int64, error) {
	result := make(map[string]int64)
	if start.After(end) {
		return result, nil
	}

	timestamps, err := a.source.TimestampsBetween(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("按天统计失败: %w", err)
	}
	for _, ts := range timestamps {
		result[ts.In(a.loc).Format(DayKeyLayout)]++
	}
	return result, nil
}

// CountByHour 统计当前时刻之前 24 小时内的记录，按小时 (0-23) 分组
func (a *Aggregator) CountByHour(ctx context.Context) (map[int]int64, error) {
	return a.CountByHourAt(ctx, a.now())
}

// CountByHourAt 统计 now 之前 24 小时内的记录。结果总是包含 24 个桶。
func (a *Aggregator) CountByHourAt(ctx context.Context, now time.Time) (map[int]int64, error) {
	timestamps, err := a.source.TimestampsBetween(ctx, now.Add(-24*time.Hour), now)
	if err != nil {
		return nil, fmt.Errorf("按小时统计失败: %w", err)
	}

	result := ZeroHours()
	for _, ts := range timestamps {
		result[ts.In(a.loc).Hour()]++
	}
	return result, nil
}

// DayWindow 返回截至今天（含）的最近 days 天：[今天-(days-1) 00:00, 今天结束]
func (a *Aggregator) DayWindow(days int) (time.Time, time.Time) {
	if days < 1 {
		days = 1
	}
	now := a.now().In(a.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, a.loc)
	start := today.AddDate(0, 0, -(days - 1))
	end := today.AddDate(0, 0, 1).Add(-time.Nanosecond)
	return start, end
}

// ZeroHours 预置 24 个值为 0 的小时桶
func ZeroHours() map[int]int64 {
	hours := make(map[int]int64, HoursPerDay)
	for h := 0; h < HoursPerDay; h++ {
		hours[h] = 0
	}
	return hours
}
