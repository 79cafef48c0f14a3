// Package audit 记录业务调用的审计信息：谁在什么时间调用了哪类操作。
package audit

import "time"

// 默认查询类型
const (
	QueryTypeProduct = "PRODUCT"
	QueryTypeOrder   = "ORDER"
	QueryTypeWeb     = "WEB"
)

// Record 一次成功调用对应的审计记录，创建后不再修改
type Record struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	QueryType string    `gorm:"size:50;index;not null" json:"queryType"`
	Detail    string    `gorm:"size:1000" json:"detail"`
	UserID    uint      `gorm:"index;not null" json:"userId"`
	Timestamp time.Time `gorm:"column:queried_at;index;not null" json:"timestamp"`
}

// TableName 表名
func (Record) TableName() string {
	return "audit_records"
}

// TypeCount 按查询类型的分组计数
type TypeCount struct {
	QueryType string `json:"queryType"`
	Count     int64  `json:"count"`
}
