// Package catalog 商品与订单的增删改查，审计拦截的业务对象。
package catalog

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound 记录不存在
	ErrNotFound = errors.New("not found")
	// ErrForbidden 无权访问他人订单
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidInput 参数校验失败
	ErrInvalidInput = errors.New("invalid input")
)

// Product 商品
type Product struct {
	ID          uint      `gorm:"primaryKey" json:"id" form:"id"`
	Name        string    `gorm:"size:100;not null;index" json:"name" form:"name" binding:"required,max=100"`
	Description string    `gorm:"size:500" json:"description" form:"description" binding:"max=500"`
	Price       float64   `gorm:"not null" json:"price" form:"price" binding:"gte=0"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TableName 表名
func (Product) TableName() string {
	return "products"
}

// String 审计参数中的展示形式
func (p Product) String() string {
	return fmt.Sprintf("Product{id=%d, name='%s', price=%.2f}", p.ID, p.Name, p.Price)
}

// Order 订单
type Order struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OrderDate time.Time `gorm:"not null" json:"orderDate"`
	UserID    uint      `gorm:"index;not null" json:"userId"`
	ProductID uint      `gorm:"index;not null" json:"productId"`
	Product   *Product  `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	Comments  string    `gorm:"size:500" json:"comments"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName 表名
func (Order) TableName() string {
	return "orders"
}

func (o Order) String() string {
	return fmt.Sprintf("Order{id=%d, productId=%d, quantity=%d}", o.ID, o.ProductID, o.Quantity)
}

// Actor 订单权限判断所需的调用者信息
type Actor struct {
	UserID uint
	Admin  bool
}

// owns 管理员或订单所有者
func (a Actor) owns(o *Order) bool {
	return a.Admin || (a.UserID != 0 && a.UserID == o.UserID)
}
