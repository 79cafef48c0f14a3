package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Service 商品与订单服务
type Service struct {
	db *gorm.DB
}

// NewService 创建服务
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// ListProducts 全部商品
func (s *Service) ListProducts(ctx context.Context) ([]Product, error) {
	products := []Product{}
	if err := s.db.WithContext(ctx).Order("id").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("查询商品失败: %w", err)
	}
	return products, nil
}

// GetProduct 按 ID 查询商品
func (s *Service) GetProduct(ctx context.Context, id uint) (*Product, error) {
	var product Product
	if err := s.db.WithContext(ctx).First(&product, id).Error; err != nil {
		return nil, wrapNotFound(err, "查询商品失败")
	}
	return &product, nil
}

// SearchProducts 按名称模糊查询（不区分大小写）
func (s *Service) SearchProducts(ctx context.Context, name string) ([]Product, error) {
	products := []Product{}
	pattern := "%" + strings.ToLower(strings.TrimSpace(name)) + "%"
	err := s.db.WithContext(ctx).Where("LOWER(name) LIKE ?", pattern).Order("id").Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("搜索商品失败: %w", err)
	}
	return products, nil
}

// ProductsCheaperThan 价格低于 price 的商品
func (s *Service) ProductsCheaperThan(ctx context.Context, price float64) ([]Product, error) {
	return s.productsWhere(ctx, "price < ?", price)
}

// ProductsPricierThan 价格高于 price 的商品
func (s *Service) ProductsPricierThan(ctx context.Context, price float64) ([]Product, error) {
	return s.productsWhere(ctx, "price > ?", price)
}

func (s *Service) productsWhere(ctx context.Context, cond string, args ...any) ([]Product, error) {
	products := []Product{}
	if err := s.db.WithContext(ctx).Where(cond, args...).Order("price, id").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("按价格查询商品失败: %w", err)
	}
	return products, nil
}

// CreateProduct 新建商品
func (s *Service) CreateProduct(ctx context.Context, p *Product) (*Product, error) {
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	p.ID = 0
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, fmt.Errorf("创建商品失败: %w", err)
	}
	return p, nil
}

// UpdateProduct 更新商品
func (s *Service) UpdateProduct(ctx context.Context, id uint, p *Product) (*Product, error) {
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	existing, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	existing.Name = p.Name
	existing.Description = p.Description
	existing.Price = p.Price
	if err := s.db.WithContext(ctx).Save(existing).Error; err != nil {
		return nil, fmt.Errorf("更新商品失败: %w", err)
	}
	return existing, nil
}

// DeleteProduct 删除商品
func (s *Service) DeleteProduct(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&Product{}, id)
	if result.Error != nil {
		return fmt.Errorf("删除商品失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListOrders 全部订单（管理员）
func (s *Service) ListOrders(ctx context.Context) ([]Order, error) {
	orders := []Order{}
	if err := s.db.WithContext(ctx).Preload("Product").Order("id").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("查询订单失败: %w", err)
	}
	return orders, nil
}

// OrdersByUser 某个用户的订单
func (s *Service) OrdersByUser(ctx context.Context, userID uint) ([]Order, error) {
	orders := []Order{}
	err := s.db.WithContext(ctx).Preload("Product").Where("user_id = ?", userID).Order("id").Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("查询用户订单失败: %w", err)
	}
	return orders, nil
}

// GetOrder 查询订单，非管理员只能查看自己的订单
func (s *Service) GetOrder(ctx context.Context, id uint, actor Actor) (*Order, error) {
	var order Order
	if err := s.db.WithContext(ctx).Preload("Product").First(&order, id).Error; err != nil {
		return nil, wrapNotFound(err, "查询订单失败")
	}
	if !actor.owns(&order) {
		return nil, ErrForbidden
	}
	return &order, nil
}

// CreateOrder 为调用者创建订单
func (s *Service) CreateOrder(ctx context.Context, actor Actor, o *Order) (*Order, error) {
	if actor.UserID == 0 {
		return nil, ErrForbidden
	}
	if err := s.validateOrder(ctx, o); err != nil {
		return nil, err
	}

	o.ID = 0
	o.UserID = actor.UserID
	o.Product = nil
	if o.OrderDate.IsZero() {
		o.OrderDate = today()
	}
	if err := s.db.WithContext(ctx).Create(o).Error; err != nil {
		return nil, fmt.Errorf("创建订单失败: %w", err)
	}
	return o, nil
}

// UpdateOrder 更新订单，所有者不变
func (s *Service) UpdateOrder(ctx context.Context, id uint, actor Actor, o *Order) (*Order, error) {
	existing, err := s.GetOrder(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if err := s.validateOrder(ctx, o); err != nil {
		return nil, err
	}

	existing.ProductID = o.ProductID
	existing.Quantity = o.Quantity
	existing.Comments = o.Comments
	if !o.OrderDate.IsZero() {
		existing.OrderDate = o.OrderDate
	}
	existing.Product = nil
	if err := s.db.WithContext(ctx).Save(existing).Error; err != nil {
		return nil, fmt.Errorf("更新订单失败: %w", err)
	}
	return existing, nil
}

// DeleteOrder 删除订单
func (s *Service) DeleteOrder(ctx context.Context, id uint, actor Actor) error {
	if _, err := s.GetOrder(ctx, id, actor); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(&Order{}, id).Error; err != nil {
		return fmt.Errorf("删除订单失败: %w", err)
	}
	return nil
}

func validateProduct(p *Product) error {
	if p == nil || strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: 商品名称不能为空", ErrInvalidInput)
	}
	if p.Price < 0 {
		return fmt.Errorf("%w: 价格不能为负数", ErrInvalidInput)
	}
	return nil
}

func (s *Service) validateOrder(ctx context.Context, o *Order) error {
	if o == nil || o.Quantity <= 0 {
		return fmt.Errorf("%w: 数量必须为正数", ErrInvalidInput)
	}
	if _, err := s.GetProduct(ctx, o.ProductID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: 商品不存在", ErrInvalidInput)
		}
		return err
	}
	return nil
}

func wrapNotFound(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func today() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
