package catalog

import (
	"context"
	"fmt"

	"ordermgmt/internal/auth"
	"ordermgmt/internal/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var sampleProducts = []Product{
	{Name: "Laptop", Description: "High-performance laptop with SSD", Price: 1200},
	{Name: "Smartphone", Description: "Latest model with advanced camera", Price: 800},
	{Name: "Tablet", Description: "10-inch display with long battery life", Price: 350},
	{Name: "Monitor", Description: "27-inch 4K display", Price: 450},
	{Name: "Keyboard", Description: "Mechanical gaming keyboard", Price: 150},
	{Name: "Mouse", Description: "Wireless ergonomic mouse", Price: 50},
	{Name: "Headphones", Description: "Noise-cancelling wireless headphones", Price: 200},
	{Name: "Printer", Description: "All-in-one printer with scanner", Price: 300},
	{Name: "External Hard Drive", Description: "1TB portable storage", Price: 80},
	{Name: "USB Flash Drive", Description: "64GB high-speed USB 3.0", Price: 25},
}

// Seed 空库时写入示例商品、默认用户（含初始密码）和示例订单，已有数据的部分跳过
func Seed(ctx context.Context, db *gorm.DB, users *auth.UserDirectory) error {
	var productCount int64
	if err := db.WithContext(ctx).Model(&Product{}).Count(&productCount).Error; err != nil {
		return fmt.Errorf("统计商品失败: %w", err)
	}
	if productCount == 0 {
		products := make([]Product, len(sampleProducts))
		copy(products, sampleProducts)
		if err := db.WithContext(ctx).Create(&products).Error; err != nil {
			return fmt.Errorf("写入示例商品失败: %w", err)
		}
		logger.Info("已写入示例商品", zap.Int("count", len(products)))
	}

	user, err := users.Ensure(ctx, "user", "USER")
	if err != nil {
		return err
	}
	admin, err := users.Ensure(ctx, "admin", "USER", auth.RoleAdmin)
	if err != nil {
		return err
	}
	api, err := users.Ensure(ctx, "api", "API_USER")
	if err != nil {
		return err
	}
	for _, u := range []struct {
		user     *auth.User
		password string
	}{{user, "password"}, {admin, "admin"}, {api, "api123"}} {
		if u.user.Password != "" {
			continue
		}
		if err := users.SetPassword(ctx, u.user.Username, u.password); err != nil {
			return err
		}
	}

	var orderCount int64
	if err := db.WithContext(ctx).Model(&Order{}).Count(&orderCount).Error; err != nil {
		return fmt.Errorf("统计订单失败: %w", err)
	}
	if orderCount > 0 {
		return nil
	}

	var first []Product
	if err := db.WithContext(ctx).Order("id").Limit(3).Find(&first).Error; err != nil {
		return fmt.Errorf("查询商品失败: %w", err)
	}
	if len(first) < 3 {
		return nil
	}

	orders := []Order{
		{OrderDate: today(), UserID: user.ID, ProductID: first[0].ID, Quantity: 1, Comments: "Need urgent delivery"},
		{OrderDate: today(), UserID: user.ID, ProductID: first[1].ID, Quantity: 2, Comments: "Gift package please"},
		{OrderDate: today(), UserID: admin.ID, ProductID: first[2].ID, Quantity: 1, Comments: "For testing purposes"},
	}
	if err := db.WithContext(ctx).Create(&orders).Error; err != nil {
		return fmt.Errorf("写入示例订单失败: %w", err)
	}
	logger.Info("已写入示例订单", zap.Int("count", len(orders)))
	return nil
}
