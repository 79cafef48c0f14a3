package api

import (
	"ordermgmt/internal/auth"
	"ordermgmt/internal/infra"
	"ordermgmt/internal/metrics"
	"ordermgmt/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter 创建 Gin 路由并注册所有路由
func SetupRouter(container *AppContainer) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware(),
		middleware.RequestLogger(),
		metrics.PrometheusMiddleware(),
		CORS(container.Config.CORS),
		auth.AuthMiddleware(container.JWTService),
	)

	RegisterRoutes(router, container.InitHandlers())
	return router
}

// RegisterRoutes 注册所有路由
func RegisterRoutes(router *gin.Engine, h *Handlers) {
	// 系统
	router.GET("/health", HealthCheck())
	router.GET("/ready", ReadinessCheck(infra.HealthCheck, infra.HealthCheckRedis))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 认证（公开）
	authGroup := router.Group("/api/auth")
	{
		authGroup.POST("/login", h.Auth.Login)
		authGroup.GET("/me", h.Auth.Me)
	}

	registerProductRoutes(router, h)
	registerOrderRoutes(router, h)
	registerWebRoutes(router, h)
	registerAdminRoutes(router, h)
}

// registerProductRoutes 商品 API，读公开、写需管理员
func registerProductRoutes(router *gin.Engine, h *Handlers) {
	adminGuard := auth.RequireRole(auth.RoleAdmin)

	g := router.Group("/api/products")
	{
		g.GET("", h.Products.ListProducts)
		g.GET("/search", h.Products.SearchProducts)
		g.GET("/filter/price-less-than", h.Products.PriceLessThan)
		g.GET("/filter/price-greater-than", h.Products.PriceGreaterThan)
		g.GET("/:id", h.Products.GetProduct)
		g.POST("", adminGuard, h.Products.CreateProduct)
		g.PUT("/:id", adminGuard, h.Products.UpdateProduct)
		g.DELETE("/:id", adminGuard, h.Products.DeleteProduct)
	}
}

// registerOrderRoutes 订单 API，需登录
func registerOrderRoutes(router *gin.Engine, h *Handlers) {
	g := router.Group("/api/orders", auth.RequireAuth())
	{
		g.GET("", auth.RequireRole(auth.RoleAdmin), h.Orders.ListOrders)
		g.GET("/my-orders", h.Orders.MyOrders)
		g.GET("/:id", h.Orders.GetOrder)
		g.POST("", h.Orders.CreateOrder)
		g.PUT("/:id", h.Orders.UpdateOrder)
		g.DELETE("/:id", h.Orders.DeleteOrder)
	}
}

// registerWebRoutes 页面入口（JSON 视图模型）
func registerWebRoutes(router *gin.Engine, h *Handlers) {
	router.GET("/web", h.ProductPages.Home)

	productPages := router.Group("/web/products")
	{
		productPages.GET("", h.ProductPages.List)
		productPages.GET("/search", h.ProductPages.Search)
		productPages.GET("/edit/:id", auth.RequireAuth(), h.ProductPages.Edit)
		productPages.POST("/save", auth.RequireRole(auth.RoleAdmin), h.ProductPages.Save)
		productPages.POST("/delete/:id", auth.RequireRole(auth.RoleAdmin), h.ProductPages.Delete)
	}

	orderPages := router.Group("/web/orders", auth.RequireAuth())
	{
		orderPages.GET("", h.OrderPages.List)
		orderPages.GET("/edit/:id", h.OrderPages.Edit)
		orderPages.POST("/save", h.OrderPages.Save)
		orderPages.POST("/delete/:id", h.OrderPages.Delete)
	}
}

// registerAdminRoutes 管理页面，需管理员
func registerAdminRoutes(router *gin.Engine, h *Handlers) {
	admin := router.Group("/admin", auth.RequireRole(auth.RoleAdmin))
	{
		admin.GET("/logs", h.Logs.ViewCurrentLogs)
		admin.GET("/logs/archived", h.Logs.ViewArchivedLogs)
		admin.POST("/logs/rotate", h.Logs.RotateLogs)
		admin.GET("/dashboard", h.Dashboard.GetDashboard)
		admin.GET("/audit/records", h.Records.ListRecords)
	}
}
