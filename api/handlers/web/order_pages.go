package web

import (
	"context"
	"net/http"

	response "ordermgmt/api/handlers/common"
	"ordermgmt/internal/audit"
	"ordermgmt/internal/auth"
	"ordermgmt/internal/catalog"

	"github.com/gin-gonic/gin"
)

// OrderPagesOwner 订单页面的审计入口名
const OrderPagesOwner = "OrderWebController"

// OrderPages 订单页面，管理员可见全部订单
type OrderPages struct {
	service *catalog.Service
	users   response.UserLookup
	audit   *audit.Interceptor
}

// NewOrderPages 创建订单页面处理器
func NewOrderPages(service *catalog.Service, users response.UserLookup, interceptor *audit.Interceptor) *OrderPages {
	return &OrderPages{service: service, users: users, audit: interceptor}
}

// orderForm 订单表单。ID 为 0 表示新建
type orderForm struct {
	ID        uint   `form:"id" json:"id"`
	ProductID uint   `form:"productId" json:"productId" binding:"required"`
	Quantity  int    `form:"quantity" json:"quantity" binding:"required,gt=0"`
	Comments  string `form:"comments" json:"comments" binding:"max=500"`
}

func (f orderForm) order() *catalog.Order {
	return &catalog.Order{ID: f.ID, ProductID: f.ProductID, Quantity: f.Quantity, Comments: f.Comments}
}

func (p *OrderPages) call(method string, args ...any) audit.Call {
	return audit.Call{Owner: OrderPagesOwner, Method: method, Args: args}
}

// List 订单列表页
func (p *OrderPages) List(c *gin.Context) {
	principal := auth.GetPrincipal(c)
	actor, ok := p.actor(c, principal)
	if !ok {
		return
	}
	orders, err := audit.Observe(c.Request.Context(), p.audit, principal, p.call("getAllOrders", principal),
		func(ctx context.Context) ([]catalog.Order, error) {
			if actor.Admin {
				return p.service.ListOrders(ctx)
			}
			if actor.UserID == 0 {
				return nil, catalog.ErrForbidden
			}
			return p.service.OrdersByUser(ctx, actor.UserID)
		})
	if err != nil {
		response.FailWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, Page{View: "orders/list", Data: gin.H{"orders": orders, "isAdmin": actor.Admin}})
}

// Edit 编辑表单
func (p *OrderPages) Edit(c *gin.Context) {
	id, ok := response.ParseID(c, "id")
	if !ok {
		return
	}
	principal := auth.GetPrincipal(c)
	actor, ok := p.actor(c, principal)
	if !ok {
		return
	}
	order, err := audit.Observe(c.Request.Context(), p.audit, principal, p.call("showEditOrderForm", id, principal),
		func(ctx context.Context) (*catalog.Order, error) {
			return p.service.GetOrder(ctx, id, actor)
		})
	if err != nil {
		response.FailWithError(c, err)
		return
	}
	products, err := p.service.ListProducts(c.Request.Context())
	if err != nil {
		response.FailWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, Page{View: "orders/form", Data: gin.H{"order": order, "products": products}})
}

// Save 表单提交：无 ID 时新建，否则更新
func (p *OrderPages) Save(c *gin.Context) {
	var form orderForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, Page{View: "orders/form", Data: gin.H{"order": form, "errors": err.Error()}})
		return
	}
	principal := auth.GetPrincipal(c)
	actor, ok := p.actor(c, principal)
	if !ok {
		return
	}

	order := form.order()
	message := "Order created successfully!"
	if form.ID != 0 {
		message = "Order updated successfully!"
	}
	_, err := audit.Observe(c.Request.Context(), p.audit, principal, p.call("saveOrder", order, principal),
		func(ctx context.Context) (*catalog.Order, error) {
			if form.ID == 0 {
				return p.service.CreateOrder(ctx, actor, order)
			}
			return p.service.UpdateOrder(ctx, form.ID, actor, order)
		})
	if err != nil {
		response.FailWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, Page{Redirect: "/web/orders", SuccessMessage: message})
}

// Delete 删除订单
func (p *OrderPages) Delete(c *gin.Context) {
	id, ok := response.ParseID(c, "id")
	if !ok {
		return
	}
	principal := auth.GetPrincipal(c)
	actor, ok := p.actor(c, principal)
	if !ok {
		return
	}
	err := audit.ObserveErr(c.Request.Context(), p.audit, principal, p.call("deleteOrder", id, principal),
		func(ctx context.Context) error {
			return p.service.DeleteOrder(ctx, id, actor)
		})
	if err != nil {
		response.FailWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, Page{Redirect: "/web/orders", SuccessMessage: "Order deleted successfully!"})
}

func (p *OrderPages) actor(c *gin.Context, principal *auth.Principal) (catalog.Actor, bool) {
	actor, err := response.ResolveActor(c.Request.Context(), p.users, principal)
	if err != nil {
		response.FailWithError(c, err)
		return actor, false
	}
	return actor, true
}
