package orders

import (
	"context"
	"net/http"

	response "ordermgmt/api/handlers/common"
	"ordermgmt/internal/audit"
	"ordermgmt/internal/auth"
	"ordermgmt/internal/catalog"

	"github.com/gin-gonic/gin"
)

// Owner 审计入口名
const Owner = "OrderController"

// OrderHandler 订单 REST 接口
type OrderHandler struct {
	service *catalog.Service
	users   response.UserLookup
	audit   *audit.Interceptor
}

// NewOrderHandler 创建处理器
func NewOrderHandler(service *catalog.Service, users response.UserLookup, interceptor *audit.Interceptor) *OrderHandler {
	return &OrderHandler{service: service, users: users, audit: interceptor}
}

// ListOrders 全部订单，路由层限制为管理员
// @Summary 全部订单
// @Tags Orders
// @Security BearerAuth
// @Produce json
// @Success 200 {array} catalog.Order
// @Router /api/orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	orders, err := audit.Observe(c.Request.Context(), h.audit, auth.GetPrincipal(c),
		audit.Call{Owner: Owner, Method: "getAllOrders"},
		h.service.ListOrders)
	if err != nil {
		response.FailWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// MyOrders 当前用户的订单
func (h *OrderHandler) MyOrders(c *gin.Context) {
	principal := auth.GetPrincipal(c)
	actor, ok := h.actor(c, principal)
	if !ok {
		return
	}
	orders, err := audit.Observe(c.Request.Context(), h.audit, principal,
		audit.Call{Owner: Owner, Method: "getMyOrders", Args: []any{principal}},
		func(ctx context.Context) ([]catalog.Order, error) {
			if actor.UserID == 0 {
				return nil, catalog.ErrForbidden
			}
			return h.service.OrdersByUser(ctx, actor.UserID)
		})
	if err != nil {
		response.FailWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// GetOrder 订单详情，非管理员只能查看自己的订单
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := response.ParseID(c, "id")
	if !ok {
		return
	}
	principal := auth.GetPrincipal(c)
	actor, ok := h.actor(c, principal)
	if !ok {
		return
	}
	order, err := audit.Observe(c.Request.Context(), h.audit, principal,
		audit.Call{Owner: Owner, Method: "getOrderById", Args: []any{id, principal}},
		func(ctx context.Context) (*catalog.Order, error) {
			return h.service.GetOrder(ctx, id, actor)
		})
	if err != nil {
		response.FailWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// CreateOrder 为当前用户下单
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req catalog.Order
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	principal := auth.GetPrincipal(c)
	actor, ok := h.actor(c, principal)
	if !ok {
		return
	}
	order, err := audit.Observe(c.Request.Context(), h.audit, principal,
		audit.Call{Owner: Owner, Method: "createOrder", Args: []any{&req, principal}},
		func(ctx context.Context) (*catalog.Order, error) {
			return h.service.CreateOrder(ctx, actor, &req)
		})
	if err != nil {
		response.FailWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// UpdateOrder 更新订单
func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	id, ok := response.ParseID(c, "id")
	if !ok {
		return
	}
	var req catalog.Order
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	principal := auth.GetPrincipal(c)
	actor, ok := h.actor(c, principal)
	if !ok {
		return
	}
	order, err := audit.Observe(c.Request.Context(), h.audit, principal,
		audit.Call{Owner: Owner, Method: "updateOrder", Args: []any{id, &req, principal}},
		func(ctx context.Context) (*catalog.Order, error) {
			return h.service.UpdateOrder(ctx, id, actor, &req)
		})
	if err != nil {
		response.FailWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// DeleteOrder 删除订单
func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	id, ok := response.ParseID(c, "id")
	if !ok {
		return
	}
	principal := auth.GetPrincipal(c)
	actor, ok := h.actor(c, principal)
	if !ok {
		return
	}
	err := audit.ObserveErr(c.Request.Context(), h.audit, principal,
		audit.Call{Owner: Owner, Method: "deleteOrder", Args: []any{id, principal}},
		func(ctx context.Context) error {
			return h.service.DeleteOrder(ctx, id, actor)
		})
	if err != nil {
		response.FailWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *OrderHandler) actor(c *gin.Context, principal *auth.Principal) (catalog.Actor, bool) {
	actor, err := response.ResolveActor(c.Request.Context(), h.users, principal)
	if err != nil {
		response.FailWithError(c, err)
		return actor, false
	}
	return actor, true
}
