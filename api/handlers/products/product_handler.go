package products

import (
	"context"
	"net/http"
	"strconv"

	response "ordermgmt/api/handlers/common"
	"ordermgmt/internal/audit"
	"ordermgmt/internal/auth"
	"ordermgmt/internal/catalog"

	"github.com/gin-gonic/gin"
)

// Owner 审计入口名
const Owner = "ProductController"

// ProductHandler 商品 REST 接口
type ProductHandler struct {
	service *catalog.Service
	audit   *audit.Interceptor
}

// NewProductHandler 创建处理器
func NewProductHandler(service *catalog.Service, interceptor *audit.Interceptor) *ProductHandler {
	return &ProductHandler{service: service, audit: interceptor}
}

// ListProducts 商品列表
// @Summary 商品列表
// @Tags Products
// @Produce json
// @Success 200 {array} catalog.Product
// @Router /api/products [get]
func (h *ProductHandler) ListProducts(c *gin.Context) {
	products, err := audit.Observe(c.Request.Context(), h.audit, auth.GetPrincipal(c),
		audit.Call{Owner: Owner, Method: "getAllProducts"},
		h.service.ListProducts)
	if err != nil {
		response.FailWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// GetProduct 商品详情
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := response.ParseID(c, "id")
	if !ok {
		return
	}
	product, err := audit.Observe(c.Request.Context(), h.audit, auth.GetPrincipal(c),
		audit.Call{Owner: Owner, Method: "getProductById", Args: []any{id}},
		func(ctx context.Context) (*catalog.Product, error) {
			return h.service.GetProduct(ctx, id)
		})
	if err != nil {
		response.FailWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// SearchProducts 按名称搜索
func (h *ProductHandler) SearchProducts(c *gin.Context) {
	name := c.Query("name")
	products, err := audit.Observe(c.Request.Context(), h.audit, auth.GetPrincipal(c),
		audit.Call{Owner: Owner, Method: "searchProducts", Args: []any{name}},
		func(ctx context.Context) ([]catalog.Product, error) {
			return h.service.SearchProducts(ctx, name)
		})
	if err != nil {
		response.FailWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// PriceLessThan 价格低于 price 的商品
func (h *ProductHandler) PriceLessThan(c *gin.Context) {
	h.byPrice(c, "getProductsByPriceLessThan", h.service.ProductsCheaperThan)
}

// PriceGreaterThan 价格高于 price 的商品
func (h *ProductHandler) PriceGreaterThan(c *gin.Context) {
	h.byPrice(c, "getProductsByPriceGreaterThan", h.service.ProductsPricierThan)
}

func (h *ProductHandler) byPrice(c *gin.Context, method string, query func(context.Context, float64) ([]catalog.Product, error)) {
	price, err := strconv.ParseFloat(c.Query("price"), 64)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "无效的价格: "+c.Query("price"))
		return
	}
	products, err := audit.Observe(c.Request.Context(), h.audit, auth.GetPrincipal(c),
		audit.Call{Owner: Owner, Method: method, Args: []any{price}},
		func(ctx context.Context) ([]catalog.Product, error) {
			return query(ctx, price)
		})
	if err != nil {
		response.FailWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// CreateProduct 新建商品
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req catalog.Product
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	product, err := audit.Observe(c.Request.Context(), h.audit, auth.GetPrincipal(c),
		audit.Call{Owner: Owner, Method: "createProduct", Args: []any{&req}},
		func(ctx context.Context) (*catalog.Product, error) {
			return h.service.CreateProduct(ctx, &req)
		})
	if err != nil {
		response.FailWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

// UpdateProduct 更新商品
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, ok := response.ParseID(c, "id")
	if !ok {
		return
	}
	var req catalog.Product
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	product, err := audit.Observe(c.Request.Context(), h.audit, auth.GetPrincipal(c),
		audit.Call{Owner: Owner, Method: "updateProduct", Args: []any{id, &req}},
		func(ctx context.Context) (*catalog.Product, error) {
			return h.service.UpdateProduct(ctx, id, &req)
		})
	if err != nil {
		response.FailWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// DeleteProduct 删除商品
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, ok := response.ParseID(c, "id")
	if !ok {
		return
	}
	err := audit.ObserveErr(c.Request.Context(), h.audit, auth.GetPrincipal(c),
		audit.Call{Owner: Owner, Method: "deleteProduct", Args: []any{id}},
		func(ctx context.Context) error {
			return h.service.DeleteProduct(ctx, id)
		})
	if err != nil {
		response.FailWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
