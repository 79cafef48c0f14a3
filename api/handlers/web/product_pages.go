// Package web 页面入口。原页面渲染改为返回 JSON 视图模型：
// view 为页面名，重定向以 redirect 字段表示。
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

// ProductPagesOwner 商品页面的审计入口名
const ProductPagesOwner = "WebController"

// Page 视图模型
type Page struct {
	View           string `json:"view,omitempty"`
	Redirect       string `json:"redirect,omitempty"`
	SuccessMessage string `json:"successMessage,omitempty"`
	Data           gin.H  `json:"data,omitempty"`
}

// ProductPages 商品页面
type ProductPages struct {
	service *catalog.Service
	audit   *audit.Interceptor
}

// NewProductPages 创建商品页面处理器
func NewProductPages(service *catalog.Service, interceptor *audit.Interceptor) *ProductPages {
	return &ProductPages{service: service, audit: interceptor}
}

func (p *ProductPages) call(method string, args ...any) audit.Call {
	return audit.Call{Owner: ProductPagesOwner, Method: method, Args: args}
}

// Home 首页
func (p *ProductPages) Home(c *gin.Context) {
	_ = audit.ObserveErr(c.Request.Context(), p.audit, auth.GetPrincipal(c), p.call("home"),
		func(context.Context) error { return nil })
	c.JSON(http.StatusOK, Page{View: "index"})
}

// List 商品列表页
func (p *ProductPages) List(c *gin.Context) {
	products, err := audit.Observe(c.Request.Context(), p.audit, auth.GetPrincipal(c), p.call("getAllProducts"),
		p.service.ListProducts)
	if err != nil {
		response.FailWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, Page{View: "products/list", Data: gin.H{"products": products}})
}

// Search 按名称搜索
func (p *ProductPages) Search(c *gin.Context) {
	name := c.Query("name")
	products, err := audit.Observe(c.Request.Context(), p.audit, auth.GetPrincipal(c), p.call("searchProducts", name),
		func(ctx context.Context) ([]catalog.Product, error) {
			return p.service.SearchProducts(ctx, name)
		})
	if err != nil {
		response.FailWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, Page{View: "products/list", Data: gin.H{"products": products, "searchTerm": name}})
}

// Edit 编辑表单
func (p *ProductPages) Edit(c *gin.Context) {
	id, ok := response.ParseID(c, "id")
	if !ok {
		return
	}
	product, err := audit.Observe(c.Request.Context(), p.audit, auth.GetPrincipal(c), p.call("showUpdateForm", id),
		func(ctx context.Context) (*catalog.Product, error) {
			return p.service.GetProduct(ctx, id)
		})
	if err != nil {
		response.FailWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, Page{View: "products/form", Data: gin.H{"product": product}})
}

// Save 表单提交：无 ID 时新建，否则更新
func (p *ProductPages) Save(c *gin.Context) {
	var form catalog.Product
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, Page{View: "products/form", Data: gin.H{"product": form, "errors": err.Error()}})
		return
	}

	message := "Product created successfully!"
	if form.ID != 0 {
		message = "Product updated successfully!"
	}
	_, err := audit.Observe(c.Request.Context(), p.audit, auth.GetPrincipal(c), p.call("saveProduct", &form),
		func(ctx context.Context) (*catalog.Product, error) {
			if form.ID == 0 {
				return p.service.CreateProduct(ctx, &form)
			}
			return p.service.UpdateProduct(ctx, form.ID, &form)
		})
	if err != nil {
		response.FailWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, Page{Redirect: "/web/products", SuccessMessage: message})
}

// Delete 删除商品
func (p *ProductPages) Delete(c *gin.Context) {
	id, ok := response.ParseID(c, "id")
	if !ok {
		return
	}
	err := audit.ObserveErr(c.Request.Context(), p.audit, auth.GetPrincipal(c), p.call("deleteProduct", id),
		func(ctx context.Context) error {
			return p.service.DeleteProduct(ctx, id)
		})
	if err != nil {
		response.FailWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, Page{Redirect: "/web/products", SuccessMessage: "Product deleted successfully!"})
}
