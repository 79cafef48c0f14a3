package auth

import (
	"net/http"

	"ordermgmt/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PrincipalContextKey gin 上下文中的调用者键
const PrincipalContextKey = "principal"

// AuthMiddleware 解析 Bearer 令牌并写入调用者。
// 没有令牌或令牌无效时写入匿名调用者，是否拒绝由 RequireAuth/RequireRole 决定。
func AuthMiddleware(jwtService *JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := Anonymous()

		if header := c.GetHeader("Authorization"); header != "" {
			token := ExtractTokenFromBearer(header)
			claims, err := jwtService.ValidateToken(token)
			if err != nil {
				logger.WithContext(c.Request.Context()).Debug("令牌验证失败", zap.Error(err))
			} else {
				principal = claims.Principal()
			}
		}

		SetPrincipal(c, principal)
		c.Next()
	}
}

// RequireAuth 要求已认证
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetPrincipal(c).IsAnonymous() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "未认证"})
			return
		}
		c.Next()
	}
}

// RequireRole 角色检查中间件
func RequireRole(requiredRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := GetPrincipal(c)
		if principal.IsAnonymous() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "未认证"})
			return
		}
		if !principal.HasRole(requiredRoles...) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "角色权限不足"})
			return
		}
		c.Next()
	}
}

// SetPrincipal 同时写入 gin 上下文和请求的标准 context
func SetPrincipal(c *gin.Context, p *Principal) {
	c.Set(PrincipalContextKey, p)
	c.Request = c.Request.WithContext(WithPrincipal(c.Request.Context(), p))
}

// GetPrincipal 从 gin 上下文获取调用者，不存在时返回匿名调用者
func GetPrincipal(c *gin.Context) *Principal {
	if v, ok := c.Get(PrincipalContextKey); ok {
		if p, ok := v.(*Principal); ok && p != nil {
			return p
		}
	}
	return PrincipalFromContext(c.Request.Context())
}
