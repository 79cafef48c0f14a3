package auth

import (
	"context"
	"errors"
	"net/http"

	"ordermgmt/internal/auth"
	"ordermgmt/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Authenticator 用户名密码校验
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*auth.User, error)
}

// AuthHandler 认证处理器
type AuthHandler struct {
	jwtService *auth.JWTService
	users      Authenticator
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(jwtService *auth.JWTService, users Authenticator) *AuthHandler {
	return &AuthHandler{jwtService: jwtService, users: users}
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	ExpiresIn   int64    `json:"expires_in"`
	Username    string   `json:"username"`
	Roles       []string `json:"roles"`
}

// Login 用户登录
// @Summary 用户登录
// @Description 使用用户名和密码登录，获取访问令牌
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "登录请求参数"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} map[string]string "参数错误"
// @Failure 401 {object} map[string]string "认证失败"
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "参数错误: " + err.Error()})
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrBadCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "用户名或密码错误"})
			return
		}
		logger.WithContext(c.Request.Context()).Error("登录校验失败", zap.String("username", req.Username), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "登录失败"})
		return
	}

	roles := user.RoleList()
	token, err := h.jwtService.GenerateToken(user.Username, roles)
	if err != nil {
		logger.WithContext(c.Request.Context()).Error("生成令牌失败", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "生成令牌失败"})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(h.jwtService.Expiry().Seconds()),
		Username:    user.Username,
		Roles:       roles,
	})
}

// Me 当前调用者
func (h *AuthHandler) Me(c *gin.Context) {
	p := auth.GetPrincipal(c)
	c.JSON(http.StatusOK, gin.H{
		"username":      p.Username,
		"roles":         p.Roles,
		"authenticated": !p.IsAnonymous(),
	})
}
