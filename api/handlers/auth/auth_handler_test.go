package auth

import (
	"net/http"
	"testing"

	"ordermgmt/api/handlers/handlertest"
	"ordermgmt/internal/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	f := handlertest.New(t)
	jwtService := auth.NewJWTService("test-secret", "ordermgmt")
	h := NewAuthHandler(jwtService, f.Users)
	f.Engine.POST("/api/auth/login", h.Login)

	t.Run("种子用户登录成功", func(t *testing.T) {
		w := f.Do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{Username: "admin", Password: "admin"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		resp := handlertest.Decode[LoginResponse](t, w)
		assert.Equal(t, "Bearer", resp.TokenType)
		assert.Equal(t, int64(7200), resp.ExpiresIn)

		claims, err := jwtService.ValidateToken(resp.AccessToken)
		require.NoError(t, err)
		assert.True(t, claims.Principal().IsAdmin())
	})

	t.Run("密码错误", func(t *testing.T) {
		w := f.Do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{Username: "user", Password: "nope"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("用户不存在", func(t *testing.T) {
		w := f.Do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{Username: "ghost", Password: "x"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("缺少参数", func(t *testing.T) {
		w := f.Do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "user"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestMe(t *testing.T) {
	f := handlertest.New(t)
	h := NewAuthHandler(auth.NewJWTService("s", "i"), f.Users)
	f.Engine.GET("/api/auth/me", h.Me)

	w := f.Do(t, http.MethodGet, "/api/auth/me", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := handlertest.Decode[map[string]any](t, w)
	assert.Equal(t, "anonymousUser", body["username"])
	assert.Equal(t, false, body["authenticated"])

	w = f.Do(t, http.MethodGet, "/api/auth/me", "user", nil)
	body = handlertest.Decode[map[string]any](t, w)
	assert.Equal(t, true, body["authenticated"])
}
